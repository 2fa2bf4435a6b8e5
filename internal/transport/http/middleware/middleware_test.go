package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"concierge/internal/pkg/jwtutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.POST("/answer", func(c *gin.Context) { c.String(http.StatusOK, "answered") })
	r.GET("/admin", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextSubjectKey)) })
	return r
}

func TestCORSPreflight(t *testing.T) {
	r := newEngine(CORS())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/answer", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "authorization, x-client-info, apikey, content-type", w.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORSHeadersOnRegularRequest(t *testing.T) {
	r := newEngine(CORS())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/answer", nil))

	assert.Equal(t, "answered", w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLoggerSetsID(t *testing.T) {
	r := newEngine(RequestLogger(zerolog.Nop(), nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/answer", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodPost, "/answer", nil)
	req.Header.Set(RequestIDHeader, "6a2f41a3-c54c-fce8-32d2-0324e1c32e22")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "6a2f41a3-c54c-fce8-32d2-0324e1c32e22", w.Header().Get(RequestIDHeader))
}

func TestRateLimit(t *testing.T) {
	r := newEngine(RateLimit(0.001, 1))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/answer", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/answer", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestAuthJWT(t *testing.T) {
	r := newEngine(AuthJWT("secret", "admin"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := jwtutil.GenerateToken("secret", time.Hour, "ops", "admin")
	assert.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ops", w.Body.String())

	wrongScope, err := jwtutil.GenerateToken("secret", time.Hour, "ops", "reader")
	assert.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+wrongScope)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
