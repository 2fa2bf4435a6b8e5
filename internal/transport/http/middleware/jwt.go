package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"concierge/internal/pkg/jwtutil"
	"concierge/internal/transport/http/response"
)

const (
	ContextSubjectKey = "subject"
	ContextScopeKey   = "scope"
)

// AuthJWT accepts bearer tokens signed with secret. When scope is not empty the
// token must carry it.
func AuthJWT(secret, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "missing authorization header")
			c.Abort()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid authorization scheme")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}
		if scope != "" && claims.Scope != scope {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "token scope not allowed")
			c.Abort()
			return
		}

		c.Set(ContextSubjectKey, claims.Subject)
		c.Set(ContextScopeKey, claims.Scope)
		c.Next()
	}
}
