package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingServiceClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, `what's "this"?`, body["question"])
		_, _ = io.WriteString(w, `{"embedding":[0.25,-1]}`)
	}))
	defer srv.Close()

	c := NewEmbeddingServiceClient(srv.URL, nil)
	vec, err := c.Embed(context.Background(), `what's "this"?`)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -1}, vec)
}

func TestEmbeddingServiceClientNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = io.WriteString(w, `{"embedding":[1]}`)
	}))
	defer srv.Close()

	_, err := NewEmbeddingServiceClient(srv.URL, nil).Embed(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 202")
}

func TestEmbeddingServiceClientEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"embedding":[]}`)
	}))
	defer srv.Close()

	_, err := NewEmbeddingServiceClient(srv.URL, nil).Embed(context.Background(), "q")
	assert.Error(t, err)
}
