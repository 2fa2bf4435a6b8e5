package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concierge/internal/app"
)

func newTestClient(t *testing.T, mode string, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIClient(OpenAIConfig{
		BaseURL:         srv.URL + "/v1",
		APIKey:          "sk-test",
		Mode:            mode,
		Model:           "gpt-3.5-turbo-instruct",
		ModerationModel: "text-moderation-latest",
		EmbeddingModel:  "text-embedding-3-small",
	})
}

func TestModerateFlagged(t *testing.T) {
	var gotInput string
	c := newTestClient(t, ModeCompletion, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/moderations", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotInput, _ = body["input"].(string)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"modr-1","model":"text-moderation-007","results":[{"flagged":true,"categories":{"hate":true,"violence":false}}]}`)
	})

	result, err := c.Moderate(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, "some text", gotInput)
	assert.True(t, result.Flagged)
	assert.True(t, result.Categories["hate"])
	assert.False(t, result.Categories["violence"])
}

func TestModerateUpstreamError(t *testing.T) {
	c := newTestClient(t, ModeCompletion, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"rate limited","type":"requests"}}`)
	})

	_, err := c.Moderate(context.Background(), "x")
	require.Error(t, err)
}

func writeSSE(t *testing.T, w http.ResponseWriter, chunks ...string) {
	t.Helper()
	w.Header().Set("Content-Type", "text/event-stream")
	flusher, ok := w.(http.Flusher)
	require.True(t, ok)
	for _, c := range chunks {
		_, _ = fmt.Fprintf(w, "data: %s\n\n", c)
		flusher.Flush()
	}
	_, _ = io.WriteString(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func collect(t *testing.T, src app.FragmentSource) []app.Fragment {
	t.Helper()
	defer src.Close()
	var out []app.Fragment
	for {
		frag, err := src.Recv()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, frag)
	}
}

func TestStreamCompletionMode(t *testing.T) {
	c := newTestClient(t, ModeCompletion, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/completions", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-3.5-turbo-instruct", body["model"])
		assert.Equal(t, true, body["stream"])
		assert.EqualValues(t, 1200, body["max_tokens"])
		writeSSE(t, w,
			`{"id":"c1","object":"text_completion","choices":[{"text":"Hello","index":0}]}`,
			`{"id":"c1","object":"text_completion","choices":[{"text":" there","index":0}]}`,
		)
	})

	src, err := c.Stream(context.Background(), app.CompletionRequest{Prompt: "p", MaxTokens: 1200})
	require.NoError(t, err)

	frags := collect(t, src)
	require.Len(t, frags, 2)
	assert.Equal(t, "Hello", frags[0].Text)
	assert.Equal(t, " there", frags[1].Text)
	assert.Contains(t, string(frags[0].Raw), `"text":"Hello"`)
}

func TestStreamChatMode(t *testing.T) {
	c := newTestClient(t, ModeChat, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		writeSSE(t, w,
			`{"id":"x","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"role":"assistant","content":"Hi"}}]}`,
			`{"id":"x","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"!"}}]}`,
		)
	})

	src, err := c.Stream(context.Background(), app.CompletionRequest{Prompt: "p"})
	require.NoError(t, err)

	frags := collect(t, src)
	require.Len(t, frags, 2)
	assert.Equal(t, "Hi", frags[0].Text)
	assert.Equal(t, "!", frags[1].Text)
}

func TestCompleteCompletionMode(t *testing.T) {
	c := newTestClient(t, ModeCompletion, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c","object":"text_completion","choices":[{"text":"A description.","index":0}]}`)
	})

	text, err := c.Complete(context.Background(), app.CompletionRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "A description.", text)
}

func TestCompleteSendsZeroTemperature(t *testing.T) {
	for _, mode := range []string{ModeCompletion, ModeChat} {
		t.Run(mode, func(t *testing.T) {
			var body map[string]interface{}
			c := newTestClient(t, mode, func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				w.Header().Set("Content-Type", "application/json")
				if mode == ModeChat {
					_, _ = io.WriteString(w, `{"id":"c","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"ok"}}]}`)
					return
				}
				_, _ = io.WriteString(w, `{"id":"c","object":"text_completion","choices":[{"text":"ok","index":0}]}`)
			})

			_, err := c.Complete(context.Background(), app.CompletionRequest{Prompt: "p", MaxTokens: 1200, Temperature: 0})
			require.NoError(t, err)
			require.Contains(t, body, "temperature")
			assert.InDelta(t, 0, body["temperature"], 1e-6)
			assert.EqualValues(t, 1200, body["max_tokens"])
		})
	}
}

func TestWireTemperatureKeepsNonZero(t *testing.T) {
	assert.Equal(t, float32(0.7), wireTemperature(0.7))
	assert.NotZero(t, wireTemperature(0))
}

func TestCompleteNoChoices(t *testing.T) {
	c := newTestClient(t, ModeChat, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c","object":"chat.completion","choices":[]}`)
	})

	_, err := c.Complete(context.Background(), app.CompletionRequest{Prompt: "p"})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestEmbedBatchOrdersByIndex(t *testing.T) {
	c := newTestClient(t, ModeCompletion, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"object":"list","data":[{"object":"embedding","index":1,"embedding":[0.2]},{"object":"embedding","index":0,"embedding":[0.1]}]}`)
	})

	out, err := c.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.1}, {0.2}}, out)
}
