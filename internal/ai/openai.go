package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"concierge/internal/app"
)

const (
	ModeCompletion = "completion"
	ModeChat       = "chat"
)

var ErrEmptyCompletion = errors.New("completion returned no choices")

type OpenAIConfig struct {
	BaseURL         string
	APIKey          string
	Mode            string
	Model           string
	ModerationModel string
	EmbeddingModel  string
	HTTPClient      *http.Client
}

// OpenAIClient adapts go-openai to the moderation, completion and embedding
// collaborators of the answer pipeline.
type OpenAIClient struct {
	client *openai.Client
	cfg    OpenAIConfig
}

func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeCompletion
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(clientCfg), cfg: cfg}
}

func (c *OpenAIClient) Moderate(ctx context.Context, text string) (app.ModerationResult, error) {
	resp, err := c.client.Moderations(ctx, openai.ModerationRequest{
		Input: text,
		Model: c.cfg.ModerationModel,
	})
	if err != nil {
		return app.ModerationResult{}, fmt.Errorf("moderation request failed: %w", err)
	}
	if len(resp.Results) == 0 {
		return app.ModerationResult{}, errors.New("moderation returned no results")
	}
	result := resp.Results[0]
	categories, err := categoryMap(result.Categories)
	if err != nil {
		return app.ModerationResult{}, err
	}
	return app.ModerationResult{Flagged: result.Flagged, Categories: categories}, nil
}

// categoryMap flattens the typed category struct into its wire names.
func categoryMap(c openai.ResultCategories) (map[string]bool, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal moderation categories failed: %w", err)
	}
	out := map[string]bool{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse moderation categories failed: %w", err)
	}
	return out, nil
}

func (c *OpenAIClient) Stream(ctx context.Context, req app.CompletionRequest) (app.FragmentSource, error) {
	if c.cfg.Mode == ModeChat {
		stream, err := c.client.CreateChatCompletionStream(ctx, c.chatRequest(req, true))
		if err != nil {
			return nil, fmt.Errorf("open chat completion stream failed: %w", err)
		}
		return &chatSource{stream: stream}, nil
	}
	stream, err := c.client.CreateCompletionStream(ctx, c.completionRequest(req, true))
	if err != nil {
		return nil, fmt.Errorf("open completion stream failed: %w", err)
	}
	return &completionSource{stream: stream}, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, req app.CompletionRequest) (string, error) {
	if c.cfg.Mode == ModeChat {
		resp, err := c.client.CreateChatCompletion(ctx, c.chatRequest(req, false))
		if err != nil {
			return "", fmt.Errorf("chat completion request failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", ErrEmptyCompletion
		}
		return resp.Choices[0].Message.Content, nil
	}
	resp, err := c.client.CreateCompletion(ctx, c.completionRequest(req, false))
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Text, nil
}

func (c *OpenAIClient) completionRequest(req app.CompletionRequest, stream bool) openai.CompletionRequest {
	return openai.CompletionRequest{
		Model:       c.cfg.Model,
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: wireTemperature(req.Temperature),
		Stream:      stream,
	}
}

func (c *OpenAIClient) chatRequest(req app.CompletionRequest, stream bool) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: wireTemperature(req.Temperature),
		Stream:      stream,
	}
}

// wireTemperature keeps an explicit 0 on the wire; go-openai omits zero
// temperatures and the API then samples at its default of 1.
func wireTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

// Embed uses the embeddings endpoint; selected with embedding.provider = "openai".
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.cfg.EmbeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response has %d vectors for %d inputs", len(resp.Data), len(texts))
	}
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
