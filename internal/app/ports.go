package app

import (
	"context"

	"concierge/internal/model"
)

// Tokenizer counts tokens with the encoding the completion model uses.
type Tokenizer interface {
	Count(text string) (int, error)
}

type ModerationResult struct {
	Flagged    bool            `json:"flagged"`
	Categories map[string]bool `json:"categories"`
}

type Moderator interface {
	Moderate(ctx context.Context, text string) (ModerationResult, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder is implemented by embedders that accept several inputs per call.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// SectionSearcher returns at most count sections of the given corpus whose
// similarity to embedding exceeds threshold, most similar first.
type SectionSearcher interface {
	Search(ctx context.Context, embedding []float32, threshold float64, count int, corpus string) ([]model.MatchedSection, error)
}

type CompletionRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float32
}

type Completer interface {
	Stream(ctx context.Context, req CompletionRequest) (FragmentSource, error)
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type AnswerStore interface {
	CreateAnswer(ctx context.Context, record *model.AnswerRecord) error
	CreateSectionLinks(ctx context.Context, links []model.SectionLink) error
	CreateAnswerWithLinks(ctx context.Context, record *model.AnswerRecord, links []model.SectionLink) error
}

type DescriptionStore interface {
	// FindByURL returns nil without error when no description is cached for url.
	FindByURL(ctx context.Context, url string) (*model.Description, error)
	CreateDescription(ctx context.Context, description *model.Description) error
	CreateKickstartDSLinks(ctx context.Context, links []model.DescriptionSection) error
	CreateExternalLinks(ctx context.Context, links []model.ExternalSectionLink) error
}

type SectionWriter interface {
	CreateBatch(ctx context.Context, sections []model.Section) error
}

// AnswerEventPublisher delivers AnswerRecorded events asynchronously.
type AnswerEventPublisher interface {
	PublishAnswerRecorded(ctx context.Context, event model.AnswerRecordedEvent) error
}

// EmbeddingCache stores question embeddings keyed by their input text.
type EmbeddingCache interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, bool, error)
	SetEmbedding(ctx context.Context, text string, embedding []float32) error
}
