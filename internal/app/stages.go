package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"concierge/internal/metrics"
	"concierge/internal/model"
)

// Timeouts bound each upstream call. Zero disables the bound.
type Timeouts struct {
	Moderation  time.Duration
	Embedding   time.Duration
	Search      time.Duration
	Completion  time.Duration
	Persistence time.Duration
}

// RetrievalSettings configures the similarity search and the context budget.
type RetrievalSettings struct {
	Threshold        float64
	MatchCount       int
	MaxContextTokens int
}

// CompletionSettings are forwarded to the completion API unchanged.
type CompletionSettings struct {
	MaxTokens   int
	Temperature float32
}

// stages holds the collaborators shared by the answer and description flows.
type stages struct {
	moderator Moderator
	embedder  Embedder
	searcher  SectionSearcher
	completer Completer
	tokenizer Tokenizer
	timeouts  Timeouts
	log       zerolog.Logger
	metrics   *metrics.Metrics
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (s *stages) moderate(ctx context.Context, text string) error {
	ctx, cancel := withTimeout(ctx, s.timeouts.Moderation)
	defer cancel()
	started := time.Now()
	result, err := s.moderator.Moderate(ctx, text)
	s.metrics.ObserveStage("moderation", started, err)
	if err != nil {
		return NewApplicationError("Failed to moderate content", err)
	}
	if result.Flagged {
		return &UserError{
			Message: "Flagged content",
			Data: map[string]interface{}{
				"flagged":    true,
				"categories": result.Categories,
			},
		}
	}
	return nil
}

func (s *stages) embed(ctx context.Context, text, failure string) ([]float32, error) {
	ctx, cancel := withTimeout(ctx, s.timeouts.Embedding)
	defer cancel()
	started := time.Now()
	vec, err := s.embedder.Embed(ctx, text)
	s.metrics.ObserveStage("embedding", started, err)
	if err != nil {
		return nil, NewApplicationError(failure, err)
	}
	return vec, nil
}

func (s *stages) search(ctx context.Context, embedding []float32, rs RetrievalSettings, corpus string) ([]model.MatchedSection, error) {
	ctx, cancel := withTimeout(ctx, s.timeouts.Search)
	defer cancel()
	started := time.Now()
	sections, err := s.searcher.Search(ctx, embedding, rs.Threshold, rs.MatchCount, corpus)
	s.metrics.ObserveStage("search", started, err)
	return sections, err
}

func sectionTexts(sections []model.MatchedSection) []string {
	texts := make([]string, len(sections))
	for i, s := range sections {
		texts[i] = s.Content
	}
	return texts
}
