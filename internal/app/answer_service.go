package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"concierge/internal/metrics"
	"concierge/internal/model"
)

type AnswerServiceConfig struct {
	Prompt     PromptTemplate
	Retrieval  RetrievalSettings
	Completion CompletionSettings
	Timeouts   Timeouts
	// FinalizeOnDisconnect keeps the completion alive after the caller leaves
	// and persists the answer once it finishes.
	FinalizeOnDisconnect bool
}

type AnswerService struct {
	stages
	finalizer *Finalizer
	cfg       AnswerServiceConfig
}

func NewAnswerService(
	moderator Moderator,
	embedder Embedder,
	searcher SectionSearcher,
	completer Completer,
	tokenizer Tokenizer,
	finalizer *Finalizer,
	cfg AnswerServiceConfig,
	log zerolog.Logger,
	m *metrics.Metrics,
) *AnswerService {
	return &AnswerService{
		stages: stages{
			moderator: moderator,
			embedder:  embedder,
			searcher:  searcher,
			completer: completer,
			tokenizer: tokenizer,
			timeouts:  cfg.Timeouts,
			log:       log,
			metrics:   m,
		},
		finalizer: finalizer,
		cfg:       cfg,
	}
}

// AnswerStream is a prepared answer: the sections that built the context and
// the relay that yields completion fragments.
type AnswerStream struct {
	Identifier   string
	Sections     []model.MatchedSection
	Prompt       string
	PromptLength int
	Relay        *Relay
}

// Answer runs moderation, embedding, retrieval, context assembly and prompt
// construction, then opens the completion stream. Every failure before the
// first fragment is returned here; later failures surface through the relay.
func (s *AnswerService) Answer(ctx context.Context, rawQuestion string) (*AnswerStream, error) {
	identifier := RequestIdentifier(rawQuestion)
	log := s.log.With().Str("identifier", identifier).Logger()

	if rawQuestion == "" {
		return nil, NewUserError("Missing query in request data", nil)
	}
	question := SanitizeInput(rawQuestion)
	if question == "" {
		return nil, NewUserError("Missing query in request data", nil)
	}

	if err := s.moderate(ctx, question); err != nil {
		return nil, err
	}

	embedding, err := s.embed(ctx, question, "Failed to create embedding for question")
	if err != nil {
		return nil, err
	}

	sections, err := s.search(ctx, embedding, s.cfg.Retrieval, model.CorpusDefault)
	if err != nil {
		return nil, NewApplicationError("Failed to match page sections", err)
	}
	if len(sections) == 0 {
		return nil, NewUserError("Failed to find relevant page sections", nil)
	}

	window, err := AssembleContext(sectionTexts(sections), s.cfg.Retrieval.MaxContextTokens, s.tokenizer)
	if err != nil {
		return nil, NewApplicationError("Failed to assemble context", err)
	}

	prompt := BuildPrompt(s.cfg.Prompt, window.Text, question)
	promptTokens, err := s.tokenizer.Count(prompt)
	if err != nil {
		return nil, NewApplicationError("Failed to count prompt tokens", err)
	}
	s.metrics.ObserveTokens(window.Tokens, promptTokens)
	log.Debug().
		Int("sections", len(sections)).
		Int("context_sections", window.Included).
		Int("context_tokens", window.Tokens).
		Int("prompt_tokens", promptTokens).
		Msg("prompt built")

	source, err := s.openStream(ctx, prompt)
	if err != nil {
		return nil, NewApplicationError("Failed to generate completion", err)
	}

	finalize := func(fctx context.Context, answer string) error {
		pctx, cancel := withTimeout(context.WithoutCancel(fctx), s.timeouts.Persistence)
		defer cancel()
		started := time.Now()
		record, err := s.finalizer.Finalize(pctx, FinalizeInput{
			Question:     question,
			Prompt:       prompt,
			PromptLength: promptTokens,
			Answer:       answer,
			Embedding:    embedding,
			Sections:     sections,
		})
		s.metrics.ObserveStage("persistence", started, err)
		if err != nil {
			log.Error().Err(err).Msg("persist answer failed")
			return err
		}
		log.Info().Uint("question_id", record.ID).Msg("answer stored")
		return nil
	}

	return &AnswerStream{
		Identifier:   identifier,
		Sections:     sections,
		Prompt:       prompt,
		PromptLength: promptTokens,
		Relay: NewRelay(source, finalize, RelayOptions{
			FinalizeOnDisconnect: s.cfg.FinalizeOnDisconnect,
			Metrics:              s.metrics,
		}),
	}, nil
}

// openStream detaches the completion from the caller's context when answers
// must survive a disconnect.
func (s *AnswerService) openStream(ctx context.Context, prompt string) (FragmentSource, error) {
	if s.cfg.FinalizeOnDisconnect {
		ctx = context.WithoutCancel(ctx)
	}
	ctx, cancel := withTimeout(ctx, s.timeouts.Completion)
	started := time.Now()
	source, err := s.completer.Stream(ctx, CompletionRequest{
		Prompt:      prompt,
		MaxTokens:   s.cfg.Completion.MaxTokens,
		Temperature: s.cfg.Completion.Temperature,
	})
	s.metrics.ObserveStage("completion_open", started, err)
	if err != nil {
		cancel()
		return nil, err
	}
	return &cancelOnClose{FragmentSource: source, cancel: cancel}, nil
}

type cancelOnClose struct {
	FragmentSource
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.FragmentSource.Close()
	c.cancel()
	return err
}
