package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"concierge/internal/metrics"
	"concierge/internal/model"
)

// Document is caller-supplied material a description is written from.
type Document struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	URL     string `json:"url"`
}

type DescribeInput struct {
	Keyword   string     `json:"keyword"`
	Documents []Document `json:"documents"`
	URL       string     `json:"url"`
}

type DescriptionResult struct {
	Text                string                 `json:"text"`
	KickstartDSSections []model.MatchedSection `json:"kickstartdsSections,omitempty"`
	ExternalSections    []model.MatchedSection `json:"externalSections,omitempty"`
}

type DescriptionServiceConfig struct {
	Prompt PromptTemplate
	// EmbeddingInput is embedded instead of the bare keyword; {{keyword}} is filled.
	EmbeddingInput string
	Retrieval      RetrievalSettings
	Completion     CompletionSettings
	Timeouts       Timeouts
}

type DescriptionService struct {
	stages
	store DescriptionStore
	cfg   DescriptionServiceConfig
	now   func() time.Time
}

func NewDescriptionService(
	moderator Moderator,
	embedder Embedder,
	searcher SectionSearcher,
	completer Completer,
	tokenizer Tokenizer,
	store DescriptionStore,
	cfg DescriptionServiceConfig,
	log zerolog.Logger,
	m *metrics.Metrics,
) *DescriptionService {
	return &DescriptionService{
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
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Describe returns the stored description for the url when one exists and
// otherwise writes a new one from the documents and both section corpora.
func (s *DescriptionService) Describe(ctx context.Context, in DescribeInput) (*DescriptionResult, error) {
	log := s.log.With().Str("identifier", RequestIdentifier(in.Keyword)).Logger()

	if in.URL == "" {
		return nil, NewUserError("Missing url in request data", nil)
	}

	cached, err := s.store.FindByURL(ctx, in.URL)
	if err != nil {
		log.Warn().Err(err).Str("url", in.URL).Msg("lookup cached description failed")
	}
	if err == nil && cached != nil {
		log.Debug().Str("url", in.URL).Msg("returning cached description")
		return cachedResult(cached), nil
	}

	if in.Keyword == "" {
		return nil, NewUserError("Missing keyword in request data", nil)
	}
	if len(in.Documents) == 0 {
		return nil, NewUserError("Missing documents in request data", nil)
	}

	keyword := SanitizeInput(in.Keyword)
	if err := s.moderate(ctx, keyword); err != nil {
		return nil, err
	}

	embedding, err := s.embed(ctx, FillKeyword(s.cfg.EmbeddingInput, keyword), "Failed to create embedding for keyword")
	if err != nil {
		return nil, err
	}

	kickstartds, err := s.search(ctx, embedding, s.cfg.Retrieval, model.CorpusKickstartDS)
	if err != nil {
		return nil, NewApplicationError("Failed to match kickstartDS page sections", err)
	}
	if len(kickstartds) == 0 {
		return nil, NewUserError("Failed to find relevant kickstartDS page sections", nil)
	}
	external, err := s.search(ctx, embedding, s.cfg.Retrieval, model.CorpusExternal)
	if err != nil {
		return nil, NewApplicationError("Failed to match external page sections", err)
	}
	if len(external) == 0 {
		return nil, NewUserError("Failed to find relevant external page sections", nil)
	}

	window, err := AssembleContext(documentTexts(in.Documents), s.cfg.Retrieval.MaxContextTokens, s.tokenizer)
	if err != nil {
		return nil, NewApplicationError("Failed to assemble context", err)
	}
	prompt := BuildPrompt(s.cfg.Prompt.WithKeyword(keyword), window.Text, keyword)
	if n, err := s.tokenizer.Count(prompt); err == nil {
		s.metrics.ObserveTokens(window.Tokens, n)
		log.Debug().Int("context_tokens", window.Tokens).Int("prompt_tokens", n).Msg("description prompt built")
	}

	text, err := s.complete(ctx, prompt)
	if err != nil {
		return nil, NewApplicationError("Failed to generate completion", err)
	}

	if err := s.persist(ctx, in.URL, text, embedding, kickstartds, external); err != nil {
		log.Error().Err(err).Msg("persist description failed")
		return nil, err
	}

	return &DescriptionResult{
		Text:                text,
		KickstartDSSections: kickstartds,
		ExternalSections:    external,
	}, nil
}

func (s *DescriptionService) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, s.timeouts.Completion)
	defer cancel()
	started := time.Now()
	text, err := s.completer.Complete(ctx, CompletionRequest{
		Prompt:      prompt,
		MaxTokens:   s.cfg.Completion.MaxTokens,
		Temperature: s.cfg.Completion.Temperature,
	})
	s.metrics.ObserveStage("completion", started, err)
	return text, err
}

func (s *DescriptionService) persist(ctx context.Context, url, text string, embedding []float32, kickstartds, external []model.MatchedSection) error {
	ctx, cancel := withTimeout(ctx, s.timeouts.Persistence)
	defer cancel()

	ts := s.now().UTC()
	description := &model.Description{
		CreatedAt: ts,
		UpdatedAt: ts,
		URL:       url,
		Text:      text,
		Embedding: model.Embedding(embedding),
	}
	if err := s.store.CreateDescription(ctx, description); err != nil {
		return NewApplicationError("Failed to insert description into DB", err)
	}
	if description.ID == 0 {
		return nil
	}

	kLinks := make([]model.DescriptionSection, 0, len(kickstartds))
	for _, sec := range kickstartds {
		kLinks = append(kLinks, model.DescriptionSection{DescriptionID: description.ID, SectionID: sec.ID, Similarity: sec.Similarity})
	}
	if err := s.store.CreateKickstartDSLinks(ctx, kLinks); err != nil {
		return NewApplicationError("Failed to insert kickstartds sections into DB", err)
	}

	eLinks := make([]model.ExternalSectionLink, 0, len(external))
	for _, sec := range external {
		eLinks = append(eLinks, model.ExternalSectionLink{DescriptionID: description.ID, SectionID: sec.ID, Similarity: sec.Similarity})
	}
	if err := s.store.CreateExternalLinks(ctx, eLinks); err != nil {
		return NewApplicationError("Failed to insert external sections into DB", err)
	}
	return nil
}

func documentTexts(docs []Document) []string {
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = fmt.Sprintf(
			"Type of document #%d: %s\nTitle of document #%d: %s\nExcerpt of the content of document #%d: %s\nURL for document #%d: %s\n\n",
			i, d.Type, i, d.Title, i, d.Excerpt, i, d.URL,
		)
	}
	return texts
}

func cachedResult(d *model.Description) *DescriptionResult {
	result := &DescriptionResult{Text: d.Text}
	for _, link := range d.KickstartDSSections {
		if link.Section != nil {
			result.KickstartDSSections = append(result.KickstartDSSections, model.MatchedSection{Section: *link.Section, Similarity: link.Similarity})
		}
	}
	for _, link := range d.ExternalSections {
		if link.Section != nil {
			result.ExternalSections = append(result.ExternalSections, model.MatchedSection{Section: *link.Section, Similarity: link.Similarity})
		}
	}
	return result
}
