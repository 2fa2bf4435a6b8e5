package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"concierge/internal/model"
)

// FinalizeInput carries everything an answer record is built from.
type FinalizeInput struct {
	Question     string
	Prompt       string
	PromptLength int
	Answer       string
	Embedding    []float32
	Sections     []model.MatchedSection
}

// Finalizer stores a completed answer with one link per context section and
// then announces it on the event publisher.
type Finalizer struct {
	store     AnswerStore
	publisher AnswerEventPublisher
	atomic    bool
	now       func() time.Time
	log       zerolog.Logger
}

type FinalizerOption func(*Finalizer)

// WithAtomicPersistence writes the record and its links in one transaction.
func WithAtomicPersistence(atomic bool) FinalizerOption {
	return func(f *Finalizer) { f.atomic = atomic }
}

// WithEventPublisher sets the publisher notified after a successful write.
func WithEventPublisher(p AnswerEventPublisher) FinalizerOption {
	return func(f *Finalizer) { f.publisher = p }
}

func WithClock(now func() time.Time) FinalizerOption {
	return func(f *Finalizer) { f.now = now }
}

func NewFinalizer(store AnswerStore, log zerolog.Logger, opts ...FinalizerOption) *Finalizer {
	f := &Finalizer{store: store, now: time.Now, log: log}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Finalizer) Finalize(ctx context.Context, in FinalizeInput) (*model.AnswerRecord, error) {
	ts := f.now().UTC()
	record := &model.AnswerRecord{
		CreatedAt:    ts,
		UpdatedAt:    ts,
		Question:     in.Question,
		Prompt:       in.Prompt,
		PromptLength: in.PromptLength,
		Answer:       NormalizeAnswer(in.Answer),
		Embedding:    model.Embedding(in.Embedding),
	}

	if f.atomic {
		if err := f.store.CreateAnswerWithLinks(ctx, record, sectionLinks(0, in.Sections)); err != nil {
			return nil, NewApplicationError("Failed to insert question into DB", err)
		}
	} else {
		if err := f.store.CreateAnswer(ctx, record); err != nil {
			return nil, NewApplicationError("Failed to insert question into DB", err)
		}
		if record.ID == 0 {
			f.log.Warn().Msg("answer record stored without id, skipping section links")
			return record, nil
		}
		if err := f.store.CreateSectionLinks(ctx, sectionLinks(record.ID, in.Sections)); err != nil {
			return nil, NewApplicationError("Failed to insert answer sections into DB", err)
		}
	}

	f.publish(ctx, record, in.Sections)
	return record, nil
}

func (f *Finalizer) publish(ctx context.Context, record *model.AnswerRecord, sections []model.MatchedSection) {
	if f.publisher == nil {
		return
	}
	event := model.AnswerRecordedEvent{
		QuestionID: record.ID,
		RecordedAt: record.CreatedAt,
		Sections:   make([]model.AnswerEventSection, 0, len(sections)),
	}
	for _, s := range sections {
		event.Sections = append(event.Sections, model.AnswerEventSection{
			SectionID:  s.ID,
			PageURL:    s.PageURL,
			Similarity: s.Similarity,
		})
	}
	if err := f.publisher.PublishAnswerRecorded(ctx, event); err != nil {
		f.log.Warn().Err(err).Uint("question_id", record.ID).Msg("publish answer event failed")
	}
}

// sectionLinks keeps the context order of sections.
func sectionLinks(questionID uint, sections []model.MatchedSection) []model.SectionLink {
	links := make([]model.SectionLink, 0, len(sections))
	for _, s := range sections {
		links = append(links, model.SectionLink{
			QuestionID: questionID,
			SectionID:  s.ID,
			Similarity: s.Similarity,
		})
	}
	return links
}
