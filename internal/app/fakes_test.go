package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"concierge/internal/model"
)

// wordTokenizer counts whitespace separated words.
type wordTokenizer struct{}

func (wordTokenizer) Count(text string) (int, error) { return len(strings.Fields(text)), nil }

// fixedTokenizer returns a preset count per exact input.
type fixedTokenizer map[string]int

func (f fixedTokenizer) Count(text string) (int, error) {
	n, ok := f[text]
	if !ok {
		return 0, errors.New("unexpected text")
	}
	return n, nil
}

type sliceSource struct {
	frags  []Fragment
	err    error // returned after frags instead of io.EOF
	pos    int
	closed bool
}

func newSource(texts ...string) *sliceSource {
	s := &sliceSource{}
	for _, t := range texts {
		s.frags = append(s.frags, Fragment{Text: t, Raw: []byte(`{"choices":[{"text":"` + t + `"}]}`)})
	}
	return s
}

func (s *sliceSource) Recv() (Fragment, error) {
	if s.closed {
		return Fragment{}, errors.New("recv on closed source")
	}
	if s.pos < len(s.frags) {
		f := s.frags[s.pos]
		s.pos++
		return f, nil
	}
	if s.err != nil {
		return Fragment{}, s.err
	}
	return Fragment{}, io.EOF
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

type fakeModerator struct {
	result ModerationResult
	err    error
	inputs []string
}

func (m *fakeModerator) Moderate(_ context.Context, text string) (ModerationResult, error) {
	m.inputs = append(m.inputs, text)
	return m.result, m.err
}

type fakeEmbedder struct {
	vec    []float32
	err    error
	inputs []string
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.inputs = append(e.inputs, text)
	if e.err != nil {
		return nil, e.err
	}
	return e.vec, nil
}

type searchCall struct {
	threshold float64
	count     int
	corpus    string
}

type fakeSearcher struct {
	byCorpus map[string][]model.MatchedSection
	err      error
	calls    []searchCall
}

func (s *fakeSearcher) Search(_ context.Context, _ []float32, threshold float64, count int, corpus string) ([]model.MatchedSection, error) {
	s.calls = append(s.calls, searchCall{threshold: threshold, count: count, corpus: corpus})
	if s.err != nil {
		return nil, s.err
	}
	return s.byCorpus[corpus], nil
}

type fakeCompleter struct {
	source    FragmentSource
	streamErr error
	text      string
	err       error
	requests  []CompletionRequest
}

func (c *fakeCompleter) Stream(_ context.Context, req CompletionRequest) (FragmentSource, error) {
	c.requests = append(c.requests, req)
	if c.streamErr != nil {
		return nil, c.streamErr
	}
	return c.source, nil
}

func (c *fakeCompleter) Complete(_ context.Context, req CompletionRequest) (string, error) {
	c.requests = append(c.requests, req)
	return c.text, c.err
}

type fakeAnswerStore struct {
	nextID    uint
	createErr error
	linkErr   error
	records   []model.AnswerRecord
	links     [][]model.SectionLink
	atomic    int
}

func (s *fakeAnswerStore) CreateAnswer(_ context.Context, record *model.AnswerRecord) error {
	if s.createErr != nil {
		return s.createErr
	}
	record.ID = s.nextID
	s.records = append(s.records, *record)
	return nil
}

func (s *fakeAnswerStore) CreateSectionLinks(_ context.Context, links []model.SectionLink) error {
	if s.linkErr != nil {
		return s.linkErr
	}
	s.links = append(s.links, links)
	return nil
}

func (s *fakeAnswerStore) CreateAnswerWithLinks(ctx context.Context, record *model.AnswerRecord, links []model.SectionLink) error {
	s.atomic++
	if err := s.CreateAnswer(ctx, record); err != nil {
		return err
	}
	for i := range links {
		links[i].QuestionID = record.ID
	}
	return s.CreateSectionLinks(ctx, links)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []model.AnswerRecordedEvent
	err    error
}

func (p *fakePublisher) PublishAnswerRecorded(_ context.Context, event model.AnswerRecordedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func matched(id uint, url string, sim float64, content string) model.MatchedSection {
	return model.MatchedSection{
		Section:    model.Section{ID: id, PageURL: url, Content: content},
		Similarity: sim,
	}
}
