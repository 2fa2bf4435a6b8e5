package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hit struct {
	url string
	sim float64
	at  time.Time
}

type fakeRecorder struct {
	hits []hit
	err  error
}

func (f *fakeRecorder) RecordHit(_ context.Context, url string, sim float64, at time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.hits = append(f.hits, hit{url, sim, at})
	return nil
}

func TestHandleCountsEachPageOnce(t *testing.T) {
	rec := &fakeRecorder{}
	w := NewAnswerEventWorker(nil, rec, "q", zerolog.Nop(), nil)

	body := []byte(`{"question_id":42,"recorded_at":"2024-03-01T12:00:00Z","sections":[
		{"section_id":1,"page_url":"https://a","similarity":0.6},
		{"section_id":2,"page_url":"https://b","similarity":0.8},
		{"section_id":3,"page_url":"https://a","similarity":0.9}
	]}`)
	require.NoError(t, w.Handle(context.Background(), body))

	require.Len(t, rec.hits, 2)
	assert.Equal(t, "https://a", rec.hits[0].url)
	assert.InDelta(t, 0.9, rec.hits[0].sim, 1e-9)
	assert.Equal(t, "https://b", rec.hits[1].url)
	assert.True(t, rec.hits[0].at.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))
}

func TestHandleErrors(t *testing.T) {
	w := NewAnswerEventWorker(nil, &fakeRecorder{}, "q", zerolog.Nop(), nil)
	assert.Error(t, w.Handle(context.Background(), []byte("not json")))

	failing := NewAnswerEventWorker(nil, &fakeRecorder{err: errors.New("db")}, "q", zerolog.Nop(), nil)
	err := failing.Handle(context.Background(), []byte(`{"question_id":1,"sections":[{"page_url":"https://a"}]}`))
	assert.Error(t, err)
}

func TestCloseWithoutStart(t *testing.T) {
	w := NewAnswerEventWorker(nil, &fakeRecorder{}, "q", zerolog.Nop(), nil)
	w.Close()
}
