package app

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	data   map[string][]float32
	getErr error
}

func (m *mapCache) GetEmbedding(_ context.Context, text string) ([]float32, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[text]
	return v, ok, nil
}

func (m *mapCache) SetEmbedding(_ context.Context, text string, v []float32) error {
	m.data[text] = v
	return nil
}

func TestCachedEmbedderHitAndMiss(t *testing.T) {
	next := &fakeEmbedder{vec: []float32{1, 2}}
	cache := &mapCache{data: map[string][]float32{}}
	e := NewCachedEmbedder(next, cache, zerolog.Nop(), nil)

	v, err := e.Embed(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, v)

	v, err = e.Embed(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, v)
	assert.Len(t, next.inputs, 1)
}

func TestCachedEmbedderCacheErrorFallsThrough(t *testing.T) {
	next := &fakeEmbedder{vec: []float32{3}}
	cache := &mapCache{data: map[string][]float32{}, getErr: errors.New("redis down")}
	e := NewCachedEmbedder(next, cache, zerolog.Nop(), nil)

	v, err := e.Embed(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []float32{3}, v)
}
