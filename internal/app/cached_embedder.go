package app

import (
	"context"

	"github.com/rs/zerolog"

	"concierge/internal/metrics"
)

// CachedEmbedder serves repeated inputs from an EmbeddingCache. Cache errors
// are logged and fall through to the wrapped embedder.
type CachedEmbedder struct {
	next    Embedder
	cache   EmbeddingCache
	log     zerolog.Logger
	metrics *metrics.Metrics
}

func NewCachedEmbedder(next Embedder, cache EmbeddingCache, log zerolog.Logger, m *metrics.Metrics) *CachedEmbedder {
	return &CachedEmbedder{next: next, cache: cache, log: log, metrics: m}
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, ok, err := c.cache.GetEmbedding(ctx, text)
	switch {
	case err != nil:
		c.log.Warn().Err(err).Msg("embedding cache get failed")
		c.metrics.EmbeddingCache("error")
	case ok:
		c.metrics.EmbeddingCache("hit")
		return vec, nil
	default:
		c.metrics.EmbeddingCache("miss")
	}

	vec, err = c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SetEmbedding(ctx, text, vec); err != nil {
		c.log.Warn().Err(err).Msg("embedding cache set failed")
	}
	return vec, nil
}
