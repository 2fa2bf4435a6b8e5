package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// EmbeddingCache keeps question embeddings in redis keyed by a hash of the
// embedding model and the input text.
type EmbeddingCache struct {
	client    *redisv9.Client
	namespace string
	ttl       time.Duration
}

func NewEmbeddingCache(client *redisv9.Client, namespace string, ttl time.Duration) *EmbeddingCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &EmbeddingCache{
		client:    client,
		namespace: namespace,
		ttl:       ttl,
	}
}

func (c *EmbeddingCache) GetEmbedding(ctx context.Context, text string) ([]float32, bool, error) {
	raw, err := c.client.Get(ctx, c.key(text)).Bytes()
	if errors.Is(err, redisv9.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get embedding failed: %w", err)
	}

	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached embedding failed: %w", err)
	}
	return vec, true, nil
}

func (c *EmbeddingCache) SetEmbedding(ctx context.Context, text string, embedding []float32) error {
	payload, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("marshal embedding cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.key(text), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set embedding failed: %w", err)
	}
	return nil
}

func (c *EmbeddingCache) key(text string) string {
	return keyFor(c.namespace, text)
}

func keyFor(namespace, text string) string {
	sum := sha256.Sum256([]byte(namespace + "\x00" + text))
	return "concierge:embedding:" + hex.EncodeToString(sum[:])
}
