package cache

import (
	"context"
	"encoding/binary"
	"math"
	"time"
)

// EmbeddingCache wraps RedisCache for embedding vector storage, keeping
// repeat questions off the embedding server.
type EmbeddingCache struct {
	cache     *RedisCache
	keyPrefix string
	ttl       time.Duration
}

// NewEmbeddingCache creates a new embedding cache
func NewEmbeddingCache(cache *RedisCache, keyPrefix string, ttl time.Duration) *EmbeddingCache {
	return &EmbeddingCache{
		cache:     cache,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Get retrieves an embedding from cache
func (c *EmbeddingCache) Get(key string) ([]float32, bool) {
	ctx := context.Background()
	data, err := c.cache.client.Get(ctx, c.keyPrefix+key).Bytes()
	if err != nil {
		return nil, false
	}

	embedding := make([]float32, len(data)/4)
	for i := range embedding {
		bits := binary.LittleEndian.Uint32(data[i*4:])
		embedding[i] = math.Float32frombits(bits)
	}

	return embedding, true
}

// Set stores an embedding in cache
func (c *EmbeddingCache) Set(key string, value []float32, ttl time.Duration) {
	ctx := context.Background()

	data := make([]byte, len(value)*4)
	for i, f := range value {
		bits := math.Float32bits(f)
		binary.LittleEndian.PutUint32(data[i*4:], bits)
	}

	if ttl == 0 {
		ttl = c.ttl
	}

	c.cache.client.Set(ctx, c.keyPrefix+key, data, ttl)
}

// Close closes the underlying Redis connection
func (c *EmbeddingCache) Close() error {
	return c.cache.Close()
}
