package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Common errors
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrProviderFailed    = errors.New("embedding provider failed")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrBatchTooLarge     = errors.New("batch size exceeds limit")
)

const (
	// DefaultDimension matches the embedding model served by the GPU rig.
	DefaultDimension = 768

	// MaxBatchSize bounds one request to the embedding endpoint.
	MaxBatchSize = 100

	// Retry configuration: bounded exponential backoff, capped attempts.
	MaxAttempts       = 5
	InitialBackoffMs  = 100
	MaxBackoffMs      = 5000
	BackoffMultiplier = 2.0
)

// Provider turns a batch of texts into fixed-dimension vectors. Implementations
// must return exactly one vector per input text, each of Dimension() length.
type Provider interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Name() string
	Close() error
}

// Cache provides in-memory LRU caching of vectors keyed by content hash.
type Cache struct {
	cache *lru.Cache[string, []float32]
	hits  int
	miss  int
}

// NewCache creates an embedding cache with LRU eviction.
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = 10000
	}
	cache, err := lru.New[string, []float32](maxLen)
	if err != nil {
		// Only possible with a non-positive size.
		cache, _ = lru.New[string, []float32](10000)
	}
	return &Cache{cache: cache}
}

// Get returns a copy of the cached vector so caller mutations cannot pollute
// the cache.
func (c *Cache) Get(hash string) ([]float32, bool) {
	v, ok := c.cache.Get(hash)
	if !ok {
		c.miss++
		return nil, false
	}
	c.hits++
	out := make([]float32, len(v))
	copy(out, v)
	return out, true
}

// Set stores a vector; LRU eviction is automatic at capacity.
func (c *Cache) Set(hash string, v []float32) {
	c.cache.Add(hash, v)
}

// Size returns the number of cached vectors.
func (c *Cache) Size() int { return c.cache.Len() }

// Stats returns cache hit and miss counts since creation.
func (c *Cache) Stats() (hits, misses int) { return c.hits, c.miss }

// ComputeHash computes the SHA-256 cache key for a text.
func ComputeHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// validateBatch rejects empty batches and empty texts before hitting a
// backend.
func validateBatch(texts []string) error {
	if len(texts) == 0 {
		return fmt.Errorf("%w: no texts provided", ErrInvalidInput)
	}
	if len(texts) > MaxBatchSize {
		return fmt.Errorf("%w: max %d texts allowed", ErrBatchTooLarge, MaxBatchSize)
	}
	for i, text := range texts {
		if text == "" {
			return fmt.Errorf("%w: text at index %d is empty", ErrInvalidInput, i)
		}
	}
	return nil
}

// checkDimensions verifies the backend honoured the configured dimension.
func checkDimensions(vectors [][]float32, want, texts int) error {
	if len(vectors) != texts {
		return fmt.Errorf("%w: got %d vectors for %d texts", ErrProviderFailed, len(vectors), texts)
	}
	for i, v := range vectors {
		if len(v) != want {
			return fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrDimensionMismatch, i, len(v), want)
		}
	}
	return nil
}
