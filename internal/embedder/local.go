package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// LocalProvider computes embeddings without any network dependency. It hashes
// overlapping text windows into a fixed-dimension unit vector: crude compared
// to a real model, but deterministic, always available, and good enough to
// keep semantic search degraded rather than dead when the GPU rig is down.
type LocalProvider struct {
	dimension int
	cache     *Cache
}

// NewLocalProvider creates the locally computable fallback backend.
func NewLocalProvider(dimension int, cache *Cache) *LocalProvider {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &LocalProvider{dimension: dimension, cache: cache}
}

// EmbedBatch embeds each text deterministically.
func (l *LocalProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := validateBatch(texts); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hash := ComputeHash(text)
		if l.cache != nil {
			if v, ok := l.cache.Get(hash); ok {
				vectors[i] = v
				continue
			}
		}

		v := l.embed(text)
		vectors[i] = v
		if l.cache != nil {
			l.cache.Set(hash, v)
		}
	}

	return vectors, nil
}

// embed projects the text into the vector space by hashing 3-byte shingles
// into buckets, then normalizes to unit length so cosine scores stay
// comparable.
func (l *LocalProvider) embed(text string) []float32 {
	v := make([]float32, l.dimension)

	data := []byte(text)
	if len(data) < 3 {
		data = append(data, make([]byte, 3-len(data))...)
	}
	for i := 0; i+3 <= len(data); i++ {
		h := sha256.Sum256(data[i : i+3])
		bucket := int(binary.LittleEndian.Uint32(h[:4])) % l.dimension
		if bucket < 0 {
			bucket += l.dimension
		}
		sign := float32(1)
		if h[4]&1 == 1 {
			sign = -1
		}
		v[bucket] += sign
	}

	var sum float64
	for _, val := range v {
		sum += float64(val * val)
	}
	if sum == 0 {
		v[0] = 1
		return v
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
	return v
}

// Dimension returns the configured vector dimension.
func (l *LocalProvider) Dimension() int { return l.dimension }

// Name identifies the fallback backend.
func (l *LocalProvider) Name() string { return "local" }

// Close is a no-op for the local provider.
func (l *LocalProvider) Close() error { return nil }
