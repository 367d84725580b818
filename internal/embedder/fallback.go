package embedder

import (
	"context"
	"fmt"
	"log"

	"scholargraph/pkg/types"
)

// Fallback wraps a preferred backend and a fallback backend. When the
// preferred backend is unreachable or times out, the fallback is used
// transparently. Only when both fail does the operation fail, with
// types.ErrEmbeddingUnavailable, which the ingestion pipeline treats as
// "proceed without embeddings".
type Fallback struct {
	preferred Provider
	fallback  Provider
}

// NewFallback chains the two backends. The fallback may be nil, in which
// case preferred failures surface directly.
func NewFallback(preferred, fallback Provider) *Fallback {
	return &Fallback{preferred: preferred, fallback: fallback}
}

// EmbedBatch tries the preferred backend first, then the fallback.
func (f *Fallback) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := f.preferred.EmbedBatch(ctx, texts)
	if err == nil {
		return vectors, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if f.fallback == nil {
		return nil, fmt.Errorf("%w: %v", types.ErrEmbeddingUnavailable, err)
	}

	log.Printf("embedder: %s failed (%v), falling back to %s", f.preferred.Name(), err, f.fallback.Name())

	vectors, ferr := f.fallback.EmbedBatch(ctx, texts)
	if ferr != nil {
		return nil, fmt.Errorf("%w: preferred: %v; fallback: %v", types.ErrEmbeddingUnavailable, err, ferr)
	}
	return vectors, nil
}

// Dimension returns the preferred backend's dimension; both backends are
// configured to the same dimension.
func (f *Fallback) Dimension() int { return f.preferred.Dimension() }

// Name identifies the chain.
func (f *Fallback) Name() string {
	if f.fallback == nil {
		return f.preferred.Name()
	}
	return f.preferred.Name() + "+" + f.fallback.Name()
}

// Close closes both backends.
func (f *Fallback) Close() error {
	err := f.preferred.Close()
	if f.fallback != nil {
		if ferr := f.fallback.Close(); err == nil {
			err = ferr
		}
	}
	return err
}
