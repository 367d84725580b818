package types

import "errors"

// Sentinel errors shared across the ingestion and retrieval pipeline.
var (
	// ErrEmptyDocument signals a document whose extracted text contains no
	// words. It is a per-file condition, not a batch abort.
	ErrEmptyDocument = errors.New("empty document")

	// ErrUnsupportedFormat signals a source file the extractor cannot read.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrEmbeddingUnavailable signals that both the preferred and fallback
	// embedding backends failed. Ingestion proceeds without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding backends unavailable")

	// ErrWriteConflict signals that a concurrent ingestion of the same
	// source path committed first. The whole document ingest may be retried.
	ErrWriteConflict = errors.New("concurrent write conflict")
)
