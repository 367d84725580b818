package store

import (
	"context"
	"errors"
	"time"

	"scholargraph/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist.
	ErrNotFound = errors.New("not found")
)

// Store persists documents, chunks, and their relationships, and exposes the
// vector-similarity and full-text query primitives the retrieval layer is
// built on. All writes affecting a single document go through a transaction
// so readers never observe a half-written document.
type Store interface {
	// Document operations. UpsertDocument inserts a new document or updates
	// the one registered for the same source path. priorFingerprint guards
	// the update: when another writer committed a different fingerprint
	// since the caller read the document, the write is rejected with
	// types.ErrWriteConflict and nothing is modified.
	UpsertDocument(ctx context.Context, doc *types.Document, priorFingerprint string) error
	GetDocumentBySource(ctx context.Context, sourcePath string) (*types.Document, error)
	GetDocumentByDocID(ctx context.Context, docID string) (*types.Document, error)
	ListDocuments(ctx context.Context, latestOnly bool) ([]*types.Document, error)

	// Chunk operations. ReplaceChunks removes any prior chunk set for the
	// document and installs the new one, wiring the NEXT_CHUNK chain in
	// sequence order and storing embeddings where present.
	ReplaceChunks(ctx context.Context, documentID int64, chunks []types.Chunk, provider, model string) error
	ListChunksByDocument(ctx context.Context, documentID int64) ([]*types.Chunk, error)
	GetChunkWithDocument(ctx context.Context, chunkID int64) (*types.Chunk, *types.Document, error)

	// Search primitives. Results are restricted to latest-version documents
	// unless the filters say otherwise.
	SearchVector(ctx context.Context, vector []float32, limit int, filters *SearchFilters) ([]VectorResult, error)
	SearchText(ctx context.Context, query string, limit int, filters *SearchFilters) ([]TextResult, error)

	// Versioning. RecordSupersession atomically creates the SUPERSEDES edge
	// newer -> older, flips the older document to superseded, and sets the
	// newer document's version to older.version+1.
	RecordSupersession(ctx context.Context, newerDocID, olderDocID, reason string) error
	ListSupersessions(ctx context.Context) ([]*types.Supersession, error)
	SupersessionSummary(ctx context.Context) (*SupersessionSummary, error)

	// Topic annotation (auxiliary metadata).
	LinkTopic(ctx context.Context, documentID int64, topic string, confidence float64) error
	ListTopics(ctx context.Context, documentID int64) ([]TopicLink, error)

	// Metadata key/value (e.g. the embedding dimension fixed at init).
	SetMeta(ctx context.Context, key, value string) error
	GetMeta(ctx context.Context, key string) (string, error)

	// Stats reports corpus-level counters for the stats command.
	Stats(ctx context.Context) (*Stats, error)

	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx is a transactional view of the store.
type Tx interface {
	Commit() error
	Rollback() error
	Store
}

// SearchFilters narrows search results.
type SearchFilters struct {
	// IncludeSuperseded lifts the default latest-version-only restriction.
	IncludeSuperseded bool
	// PublishedAfter keeps only documents published on or after the given
	// time. Documents without a publication date are excluded by the filter.
	PublishedAfter *time.Time
	// MinScore drops results below the given final score. The store's
	// search primitives ignore it; the search layer applies it after fusion.
	MinScore float64
}

// VectorResult is one hit from the vector-similarity primitive. Similarity is
// raw cosine similarity in [-1, 1].
type VectorResult struct {
	ChunkID    int64
	Similarity float64
}

// TextResult is one hit from the full-text primitive. Relevance is a raw
// positive score where higher is better; normalisation happens in the search
// layer against the batch maximum.
type TextResult struct {
	ChunkID   int64
	Relevance float64
}

// TopicLink is a confidence-scored topic annotation on a document.
type TopicLink struct {
	Topic      string
	Confidence float64
}

// SupersessionSummary describes the version state of the corpus.
type SupersessionSummary struct {
	TotalDocuments     int `json:"total_documents"`
	LatestVersions     int `json:"latest_versions"`
	SupersededVersions int `json:"superseded_versions"`
	SupersessionEdges  int `json:"supersession_relationships"`
}

// Stats contains corpus-level counters.
type Stats struct {
	Documents       int     `json:"documents"`
	LatestDocuments int     `json:"latest_documents"`
	Chunks          int     `json:"chunks"`
	Embeddings      int     `json:"embeddings"`
	Topics          int     `json:"topics"`
	Supersessions   int     `json:"supersessions"`
	DatabaseSizeMB  float64 `json:"database_size_mb"`
	Dimension       int     `json:"embedding_dimension,omitempty"`
}

// MetaDimension is the meta key recording the embedding dimension chosen at
// init time.
const MetaDimension = "embedding_dimension"
