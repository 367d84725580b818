package types

import "time"

// SearchResult is one (document, chunk, score) tuple returned by search.
// The JSON field names form the stable query response schema.
type SearchResult struct {
	DocumentTitle string  `json:"document_title"`
	DocumentID    string  `json:"document_id"`
	ChunkText     string  `json:"chunk_text"`
	ChunkIndex    int     `json:"chunk_index"`
	Score         float64 `json:"score"`

	// Component scores, populated in hybrid mode.
	SemanticScore float64 `json:"semantic_score,omitempty"`
	KeywordScore  float64 `json:"keyword_score,omitempty"`

	// PublishedAt is carried for recency tie-breaking; omitted from JSON
	// when the source had no date.
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// IngestOutcome describes what happened to a single file during ingestion.
type IngestOutcome string

const (
	IngestSucceeded IngestOutcome = "succeeded"
	IngestSkipped   IngestOutcome = "skipped: unchanged"
	IngestFailed    IngestOutcome = "failed"
)

// IngestItem is the per-file line of a batch ingestion summary.
type IngestItem struct {
	Path    string        `json:"path"`
	Outcome IngestOutcome `json:"outcome"`
	Reason  string        `json:"reason,omitempty"`
	Chunks  int           `json:"chunks,omitempty"`

	// NoEmbeddings is set when both embedding backends failed and the
	// document was stored without vectors.
	NoEmbeddings bool `json:"no_embeddings,omitempty"`
}
