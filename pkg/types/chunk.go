package types

import (
	"errors"
	"time"
)

// Chunk is the atomic unit of retrieval: a bounded, offset-tracked segment of
// a document's extracted text. Chunks within a document form a single chain
// ordered by Seq; StartOffset/EndOffset index into the original text so the
// source can be reconstructed from the chain.
type Chunk struct {
	ID          int64
	DocumentID  int64
	Seq         int // 0-based position within the document
	Content     string
	StartOffset int // Byte offset of the first word in the source text
	EndOffset   int // Byte offset one past the chunk's last byte
	WordCount   int
	Embedding   []float32 // Optional - nil when embedding was unavailable
	CreatedAt   time.Time
}

// Validate checks chunk invariants before storage.
func (c *Chunk) Validate() error {
	if c.Content == "" {
		return errors.New("chunk content cannot be empty")
	}
	if c.Seq < 0 {
		return errors.New("chunk sequence index cannot be negative")
	}
	if c.StartOffset < 0 || c.EndOffset <= c.StartOffset {
		return errors.New("chunk offsets must be non-negative and increasing")
	}
	if c.WordCount <= 0 {
		return errors.New("chunk word count must be positive")
	}
	return nil
}
