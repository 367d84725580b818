package types

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// DocumentState tracks where a document sits in its version chain.
// Exactly one document per chain is Active; everything else is Superseded.
type DocumentState string

const (
	// DocumentActive marks the authoritative version of a document.
	DocumentActive DocumentState = "active"
	// DocumentSuperseded marks a version replaced by a newer ingestion.
	DocumentSuperseded DocumentState = "superseded"
)

// Document represents an ingested paper or write-up. Documents are never
// deleted; a newer version supersedes an older one via a SUPERSEDES edge.
type Document struct {
	ID          int64
	DocID       string // Stable external identifier (UUID)
	Title       string
	Authors     []string
	PublishedAt *time.Time // Nullable - many sources carry no date
	SourcePath  string
	DOI         string
	Fingerprint string
	State       DocumentState
	Version     int // Starts at 1, incremented on supersession
	IngestedAt  time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsLatest reports whether this document is the authoritative version of its
// chain.
func (d *Document) IsLatest() bool {
	return d.State == DocumentActive
}

// Validate checks document invariants before storage.
func (d *Document) Validate() error {
	if d.DocID == "" {
		return errors.New("document id is required")
	}
	if d.Title == "" {
		return errors.New("document title is required")
	}
	if d.SourcePath == "" {
		return errors.New("document source path is required")
	}
	if d.Version < 1 {
		return errors.New("document version must be at least 1")
	}
	switch d.State {
	case DocumentActive, DocumentSuperseded:
	default:
		return errors.New("invalid document state")
	}
	return nil
}

// Fingerprint computes the content fingerprint used for change detection.
// The hash covers content only: modification times are too coarse on some
// filesystems and flip on touch without a content change.
func Fingerprint(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

// Supersession records a SUPERSEDES edge from a newer document to the older
// one it replaces.
type Supersession struct {
	ID         int64
	NewerDocID string
	OlderDocID string
	Reason     string
	DetectedAt time.Time
}

// Topic is auxiliary metadata derived during ingestion. Topics are linked
// from documents with a confidence score and are not required for retrieval
// correctness.
type Topic struct {
	ID   int64
	Name string
}
