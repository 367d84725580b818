// Package store provides SQLite-backed persistence for documents, chunks,
// embeddings, and supersession relationships.
//
// Two build configurations are supported. The default pure Go build uses
// modernc.org/sqlite and computes vector similarity in Go. Building with
// CGO and the sqlite_vec tag uses github.com/mattn/go-sqlite3 and ranks
// vectors inside SQLite via the sqlite-vec extension. Full-text search is
// provided by an FTS5 index kept in sync with the chunks table by triggers.
package store
