package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"scholargraph/pkg/types"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings.
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Open creates a new SQLite store, applying pending migrations.
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction.
func (s *SQLiteStore) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, store: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction.
type sqliteTx struct {
	tx    *sql.Tx
	store *SQLiteStore
}

func (t *sqliteTx) Commit() error   { return t.tx.Commit() }
func (t *sqliteTx) Rollback() error { return t.tx.Rollback() }

func (t *sqliteTx) querier() querier    { return t.tx }
func (s *SQLiteStore) querier() querier { return s.db }

// Document operations

const documentColumns = `id, doc_id, title, authors, published_at, source_path, doi,
       fingerprint, state, version, ingested_at, created_at, updated_at`

func (s *SQLiteStore) upsertDocumentWithQuerier(ctx context.Context, q querier, doc *types.Document, priorFingerprint string) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}

	authors, err := json.Marshal(doc.Authors)
	if err != nil {
		return fmt.Errorf("marshal authors: %w", err)
	}

	// The WHERE clause on the conflict update is the write-conflict guard:
	// if another writer committed a different fingerprint since the caller
	// read the document, no row is updated and the write is rejected.
	query := `
		INSERT INTO documents (doc_id, title, authors, published_at, source_path, doi,
		                       fingerprint, state, version, ingested_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_path) DO UPDATE SET
			title = excluded.title,
			authors = excluded.authors,
			published_at = excluded.published_at,
			doi = excluded.doi,
			fingerprint = excluded.fingerprint,
			ingested_at = excluded.ingested_at,
			updated_at = excluded.updated_at
		WHERE documents.fingerprint = ?
		RETURNING id, doc_id, state, version, created_at
	`
	now := time.Now()
	if doc.IngestedAt.IsZero() {
		doc.IngestedAt = now
	}

	var publishedAt interface{}
	if doc.PublishedAt != nil {
		publishedAt = *doc.PublishedAt
	}

	err = q.QueryRowContext(ctx, query,
		doc.DocID, doc.Title, string(authors), publishedAt, doc.SourcePath, doc.DOI,
		doc.Fingerprint, string(doc.State), doc.Version, doc.IngestedAt, now, now,
		priorFingerprint,
	).Scan(&doc.ID, &doc.DocID, &doc.State, &doc.Version, &doc.CreatedAt)

	if err == sql.ErrNoRows {
		return types.ErrWriteConflict
	}
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	doc.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) UpsertDocument(ctx context.Context, doc *types.Document, priorFingerprint string) error {
	return s.upsertDocumentWithQuerier(ctx, s.querier(), doc, priorFingerprint)
}

func scanDocument(row interface{ Scan(...interface{}) error }) (*types.Document, error) {
	var doc types.Document
	var authors sql.NullString
	var publishedAt, ingestedAt sql.NullTime
	var doi sql.NullString

	err := row.Scan(
		&doc.ID, &doc.DocID, &doc.Title, &authors, &publishedAt, &doc.SourcePath,
		&doi, &doc.Fingerprint, &doc.State, &doc.Version, &ingestedAt,
		&doc.CreatedAt, &doc.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if authors.Valid && authors.String != "" {
		if err := json.Unmarshal([]byte(authors.String), &doc.Authors); err != nil {
			return nil, fmt.Errorf("unmarshal authors: %w", err)
		}
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		doc.PublishedAt = &t
	}
	if ingestedAt.Valid {
		doc.IngestedAt = ingestedAt.Time
	}
	if doi.Valid {
		doc.DOI = doi.String
	}
	return &doc, nil
}

func (s *SQLiteStore) getDocumentWithQuerier(ctx context.Context, q querier, where string, arg interface{}) (*types.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE ` + where
	return scanDocument(q.QueryRowContext(ctx, query, arg))
}

func (s *SQLiteStore) GetDocumentBySource(ctx context.Context, sourcePath string) (*types.Document, error) {
	return s.getDocumentWithQuerier(ctx, s.querier(), "source_path = ?", sourcePath)
}

func (s *SQLiteStore) GetDocumentByDocID(ctx context.Context, docID string) (*types.Document, error) {
	return s.getDocumentWithQuerier(ctx, s.querier(), "doc_id = ?", docID)
}

func (s *SQLiteStore) listDocumentsWithQuerier(ctx context.Context, q querier, latestOnly bool) ([]*types.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents`
	if latestOnly {
		query += ` WHERE state = 'active'`
	}
	query += ` ORDER BY ingested_at, id`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	docs := make([]*types.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, latestOnly bool) ([]*types.Document, error) {
	return s.listDocumentsWithQuerier(ctx, s.querier(), latestOnly)
}

// Chunk operations

func (s *SQLiteStore) replaceChunksWithQuerier(ctx context.Context, q querier, documentID int64, chunks []types.Chunk, provider, model string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("failed to delete old chunks: %w", err)
	}

	insert := `
		INSERT INTO chunks (document_id, seq, content, start_offset, end_offset, word_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at
	`
	now := time.Now()
	ids := make([]int64, len(chunks))
	for i := range chunks {
		chunk := &chunks[i]
		if err := chunk.Validate(); err != nil {
			return fmt.Errorf("invalid chunk %d: %w", i, err)
		}
		chunk.DocumentID = documentID
		err := q.QueryRowContext(ctx, insert,
			documentID, chunk.Seq, chunk.Content, chunk.StartOffset, chunk.EndOffset,
			chunk.WordCount, now,
		).Scan(&chunk.ID, &chunk.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", i, err)
		}
		ids[i] = chunk.ID
	}

	// Wire the NEXT_CHUNK chain: chunk i -> chunk i+1.
	for i := 0; i+1 < len(ids); i++ {
		if _, err := q.ExecContext(ctx, `UPDATE chunks SET next_id = ? WHERE id = ?`, ids[i+1], ids[i]); err != nil {
			return fmt.Errorf("failed to link chunks: %w", err)
		}
	}

	// Store embeddings where present.
	embInsert := `
		INSERT INTO embeddings (chunk_id, vector, dimension, provider, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for i := range chunks {
		chunk := &chunks[i]
		if chunk.Embedding == nil {
			continue
		}
		blob := serializeVector(chunk.Embedding)
		if _, err := q.ExecContext(ctx, embInsert, chunk.ID, blob, len(chunk.Embedding), provider, model, now); err != nil {
			return fmt.Errorf("failed to insert embedding for chunk %d: %w", i, err)
		}
	}

	return nil
}

func (s *SQLiteStore) ReplaceChunks(ctx context.Context, documentID int64, chunks []types.Chunk, provider, model string) error {
	return s.replaceChunksWithQuerier(ctx, s.querier(), documentID, chunks, provider, model)
}

func (s *SQLiteStore) listChunksByDocumentWithQuerier(ctx context.Context, q querier, documentID int64) ([]*types.Chunk, error) {
	query := `
		SELECT c.id, c.document_id, c.seq, c.content, c.start_offset, c.end_offset,
		       c.word_count, c.created_at, e.vector
		FROM chunks c
		LEFT JOIN embeddings e ON e.chunk_id = c.id
		WHERE c.document_id = ?
		ORDER BY c.seq
	`
	rows, err := q.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	chunks := make([]*types.Chunk, 0)
	for rows.Next() {
		var chunk types.Chunk
		var vector []byte
		err := rows.Scan(
			&chunk.ID, &chunk.DocumentID, &chunk.Seq, &chunk.Content,
			&chunk.StartOffset, &chunk.EndOffset, &chunk.WordCount,
			&chunk.CreatedAt, &vector,
		)
		if err != nil {
			return nil, err
		}
		if vector != nil {
			chunk.Embedding = deserializeVector(vector)
		}
		chunks = append(chunks, &chunk)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStore) ListChunksByDocument(ctx context.Context, documentID int64) ([]*types.Chunk, error) {
	return s.listChunksByDocumentWithQuerier(ctx, s.querier(), documentID)
}

func (s *SQLiteStore) getChunkWithDocumentWithQuerier(ctx context.Context, q querier, chunkID int64) (*types.Chunk, *types.Document, error) {
	query := `
		SELECT c.id, c.document_id, c.seq, c.content, c.start_offset, c.end_offset,
		       c.word_count, c.created_at,
		       ` + prefixColumns("d", documentColumns) + `
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.id = ?
	`
	var chunk types.Chunk
	var doc types.Document
	var authors sql.NullString
	var publishedAt, ingestedAt sql.NullTime
	var doi sql.NullString

	err := q.QueryRowContext(ctx, query, chunkID).Scan(
		&chunk.ID, &chunk.DocumentID, &chunk.Seq, &chunk.Content,
		&chunk.StartOffset, &chunk.EndOffset, &chunk.WordCount, &chunk.CreatedAt,
		&doc.ID, &doc.DocID, &doc.Title, &authors, &publishedAt, &doc.SourcePath,
		&doi, &doc.Fingerprint, &doc.State, &doc.Version, &ingestedAt,
		&doc.CreatedAt, &doc.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	if authors.Valid && authors.String != "" {
		if err := json.Unmarshal([]byte(authors.String), &doc.Authors); err != nil {
			return nil, nil, fmt.Errorf("unmarshal authors: %w", err)
		}
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		doc.PublishedAt = &t
	}
	if ingestedAt.Valid {
		doc.IngestedAt = ingestedAt.Time
	}
	if doi.Valid {
		doc.DOI = doi.String
	}
	return &chunk, &doc, nil
}

func (s *SQLiteStore) GetChunkWithDocument(ctx context.Context, chunkID int64) (*types.Chunk, *types.Document, error) {
	return s.getChunkWithDocumentWithQuerier(ctx, s.querier(), chunkID)
}

// Search operations

func (s *SQLiteStore) SearchVector(ctx context.Context, vector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	return searchVector(ctx, s.querier(), vector, limit, filters)
}

func (s *SQLiteStore) SearchText(ctx context.Context, query string, limit int, filters *SearchFilters) ([]TextResult, error) {
	return searchText(ctx, s.querier(), query, limit, filters)
}

// Versioning operations

func (s *SQLiteStore) recordSupersessionWithQuerier(ctx context.Context, q querier, newerDocID, olderDocID, reason string) error {
	if newerDocID == olderDocID {
		return errors.New("a document cannot supersede itself")
	}

	var olderVersion int
	err := q.QueryRowContext(ctx,
		`SELECT version FROM documents WHERE doc_id = ? AND state = 'active'`, olderDocID,
	).Scan(&olderVersion)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: active document %s", ErrNotFound, olderDocID)
	}
	if err != nil {
		return err
	}

	if _, err := q.ExecContext(ctx,
		`INSERT INTO supersessions (newer_doc_id, older_doc_id, reason) VALUES (?, ?, ?)`,
		newerDocID, olderDocID, reason,
	); err != nil {
		return fmt.Errorf("failed to create supersession edge: %w", err)
	}

	now := time.Now()
	if _, err := q.ExecContext(ctx,
		`UPDATE documents SET state = 'superseded', updated_at = ? WHERE doc_id = ?`,
		now, olderDocID,
	); err != nil {
		return fmt.Errorf("failed to mark document superseded: %w", err)
	}

	res, err := q.ExecContext(ctx,
		`UPDATE documents SET state = 'active', version = ?, updated_at = ? WHERE doc_id = ?`,
		olderVersion+1, now, newerDocID,
	)
	if err != nil {
		return fmt.Errorf("failed to promote new version: %w", err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("%w: document %s", ErrNotFound, newerDocID)
	}
	return err
}

func (s *SQLiteStore) RecordSupersession(ctx context.Context, newerDocID, olderDocID, reason string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.recordSupersessionWithQuerier(ctx, tx, newerDocID, olderDocID, reason); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) listSupersessionsWithQuerier(ctx context.Context, q querier) ([]*types.Supersession, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, newer_doc_id, older_doc_id, reason, detected_at
		FROM supersessions
		ORDER BY detected_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	edges := make([]*types.Supersession, 0)
	for rows.Next() {
		var edge types.Supersession
		if err := rows.Scan(&edge.ID, &edge.NewerDocID, &edge.OlderDocID, &edge.Reason, &edge.DetectedAt); err != nil {
			return nil, err
		}
		edges = append(edges, &edge)
	}
	return edges, rows.Err()
}

func (s *SQLiteStore) ListSupersessions(ctx context.Context) ([]*types.Supersession, error) {
	return s.listSupersessionsWithQuerier(ctx, s.querier())
}

func (s *SQLiteStore) supersessionSummaryWithQuerier(ctx context.Context, q querier) (*SupersessionSummary, error) {
	var summary SupersessionSummary
	err := q.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM documents),
			(SELECT COUNT(*) FROM documents WHERE state = 'active'),
			(SELECT COUNT(*) FROM documents WHERE state = 'superseded'),
			(SELECT COUNT(*) FROM supersessions)
	`).Scan(&summary.TotalDocuments, &summary.LatestVersions, &summary.SupersededVersions, &summary.SupersessionEdges)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *SQLiteStore) SupersessionSummary(ctx context.Context) (*SupersessionSummary, error) {
	return s.supersessionSummaryWithQuerier(ctx, s.querier())
}

// Topic operations

func (s *SQLiteStore) linkTopicWithQuerier(ctx context.Context, q querier, documentID int64, topic string, confidence float64) error {
	if _, err := q.ExecContext(ctx, `INSERT INTO topics (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, topic); err != nil {
		return fmt.Errorf("failed to upsert topic: %w", err)
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO document_topics (document_id, topic_id, confidence)
		SELECT ?, id, ? FROM topics WHERE name = ?
		ON CONFLICT(document_id, topic_id) DO UPDATE SET confidence = excluded.confidence
	`, documentID, confidence, topic)
	if err != nil {
		return fmt.Errorf("failed to link topic: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LinkTopic(ctx context.Context, documentID int64, topic string, confidence float64) error {
	return s.linkTopicWithQuerier(ctx, s.querier(), documentID, topic, confidence)
}

func (s *SQLiteStore) listTopicsWithQuerier(ctx context.Context, q querier, documentID int64) ([]TopicLink, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT t.name, dt.confidence
		FROM document_topics dt
		JOIN topics t ON t.id = dt.topic_id
		WHERE dt.document_id = ?
		ORDER BY dt.confidence DESC, t.name
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	links := make([]TopicLink, 0)
	for rows.Next() {
		var link TopicLink
		if err := rows.Scan(&link.Topic, &link.Confidence); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

func (s *SQLiteStore) ListTopics(ctx context.Context, documentID int64) ([]TopicLink, error) {
	return s.listTopicsWithQuerier(ctx, s.querier(), documentID)
}

// Meta operations

func (s *SQLiteStore) setMetaWithQuerier(ctx context.Context, q querier, key, value string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func (s *SQLiteStore) SetMeta(ctx context.Context, key, value string) error {
	return s.setMetaWithQuerier(ctx, s.querier(), key, value)
}

func (s *SQLiteStore) getMetaWithQuerier(ctx context.Context, q querier, key string) (string, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

func (s *SQLiteStore) GetMeta(ctx context.Context, key string) (string, error) {
	return s.getMetaWithQuerier(ctx, s.querier(), key)
}

// Stats

func (s *SQLiteStore) statsWithQuerier(ctx context.Context, q querier) (*Stats, error) {
	var stats Stats
	err := q.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM documents),
			(SELECT COUNT(*) FROM documents WHERE state = 'active'),
			(SELECT COUNT(*) FROM chunks),
			(SELECT COUNT(*) FROM embeddings),
			(SELECT COUNT(*) FROM topics),
			(SELECT COUNT(*) FROM supersessions)
	`).Scan(&stats.Documents, &stats.LatestDocuments, &stats.Chunks,
		&stats.Embeddings, &stats.Topics, &stats.Supersessions)
	if err != nil {
		return nil, err
	}

	var pageCount, pageSize int
	if err := q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		stats.DatabaseSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	if dim, err := s.getMetaWithQuerier(ctx, q, MetaDimension); err == nil {
		stats.Dimension, _ = strconv.Atoi(dim)
	}

	return &stats, nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	return s.statsWithQuerier(ctx, s.querier())
}

// prefixColumns qualifies a comma-separated column list with a table alias.
func prefixColumns(alias, columns string) string {
	out := ""
	start := 0
	for i := 0; i <= len(columns); i++ {
		if i == len(columns) || columns[i] == ',' {
			col := columns[start:i]
			// Trim whitespace and newlines from the raw constant.
			for len(col) > 0 && (col[0] == ' ' || col[0] == '\n' || col[0] == '\t') {
				col = col[1:]
			}
			if out != "" {
				out += ", "
			}
			out += alias + "." + col
			start = i + 1
		}
	}
	return out
}

// Transaction implementations delegate to the internal querier helpers.

func (t *sqliteTx) UpsertDocument(ctx context.Context, doc *types.Document, priorFingerprint string) error {
	return t.store.upsertDocumentWithQuerier(ctx, t.querier(), doc, priorFingerprint)
}

func (t *sqliteTx) GetDocumentBySource(ctx context.Context, sourcePath string) (*types.Document, error) {
	return t.store.getDocumentWithQuerier(ctx, t.querier(), "source_path = ?", sourcePath)
}

func (t *sqliteTx) GetDocumentByDocID(ctx context.Context, docID string) (*types.Document, error) {
	return t.store.getDocumentWithQuerier(ctx, t.querier(), "doc_id = ?", docID)
}

func (t *sqliteTx) ListDocuments(ctx context.Context, latestOnly bool) ([]*types.Document, error) {
	return t.store.listDocumentsWithQuerier(ctx, t.querier(), latestOnly)
}

func (t *sqliteTx) ReplaceChunks(ctx context.Context, documentID int64, chunks []types.Chunk, provider, model string) error {
	return t.store.replaceChunksWithQuerier(ctx, t.querier(), documentID, chunks, provider, model)
}

func (t *sqliteTx) ListChunksByDocument(ctx context.Context, documentID int64) ([]*types.Chunk, error) {
	return t.store.listChunksByDocumentWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) GetChunkWithDocument(ctx context.Context, chunkID int64) (*types.Chunk, *types.Document, error) {
	return t.store.getChunkWithDocumentWithQuerier(ctx, t.querier(), chunkID)
}

func (t *sqliteTx) SearchVector(ctx context.Context, vector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	return searchVector(ctx, t.querier(), vector, limit, filters)
}

func (t *sqliteTx) SearchText(ctx context.Context, query string, limit int, filters *SearchFilters) ([]TextResult, error) {
	return searchText(ctx, t.querier(), query, limit, filters)
}

func (t *sqliteTx) RecordSupersession(ctx context.Context, newerDocID, olderDocID, reason string) error {
	return t.store.recordSupersessionWithQuerier(ctx, t.querier(), newerDocID, olderDocID, reason)
}

func (t *sqliteTx) ListSupersessions(ctx context.Context) ([]*types.Supersession, error) {
	return t.store.listSupersessionsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) SupersessionSummary(ctx context.Context) (*SupersessionSummary, error) {
	return t.store.supersessionSummaryWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) LinkTopic(ctx context.Context, documentID int64, topic string, confidence float64) error {
	return t.store.linkTopicWithQuerier(ctx, t.querier(), documentID, topic, confidence)
}

func (t *sqliteTx) ListTopics(ctx context.Context, documentID int64) ([]TopicLink, error) {
	return t.store.listTopicsWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) SetMeta(ctx context.Context, key, value string) error {
	return t.store.setMetaWithQuerier(ctx, t.querier(), key, value)
}

func (t *sqliteTx) GetMeta(ctx context.Context, key string) (string, error) {
	return t.store.getMetaWithQuerier(ctx, t.querier(), key)
}

func (t *sqliteTx) Stats(ctx context.Context) (*Stats, error) {
	// Must run on the transaction's connection: the pool holds a single
	// connection, so going through the store would block forever.
	return t.store.statsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}
