package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholargraph/pkg/types"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	// Use in-memory database for testing
	s, err := Open(":memory:")
	require.NoError(t, err)
	require.NotNil(t, s)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testDocument(sourcePath, title string) *types.Document {
	return &types.Document{
		DocID:       uuid.NewString(),
		Title:       title,
		Authors:     []string{"A. Researcher", "B. Colleague"},
		SourcePath:  sourcePath,
		Fingerprint: types.Fingerprint([]byte(title)),
		State:       types.DocumentActive,
		Version:     1,
	}
}

func TestOpen(t *testing.T) {
	s := setupTestStore(t)
	assert.NotNil(t, s.db)
}

func TestUpsertDocument_New(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	doc := testDocument("/papers/attention.md", "Attention Is All You Need")
	err := s.UpsertDocument(ctx, doc, "")
	require.NoError(t, err)
	assert.Greater(t, doc.ID, int64(0))
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, types.DocumentActive, doc.State)
}

func TestUpsertDocument_Update(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	doc := testDocument("/papers/attention.md", "Attention Is All You Need")
	require.NoError(t, s.UpsertDocument(ctx, doc, ""))
	firstID := doc.ID

	// Re-ingest with changed content, holding the fingerprint we read.
	updated := testDocument("/papers/attention.md", "Attention Is All You Need")
	updated.Fingerprint = types.Fingerprint([]byte("revised content"))
	err := s.UpsertDocument(ctx, updated, doc.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, firstID, updated.ID, "update keeps the same row")

	got, err := s.GetDocumentBySource(ctx, "/papers/attention.md")
	require.NoError(t, err)
	assert.Equal(t, updated.Fingerprint, got.Fingerprint)
}

func TestUpsertDocument_WriteConflict(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	doc := testDocument("/papers/attention.md", "Attention Is All You Need")
	require.NoError(t, s.UpsertDocument(ctx, doc, ""))

	// Simulates a stale writer: the fingerprint it read no longer matches.
	stale := testDocument("/papers/attention.md", "Attention Is All You Need")
	err := s.UpsertDocument(ctx, stale, "fingerprint-from-a-previous-read")
	assert.ErrorIs(t, err, types.ErrWriteConflict)

	// Original document is untouched.
	got, err := s.GetDocumentBySource(ctx, "/papers/attention.md")
	require.NoError(t, err)
	assert.Equal(t, doc.Fingerprint, got.Fingerprint)
}

func TestGetDocument_NotFound(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.GetDocumentBySource(ctx, "/no/such/file.md")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetDocumentByDocID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetDocumentByDocID(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	published := time.Date(2017, 6, 12, 0, 0, 0, 0, time.UTC)
	doc := testDocument("/papers/attention.md", "Attention Is All You Need")
	doc.PublishedAt = &published
	doc.DOI = "10.48550/arXiv.1706.03762"
	require.NoError(t, s.UpsertDocument(ctx, doc, ""))

	got, err := s.GetDocumentByDocID(ctx, doc.DocID)
	require.NoError(t, err)
	assert.Equal(t, doc.Title, got.Title)
	assert.Equal(t, doc.Authors, got.Authors)
	assert.Equal(t, doc.DOI, got.DOI)
	require.NotNil(t, got.PublishedAt)
	assert.True(t, published.Equal(*got.PublishedAt))
}

func TestListDocuments(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	a := testDocument("/papers/a.md", "Paper A")
	b := testDocument("/papers/b.md", "Paper B")
	require.NoError(t, s.UpsertDocument(ctx, a, ""))
	require.NoError(t, s.UpsertDocument(ctx, b, ""))
	require.NoError(t, s.RecordSupersession(ctx, b.DocID, a.DocID, "exact_title_match"))

	all, err := s.ListDocuments(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	latest, err := s.ListDocuments(ctx, true)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, b.DocID, latest[0].DocID)
}

func TestReplaceChunks(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	doc := testDocument("/papers/a.md", "Paper A")
	require.NoError(t, s.UpsertDocument(ctx, doc, ""))

	chunks := []types.Chunk{
		{Seq: 0, Content: "first chunk of text", StartOffset: 0, EndOffset: 19, WordCount: 4, Embedding: []float32{1, 0, 0}},
		{Seq: 1, Content: "second chunk of text", StartOffset: 10, EndOffset: 30, WordCount: 4, Embedding: []float32{0, 1, 0}},
		{Seq: 2, Content: "third chunk with no vector", StartOffset: 20, EndOffset: 46, WordCount: 5},
	}
	require.NoError(t, s.ReplaceChunks(ctx, doc.ID, chunks, "local", "hash-768"))

	got, err := s.ListChunksByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "first chunk of text", got[0].Content)
	assert.Equal(t, []float32{0, 1, 0}, got[1].Embedding)
	assert.Nil(t, got[2].Embedding)

	// The chain links each chunk to its successor.
	var next int64
	err = s.db.QueryRow(`SELECT next_id FROM chunks WHERE id = ?`, got[0].ID).Scan(&next)
	require.NoError(t, err)
	assert.Equal(t, got[1].ID, next)

	// Re-ingestion replaces the whole set.
	replacement := []types.Chunk{
		{Seq: 0, Content: "the only chunk now", StartOffset: 0, EndOffset: 18, WordCount: 4},
	}
	require.NoError(t, s.ReplaceChunks(ctx, doc.ID, replacement, "local", "hash-768"))
	got, err = s.ListChunksByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "the only chunk now", got[0].Content)
}

func TestGetChunkWithDocument(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	doc := testDocument("/papers/a.md", "Paper A")
	require.NoError(t, s.UpsertDocument(ctx, doc, ""))
	chunks := []types.Chunk{
		{Seq: 0, Content: "hello world", StartOffset: 0, EndOffset: 11, WordCount: 2},
	}
	require.NoError(t, s.ReplaceChunks(ctx, doc.ID, chunks, "local", "hash-768"))

	listed, err := s.ListChunksByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	chunk, parent, err := s.GetChunkWithDocument(ctx, listed[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "hello world", chunk.Content)
	assert.Equal(t, doc.DocID, parent.DocID)
	assert.Equal(t, doc.Title, parent.Title)

	_, _, err = s.GetChunkWithDocument(ctx, 99999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordSupersession(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	older := testDocument("/papers/v1.md", "Scaling Laws")
	newer := testDocument("/papers/v2.md", "Scaling Laws")
	require.NoError(t, s.UpsertDocument(ctx, older, ""))
	require.NoError(t, s.UpsertDocument(ctx, newer, ""))

	require.NoError(t, s.RecordSupersession(ctx, newer.DocID, older.DocID, "exact_title_match"))

	oldGot, err := s.GetDocumentByDocID(ctx, older.DocID)
	require.NoError(t, err)
	assert.Equal(t, types.DocumentSuperseded, oldGot.State)
	assert.False(t, oldGot.IsLatest())

	newGot, err := s.GetDocumentByDocID(ctx, newer.DocID)
	require.NoError(t, err)
	assert.Equal(t, types.DocumentActive, newGot.State)
	assert.Equal(t, 2, newGot.Version)

	edges, err := s.ListSupersessions(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, newer.DocID, edges[0].NewerDocID)
	assert.Equal(t, older.DocID, edges[0].OlderDocID)
	assert.Equal(t, "exact_title_match", edges[0].Reason)
}

func TestRecordSupersession_Chain(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	v1 := testDocument("/papers/v1.md", "Scaling Laws")
	v2 := testDocument("/papers/v2.md", "Scaling Laws")
	v3 := testDocument("/papers/v3.md", "Scaling Laws")
	for _, d := range []*types.Document{v1, v2, v3} {
		require.NoError(t, s.UpsertDocument(ctx, d, ""))
	}

	require.NoError(t, s.RecordSupersession(ctx, v2.DocID, v1.DocID, "exact_title_match"))
	require.NoError(t, s.RecordSupersession(ctx, v3.DocID, v2.DocID, "exact_title_match"))

	got, err := s.GetDocumentByDocID(ctx, v3.DocID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Version)

	latest, err := s.ListDocuments(ctx, true)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, v3.DocID, latest[0].DocID)
}

func TestRecordSupersession_Errors(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	doc := testDocument("/papers/a.md", "Paper A")
	require.NoError(t, s.UpsertDocument(ctx, doc, ""))

	// Self-supersession is rejected.
	err := s.RecordSupersession(ctx, doc.DocID, doc.DocID, "exact_title_match")
	assert.Error(t, err)

	// Older document must exist and be active.
	err = s.RecordSupersession(ctx, doc.DocID, uuid.NewString(), "exact_title_match")
	assert.ErrorIs(t, err, ErrNotFound)

	// A document already superseded cannot be superseded again.
	b := testDocument("/papers/b.md", "Paper A")
	c := testDocument("/papers/c.md", "Paper A")
	require.NoError(t, s.UpsertDocument(ctx, b, ""))
	require.NoError(t, s.UpsertDocument(ctx, c, ""))
	require.NoError(t, s.RecordSupersession(ctx, b.DocID, doc.DocID, "exact_title_match"))
	err = s.RecordSupersession(ctx, c.DocID, doc.DocID, "exact_title_match")
	assert.Error(t, err)
}

func TestSupersessionSummary(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	a := testDocument("/papers/a.md", "Paper A")
	b := testDocument("/papers/b.md", "Paper A")
	c := testDocument("/papers/c.md", "Paper C")
	for _, d := range []*types.Document{a, b, c} {
		require.NoError(t, s.UpsertDocument(ctx, d, ""))
	}
	require.NoError(t, s.RecordSupersession(ctx, b.DocID, a.DocID, "exact_title_match"))

	summary, err := s.SupersessionSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalDocuments)
	assert.Equal(t, 2, summary.LatestVersions)
	assert.Equal(t, 1, summary.SupersededVersions)
	assert.Equal(t, 1, summary.SupersessionEdges)
}

func TestTopics(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	doc := testDocument("/papers/a.md", "Paper A")
	require.NoError(t, s.UpsertDocument(ctx, doc, ""))

	require.NoError(t, s.LinkTopic(ctx, doc.ID, "transformers", 0.92))
	require.NoError(t, s.LinkTopic(ctx, doc.ID, "attention", 0.75))
	// Re-linking updates the confidence instead of duplicating.
	require.NoError(t, s.LinkTopic(ctx, doc.ID, "attention", 0.81))

	topics, err := s.ListTopics(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, "transformers", topics[0].Topic)
	assert.InDelta(t, 0.92, topics[0].Confidence, 1e-9)
	assert.InDelta(t, 0.81, topics[1].Confidence, 1e-9)
}

func TestMeta(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.GetMeta(ctx, MetaDimension)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SetMeta(ctx, MetaDimension, "768"))
	got, err := s.GetMeta(ctx, MetaDimension)
	require.NoError(t, err)
	assert.Equal(t, "768", got)

	require.NoError(t, s.SetMeta(ctx, MetaDimension, "1024"))
	got, err = s.GetMeta(ctx, MetaDimension)
	require.NoError(t, err)
	assert.Equal(t, "1024", got)
}

func TestStats(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	doc := testDocument("/papers/a.md", "Paper A")
	require.NoError(t, s.UpsertDocument(ctx, doc, ""))
	chunks := []types.Chunk{
		{Seq: 0, Content: "some text", StartOffset: 0, EndOffset: 9, WordCount: 2, Embedding: []float32{1, 0}},
		{Seq: 1, Content: "more text", StartOffset: 5, EndOffset: 14, WordCount: 2},
	}
	require.NoError(t, s.ReplaceChunks(ctx, doc.ID, chunks, "local", "hash-768"))
	require.NoError(t, s.SetMeta(ctx, MetaDimension, "768"))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Documents)
	assert.Equal(t, 1, stats.LatestDocuments)
	assert.Equal(t, 2, stats.Chunks)
	assert.Equal(t, 1, stats.Embeddings)
	assert.Equal(t, 768, stats.Dimension)
}

func TestStats_InsideTransaction(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	doc := testDocument("/papers/a.md", "Paper A")
	require.NoError(t, s.UpsertDocument(ctx, doc, ""))

	// The pool holds a single connection, so stats must use the
	// transaction's connection and see its uncommitted writes.
	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	other := testDocument("/papers/b.md", "Paper B")
	require.NoError(t, tx.UpsertDocument(ctx, other, ""))

	stats, err := tx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
}

func TestTransaction_CommitAndRollback(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	doc := testDocument("/papers/a.md", "Paper A")
	require.NoError(t, tx.UpsertDocument(ctx, doc, ""))
	require.NoError(t, tx.Commit())

	_, err = s.GetDocumentBySource(ctx, "/papers/a.md")
	require.NoError(t, err)

	tx, err = s.BeginTx(ctx)
	require.NoError(t, err)
	other := testDocument("/papers/b.md", "Paper B")
	require.NoError(t, tx.UpsertDocument(ctx, other, ""))
	require.NoError(t, tx.Rollback())

	_, err = s.GetDocumentBySource(ctx, "/papers/b.md")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCascadeDelete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	doc := testDocument("/papers/a.md", "Paper A")
	require.NoError(t, s.UpsertDocument(ctx, doc, ""))
	chunks := []types.Chunk{
		{Seq: 0, Content: "some text", StartOffset: 0, EndOffset: 9, WordCount: 2, Embedding: []float32{1, 0}},
	}
	require.NoError(t, s.ReplaceChunks(ctx, doc.ID, chunks, "local", "hash-768"))

	_, err := s.db.Exec(`DELETE FROM documents WHERE id = ?`, doc.ID)
	require.NoError(t, err)

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM chunks`).Scan(&count))
	assert.Equal(t, 0, count)
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM embeddings`).Scan(&count))
	assert.Equal(t, 0, count)
}
