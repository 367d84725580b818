package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholargraph/internal/chunker"
	"scholargraph/internal/embedder"
	"scholargraph/internal/store"
	"scholargraph/pkg/types"
)

func setupPipeline(t *testing.T, withEmbedder bool) (*Pipeline, *store.SQLiteStore) {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	c, err := chunker.New(50, 10)
	require.NoError(t, err)

	var provider embedder.Provider
	if withEmbedder {
		provider = embedder.NewLocalProvider(32, nil)
	}
	return NewPipeline(s, c, provider, "test-model", 0), s
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngest_SingleFile(t *testing.T) {
	p, s := setupPipeline(t, true)
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "paper.md", `---
title: Test Paper
authors: [A. Researcher]
tags: [testing]
---
This is the body of the paper with enough words to form a chunk.
`)

	summary, err := p.Ingest(ctx, path, Options{Embeddings: true})
	require.NoError(t, err)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, types.IngestSucceeded, summary.Items[0].Outcome)
	assert.Equal(t, 1, summary.Items[0].Chunks)
	assert.False(t, summary.Items[0].NoEmbeddings)

	doc, err := s.GetDocumentBySource(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "Test Paper", doc.Title)
	assert.Equal(t, []string{"A. Researcher"}, doc.Authors)
	assert.Equal(t, 1, doc.Version)

	chunks, err := s.ListChunksByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.NotNil(t, chunks[0].Embedding)

	topics, err := s.ListTopics(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.Equal(t, "testing", topics[0].Topic)
}

func TestIngest_SkipUnchanged(t *testing.T) {
	p, _ := setupPipeline(t, false)
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "paper.md", "# Title\n\nStable content.\n")

	_, err := p.Ingest(ctx, path, Options{})
	require.NoError(t, err)

	summary, err := p.Ingest(ctx, path, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, types.IngestSkipped, summary.Items[0].Outcome)
}

func TestIngest_ForceReingest(t *testing.T) {
	p, s := setupPipeline(t, false)
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "paper.md", "# Title\n\nStable content.\n")

	_, err := p.Ingest(ctx, path, Options{})
	require.NoError(t, err)

	summary, err := p.Ingest(ctx, path, Options{Force: true})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)

	// Still one document, same identity.
	docs, err := s.ListDocuments(ctx, false)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestIngest_ChangedContentUpdatesInPlace(t *testing.T) {
	p, s := setupPipeline(t, false)
	ctx := context.Background()
	dir := t.TempDir()
	path := writeFile(t, dir, "paper.md", "# Title\n\nOriginal content here.\n")

	_, err := p.Ingest(ctx, path, Options{})
	require.NoError(t, err)
	before, err := s.GetDocumentBySource(ctx, path)
	require.NoError(t, err)

	writeFile(t, dir, "paper.md", "# Title\n\nRevised content, rather different now.\n")
	summary, err := p.Ingest(ctx, path, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)

	after, err := s.GetDocumentBySource(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, before.DocID, after.DocID, "same source path keeps its identity")
	assert.NotEqual(t, before.Fingerprint, after.Fingerprint)

	chunks, err := s.ListChunksByDocument(ctx, after.ID)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Contains(t, chunks[0].Content, "Revised")
}

func TestIngest_Directory(t *testing.T) {
	p, s := setupPipeline(t, false)
	ctx := context.Background()
	dir := t.TempDir()

	writeFile(t, dir, "a.md", "# Paper A\n\nContent of the first paper.\n")
	writeFile(t, dir, "b.md", "# Paper B\n\nContent of the second paper.\n")
	writeFile(t, dir, "empty.md", "   \n")
	writeFile(t, dir, "scan.pdf", "%PDF-1.4 binary with no structure")
	writeFile(t, dir, "notes.docx", "not a supported format")
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeFile(t, sub, "c.txt", "plain text paper content\n")

	summary, err := p.Ingest(ctx, dir, Options{})
	require.NoError(t, err, "per-file failures must not fail the batch")
	assert.Equal(t, 3, summary.Succeeded, "a.md, b.md, nested/c.txt")
	assert.Equal(t, 2, summary.Failed, "empty.md and the corrupt pdf")
	assert.Len(t, summary.Items, 5, "unsupported extensions are not batch items")

	var emptyItem, pdfItem *types.IngestItem
	for i := range summary.Items {
		switch filepath.Base(summary.Items[i].Path) {
		case "empty.md":
			emptyItem = &summary.Items[i]
		case "scan.pdf":
			pdfItem = &summary.Items[i]
		}
	}
	require.NotNil(t, emptyItem)
	assert.Equal(t, types.IngestFailed, emptyItem.Outcome)
	assert.Equal(t, "empty document", emptyItem.Reason)
	require.NotNil(t, pdfItem)
	assert.Equal(t, types.IngestFailed, pdfItem.Outcome)
	assert.Contains(t, pdfItem.Reason, "corrupt pdf")

	docs, err := s.ListDocuments(ctx, false)
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestIngest_DirectoryIdempotent(t *testing.T) {
	p, _ := setupPipeline(t, false)
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "# Paper A\n\nSome content.\n")
	writeFile(t, dir, "b.md", "# Paper B\n\nOther content.\n")

	_, err := p.Ingest(ctx, dir, Options{})
	require.NoError(t, err)

	summary, err := p.Ingest(ctx, dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Succeeded)
	assert.Equal(t, 2, summary.Skipped)
}

func TestIngest_SingleFileFailsFast(t *testing.T) {
	p, _ := setupPipeline(t, false)
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "notes.docx", "unsupported format")

	summary, err := p.Ingest(ctx, path, Options{})
	assert.Error(t, err)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, types.IngestFailed, summary.Items[0].Outcome)
}

func TestIngest_MissingPath(t *testing.T) {
	p, _ := setupPipeline(t, false)
	_, err := p.Ingest(context.Background(), "/no/such/path", Options{})
	assert.Error(t, err)
}

func TestIngest_NoEmbeddingsOption(t *testing.T) {
	p, s := setupPipeline(t, true)
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "paper.md", "# Title\n\nBody text for the paper.\n")

	_, err := p.Ingest(ctx, path, Options{Embeddings: false})
	require.NoError(t, err)

	doc, err := s.GetDocumentBySource(ctx, path)
	require.NoError(t, err)
	chunks, err := s.ListChunksByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Nil(t, chunks[0].Embedding)
}

func TestIngest_ProceedsWithoutEmbeddingsWhenBackendFails(t *testing.T) {
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	c, err := chunker.New(50, 10)
	require.NoError(t, err)

	// A remote-only provider pointed at a dead endpoint.
	dead, err := embedder.NewHTTPProvider("http://127.0.0.1:1", "m", 32, 0, nil)
	require.NoError(t, err)
	p := NewPipeline(s, c, dead, "m", 0)

	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "paper.md", "# Title\n\nBody text for the paper.\n")

	summary, err := p.Ingest(ctx, path, Options{Embeddings: true})
	require.NoError(t, err, "embedding failure must not abort structural ingest")
	require.Len(t, summary.Items, 1)
	assert.Equal(t, types.IngestSucceeded, summary.Items[0].Outcome)
	assert.True(t, summary.Items[0].NoEmbeddings)

	doc, err := s.GetDocumentBySource(ctx, path)
	require.NoError(t, err)
	chunks, err := s.ListChunksByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Nil(t, chunks[0].Embedding)
}

func TestIngest_SupersessionDetection(t *testing.T) {
	p, s := setupPipeline(t, false)
	ctx := context.Background()
	dir := t.TempDir()

	v1 := writeFile(t, dir, "v1.md", "# Scaling Laws for Neural Models\n\nFirst version text.\n")
	_, err := p.Ingest(ctx, v1, Options{DetectSupersessions: true})
	require.NoError(t, err)

	v2 := writeFile(t, dir, "v2.md", "# Scaling Laws for Neural Models\n\nSecond version text, revised.\n")
	summary, err := p.Ingest(ctx, v2, Options{DetectSupersessions: true})
	require.NoError(t, err)
	require.Len(t, summary.Supersessions, 1)
	assert.Equal(t, "exact_title_match", summary.Supersessions[0].Reason)

	latest, err := s.ListDocuments(ctx, true)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, v2, latest[0].SourcePath)
	assert.Equal(t, 2, latest[0].Version)
}
