// Package ingest turns source files into stored, chunked, optionally
// embedded documents. Directories are processed as a batch: per-file
// failures are collected into the summary instead of aborting the run.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"scholargraph/internal/chunker"
	"scholargraph/internal/embedder"
	"scholargraph/internal/extract"
	"scholargraph/internal/store"
	"scholargraph/internal/versioning"
	"scholargraph/pkg/types"
)

// DefaultConcurrency bounds how many files a batch ingests at once.
const DefaultConcurrency = 4

// Options control one ingestion run.
type Options struct {
	// Embeddings enables vector generation. Off, documents are stored with
	// structure and text only.
	Embeddings bool
	// Force re-ingests files whose fingerprint is unchanged.
	Force bool
	// Concurrency caps parallel file processing in directory batches.
	Concurrency int
	// DetectSupersessions runs temporal versioning for each newly created
	// document after its ingest commits.
	DetectSupersessions bool
}

// Summary is the per-item outcome report of an ingestion run.
type Summary struct {
	Items         []types.IngestItem `json:"items"`
	Succeeded     int                `json:"succeeded"`
	Skipped       int                `json:"skipped"`
	Failed        int                `json:"failed"`
	Supersessions []versioning.Edge  `json:"supersessions,omitempty"`
}

func (s *Summary) add(item types.IngestItem) {
	s.Items = append(s.Items, item)
	switch item.Outcome {
	case types.IngestSucceeded:
		s.Succeeded++
	case types.IngestSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}

// Pipeline wires extraction, chunking, embedding, and storage together.
type Pipeline struct {
	store    store.Store
	chunker  *chunker.Chunker
	embedder embedder.Provider // nil disables embeddings entirely
	detector *versioning.Detector
	model    string
}

// NewPipeline creates an ingestion pipeline. The embedding provider may be
// nil when the deployment has no embedding backend at all. A non-positive
// threshold selects the detector default.
func NewPipeline(s store.Store, c *chunker.Chunker, provider embedder.Provider, model string, threshold float64) *Pipeline {
	return &Pipeline{
		store:    s,
		chunker:  c,
		embedder: provider,
		detector: versioning.NewDetector(s, threshold),
		model:    model,
	}
}

// Ingest processes a file or directory and returns the per-item summary.
// Single files fail fast: the summary error mirrors the lone item's failure.
func (p *Pipeline) Ingest(ctx context.Context, path string, opts Options) (*Summary, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot ingest %s: %w", path, err)
	}

	if info.IsDir() {
		return p.ingestDir(ctx, path, opts)
	}

	summary := &Summary{}
	item, edges := p.ingestFile(ctx, path, opts)
	summary.add(item)
	summary.Supersessions = edges
	if item.Outcome == types.IngestFailed {
		return summary, fmt.Errorf("failed to ingest %s: %s", path, item.Reason)
	}
	return summary, nil
}

func (p *Pipeline) ingestDir(ctx context.Context, dir string, opts Options) (*Summary, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && extract.Supported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	summary := &Summary{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, file := range files {
		file := file
		// Cancellation is honored between documents, never mid-document.
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			item, edges := p.ingestFile(gctx, file, opts)
			mu.Lock()
			summary.add(item)
			summary.Supersessions = append(summary.Supersessions, edges...)
			mu.Unlock()
			// Per-file failures are part of the summary, not batch errors.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// ingestFile processes one file end to end. All store writes for the
// document happen inside a single transaction.
func (p *Pipeline) ingestFile(ctx context.Context, path string, opts Options) (types.IngestItem, []versioning.Edge) {
	item := types.IngestItem{Path: path}
	fail := func(reason string) (types.IngestItem, []versioning.Edge) {
		item.Outcome = types.IngestFailed
		item.Reason = reason
		return item, nil
	}

	extracted, err := extract.File(path)
	if err != nil {
		return fail(err.Error())
	}

	fingerprint := types.Fingerprint([]byte(extracted.Content))

	prior, err := p.store.GetDocumentBySource(ctx, path)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fail(fmt.Sprintf("failed to look up prior ingestion: %v", err))
	}

	priorFingerprint := ""
	if prior != nil {
		priorFingerprint = prior.Fingerprint
		if prior.Fingerprint == fingerprint && !opts.Force {
			item.Outcome = types.IngestSkipped
			return item, nil
		}
	}

	chunks, err := p.chunker.Chunk(extracted.Content)
	if err != nil {
		if errors.Is(err, types.ErrEmptyDocument) {
			return fail("empty document")
		}
		return fail(fmt.Sprintf("chunking failed: %v", err))
	}

	providerName := ""
	if opts.Embeddings && p.embedder != nil {
		providerName = p.embedder.Name()
		if err := p.embedChunks(ctx, chunks); err != nil {
			// Structural ingest still proceeds; vectors can be backfilled
			// by re-ingesting with --force once a backend is reachable.
			log.Printf("ingest %s: storing without embeddings: %v", path, err)
			item.NoEmbeddings = true
			providerName = ""
			for i := range chunks {
				chunks[i].Embedding = nil
			}
		}
	}

	doc := &types.Document{
		DocID:       uuid.NewString(),
		Title:       extracted.Meta.Title,
		Authors:     extracted.Meta.Authors,
		PublishedAt: extracted.Meta.PublishedAt,
		SourcePath:  path,
		DOI:         extracted.Meta.DOI,
		Fingerprint: fingerprint,
		State:       types.DocumentActive,
		Version:     1,
	}
	if prior != nil {
		// Re-ingestion updates the same document in place.
		doc.DocID = prior.DocID
		doc.State = prior.State
		doc.Version = prior.Version
	}

	tx, err := p.store.BeginTx(ctx)
	if err != nil {
		return fail(fmt.Sprintf("failed to begin transaction: %v", err))
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.UpsertDocument(ctx, doc, priorFingerprint); err != nil {
		if errors.Is(err, types.ErrWriteConflict) {
			return fail("concurrent write conflict, retry the file")
		}
		return fail(fmt.Sprintf("failed to store document: %v", err))
	}
	if err := tx.ReplaceChunks(ctx, doc.ID, chunks, providerName, p.model); err != nil {
		return fail(fmt.Sprintf("failed to store chunks: %v", err))
	}
	for _, tag := range extracted.Meta.Tags {
		// Front matter tags are author-asserted, full confidence.
		if err := tx.LinkTopic(ctx, doc.ID, tag, 1.0); err != nil {
			return fail(fmt.Sprintf("failed to link topic %q: %v", tag, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return fail(fmt.Sprintf("failed to commit: %v", err))
	}

	item.Outcome = types.IngestSucceeded
	item.Chunks = len(chunks)

	var edges []versioning.Edge
	if opts.DetectSupersessions && prior == nil {
		report, err := p.detector.DetectForDocument(ctx, doc)
		if err != nil {
			// The document is stored; detection can be re-run later.
			log.Printf("ingest %s: supersession detection failed: %v", path, err)
		} else {
			edges = report.Recorded
		}
	}
	return item, edges
}

// embedChunks fills in embeddings for all chunks, batching requests to stay
// under the provider's batch limit.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []types.Chunk) error {
	for begin := 0; begin < len(chunks); begin += embedder.MaxBatchSize {
		end := begin + embedder.MaxBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, end-begin)
		for i := begin; i < end; i++ {
			texts[i-begin] = chunks[i].Content
		}
		vectors, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}
		for i := begin; i < end; i++ {
			chunks[i].Embedding = vectors[i-begin]
		}
	}
	return nil
}
