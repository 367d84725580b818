// Package search runs semantic, keyword, and hybrid queries over the chunk
// store. Hybrid mode fuses the two signals with a fixed 0.7/0.3 weighting
// after normalizing each side into [0, 1].
package search

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"scholargraph/internal/embedder"
	"scholargraph/internal/store"
	"scholargraph/pkg/types"
)

// Mode selects which retrieval signal a search uses.
type Mode string

const (
	ModeHybrid   Mode = "hybrid"   // Weighted fusion of semantic and keyword
	ModeSemantic Mode = "semantic" // Vector similarity only
	ModeKeyword  Mode = "keyword"  // Full-text relevance only
)

// ParseMode validates a mode string from the command line.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeHybrid, ModeSemantic, ModeKeyword:
		return Mode(s), nil
	case "":
		return ModeHybrid, nil
	}
	return "", fmt.Errorf("unknown search mode %q (want semantic, keyword, or hybrid)", s)
}

const (
	// Fusion weights for hybrid mode.
	semanticWeight = 0.7
	keywordWeight  = 0.3

	// Each leg over-fetches so fusion has candidates to reorder.
	overFetch = 2

	defaultLimit   = 10
	queryCacheSize = 1000
)

// Request holds the parameters of one search.
type Request struct {
	Query    string
	Mode     Mode
	Limit    int
	Filters  *store.SearchFilters
	UseCache bool
}

// Response carries ordered results plus how the search actually ran.
type Response struct {
	Results []types.SearchResult `json:"results"`
	Mode    Mode                 `json:"mode"`
	// Warning is set when the search degraded, e.g. hybrid falling back to
	// keyword-only because no query embedding could be produced.
	Warning  string        `json:"warning,omitempty"`
	Duration time.Duration `json:"-"`
	CacheHit bool          `json:"-"`
}

// Searcher coordinates retrieval across the vector and full-text primitives.
type Searcher struct {
	store    store.Store
	embedder embedder.Provider
	cache    *lru.Cache[[32]byte, *Response]
}

// NewSearcher creates a Searcher. The embedding provider may be nil, in
// which case semantic search is unavailable and hybrid degrades to keyword.
func NewSearcher(s store.Store, provider embedder.Provider) *Searcher {
	cache, err := lru.New[[32]byte, *Response](queryCacheSize)
	if err != nil {
		// Only reachable with an invalid size constant
		panic(fmt.Sprintf("failed to create query cache: %v", err))
	}
	return &Searcher{store: s, embedder: provider, cache: cache}
}

// Search runs one query and returns results ordered by descending score.
func (s *Searcher) Search(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	if req.Query == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	if req.Limit <= 0 {
		req.Limit = defaultLimit
	}
	if req.Mode == "" {
		req.Mode = ModeHybrid
	}

	key := cacheKey(req)
	if req.UseCache {
		if cached, ok := s.cache.Get(key); ok {
			out := *cached
			out.CacheHit = true
			out.Duration = time.Since(start)
			return &out, nil
		}
	}

	var resp *Response
	var err error
	switch req.Mode {
	case ModeHybrid:
		resp, err = s.hybridSearch(ctx, req)
	case ModeSemantic:
		resp, err = s.semanticSearch(ctx, req)
	case ModeKeyword:
		resp, err = s.keywordSearch(ctx, req)
	default:
		return nil, fmt.Errorf("unsupported search mode: %s", req.Mode)
	}
	if err != nil {
		return nil, err
	}

	resp.Duration = time.Since(start)
	if req.UseCache && len(resp.Results) > 0 {
		s.cache.Add(key, resp)
	}
	return resp, nil
}

func cacheKey(req Request) [32]byte {
	s := string(req.Mode) + "\x00" + req.Query + "\x00" + fmt.Sprint(req.Limit)
	if f := req.Filters; f != nil {
		s += fmt.Sprintf("\x00%t\x00%v\x00%g", f.IncludeSuperseded, f.PublishedAfter, f.MinScore)
	}
	return sha256.Sum256([]byte(s))
}

// legResult holds the outcome of one concurrent search leg.
type legResult struct {
	vector []store.VectorResult
	text   []store.TextResult
	err    error
}

func (s *Searcher) runVectorLeg(ctx context.Context, req Request, limit int, out chan<- legResult) {
	var res legResult
	vec, err := s.queryEmbedding(ctx, req.Query)
	if err != nil {
		res.err = err
	} else {
		res.vector, res.err = s.store.SearchVector(ctx, vec, limit, req.Filters)
	}
	select {
	case out <- res:
	case <-ctx.Done():
	}
}

func (s *Searcher) runTextLeg(ctx context.Context, req Request, limit int, out chan<- legResult) {
	var res legResult
	res.text, res.err = s.store.SearchText(ctx, req.Query, limit, req.Filters)
	select {
	case out <- res:
	case <-ctx.Done():
	}
}

func (s *Searcher) queryEmbedding(ctx context.Context, query string) ([]float32, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: no embedding provider configured", types.ErrEmbeddingUnavailable)
	}
	vectors, err := s.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return vectors[0], nil
}

// hybridSearch runs both legs concurrently and fuses the normalized scores.
// If the semantic leg fails (embedding backends down) the keyword results
// are returned alone with a warning rather than failing the search.
func (s *Searcher) hybridSearch(ctx context.Context, req Request) (*Response, error) {
	vectorChan := make(chan legResult, 1)
	textChan := make(chan legResult, 1)
	legLimit := req.Limit * overFetch

	go s.runVectorLeg(ctx, req, legLimit, vectorChan)
	go s.runTextLeg(ctx, req, legLimit, textChan)

	var vectorRes, textRes legResult
	var vectorDone, textDone bool
	for !vectorDone || !textDone {
		select {
		case vectorRes = <-vectorChan:
			vectorDone = true
		case textRes = <-textChan:
			textDone = true
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if vectorRes.err != nil && textRes.err != nil {
		return nil, fmt.Errorf("both search legs failed: semantic=%v, keyword=%v", vectorRes.err, textRes.err)
	}
	if textRes.err != nil {
		return nil, fmt.Errorf("keyword leg failed: %w", textRes.err)
	}

	warning := ""
	var fused []candidate
	if vectorRes.err != nil {
		// Degraded hybrid: keyword results stand alone at full weight.
		warning = fmt.Sprintf("semantic search unavailable (%v), results are keyword-only", vectorRes.err)
		fused = keywordCandidates(textRes.text)
	} else {
		fused = fuse(vectorRes.vector, textRes.text)
	}
	results, err := s.materialize(ctx, fused, req)
	if err != nil {
		return nil, err
	}
	return &Response{Results: results, Mode: ModeHybrid, Warning: warning}, nil
}

func (s *Searcher) semanticSearch(ctx context.Context, req Request) (*Response, error) {
	vec, err := s.queryEmbedding(ctx, req.Query)
	if err != nil {
		return nil, err
	}
	vectorResults, err := s.store.SearchVector(ctx, vec, req.Limit*overFetch, req.Filters)
	if err != nil {
		return nil, err
	}

	// Single-signal mode: the normalized similarity is the score.
	candidates := make([]candidate, len(vectorResults))
	for i, v := range vectorResults {
		norm := (v.Similarity + 1) / 2
		candidates[i] = candidate{chunkID: v.ChunkID, semantic: norm, score: norm}
	}
	results, err := s.materialize(ctx, candidates, req)
	if err != nil {
		return nil, err
	}
	return &Response{Results: results, Mode: ModeSemantic}, nil
}

func (s *Searcher) keywordSearch(ctx context.Context, req Request) (*Response, error) {
	textResults, err := s.store.SearchText(ctx, req.Query, req.Limit*overFetch, req.Filters)
	if err != nil {
		return nil, err
	}

	results, err := s.materialize(ctx, keywordCandidates(textResults), req)
	if err != nil {
		return nil, err
	}
	return &Response{Results: results, Mode: ModeKeyword}, nil
}

// keywordCandidates normalizes text results by the batch maximum; the
// normalized relevance is the score. Used for keyword mode and for hybrid
// searches that degraded to keyword-only.
func keywordCandidates(textResults []store.TextResult) []candidate {
	var maxRelevance float64
	for _, t := range textResults {
		if t.Relevance > maxRelevance {
			maxRelevance = t.Relevance
		}
	}
	candidates := make([]candidate, len(textResults))
	for i, t := range textResults {
		norm := 0.0
		if maxRelevance > 0 {
			norm = t.Relevance / maxRelevance
		}
		candidates[i] = candidate{chunkID: t.ChunkID, keyword: norm, score: norm}
	}
	return candidates
}

// candidate accumulates a chunk's normalized scores from both legs.
type candidate struct {
	chunkID  int64
	semantic float64
	keyword  float64
	score    float64
}

// fuse normalizes each leg into [0, 1] and combines them with the fixed
// weights. Cosine similarity maps via (cos+1)/2; keyword relevance divides
// by the batch maximum. A chunk missing from one leg scores 0 on that side.
func fuse(vector []store.VectorResult, text []store.TextResult) []candidate {
	byChunk := make(map[int64]*candidate)

	for _, v := range vector {
		byChunk[v.ChunkID] = &candidate{
			chunkID:  v.ChunkID,
			semantic: (v.Similarity + 1) / 2,
		}
	}

	var maxRelevance float64
	for _, t := range text {
		if t.Relevance > maxRelevance {
			maxRelevance = t.Relevance
		}
	}
	for _, t := range text {
		norm := 0.0
		if maxRelevance > 0 {
			norm = t.Relevance / maxRelevance
		}
		if c, ok := byChunk[t.ChunkID]; ok {
			c.keyword = norm
		} else {
			byChunk[t.ChunkID] = &candidate{chunkID: t.ChunkID, keyword: norm}
		}
	}

	fused := make([]candidate, 0, len(byChunk))
	for _, c := range byChunk {
		c.score = semanticWeight*c.semantic + keywordWeight*c.keyword
		fused = append(fused, *c)
	}
	return fused
}

// materialize loads documents and chunks for the fused candidates, applies
// the score floor, orders them, and cuts to the requested limit. Ties break
// by publication date (newest first, undated last), then chunk sequence.
func (s *Searcher) materialize(ctx context.Context, fused []candidate, req Request) ([]types.SearchResult, error) {
	minScore := 0.0
	if req.Filters != nil {
		minScore = req.Filters.MinScore
	}

	results := make([]types.SearchResult, 0, len(fused))
	for _, c := range fused {
		if c.score < minScore {
			continue
		}
		chunk, doc, err := s.store.GetChunkWithDocument(ctx, c.chunkID)
		if err == store.ErrNotFound {
			// Chunk deleted between ranking and fetch, skip it
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load chunk %d: %w", c.chunkID, err)
		}
		results = append(results, types.SearchResult{
			DocumentTitle: doc.Title,
			DocumentID:    doc.DocID,
			ChunkText:     chunk.Content,
			ChunkIndex:    chunk.Seq,
			Score:         c.score,
			SemanticScore: c.semantic,
			KeywordScore:  c.keyword,
			PublishedAt:   doc.PublishedAt,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		pi, pj := results[i].PublishedAt, results[j].PublishedAt
		switch {
		case pi != nil && pj != nil && !pi.Equal(*pj):
			return pi.After(*pj)
		case pi != nil && pj == nil:
			return true
		case pi == nil && pj != nil:
			return false
		}
		return results[i].ChunkIndex < results[j].ChunkIndex
	})

	if len(results) > req.Limit {
		results = results[:req.Limit]
	}
	return results, nil
}
