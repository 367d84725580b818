package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// serializeVector converts a float32 slice to a little-endian byte blob.
func serializeVector(vector []float32) []byte {
	buf := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// deserializeVector converts a byte blob back to a float32 slice.
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// The result is in [-1, 1]; zero vectors yield 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// filterClause builds the WHERE fragment shared by both search paths.
// The documents table must be joined under alias d.
func filterClause(filters *SearchFilters) (string, []interface{}) {
	var conds []string
	var args []interface{}
	if filters == nil || !filters.IncludeSuperseded {
		conds = append(conds, "d.state = 'active'")
	}
	if filters != nil && filters.PublishedAfter != nil {
		conds = append(conds, "d.published_at >= ?")
		args = append(args, *filters.PublishedAfter)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " AND " + strings.Join(conds, " AND "), args
}

// searchVector finds the chunks whose embeddings are most similar to the
// query vector. With the vector extension compiled in, distance ranking
// happens inside SQLite; otherwise candidate vectors are scored in Go.
func searchVector(ctx context.Context, q querier, vector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if VectorExtensionAvailable {
		return searchVectorOptimized(ctx, q, vector, limit, filters)
	}
	return searchVectorFallback(ctx, q, vector, limit, filters)
}

func searchVectorOptimized(ctx context.Context, q querier, vector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	clause, args := filterClause(filters)
	query := `
		SELECT e.chunk_id, vec_distance_cosine(e.vector, ?) AS distance
		FROM embeddings e
		JOIN chunks c ON c.id = e.chunk_id
		JOIN documents d ON d.id = c.document_id
		WHERE e.dimension = ?` + clause + `
		ORDER BY distance
		LIMIT ?
	`
	queryArgs := append([]interface{}{serializeVector(vector), len(vector)}, args...)
	queryArgs = append(queryArgs, limit)

	rows, err := q.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]VectorResult, 0, limit)
	for rows.Next() {
		var r VectorResult
		var distance float64
		if err := rows.Scan(&r.ChunkID, &distance); err != nil {
			return nil, err
		}
		r.Similarity = 1 - distance
		results = append(results, r)
	}
	return results, rows.Err()
}

func searchVectorFallback(ctx context.Context, q querier, vector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	clause, args := filterClause(filters)
	query := `
		SELECT e.chunk_id, e.vector
		FROM embeddings e
		JOIN chunks c ON c.id = e.chunk_id
		JOIN documents d ON d.id = c.document_id
		WHERE e.dimension = ?` + clause

	queryArgs := append([]interface{}{len(vector)}, args...)
	rows, err := q.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]VectorResult, 0)
	for rows.Next() {
		var chunkID int64
		var blob []byte
		if err := rows.Scan(&chunkID, &blob); err != nil {
			return nil, err
		}
		sim := cosineSimilarity(vector, deserializeVector(blob))
		results = append(results, VectorResult{ChunkID: chunkID, Similarity: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ChunkID < results[j].ChunkID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

var ftsSpecialChars = regexp.MustCompile(`["():*^{}]`)

// sanitizeFTSQuery escapes user input for FTS5 MATCH. Each term is
// double-quoted so FTS operators in the input are treated literally.
func sanitizeFTSQuery(query string) string {
	cleaned := ftsSpecialChars.ReplaceAllString(query, " ")
	terms := strings.Fields(cleaned)
	if len(terms) == 0 {
		return ""
	}
	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = `"` + term + `"`
	}
	return strings.Join(quoted, " ")
}

// searchText runs a full-text query over chunk content. Relevance is
// -bm25(), so higher is better and values are positive.
func searchText(ctx context.Context, q querier, query string, limit int, filters *SearchFilters) ([]TextResult, error) {
	if limit <= 0 {
		limit = 10
	}
	match := sanitizeFTSQuery(query)
	if match == "" {
		return nil, nil
	}

	clause, args := filterClause(filters)
	sqlQuery := `
		SELECT c.id, -bm25(chunks_fts) AS relevance
		FROM chunks_fts
		JOIN chunks c ON c.id = chunks_fts.rowid
		JOIN documents d ON d.id = c.document_id
		WHERE chunks_fts MATCH ?` + clause + `
		ORDER BY relevance DESC
		LIMIT ?
	`
	queryArgs := append([]interface{}{match}, args...)
	queryArgs = append(queryArgs, limit)

	rows, err := q.QueryContext(ctx, sqlQuery, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("text search failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]TextResult, 0, limit)
	for rows.Next() {
		var r TextResult
		if err := rows.Scan(&r.ChunkID, &r.Relevance); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
