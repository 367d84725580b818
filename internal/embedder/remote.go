package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultRequestTimeout bounds a single call to the embedding endpoint so the
// caller is never blocked beyond a few seconds per request.
const DefaultRequestTimeout = 5 * time.Second

// HTTPProvider calls a remote model-serving endpoint that accepts a batch of
// strings and returns a batch of fixed-dimension float vectors.
type HTTPProvider struct {
	baseURL    string
	model      string
	dimension  int
	httpClient *http.Client
	cache      *Cache
}

// NewHTTPProvider creates a provider for an OpenAI-compatible embeddings
// endpoint. baseURL is the server root; the provider posts to
// /v1/embeddings under it.
func NewHTTPProvider(baseURL, model string, dimension int, timeout time.Duration, cache *Cache) (*HTTPProvider, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: embedding endpoint URL is required", ErrInvalidInput)
	}
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &HTTPProvider{
		baseURL:   strings.TrimRight(baseURL, "/"),
		model:     model,
		dimension: dimension,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cache: cache,
	}, nil
}

// EmbedBatch embeds texts via the remote endpoint, serving cached vectors
// where possible. Failed calls are retried with exponential backoff before
// the error is surfaced.
func (p *HTTPProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := validateBatch(texts); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(texts))
	missing := make([]int, 0, len(texts))
	if p.cache != nil {
		for i, text := range texts {
			if v, ok := p.cache.Get(ComputeHash(text)); ok {
				vectors[i] = v
				continue
			}
			missing = append(missing, i)
		}
		if len(missing) == 0 {
			return vectors, nil
		}
	} else {
		for i := range texts {
			missing = append(missing, i)
		}
	}

	batch := make([]string, len(missing))
	for i, idx := range missing {
		batch[i] = texts[idx]
	}

	config := DefaultRetryConfig()
	fetched, err := retryWithBackoff(ctx, config, func() ([][]float32, error) {
		return p.callAPI(ctx, batch)
	})
	if err != nil {
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrProviderFailed, config.MaxAttempts, err)
	}

	if err := checkDimensions(fetched, p.dimension, len(batch)); err != nil {
		return nil, err
	}

	for i, idx := range missing {
		vectors[idx] = fetched[i]
		if p.cache != nil {
			p.cache.Set(ComputeHash(texts[idx]), fetched[i])
		}
	}

	return vectors, nil
}

func (p *HTTPProvider) callAPI(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := map[string]interface{}{
		"input": texts,
		"model": p.model,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
		Model string `json:"model"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	vectors := make([][]float32, len(apiResp.Data))
	for _, data := range apiResp.Data {
		if data.Index < 0 || data.Index >= len(vectors) {
			return nil, fmt.Errorf("response index %d out of range", data.Index)
		}
		vectors[data.Index] = data.Embedding
	}

	return vectors, nil
}

// Dimension returns the configured vector dimension.
func (p *HTTPProvider) Dimension() int { return p.dimension }

// Name identifies the provider by its endpoint.
func (p *HTTPProvider) Name() string { return "remote:" + p.baseURL }

// Close releases idle connections.
func (p *HTTPProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}
