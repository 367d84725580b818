package embedder

import "time"

// Config holds embedding backend configuration.
type Config struct {
	PreferredURL string        // Remote model-serving endpoint (may be empty)
	FallbackURL  string        // Optional secondary endpoint
	Model        string        // Model name sent to remote endpoints
	Dimension    int           // Vector dimension, e.g. 768
	Timeout      time.Duration // Per-request timeout
	CacheSize    int           // LRU cache entries (0 = default)
}

// New builds the provider chain from configuration. The preferred backend is
// the remote endpoint when configured; the chain always terminates in the
// locally computable provider so embedding only fails when explicitly
// disabled backends are the sole option.
func New(cfg Config) (Provider, error) {
	cache := NewCache(cfg.CacheSize)

	local := NewLocalProvider(cfg.Dimension, cache)
	if cfg.PreferredURL == "" {
		return local, nil
	}

	preferred, err := NewHTTPProvider(cfg.PreferredURL, cfg.Model, cfg.Dimension, cfg.Timeout, cache)
	if err != nil {
		return nil, err
	}

	var fallback Provider = local
	if cfg.FallbackURL != "" {
		secondary, err := NewHTTPProvider(cfg.FallbackURL, cfg.Model, cfg.Dimension, cfg.Timeout, cache)
		if err != nil {
			return nil, err
		}
		// Remote secondary first, local last.
		fallback = NewFallback(secondary, local)
	}

	return NewFallback(preferred, fallback), nil
}
