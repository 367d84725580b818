// Package config loads runtime settings from environment-style key/value
// pairs. A .env file in the working directory is read first (when present),
// then real environment variables override it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Recognized environment variables.
const (
	EnvDBPath             = "SCHOLARGRAPH_DB_PATH"
	EnvEmbeddingURL       = "EMBEDDING_URL"
	EnvEmbeddingFallback  = "EMBEDDING_FALLBACK_URL"
	EnvEmbeddingModel     = "EMBEDDING_MODEL"
	EnvEmbeddingDimension = "EMBEDDING_DIMENSION"
	EnvEmbeddingTimeout   = "EMBEDDING_TIMEOUT_SECS"
	EnvChunkSize          = "CHUNK_SIZE_WORDS"
	EnvChunkOverlap       = "CHUNK_OVERLAP_WORDS"
	EnvSimilarityThresh   = "TITLE_SIMILARITY_THRESHOLD"
	EnvConcurrency        = "INGEST_CONCURRENCY"
)

// Defaults applied when a variable is unset.
const (
	DefaultDBPath       = "scholargraph.db"
	DefaultModel        = "nomic-embed-text"
	DefaultDimension    = 768
	DefaultTimeoutSecs  = 5
	DefaultChunkSize    = 3500
	DefaultChunkOverlap = 400
)

// Config holds every runtime setting the commands need.
type Config struct {
	DBPath string

	// Embedding backends. EmbeddingURL empty means local-only embedding.
	EmbeddingURL         string
	EmbeddingFallbackURL string
	EmbeddingModel       string
	EmbeddingDimension   int
	EmbeddingTimeout     time.Duration

	ChunkSizeWords    int
	ChunkOverlapWords int

	// TitleSimilarityThreshold zero selects the versioning default.
	TitleSimilarityThreshold float64

	IngestConcurrency int
}

// Load reads a .env file if one exists, then builds the config from the
// environment with defaults filled in.
func Load() (*Config, error) {
	// Missing .env is the common case, not an error
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:               getEnv(EnvDBPath, DefaultDBPath),
		EmbeddingURL:         os.Getenv(EnvEmbeddingURL),
		EmbeddingFallbackURL: os.Getenv(EnvEmbeddingFallback),
		EmbeddingModel:       getEnv(EnvEmbeddingModel, DefaultModel),
	}

	var err error
	if cfg.EmbeddingDimension, err = getEnvInt(EnvEmbeddingDimension, DefaultDimension); err != nil {
		return nil, err
	}
	timeoutSecs, err := getEnvInt(EnvEmbeddingTimeout, DefaultTimeoutSecs)
	if err != nil {
		return nil, err
	}
	cfg.EmbeddingTimeout = time.Duration(timeoutSecs) * time.Second

	if cfg.ChunkSizeWords, err = getEnvInt(EnvChunkSize, DefaultChunkSize); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlapWords, err = getEnvInt(EnvChunkOverlap, DefaultChunkOverlap); err != nil {
		return nil, err
	}
	if cfg.TitleSimilarityThreshold, err = getEnvFloat(EnvSimilarityThresh, 0); err != nil {
		return nil, err
	}
	if cfg.IngestConcurrency, err = getEnvInt(EnvConcurrency, 0); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("%s must be positive, got %d", EnvEmbeddingDimension, c.EmbeddingDimension)
	}
	if c.ChunkSizeWords <= 0 {
		return fmt.Errorf("%s must be positive, got %d", EnvChunkSize, c.ChunkSizeWords)
	}
	if c.ChunkOverlapWords < 0 || c.ChunkOverlapWords >= c.ChunkSizeWords {
		return fmt.Errorf("%s must be in [0, %s), got %d", EnvChunkOverlap, EnvChunkSize, c.ChunkOverlapWords)
	}
	if c.TitleSimilarityThreshold < 0 || c.TitleSimilarityThreshold > 1 {
		return fmt.Errorf("%s must be in [0, 1], got %g", EnvSimilarityThresh, c.TitleSimilarityThreshold)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q is not an integer", key, v)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q is not a number", key, v)
	}
	return f, nil
}
