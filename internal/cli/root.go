// Package cli wires the scholargraph commands. Each command opens the store
// for its own invocation; there is no long-lived daemon state.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"scholargraph/internal/chunker"
	"scholargraph/internal/config"
	"scholargraph/internal/embedder"
	"scholargraph/internal/ingest"
	"scholargraph/internal/store"
)

// version is stamped by the build.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "scholargraph",
	Short: "Hybrid retrieval over a versioned research corpus",
	Long: `scholargraph ingests research documents into a chunked, embedded corpus
and answers queries with hybrid semantic + keyword search. Newer versions of
a document supersede older ones; search returns latest versions only unless
asked otherwise.`,
	SilenceUsage: true,
}

// Execute runs the CLI and returns the failure, if any, for main to map to
// an exit code.
func Execute() error {
	return rootCmd.Execute()
}

// openStore loads config and opens (creating if needed) the database.
func openStore() (*store.SQLiteStore, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store at %s: %w", cfg.DBPath, err)
	}
	return s, cfg, nil
}

// buildEmbedder constructs the configured embedding chain. The stored
// dimension, fixed at init time, wins over the environment when they differ.
func buildEmbedder(cfg *config.Config, storedDimension int) (embedder.Provider, error) {
	dimension := cfg.EmbeddingDimension
	if storedDimension > 0 {
		dimension = storedDimension
	}
	return embedder.New(embedder.Config{
		PreferredURL: cfg.EmbeddingURL,
		FallbackURL:  cfg.EmbeddingFallbackURL,
		Model:        cfg.EmbeddingModel,
		Dimension:    dimension,
		Timeout:      cfg.EmbeddingTimeout,
	})
}

// storedDimension reads the dimension recorded by init, 0 when unset.
func storedDimension(cmd *cobra.Command, s *store.SQLiteStore) int {
	value, err := s.GetMeta(cmd.Context(), store.MetaDimension)
	if err != nil {
		return 0
	}
	var n int
	if _, err := fmt.Sscanf(value, "%d", &n); err != nil {
		return 0
	}
	return n
}

// buildPipeline assembles the full ingestion pipeline from config.
func buildPipeline(cmd *cobra.Command, s *store.SQLiteStore, cfg *config.Config) (*ingest.Pipeline, error) {
	c, err := chunker.New(cfg.ChunkSizeWords, cfg.ChunkOverlapWords)
	if err != nil {
		return nil, err
	}
	provider, err := buildEmbedder(cfg, storedDimension(cmd, s))
	if err != nil {
		return nil, err
	}
	return ingest.NewPipeline(s, c, provider, cfg.EmbeddingModel, cfg.TitleSimilarityThreshold), nil
}
