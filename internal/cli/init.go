package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"scholargraph/internal/store"
)

var initDimension int

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database schema",
	Long: `Creates the corpus database and records the embedding vector dimension.
The dimension is fixed at init time; later ingests use the recorded value.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().IntVar(&initDimension, "dimension", 0, "embedding vector dimension (default from EMBEDDING_DIMENSION)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	s, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	dimension := initDimension
	if dimension <= 0 {
		dimension = cfg.EmbeddingDimension
	}
	if dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", dimension)
	}

	ctx := cmd.Context()
	if existing, err := s.GetMeta(ctx, store.MetaDimension); err == nil && existing != strconv.Itoa(dimension) {
		return fmt.Errorf("store already initialized with dimension %s; re-ingest into a fresh database to change it", existing)
	}
	if err := s.SetMeta(ctx, store.MetaDimension, strconv.Itoa(dimension)); err != nil {
		return fmt.Errorf("failed to record dimension: %w", err)
	}

	cmd.Printf("Initialized %s (dimension %d, %s build)\n", cfg.DBPath, dimension, store.BuildMode)
	return nil
}
