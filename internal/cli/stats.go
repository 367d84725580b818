package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"scholargraph/internal/store"
)

var statsFormat string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsFormat, "format", "text", "output format: text or json")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	s, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	stats, err := s.Stats(cmd.Context())
	if err != nil {
		return err
	}

	if statsFormat == "json" {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Database:        %s (%s build)\n", cfg.DBPath, store.BuildMode)
	cmd.Printf("Documents:       %d (%d latest)\n", stats.Documents, stats.LatestDocuments)
	cmd.Printf("Chunks:          %d\n", stats.Chunks)
	cmd.Printf("Embeddings:      %d\n", stats.Embeddings)
	if stats.Dimension > 0 {
		cmd.Printf("Dimension:       %d\n", stats.Dimension)
	}
	cmd.Printf("Topics:          %d\n", stats.Topics)
	cmd.Printf("Supersessions:   %d\n", stats.Supersessions)
	cmd.Printf("Size:            %.2f MB\n", stats.DatabaseSizeMB)
	return nil
}
