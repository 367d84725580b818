package cli

import (
	"github.com/spf13/cobra"

	"scholargraph/internal/ingest"
)

var (
	ingestNoEmbeddings bool
	ingestForce        bool
	ingestNoDetect     bool
	ingestConcurrency  int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>",
	Short: "Ingest a file or directory into the corpus",
	Long: `Extracts, chunks, embeds, and stores documents. Directories are processed
as a batch: per-file failures are reported in the summary, not fatal.
Unchanged files (matching fingerprint) are skipped unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestNoEmbeddings, "no-embeddings", false, "store structure and text only, skip vector generation")
	ingestCmd.Flags().BoolVar(&ingestForce, "force", false, "re-ingest files whose content is unchanged")
	ingestCmd.Flags().BoolVar(&ingestNoDetect, "no-detect", false, "skip supersession detection for new documents")
	ingestCmd.Flags().IntVar(&ingestConcurrency, "concurrency", 0, "parallel files in a directory batch (default 4)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	s, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	pipeline, err := buildPipeline(cmd, s, cfg)
	if err != nil {
		return err
	}

	opts := ingest.Options{
		Embeddings:          !ingestNoEmbeddings,
		Force:               ingestForce,
		Concurrency:         ingestConcurrency,
		DetectSupersessions: !ingestNoDetect,
	}
	if opts.Concurrency == 0 {
		opts.Concurrency = cfg.IngestConcurrency
	}

	summary, err := pipeline.Ingest(cmd.Context(), args[0], opts)
	if summary != nil {
		printSummary(cmd, summary)
	}
	return err
}

func printSummary(cmd *cobra.Command, summary *ingest.Summary) {
	for _, item := range summary.Items {
		switch {
		case item.Reason != "":
			cmd.Printf("  %-9s %s (%s)\n", item.Outcome, item.Path, item.Reason)
		case item.NoEmbeddings:
			cmd.Printf("  %-9s %s (%d chunks, no embeddings)\n", item.Outcome, item.Path, item.Chunks)
		case item.Chunks > 0:
			cmd.Printf("  %-9s %s (%d chunks)\n", item.Outcome, item.Path, item.Chunks)
		default:
			cmd.Printf("  %-9s %s\n", item.Outcome, item.Path)
		}
	}
	cmd.Printf("Ingested %d, skipped %d, failed %d\n", summary.Succeeded, summary.Skipped, summary.Failed)
	for _, edge := range summary.Supersessions {
		cmd.Printf("Supersession: %q replaces %q (%s)\n", edge.NewerTitle, edge.OlderTitle, edge.Reason)
	}
}
