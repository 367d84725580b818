package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"scholargraph/internal/versioning"
)

// metaTemporalReady marks a store whose documents carry version state.
const metaTemporalReady = "temporal_schema_ready"

var initTemporalCmd = &cobra.Command{
	Use:   "init-temporal",
	Short: "Prepare the corpus for temporal versioning",
	Long: `Marks the store ready for supersession tracking. Documents ingested
before this command keep their state; run detect-supersessions to link
pre-existing versions retroactively.`,
	Args: cobra.NoArgs,
	RunE: runInitTemporal,
}

var (
	detectDryRun bool
	detectFormat string
)

var detectCmd = &cobra.Command{
	Use:   "detect-supersessions",
	Short: "Retroactively link document versions",
	Long: `Scans all latest documents oldest-first and records supersession edges
between versions of the same work. With --dry-run the intended edges are
printed without modifying the store.`,
	Args: cobra.NoArgs,
	RunE: runDetect,
}

var summaryFormat string

var summaryCmd = &cobra.Command{
	Use:   "supersession-summary",
	Short: "Show version-chain statistics",
	Args:  cobra.NoArgs,
	RunE:  runSupersessionSummary,
}

func init() {
	detectCmd.Flags().BoolVar(&detectDryRun, "dry-run", false, "report intended edges without writing them")
	detectCmd.Flags().StringVar(&detectFormat, "format", "text", "output format: text or json")
	summaryCmd.Flags().StringVar(&summaryFormat, "format", "text", "output format: text or json")
	rootCmd.AddCommand(initTemporalCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(summaryCmd)
}

func runInitTemporal(cmd *cobra.Command, _ []string) error {
	s, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	ctx := cmd.Context()
	if err := s.SetMeta(ctx, metaTemporalReady, "1"); err != nil {
		return err
	}
	summary, err := s.SupersessionSummary(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Temporal versioning ready on %s: %d documents, %d already in version chains\n",
		cfg.DBPath, summary.TotalDocuments, summary.SupersededVersions)
	return nil
}

func runDetect(cmd *cobra.Command, _ []string) error {
	s, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	detector := versioning.NewDetector(s, cfg.TitleSimilarityThreshold)
	report, err := detector.DetectAll(cmd.Context(), detectDryRun)
	if err != nil {
		return err
	}

	if detectFormat == "json" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	verb := "Recorded"
	if report.DryRun {
		verb = "Would record"
	}
	cmd.Printf("Checked %d documents\n", report.DocumentsChecked)
	for _, edge := range report.Recorded {
		cmd.Printf("  %s: %q supersedes %q (%s)\n", verb, edge.NewerTitle, edge.OlderTitle, edge.Reason)
	}
	for _, item := range report.Review {
		cmd.Printf("  Needs review: %q matched %d documents, no edge recorded\n", item.Title, len(item.Candidates))
	}
	if len(report.Recorded) == 0 && len(report.Review) == 0 {
		cmd.Println("No supersessions found.")
	}
	return nil
}

func runSupersessionSummary(cmd *cobra.Command, _ []string) error {
	s, _, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	summary, err := s.SupersessionSummary(cmd.Context())
	if err != nil {
		return err
	}

	if summaryFormat == "json" {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Documents:            %d\n", summary.TotalDocuments)
	cmd.Printf("Latest versions:      %d\n", summary.LatestVersions)
	cmd.Printf("Superseded versions:  %d\n", summary.SupersededVersions)
	cmd.Printf("Supersession edges:   %d\n", summary.SupersessionEdges)
	return nil
}
