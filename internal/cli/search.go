package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"scholargraph/internal/search"
	"scholargraph/internal/store"
)

var (
	searchMode        string
	searchK           int
	searchFormat      string
	searchDaysAgo     int
	searchAllVersions bool
	searchMinScore    float64
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the corpus",
	Long: `Searches stored chunks. Hybrid mode fuses semantic similarity and keyword
relevance (0.7/0.3); semantic and keyword modes use one signal alone.
Results come from latest document versions unless --all-versions is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchMode, "mode", "hybrid", "search mode: semantic, keyword, or hybrid")
	searchCmd.Flags().IntVar(&searchK, "k", 10, "maximum number of results")
	searchCmd.Flags().StringVar(&searchFormat, "format", "text", "output format: text or json")
	searchCmd.Flags().IntVar(&searchDaysAgo, "days-ago", 0, "only documents published in the last N days")
	searchCmd.Flags().BoolVar(&searchAllVersions, "all-versions", false, "include superseded document versions")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "drop results scoring below this value")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	mode, err := search.ParseMode(searchMode)
	if err != nil {
		return err
	}
	if searchFormat != "text" && searchFormat != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", searchFormat)
	}

	s, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	provider, err := buildEmbedder(cfg, storedDimension(cmd, s))
	if err != nil {
		return err
	}
	defer func() { _ = provider.Close() }()

	filters := &store.SearchFilters{
		IncludeSuperseded: searchAllVersions,
		MinScore:          searchMinScore,
	}
	if searchDaysAgo > 0 {
		cutoff := time.Now().AddDate(0, 0, -searchDaysAgo)
		filters.PublishedAfter = &cutoff
	}

	searcher := search.NewSearcher(s, provider)
	resp, err := searcher.Search(cmd.Context(), search.Request{
		Query:    args[0],
		Mode:     mode,
		Limit:    searchK,
		Filters:  filters,
		UseCache: true,
	})
	if err != nil {
		return err
	}

	if resp.Warning != "" {
		cmd.PrintErrf("warning: %s\n", resp.Warning)
	}
	if searchFormat == "json" {
		data, err := json.MarshalIndent(resp.Results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}
	for i, r := range resp.Results {
		cmd.Printf("[%d] %s (score %.3f, chunk %d)\n", i+1, r.DocumentTitle, r.Score, r.ChunkIndex)
		cmd.Printf("    %s\n", snippet(r.ChunkText, 200))
	}
	return nil
}

// snippet trims chunk text to a single displayable line.
func snippet(text string, limit int) string {
	out := make([]rune, 0, limit)
	for _, r := range text {
		if r == '\n' || r == '\t' {
			r = ' '
		}
		out = append(out, r)
		if len(out) >= limit {
			return string(out) + "..."
		}
	}
	return string(out)
}
