package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scholargraph/pkg/types"
)

var (
	listFormat      string
	listAllVersions bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents in the corpus",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listFormat, "format", "text", "output format: text or json")
	listCmd.Flags().BoolVar(&listAllVersions, "all-versions", false, "include superseded document versions")
	rootCmd.AddCommand(listCmd)
}

// listedDocument is the stable JSON shape of one list entry.
type listedDocument struct {
	DocID       string     `json:"doc_id"`
	Title       string     `json:"title"`
	Authors     []string   `json:"authors,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	SourcePath  string     `json:"source_path"`
	DOI         string     `json:"doi,omitempty"`
	State       string     `json:"state"`
	Version     int        `json:"version"`
	IngestedAt  time.Time  `json:"ingested_at"`
}

func runList(cmd *cobra.Command, _ []string) error {
	if listFormat != "text" && listFormat != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", listFormat)
	}

	s, _, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	docs, err := s.ListDocuments(cmd.Context(), !listAllVersions)
	if err != nil {
		return err
	}

	if listFormat == "json" {
		out := make([]listedDocument, len(docs))
		for i, d := range docs {
			out[i] = listedDocument{
				DocID:       d.DocID,
				Title:       d.Title,
				Authors:     d.Authors,
				PublishedAt: d.PublishedAt,
				SourcePath:  d.SourcePath,
				DOI:         d.DOI,
				State:       string(d.State),
				Version:     d.Version,
				IngestedAt:  d.IngestedAt,
			}
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	if len(docs) == 0 {
		cmd.Println("No documents in the corpus.")
		return nil
	}
	for _, d := range docs {
		marker := ""
		if d.State == types.DocumentSuperseded {
			marker = " [superseded]"
		}
		cmd.Printf("%s v%d%s\n", d.Title, d.Version, marker)
		if len(d.Authors) > 0 {
			cmd.Printf("    %s\n", strings.Join(d.Authors, ", "))
		}
		cmd.Printf("    %s\n", d.SourcePath)
	}
	cmd.Printf("%d documents\n", len(docs))
	return nil
}
