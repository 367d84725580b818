package cli

import (
	"github.com/spf13/cobra"

	"scholargraph/internal/store"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("scholargraph version %s (%s build)\n", version, store.BuildMode)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
