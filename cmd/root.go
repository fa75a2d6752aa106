package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oaicorpus",
		Short: "Build a filtered paper corpus from harvested arXiv OAI-PMH records",
		Long: `oaicorpus turns a directory of harvested arXiv oai_dc records into a
structured dataset.

Records are filtered by subject, and each accepted paper becomes one
(title, authors, year, reference) entry plus its abstract. The two
sequences are written as aligned archives.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.AddCommand(newExtractCmd())
	cmd.AddCommand(newSnapshotCmd())
	cmd.AddCommand(newInspectCmd())

	return cmd
}
