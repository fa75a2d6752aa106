package cmd

import (
	"fmt"

	"github.com/lehigh-university-libraries/oaicorpus/internal/pipeline"
	"github.com/spf13/cobra"
)

func newSnapshotCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "List a harvest directory and save the file snapshot",
		Long: `Snapshot records the files of a harvest directory without parsing them.

A later "extract --reuse-snapshot" processes exactly these files, even if
the harvest keeps adding records in the meantime.`,
		Example: `  oaicorpus snapshot --input ./harvest --snapshot files.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd.ErrOrStderr(), opts.verbose)

			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			cfg.ReuseSnapshot = false

			p, err := pipeline.New(cfg)
			if err != nil {
				return err
			}
			snapshot, err := p.Inventory()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d files from %s to %s\n", len(snapshot.Files), snapshot.Dir, cfg.SnapshotPath)
			return nil
		},
	}

	opts.addInputFlags(cmd)

	return cmd
}
