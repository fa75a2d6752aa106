package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/lehigh-university-libraries/oaicorpus/internal/config"
	"github.com/lehigh-university-libraries/oaicorpus/internal/pipeline"
	"github.com/lehigh-university-libraries/oaicorpus/internal/report"
	"github.com/spf13/cobra"
)

func newExtractCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract the filtered corpus from a harvest directory",
		Long: `Extract lists the harvest directory, saves a snapshot of the file list,
then parses every record. Records carrying at least one allowed subject
are reduced to (title, authors, year, reference) plus their description.

Malformed records are logged and skipped unless --strict is set. Both
archives are replaced together at the end of the run, or not at all.`,
		Example: `  # Extract with the default computer science allow-list
  oaicorpus extract --input ./harvest

  # Keep only machine learning papers, written as zstd JSON lines
  oaicorpus extract --input ./harvest --subject "Computer Science - Machine Learning" \
    --summaries ml.jsonl.zst --descriptions ml_abstracts.jsonl.zst

  # Parse with 8 workers and keep a run report
  oaicorpus extract --config oaicorpus.yaml --workers 8 --report reports/run.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd.ErrOrStderr(), opts.verbose)

			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			return executeExtract(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	opts.addInputFlags(cmd)
	opts.addExtractFlags(cmd)

	return cmd
}

func executeExtract(ctx context.Context, cfg *config.Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	slog.Info("Starting corpus extraction",
		"input", cfg.InputPath,
		"subjects", len(cfg.AllowedSubjects),
		"workers", cfg.Workers,
		"strict", cfg.Strict)

	result, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return err
	}

	r := report.New(cfg, result)
	r.PrintSummary(out)

	if cfg.ReportPath != "" {
		if err := r.SaveToYAML(cfg.ReportPath); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		slog.Info("Saved run report", "path", cfg.ReportPath, "run_id", r.RunID)
	}

	return nil
}
