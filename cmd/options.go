package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/lehigh-university-libraries/oaicorpus/internal/config"
	"github.com/spf13/cobra"
)

// runOptions are the flags shared by the commands that read a harvest directory
type runOptions struct {
	configPath      string
	input           string
	summaries       string
	descriptions    string
	snapshot        string
	subjects        []string
	referencePrefix string
	workers         int
	strict          bool
	reuseSnapshot   bool
	report          string
	verbose         bool
}

func (o *runOptions) addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.configPath, "config", "", "Path to a YAML configuration file")
	cmd.Flags().StringVar(&o.input, "input", "", "Directory of harvested oai_dc XML records")
	cmd.Flags().StringVar(&o.snapshot, "snapshot", config.DefaultSnapshotPath, "Path of the file inventory snapshot")
	cmd.Flags().BoolVar(&o.verbose, "verbose", false, "Verbose logging")
}

func (o *runOptions) addExtractFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.summaries, "summaries", "", "Output archive for (title, authors, year, reference) entries (.parquet or .jsonl.zst)")
	cmd.Flags().StringVar(&o.descriptions, "descriptions", "", "Output archive for descriptions (.parquet or .jsonl.zst)")
	cmd.Flags().StringSliceVar(&o.subjects, "subject", nil, "Subject label to keep (repeatable, replaces the default allow-list)")
	cmd.Flags().StringVar(&o.referencePrefix, "reference-prefix", config.DefaultReferencePrefix, "Prefix selecting the reference identifier")
	cmd.Flags().IntVar(&o.workers, "workers", 1, "Number of files parsed concurrently")
	cmd.Flags().BoolVar(&o.strict, "strict", false, "Abort on the first malformed record instead of skipping it")
	cmd.Flags().BoolVar(&o.reuseSnapshot, "reuse-snapshot", false, "Process the files of an existing snapshot instead of listing the directory")
	cmd.Flags().StringVar(&o.report, "report", "", "Write a YAML run report to this path")
}

// resolve layers defaults, the config file, the environment and explicitly set flags
func (o *runOptions) resolve(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	if changed("input") {
		cfg.InputPath = o.input
	}
	if changed("snapshot") {
		cfg.SnapshotPath = o.snapshot
	}
	if changed("summaries") {
		cfg.SummariesPath = o.summaries
	}
	if changed("descriptions") {
		cfg.DescriptionsPath = o.descriptions
	}
	if changed("subject") {
		cfg.AllowedSubjects = o.subjects
	}
	if changed("reference-prefix") {
		cfg.ReferencePrefix = o.referencePrefix
	}
	if changed("workers") {
		cfg.Workers = o.workers
	}
	if changed("strict") {
		cfg.Strict = o.strict
	}
	if changed("reuse-snapshot") {
		cfg.ReuseSnapshot = o.reuseSnapshot
	}
	if changed("report") {
		cfg.ReportPath = o.report
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setupLogging(w io.Writer, verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}
