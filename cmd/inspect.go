package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/lehigh-university-libraries/oaicorpus/internal/config"
	"github.com/lehigh-university-libraries/oaicorpus/internal/dataset"
	"github.com/spf13/cobra"
)

// previewChars bounds how much of a description is printed
const previewChars = 500

func newInspectCmd() *cobra.Command {
	var summariesPath string
	var descriptionsPath string
	var limit int

	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print entries of previously written archives",
		Long: `Inspect loads a summaries archive, and optionally the matching
descriptions archive, and prints their entries side by side.

It fails if the two archives are not aligned.`,
		Example: `  # Show the first 10 entries with their descriptions
  oaicorpus inspect

  # Show every entry of a zstd JSON lines archive, without descriptions
  oaicorpus inspect --summaries ml.jsonl.zst --descriptions "" --limit 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return executeInspect(ctx, cmd.OutOrStdout(), summariesPath, descriptionsPath, limit)
		},
	}

	cmd.Flags().StringVar(&summariesPath, "summaries", defaults.SummariesPath, "Summaries archive to read")
	cmd.Flags().StringVar(&descriptionsPath, "descriptions", defaults.DescriptionsPath, "Descriptions archive to read (empty to skip)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of entries to print (0 for all)")

	return cmd
}

func executeInspect(ctx context.Context, out io.Writer, summariesPath, descriptionsPath string, limit int) error {
	summaries, err := dataset.NewLoader(summariesPath).Summaries()
	if err != nil {
		return fmt.Errorf("failed to load summaries: %w", err)
	}

	var descriptions []string
	if descriptionsPath != "" {
		descriptions, err = dataset.NewLoader(descriptionsPath).Descriptions()
		if err != nil {
			return fmt.Errorf("failed to load descriptions: %w", err)
		}
		if len(descriptions) != len(summaries) {
			return fmt.Errorf("archives are not aligned: %d summaries, %d descriptions", len(summaries), len(descriptions))
		}
	}

	fmt.Fprintf(out, "Loaded %d entries from %s\n", len(summaries), summariesPath)
	fmt.Fprintln(out, strings.Repeat("=", 80))
	fmt.Fprintln(out)

	n := len(summaries)
	if limit > 0 && limit < n {
		n = limit
	}

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nInspection interrupted.")
			return nil
		default:
		}

		s := summaries[i]
		fmt.Fprintf(out, "ENTRY %d/%d\n", i+1, len(summaries))
		fmt.Fprintln(out, strings.Repeat("-", 80))
		fmt.Fprintf(out, "Title:      %s\n", s.Title)
		fmt.Fprintf(out, "Authors:    %s\n", strings.Join(s.Authors, "; "))
		fmt.Fprintf(out, "Year:       %d\n", s.Year)
		fmt.Fprintf(out, "Reference:  %s\n", s.Reference)

		if descriptions != nil {
			text := descriptions[i]
			truncated := false
			if len([]rune(text)) > previewChars {
				text = string([]rune(text)[:previewChars])
				truncated = true
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, text)
			if truncated {
				fmt.Fprintf(out, "[... truncated, showing first %d characters ...]\n", previewChars)
			}
		}
		fmt.Fprintln(out)
	}

	return nil
}
