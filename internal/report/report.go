// Package report renders the outcome of an extraction run as a terminal
// summary and as a YAML file.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/oaicorpus/internal/config"
	"github.com/lehigh-university-libraries/oaicorpus/internal/pipeline"
	"gopkg.in/yaml.v3"
)

// RunConfig is the configuration section of the report
type RunConfig struct {
	InputPath        string   `yaml:"inputpath"`
	SummariesPath    string   `yaml:"summariespath"`
	DescriptionsPath string   `yaml:"descriptionspath"`
	SnapshotPath     string   `yaml:"snapshotpath"`
	AllowedSubjects  []string `yaml:"allowedsubjects"`
	ReferencePrefix  string   `yaml:"referenceprefix"`
	Workers          int      `yaml:"workers"`
	Strict           bool     `yaml:"strict"`
}

// RunStats holds the record counts of the run
type RunStats struct {
	Inventoried int            `yaml:"inventoried"`
	Accepted    int            `yaml:"accepted"`
	Rejected    int            `yaml:"rejected"`
	Skipped     map[string]int `yaml:"skipped"`
}

// RunReport is the complete report of one run
type RunReport struct {
	RunID     string    `yaml:"runid"`
	Timestamp string    `yaml:"timestamp"`
	Duration  string    `yaml:"duration"`
	Config    RunConfig `yaml:"config"`
	Stats     RunStats  `yaml:"stats"`
}

// New builds a report for result under a fresh run ID
func New(cfg *config.Config, result *pipeline.Result) *RunReport {
	skipped := make(map[string]int, len(result.Skipped))
	for reason, n := range result.Skipped {
		skipped[reason] = n
	}

	return &RunReport{
		RunID:     uuid.NewString(),
		Timestamp: time.Now().Format("2006-01-02_15-04-05"),
		Duration:  result.Duration.Round(time.Millisecond).String(),
		Config: RunConfig{
			InputPath:        cfg.InputPath,
			SummariesPath:    cfg.SummariesPath,
			DescriptionsPath: cfg.DescriptionsPath,
			SnapshotPath:     cfg.SnapshotPath,
			AllowedSubjects:  cfg.AllowedSubjects,
			ReferencePrefix:  cfg.ReferencePrefix,
			Workers:          cfg.Workers,
			Strict:           cfg.Strict,
		},
		Stats: RunStats{
			Inventoried: result.Inventoried,
			Accepted:    result.Accepted,
			Rejected:    result.Rejected,
			Skipped:     skipped,
		},
	}
}

// SaveToYAML writes the report to path
func (r *RunReport) SaveToYAML(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}

// LoadYAML reads a report written by SaveToYAML
func LoadYAML(path string) (*RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var r RunReport
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &r, nil
}

// PrintSummary prints a human-readable summary of the run
func (r *RunReport) PrintSummary(w io.Writer) {
	total := r.Stats.Inventoried

	fmt.Fprintln(w, "\n"+strings.Repeat("=", 70))
	fmt.Fprintln(w, "CORPUS EXTRACTION SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "Run ID: %s\n", r.RunID)
	fmt.Fprintf(w, "Input: %s\n", r.Config.InputPath)
	fmt.Fprintf(w, "Duration: %s\n", r.Duration)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "RECORDS")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	fmt.Fprintf(w, "Inventoried: %d\n", total)
	fmt.Fprintf(w, "Accepted: %d (%.1f%%)\n", r.Stats.Accepted, percent(r.Stats.Accepted, total))
	fmt.Fprintf(w, "Rejected by subject: %d (%.1f%%)\n", r.Stats.Rejected, percent(r.Stats.Rejected, total))

	skippedTotal := 0
	reasons := make([]string, 0, len(r.Stats.Skipped))
	for reason, n := range r.Stats.Skipped {
		skippedTotal += n
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)

	fmt.Fprintf(w, "Skipped: %d (%.1f%%)\n", skippedTotal, percent(skippedTotal, total))
	for _, reason := range reasons {
		fmt.Fprintf(w, "  %s: %d\n", reason, r.Stats.Skipped[reason])
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "OUTPUT")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	fmt.Fprintf(w, "Summaries: %s\n", r.Config.SummariesPath)
	fmt.Fprintf(w, "Descriptions: %s\n", r.Config.DescriptionsPath)
	fmt.Fprintln(w, strings.Repeat("=", 70))
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
