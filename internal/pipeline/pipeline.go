// Package pipeline runs one extraction: inventory, parse, filter, extract,
// accumulate and commit.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/lehigh-university-libraries/oaicorpus/internal/config"
	"github.com/lehigh-university-libraries/oaicorpus/internal/corpus"
	"github.com/lehigh-university-libraries/oaicorpus/internal/dataset"
	"github.com/lehigh-university-libraries/oaicorpus/internal/extract"
	"github.com/lehigh-university-libraries/oaicorpus/internal/inventory"
	"github.com/lehigh-university-libraries/oaicorpus/internal/record"
	"golang.org/x/sync/errgroup"
)

// Skip reasons reported in Result.Skipped
const (
	ReasonParse         = "parse"
	ReasonMissingField  = "missing_field"
	ReasonMalformedDate = "malformed_date"
)

// progressEvery controls how often progress is logged
const progressEvery = 1000

// Result summarizes a run
type Result struct {
	Snapshot    *inventory.Snapshot
	Corpus      *corpus.Corpus
	Inventoried int
	Accepted    int
	Rejected    int
	Skipped     map[string]int
	Duration    time.Duration
}

// SkippedTotal is the number of records dropped because of per-record errors
func (r *Result) SkippedTotal() int {
	total := 0
	for _, n := range r.Skipped {
		total += n
	}
	return total
}

// RecordError is a per-record failure tied to its source file
type RecordError struct {
	File string
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Reason classifies a per-record error
func Reason(err error) string {
	var missing *extract.MissingFieldError
	var malformed *extract.MalformedDateError
	switch {
	case errors.As(err, &missing):
		return ReasonMissingField
	case errors.As(err, &malformed):
		return ReasonMalformedDate
	default:
		return ReasonParse
	}
}

// outcome is the result of processing one file
type outcome struct {
	accepted    bool
	summary     corpus.Summary
	description string
	err         error
}

// Pipeline holds the immutable collaborators of a run
type Pipeline struct {
	cfg       *config.Config
	allow     extract.AllowList
	extractor *extract.Extractor
}

// New creates a pipeline for cfg
func New(cfg *config.Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	p := &Pipeline{
		cfg:       cfg,
		allow:     extract.NewAllowList(cfg.AllowedSubjects...),
		extractor: extract.NewExtractor(cfg.ReferencePrefix),
	}
	slog.Debug("Pipeline configured",
		"subjects", p.allow.Len(),
		"reference_prefix", cfg.ReferencePrefix,
		"workers", cfg.Workers)
	return p, nil
}

// Run executes the full extraction and writes both archives
func Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	p, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx)
}

// Run executes the full extraction and writes both archives.
// Nothing is written when it returns an error, apart from the snapshot.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	// Snapshot the input directory
	snapshot, err := p.Inventory()
	if err != nil {
		return nil, err
	}

	// Parse, filter and extract every file
	result, err := p.Process(ctx, snapshot)
	if err != nil {
		return nil, err
	}

	// Write both archives together
	slog.Info("Writing archives",
		"summaries", p.cfg.SummariesPath,
		"descriptions", p.cfg.DescriptionsPath,
		"records", result.Corpus.Len())

	if err := dataset.Commit(p.cfg.SummariesPath, p.cfg.DescriptionsPath, result.Corpus); err != nil {
		return nil, fmt.Errorf("failed to write archives: %w", err)
	}

	result.Duration = time.Since(start)
	return result, nil
}

// Inventory produces the snapshot the run processes. The snapshot is synced
// to disk and read back, so a resumed run sees exactly the same files.
func (p *Pipeline) Inventory() (*inventory.Snapshot, error) {
	if p.cfg.ReuseSnapshot && inventory.Exists(p.cfg.SnapshotPath) {
		slog.Info("Reusing file snapshot", "path", p.cfg.SnapshotPath)
		return inventory.LoadSnapshot(p.cfg.SnapshotPath)
	}

	slog.Info("Listing input directory", "path", p.cfg.InputPath)
	snapshot, err := inventory.Take(p.cfg.InputPath)
	if err != nil {
		return nil, err
	}

	if err := inventory.SaveSnapshot(p.cfg.SnapshotPath, snapshot); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}
	slog.Info("Saved file snapshot", "path", p.cfg.SnapshotPath, "files", len(snapshot.Files))

	return inventory.LoadSnapshot(p.cfg.SnapshotPath)
}

// Process parses, filters and extracts every file of the snapshot into a new corpus.
// Entries are appended in snapshot order regardless of the worker count.
func (p *Pipeline) Process(ctx context.Context, snapshot *inventory.Snapshot) (*Result, error) {
	dir := snapshot.Dir
	if dir == "" {
		dir = p.cfg.InputPath
	}

	outcomes := make([]outcome, len(snapshot.Files))

	if p.cfg.Workers <= 1 {
		// Sequential
		for i, name := range snapshot.Files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			outcomes[i] = p.processFile(filepath.Join(dir, name))
			if p.cfg.Strict && outcomes[i].err != nil {
				return nil, &RecordError{File: name, Err: outcomes[i].err}
			}
			logProgress(i+1, len(snapshot.Files))
		}
	} else {
		// Bounded worker pool
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.cfg.Workers)

		for i, name := range snapshot.Files {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				// each goroutine owns its slot, so no lock is needed
				outcomes[i] = p.processFile(filepath.Join(dir, name))
				if p.cfg.Strict && outcomes[i].err != nil {
					return &RecordError{File: name, Err: outcomes[i].err}
				}
				logProgress(i+1, len(snapshot.Files))
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	result := &Result{
		Snapshot:    snapshot,
		Corpus:      corpus.New(),
		Inventoried: len(snapshot.Files),
		Skipped:     map[string]int{},
	}

	// Accumulate in snapshot order
	for i, o := range outcomes {
		name := snapshot.Files[i]
		switch {
		case o.err != nil:
			reason := Reason(o.err)
			result.Skipped[reason]++
			slog.Warn("Skipping record", "file", name, "reason", reason, "error", o.err)
		case !o.accepted:
			result.Rejected++
		default:
			result.Corpus.Append(name, o.summary, o.description)
			result.Accepted++
		}
	}

	slog.Info("Processed records",
		"inventoried", result.Inventoried,
		"accepted", result.Accepted,
		"rejected", result.Rejected,
		"skipped", result.SkippedTotal())

	return result, nil
}

func (p *Pipeline) processFile(path string) outcome {
	rec, err := record.Parse(path)
	if err != nil {
		return outcome{err: err}
	}

	if !p.allow.Accepts(rec) {
		return outcome{}
	}

	summary, description, err := p.extractor.Extract(rec)
	if err != nil {
		return outcome{err: err}
	}

	return outcome{accepted: true, summary: summary, description: description}
}

func logProgress(done, total int) {
	if done%progressEvery == 0 {
		slog.Debug("Processing files", "done", done, "total", total)
	}
}
