package report

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/oaicorpus/internal/config"
	"github.com/lehigh-university-libraries/oaicorpus/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		Inventoried: 10,
		Accepted:    6,
		Rejected:    2,
		Skipped: map[string]int{
			pipeline.ReasonMissingField: 1,
			pipeline.ReasonParse:        1,
		},
		Duration: 1500 * time.Millisecond,
	}
}

func sampleConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.InputPath = "/data/harvest"
	return cfg
}

func TestNew(t *testing.T) {
	r := New(sampleConfig(), sampleResult())

	_, err := uuid.Parse(r.RunID)
	assert.NoError(t, err)
	assert.Equal(t, "1.5s", r.Duration)
	assert.Equal(t, 6, r.Stats.Accepted)
	assert.Equal(t, 1, r.Stats.Skipped[pipeline.ReasonParse])
	assert.Equal(t, config.DefaultAllowedSubjects, r.Config.AllowedSubjects)
}

func TestSaveAndLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "run.yaml")
	r := New(sampleConfig(), sampleResult())

	require.NoError(t, r.SaveToYAML(path))

	loaded, err := LoadYAML(path)
	require.NoError(t, err)
	assert.Equal(t, r, loaded)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	New(sampleConfig(), sampleResult()).PrintSummary(&buf)

	out := buf.String()
	assert.Contains(t, out, "CORPUS EXTRACTION SUMMARY")
	assert.Contains(t, out, "Inventoried: 10")
	assert.Contains(t, out, "Accepted: 6 (60.0%)")
	assert.Contains(t, out, "Skipped: 2 (20.0%)")
	assert.Contains(t, out, "  missing_field: 1")
}

func TestPrintSummaryEmptyRun(t *testing.T) {
	var buf bytes.Buffer
	New(sampleConfig(), &pipeline.Result{Skipped: map[string]int{}}).PrintSummary(&buf)

	assert.Contains(t, buf.String(), "Accepted: 0 (0.0%)")
}
