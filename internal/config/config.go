// Package config holds the run configuration for corpus extraction.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultReferencePrefix is the canonical arXiv URL prefix used to pick the reference identifier
	DefaultReferencePrefix = "http://arxiv.org"

	// DefaultSnapshotPath is where the file inventory snapshot is written
	DefaultSnapshotPath = "files.yaml"

	envPrefix = "OAICORPUS_"
)

// DefaultAllowedSubjects are the arXiv computer science categories kept by default
var DefaultAllowedSubjects = []string{
	"Computer Science - Artificial Intelligence",
	"Computer Science - Computer Vision and Pattern Recognition",
	"Computer Science - Machine Learning",
}

// Config represents a single extraction run
type Config struct {
	// InputPath is the directory holding one harvested oai_dc XML file per record
	InputPath string `yaml:"input_path"`

	// SummariesPath is the destination of the (title, authors, year, reference) archive
	SummariesPath string `yaml:"summaries_path"`

	// DescriptionsPath is the destination of the description archive
	DescriptionsPath string `yaml:"descriptions_path"`

	// AllowedSubjects lists the subject labels a record must carry at least one of
	AllowedSubjects []string `yaml:"allowed_subjects"`

	SnapshotPath    string `yaml:"snapshot_path"`
	ReferencePrefix string `yaml:"reference_prefix"`

	// Workers is the number of files parsed concurrently (1 = sequential)
	Workers int `yaml:"workers"`

	// Strict aborts the run on the first per-record error instead of skipping it
	Strict bool `yaml:"strict"`

	// ReuseSnapshot trusts an existing snapshot instead of listing the directory again
	ReuseSnapshot bool `yaml:"reuse_snapshot"`

	// ReportPath, when set, receives a YAML report of the run
	ReportPath string `yaml:"report_path"`
}

// DefaultConfig returns a Config with the arXiv computer science defaults
func DefaultConfig() *Config {
	return &Config{
		SummariesPath:    filepath.Join("data", "arxiv_cs_summaries.parquet"),
		DescriptionsPath: filepath.Join("data", "arxiv_cs_descriptions.parquet"),
		AllowedSubjects:  append([]string(nil), DefaultAllowedSubjects...),
		SnapshotPath:     DefaultSnapshotPath,
		ReferencePrefix:  DefaultReferencePrefix,
		Workers:          1,
	}
}

// LoadConfig loads configuration from the specified file path.
// If path is empty or the file doesn't exist, the defaults are returned.
// Fields absent from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from OAICORPUS_* environment variables
func (c *Config) ApplyEnv() error {
	if v, ok := lookupEnv("INPUT_PATH"); ok {
		c.InputPath = v
	}
	if v, ok := lookupEnv("SUMMARIES_PATH"); ok {
		c.SummariesPath = v
	}
	if v, ok := lookupEnv("DESCRIPTIONS_PATH"); ok {
		c.DescriptionsPath = v
	}
	if v, ok := lookupEnv("SNAPSHOT_PATH"); ok {
		c.SnapshotPath = v
	}
	if v, ok := lookupEnv("REFERENCE_PREFIX"); ok {
		c.ReferencePrefix = v
	}
	if v, ok := lookupEnv("REPORT_PATH"); ok {
		c.ReportPath = v
	}
	// Subjects contain commas and spaces, so the list is separated by semicolons
	if v, ok := lookupEnv("ALLOWED_SUBJECTS"); ok {
		c.AllowedSubjects = splitSubjects(v)
	}
	if v, ok := lookupEnv("WORKERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sWORKERS: %w", envPrefix, err)
		}
		c.Workers = n
	}
	if v, ok := lookupEnv("STRICT"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sSTRICT: %w", envPrefix, err)
		}
		c.Strict = b
	}
	if v, ok := lookupEnv("REUSE_SNAPSHOT"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sREUSE_SNAPSHOT: %w", envPrefix, err)
		}
		c.ReuseSnapshot = b
	}
	return nil
}

// Validate checks that the configuration can drive a run
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.InputPath) == "" {
		errs = append(errs, errors.New("input_path is required"))
	}
	if strings.TrimSpace(c.SummariesPath) == "" {
		errs = append(errs, errors.New("summaries_path is required"))
	}
	if strings.TrimSpace(c.DescriptionsPath) == "" {
		errs = append(errs, errors.New("descriptions_path is required"))
	}
	if strings.TrimSpace(c.SnapshotPath) == "" {
		errs = append(errs, errors.New("snapshot_path is required"))
	}
	if c.SummariesPath != "" && filepath.Clean(c.SummariesPath) == filepath.Clean(c.DescriptionsPath) {
		errs = append(errs, errors.New("summaries_path and descriptions_path must differ"))
	}
	if len(c.AllowedSubjects) == 0 {
		errs = append(errs, errors.New("allowed_subjects must not be empty"))
	}
	if c.ReferencePrefix == "" {
		errs = append(errs, errors.New("reference_prefix is required"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	return errors.Join(errs...)
}

func lookupEnv(name string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func splitSubjects(v string) []string {
	var subjects []string
	for _, s := range strings.Split(v, ";") {
		if s = strings.TrimSpace(s); s != "" {
			subjects = append(subjects, s)
		}
	}
	return subjects
}
