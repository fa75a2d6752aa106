package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/oaicorpus/internal/config"
	"github.com/lehigh-university-libraries/oaicorpus/internal/dataset"
	"github.com/lehigh-university-libraries/oaicorpus/internal/extract"
	"github.com/lehigh-university-libraries/oaicorpus/internal/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	machineLearning = "Computer Science - Machine Learning"
	robotics        = "Computer Science - Robotics"
)

// doc describes one harvested record; empty fields are left out of the XML
type doc struct {
	subjects     []string
	title        string
	creators     []string
	dates        []string
	identifiers  []string
	description  string
	noDescribing bool
}

func (d doc) xml() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<record xmlns="http://www.openarchives.org/OAI/2.0/">
<header><identifier>oai:arXiv.org:0000.0000</identifier></header>
<metadata>
<oai_dc:dc xmlns:oai_dc="http://www.openarchives.org/OAI/2.0/oai_dc/" xmlns:dc="http://purl.org/dc/elements/1.1/">
`)
	element := func(name, value string) {
		fmt.Fprintf(&b, "<dc:%s>%s</dc:%s>\n", name, value, name)
	}
	if d.title != "" {
		element("title", d.title)
	}
	for _, c := range d.creators {
		element("creator", c)
	}
	for _, s := range d.subjects {
		element("subject", s)
	}
	if !d.noDescribing {
		element("description", d.description)
	}
	for _, date := range d.dates {
		element("date", date)
	}
	for _, id := range d.identifiers {
		element("identifier", id)
	}
	b.WriteString("</oai_dc:dc>\n</metadata>\n</record>\n")
	return b.String()
}

func paper(n int, subjects ...string) doc {
	return doc{
		subjects:    subjects,
		title:       fmt.Sprintf("Paper\nNumber %d", n),
		creators:    []string{fmt.Sprintf("Author %d", n)},
		dates:       []string{"2019-01-01", fmt.Sprintf("20%02d-06-15", n)},
		identifiers: []string{"http://other.org/1", fmt.Sprintf("http://arxiv.org/abs/%04d.0001", n)},
		description: fmt.Sprintf("  Abstract of\npaper %d\n", n),
	}
}

type fixture struct {
	cfg *config.Config
	dir string
}

func newFixture(t *testing.T, docs map[string]string) *fixture {
	t.Helper()
	root := t.TempDir()
	input := filepath.Join(root, "harvest")
	require.NoError(t, os.MkdirAll(input, 0755))
	for name, content := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(input, name), []byte(content), 0644))
	}

	cfg := config.DefaultConfig()
	cfg.InputPath = input
	cfg.SummariesPath = filepath.Join(root, "data", "summaries.parquet")
	cfg.DescriptionsPath = filepath.Join(root, "data", "descriptions.parquet")
	cfg.SnapshotPath = filepath.Join(root, "files.yaml")
	cfg.AllowedSubjects = []string{machineLearning}
	return &fixture{cfg: cfg, dir: root}
}

func mixedDocs() map[string]string {
	noDesc := paper(5, machineLearning)
	noDesc.noDescribing = true
	badDate := paper(6, machineLearning)
	badDate.dates = []string{"undated"}
	noRef := paper(7, machineLearning)
	noRef.identifiers = []string{"http://other.org/7"}

	return map[string]string{
		"01.xml": paper(1, machineLearning).xml(),
		"02.xml": paper(2, robotics).xml(),
		"03.xml": paper(3, machineLearning, robotics).xml(),
		"04.xml": paper(4).xml(),
		"05.xml": noDesc.xml(),
		"06.xml": badDate.xml(),
		"07.xml": noRef.xml(),
		"08.xml": `<record><dc:title>broken`,
		"09.xml": paper(9, robotics, machineLearning).xml(),
	}
}

func TestRun(t *testing.T) {
	f := newFixture(t, mixedDocs())

	result, err := Run(context.Background(), f.cfg)
	require.NoError(t, err)

	assert.Equal(t, 9, result.Inventoried)
	assert.Equal(t, 3, result.Accepted)
	assert.Equal(t, 2, result.Rejected)
	assert.Equal(t, map[string]int{
		ReasonMissingField:  2,
		ReasonMalformedDate: 1,
		ReasonParse:         1,
	}, result.Skipped)
	assert.Equal(t, 4, result.SkippedTotal())
	assert.Equal(t, []string{"01.xml", "03.xml", "09.xml"}, result.Corpus.Sources())

	summaries, err := dataset.LoadSummaries(f.cfg.SummariesPath)
	require.NoError(t, err)
	descriptions, err := dataset.LoadDescriptions(f.cfg.DescriptionsPath)
	require.NoError(t, err)

	require.Len(t, summaries, 3)
	require.Len(t, descriptions, 3)

	for i, n := range []int{1, 3, 9} {
		assert.Equal(t, fmt.Sprintf("PaperNumber %d", n), summaries[i].Title)
		assert.Equal(t, []string{fmt.Sprintf("Author %d", n)}, summaries[i].Authors)
		assert.Equal(t, 2000+n, summaries[i].Year)
		assert.Equal(t, fmt.Sprintf("http://arxiv.org/abs/%04d.0001", n), summaries[i].Reference)
		assert.Equal(t, fmt.Sprintf("Abstract of paper %d", n), descriptions[i])
	}
}

func TestRunWritesSnapshotFirst(t *testing.T) {
	f := newFixture(t, mixedDocs())

	_, err := Run(context.Background(), f.cfg)
	require.NoError(t, err)

	snapshot, err := inventory.LoadSnapshot(f.cfg.SnapshotPath)
	require.NoError(t, err)

	listed, err := inventory.List(f.cfg.InputPath)
	require.NoError(t, err)
	assert.ElementsMatch(t, listed, snapshot.Files)
}

func TestRunOrderIndependentOfWorkers(t *testing.T) {
	docs := map[string]string{}
	for i := 1; i <= 40; i++ {
		subject := machineLearning
		if i%3 == 0 {
			subject = robotics
		}
		docs[fmt.Sprintf("%02d.xml", i)] = paper(i, subject).xml()
	}

	sequential := newFixture(t, docs)
	seqResult, err := Run(context.Background(), sequential.cfg)
	require.NoError(t, err)

	parallel := newFixture(t, docs)
	parallel.cfg.Workers = 4
	parResult, err := Run(context.Background(), parallel.cfg)
	require.NoError(t, err)

	assert.Equal(t, seqResult.Corpus.Sources(), parResult.Corpus.Sources())
	assert.Equal(t, seqResult.Corpus.Summaries(), parResult.Corpus.Summaries())
	assert.Equal(t, seqResult.Corpus.Descriptions(), parResult.Corpus.Descriptions())

	summaries, err := dataset.LoadSummaries(parallel.cfg.SummariesPath)
	require.NoError(t, err)
	assert.Equal(t, seqResult.Corpus.Summaries(), summaries)
}

func TestRunStrictAborts(t *testing.T) {
	for _, workers := range []int{1, 3} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			f := newFixture(t, mixedDocs())
			f.cfg.Strict = true
			f.cfg.Workers = workers

			_, err := Run(context.Background(), f.cfg)
			require.Error(t, err)

			var recErr *RecordError
			assert.True(t, errors.As(err, &recErr))

			_, statErr := os.Stat(f.cfg.SummariesPath)
			assert.True(t, os.IsNotExist(statErr))
			_, statErr = os.Stat(f.cfg.DescriptionsPath)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestRunMissingDescriptionIsSkipped(t *testing.T) {
	noDesc := paper(2, machineLearning)
	noDesc.noDescribing = true
	f := newFixture(t, map[string]string{
		"01.xml": paper(1, machineLearning).xml(),
		"02.xml": noDesc.xml(),
	})

	result, err := Run(context.Background(), f.cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Accepted)
	assert.Equal(t, 1, result.Skipped[ReasonMissingField])

	descriptions, err := dataset.LoadDescriptions(f.cfg.DescriptionsPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"Abstract of paper 1"}, descriptions)
}

func TestRunMissingInputDirectory(t *testing.T) {
	f := newFixture(t, nil)
	f.cfg.InputPath = filepath.Join(f.dir, "absent")

	_, err := Run(context.Background(), f.cfg)

	var ioErr *inventory.IOError
	require.True(t, errors.As(err, &ioErr))
	_, statErr := os.Stat(f.cfg.SummariesPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunReusesSnapshot(t *testing.T) {
	f := newFixture(t, map[string]string{
		"01.xml": paper(1, machineLearning).xml(),
	})
	_, err := Run(context.Background(), f.cfg)
	require.NoError(t, err)

	// a file harvested after the snapshot is ignored on resume
	require.NoError(t, os.WriteFile(filepath.Join(f.cfg.InputPath, "02.xml"), []byte(paper(2, machineLearning).xml()), 0644))
	f.cfg.ReuseSnapshot = true

	result, err := Run(context.Background(), f.cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inventoried)
	assert.Equal(t, []string{"01.xml"}, result.Corpus.Sources())
}

func TestRunFileRemovedAfterSnapshot(t *testing.T) {
	f := newFixture(t, map[string]string{
		"01.xml": paper(1, machineLearning).xml(),
		"02.xml": paper(2, machineLearning).xml(),
	})
	p, err := New(f.cfg)
	require.NoError(t, err)

	snapshot, err := p.Inventory()
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(f.cfg.InputPath, "02.xml")))

	result, err := p.Process(context.Background(), snapshot)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Accepted)
	assert.Equal(t, 1, result.Skipped[ReasonParse])
}

func TestRunCanceled(t *testing.T) {
	f := newFixture(t, mixedDocs())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, f.cfg)
	assert.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(f.cfg.SummariesPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestReason(t *testing.T) {
	assert.Equal(t, ReasonMissingField, Reason(&RecordError{File: "a", Err: &extract.MissingFieldError{Field: "title"}}))
	assert.Equal(t, ReasonMalformedDate, Reason(&extract.MalformedDateError{}))
	assert.Equal(t, ReasonParse, Reason(errors.New("boom")))
}
