// Package dataset reads and writes the compressed summary and description archives.
package dataset

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/oaicorpus/internal/corpus"
)

// Format is an on-disk archive encoding
type Format int

const (
	// Parquet stores rows in a zstd-compressed parquet file
	Parquet Format = iota
	// JSONLZstd stores one JSON value per line inside a zstd stream
	JSONLZstd
)

func (f Format) String() string {
	switch f {
	case Parquet:
		return "parquet"
	case JSONLZstd:
		return "jsonl.zst"
	default:
		return "unknown"
	}
}

// FormatOf detects the archive format from the file extension
func FormatOf(path string) (Format, error) {
	name := strings.ToLower(filepath.Base(path))

	switch {
	case strings.HasSuffix(name, ".parquet"):
		return Parquet, nil
	case strings.HasSuffix(name, ".jsonl.zst"):
		return JSONLZstd, nil
	default:
		return 0, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl.zst)", filepath.Ext(name))
	}
}

// SerializationError reports an archive that could not be written or read back
type SerializationError struct {
	Path string
	Err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("archive %s: %v", e.Path, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// SummaryRow is the parquet layout of a corpus.Summary
type SummaryRow struct {
	Title     string   `parquet:"title"`
	Authors   []string `parquet:"authors,list"`
	Year      int      `parquet:"year"`
	Reference string   `parquet:"reference"`
}

// DescriptionRow is the parquet layout of one description
type DescriptionRow struct {
	Description string `parquet:"description"`
}

func toSummaryRows(summaries []corpus.Summary) []SummaryRow {
	rows := make([]SummaryRow, len(summaries))
	for i, s := range summaries {
		rows[i] = SummaryRow{
			Title:     s.Title,
			Authors:   s.Authors,
			Year:      s.Year,
			Reference: s.Reference,
		}
	}
	return rows
}

func fromSummaryRows(rows []SummaryRow) []corpus.Summary {
	summaries := make([]corpus.Summary, len(rows))
	for i, r := range rows {
		summaries[i] = corpus.Summary{
			Title:     r.Title,
			Authors:   nonNil(r.Authors),
			Year:      r.Year,
			Reference: r.Reference,
		}
	}
	return summaries
}

func toDescriptionRows(descriptions []string) []DescriptionRow {
	rows := make([]DescriptionRow, len(descriptions))
	for i, d := range descriptions {
		rows[i] = DescriptionRow{Description: d}
	}
	return rows
}

func fromDescriptionRows(rows []DescriptionRow) []string {
	descriptions := make([]string, len(rows))
	for i, r := range rows {
		descriptions[i] = r.Description
	}
	return descriptions
}

// empty author lists read back as nil from both encodings
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
