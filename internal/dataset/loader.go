package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/lehigh-university-libraries/oaicorpus/internal/corpus"
	"github.com/parquet-go/parquet-go"
)

// Loader reads an archive written by this package
type Loader struct {
	path string
}

// NewLoader creates a new archive loader
func NewLoader(path string) *Loader {
	return &Loader{
		path: path,
	}
}

// Summaries loads every summary in the archive
func (l *Loader) Summaries() ([]corpus.Summary, error) {
	// Detect file format
	format, err := FormatOf(l.path)
	if err != nil {
		return nil, err
	}

	switch format {
	case Parquet:
		rows, err := loadParquet[SummaryRow](l.path)
		if err != nil {
			return nil, err
		}
		return fromSummaryRows(rows), nil
	default:
		summaries, err := loadJSONL[corpus.Summary](l.path)
		if err != nil {
			return nil, err
		}
		// JSON null and a missing key both mean no authors
		for i := range summaries {
			summaries[i].Authors = nonNil(summaries[i].Authors)
		}
		return summaries, nil
	}
}

// Descriptions loads every description in the archive
func (l *Loader) Descriptions() ([]string, error) {
	// Detect file format
	format, err := FormatOf(l.path)
	if err != nil {
		return nil, err
	}

	switch format {
	case Parquet:
		rows, err := loadParquet[DescriptionRow](l.path)
		if err != nil {
			return nil, err
		}
		return fromDescriptionRows(rows), nil
	default:
		return loadJSONL[string](l.path)
	}
}

// LoadSummaries is a shorthand for NewLoader(path).Summaries()
func LoadSummaries(path string) ([]corpus.Summary, error) {
	return NewLoader(path).Summaries()
}

// LoadDescriptions is a shorthand for NewLoader(path).Descriptions()
func LoadDescriptions(path string) ([]string, error) {
	return NewLoader(path).Descriptions()
}

func loadParquet[T any](path string) ([]T, error) {
	slog.Debug("Opening Parquet file", "path", path, "format", Parquet)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	// Get file size for parquet reader
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	// Open parquet file
	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened successfully", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	// Create generic reader
	reader := parquet.NewGenericReader[T](pf)
	defer reader.Close()

	// Read all rows in batches
	records := make([]T, 0, pf.NumRows())
	rows := make([]T, 128)

	for {
		n, err := reader.Read(rows)
		if n > 0 {
			records = append(records, rows[:n]...)
			// the reader reuses slices inside rows between batches
			rows = make([]T, len(rows))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	slog.Debug("Finished reading Parquet file", "total_records", len(records))

	return records, nil
}

func loadJSONL[T any](path string) ([]T, error) {
	slog.Debug("Opening JSONL archive", "path", path, "format", JSONLZstd)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	// Decompress the zstd stream
	zr, err := zstd.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open zstd stream: %w", err)
	}
	defer zr.Close()

	// Decode value by value; lines have no size limit
	decoder := json.NewDecoder(zr)

	records := []T{}
	for {
		var record T
		err := decoder.Decode(&record)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse JSON record %d: %w", len(records)+1, err)
		}
		records = append(records, record)
	}

	slog.Debug("Finished reading JSONL archive", "total_records", len(records))

	return records, nil
}
