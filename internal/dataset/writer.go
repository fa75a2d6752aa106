package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/lehigh-university-libraries/oaicorpus/internal/corpus"
	"github.com/parquet-go/parquet-go"
)

// WriteSummaries replaces the archive at path with summaries
func WriteSummaries(path string, summaries []corpus.Summary) error {
	enc, err := summaryEncoder(path, summaries)
	if err != nil {
		return &SerializationError{Path: path, Err: err}
	}
	return writeAtomic(path, enc)
}

// WriteDescriptions replaces the archive at path with descriptions
func WriteDescriptions(path string, descriptions []string) error {
	enc, err := descriptionEncoder(path, descriptions)
	if err != nil {
		return &SerializationError{Path: path, Err: err}
	}
	return writeAtomic(path, enc)
}

type encodeFunc func(w io.Writer) error

func summaryEncoder(path string, summaries []corpus.Summary) (encodeFunc, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []corpus.Summary{}
	}

	switch format {
	case Parquet:
		rows := toSummaryRows(summaries)
		return func(w io.Writer) error { return writeParquet(w, rows) }, nil
	default:
		return func(w io.Writer) error { return writeJSONL(w, summaries) }, nil
	}
}

func descriptionEncoder(path string, descriptions []string) (encodeFunc, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	if descriptions == nil {
		descriptions = []string{}
	}

	switch format {
	case Parquet:
		rows := toDescriptionRows(descriptions)
		return func(w io.Writer) error { return writeParquet(w, rows) }, nil
	default:
		return func(w io.Writer) error { return writeJSONL(w, descriptions) }, nil
	}
}

func writeParquet[T any](w io.Writer, rows []T) error {
	// Create parquet writer with zstd column compression
	writer := parquet.NewGenericWriter[T](w, parquet.Compression(&parquet.Zstd))

	// Write all rows, then flush the footer
	if _, err := writer.Write(rows); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}

	slog.Debug("Wrote parquet rows", "rows", len(rows))
	return nil
}

func writeJSONL[T any](w io.Writer, values []T) error {
	// Create zstd stream
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}

	bw := bufio.NewWriterSize(zw, 64*1024)
	// One JSON value per line
	encoder := json.NewEncoder(bw)
	encoder.SetEscapeHTML(false)

	for i, v := range values {
		if err := encoder.Encode(v); err != nil {
			zw.Close()
			return fmt.Errorf("failed to encode line %d: %w", i+1, err)
		}
	}
	if err := bw.Flush(); err != nil {
		zw.Close()
		return fmt.Errorf("failed to flush jsonl: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to close zstd writer: %w", err)
	}

	slog.Debug("Wrote jsonl lines", "lines", len(values))
	return nil
}

// stagedFile is an encoded archive waiting in a temp file next to its destination
type stagedFile struct {
	tmp  string
	dest string
}

// stage encodes into a synced temp file in the destination directory
func stage(dest string, encode encodeFunc) (*stagedFile, error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &SerializationError{Path: dest, Err: fmt.Errorf("failed to create directory %s: %w", dir, err)}
	}

	// Create temp file in the destination directory
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return nil, &SerializationError{Path: dest, Err: fmt.Errorf("failed to create temp file: %w", err)}
	}
	tmpPath := tmp.Name()

	fail := func(err error) (*stagedFile, error) {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, &SerializationError{Path: dest, Err: err}
	}

	// Encode and flush to disk
	bw := bufio.NewWriterSize(tmp, 64*1024)
	if err := encode(bw); err != nil {
		return fail(err)
	}
	if err := bw.Flush(); err != nil {
		return fail(fmt.Errorf("failed to flush temp file: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("failed to sync temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, &SerializationError{Path: dest, Err: fmt.Errorf("failed to close temp file: %w", err)}
	}
	// CreateTemp uses 0600
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return nil, &SerializationError{Path: dest, Err: fmt.Errorf("failed to set permissions: %w", err)}
	}

	return &stagedFile{tmp: tmpPath, dest: dest}, nil
}

func (s *stagedFile) discard() {
	if s != nil {
		os.Remove(s.tmp)
	}
}

func writeAtomic(dest string, encode encodeFunc) error {
	staged, err := stage(dest, encode)
	if err != nil {
		return err
	}
	if err := os.Rename(staged.tmp, dest); err != nil {
		staged.discard()
		return &SerializationError{Path: dest, Err: fmt.Errorf("failed to rename temp file: %w", err)}
	}
	syncDir(filepath.Dir(dest))
	return nil
}

// syncDir is best effort; some platforms cannot fsync a directory
func syncDir(dir string) {
	f, err := os.Open(dir)
	if err != nil {
		return
	}
	defer f.Close()
	_ = f.Sync()
}
