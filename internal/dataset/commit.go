package dataset

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/lehigh-university-libraries/oaicorpus/internal/corpus"
)

const backupSuffix = ".prev"

// Commit writes the summary and description archives of c as one unit.
//
// Both archives are encoded to temp files first. Existing outputs are moved
// aside, the temp files are renamed into place, and the old outputs are only
// removed once both renames succeeded. On any failure the previous outputs
// are restored, so a re-run never finds one archive updated and the other not.
//
// Concurrent commits to the same summaries path are serialized with a lock
// file at summariesPath + ".lock". The lock file is left in place after the
// commit: removing it would let a waiting process lock an unlinked inode while
// a newcomer locks a fresh file at the same path.
func Commit(summariesPath, descriptionsPath string, c *corpus.Corpus) error {
	if filepath.Clean(summariesPath) == filepath.Clean(descriptionsPath) {
		return &SerializationError{Path: summariesPath, Err: errors.New("summaries and descriptions must be written to different paths")}
	}

	summaries := c.Summaries()
	descriptions := c.Descriptions()
	if len(summaries) != len(descriptions) {
		return &SerializationError{Path: summariesPath, Err: fmt.Errorf("corpus out of alignment: %d summaries, %d descriptions", len(summaries), len(descriptions))}
	}

	sumEnc, err := summaryEncoder(summariesPath, summaries)
	if err != nil {
		return &SerializationError{Path: summariesPath, Err: err}
	}
	descEnc, err := descriptionEncoder(descriptionsPath, descriptions)
	if err != nil {
		return &SerializationError{Path: descriptionsPath, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(summariesPath), 0755); err != nil {
		return &SerializationError{Path: summariesPath, Err: err}
	}
	lock := flock.New(summariesPath + ".lock")
	if err := lock.Lock(); err != nil {
		return &SerializationError{Path: summariesPath, Err: fmt.Errorf("failed to acquire lock: %w", err)}
	}
	defer lock.Unlock()

	sumStaged, err := stage(summariesPath, sumEnc)
	if err != nil {
		return err
	}
	descStaged, err := stage(descriptionsPath, descEnc)
	if err != nil {
		sumStaged.discard()
		return err
	}

	if err := install(sumStaged, descStaged); err != nil {
		return err
	}

	slog.Debug("Committed archives",
		"summaries", summariesPath,
		"descriptions", descriptionsPath,
		"records", len(summaries))
	return nil
}

// install moves every staged file into place, or none of them
func install(files ...*stagedFile) error {
	var backups []string
	var installed []*stagedFile

	rollback := func() {
		for _, f := range installed {
			os.Remove(f.dest)
		}
		for _, b := range backups {
			os.Rename(b, b[:len(b)-len(backupSuffix)])
		}
		for _, f := range files {
			f.discard()
		}
	}

	for _, f := range files {
		if _, err := os.Lstat(f.dest); err == nil {
			backup := f.dest + backupSuffix
			if err := os.Rename(f.dest, backup); err != nil {
				rollback()
				return &SerializationError{Path: f.dest, Err: fmt.Errorf("failed to move previous archive aside: %w", err)}
			}
			backups = append(backups, backup)
		}
	}

	for _, f := range files {
		if err := os.Rename(f.tmp, f.dest); err != nil {
			rollback()
			return &SerializationError{Path: f.dest, Err: fmt.Errorf("failed to rename temp file: %w", err)}
		}
		installed = append(installed, f)
	}

	for _, b := range backups {
		if err := os.Remove(b); err != nil {
			slog.Warn("Failed to remove previous archive", "path", b, "error", err)
		}
	}
	for _, f := range files {
		syncDir(filepath.Dir(f.dest))
	}
	return nil
}
