// Package inventory enumerates harvested record files and persists the list
// as a snapshot so an interrupted run can be resumed against the same files.
package inventory

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// IOError reports an unreadable input directory or snapshot
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Snapshot is the persisted result of one directory listing
type Snapshot struct {
	Dir       string    `yaml:"dir"`
	CreatedAt time.Time `yaml:"created_at"`
	Files     []string  `yaml:"files"`
}

// List returns the names of the regular files directly inside dir, sorted.
// Symlinks are followed; subdirectories are not descended into.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &IOError{Op: "list", Path: dir, Err: err}
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			files = append(files, entry.Name())
			continue
		}
		if entry.Type()&os.ModeSymlink == 0 {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, entry.Name()))
		if err != nil {
			// dangling link
			continue
		}
		if info.Mode().IsRegular() {
			files = append(files, entry.Name())
		}
	}

	sort.Strings(files)
	return files, nil
}

// Take lists dir and wraps the result in a Snapshot
func Take(dir string) (*Snapshot, error) {
	files, err := List(dir)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Dir:       dir,
		CreatedAt: time.Now().UTC(),
		Files:     files,
	}, nil
}

// SaveSnapshot writes the snapshot to path and syncs it to disk before returning
func SaveSnapshot(path string, snapshot *Snapshot) error {
	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &IOError{Op: "mkdir", Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return &IOError{Op: "create", Path: dir, Err: err}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &IOError{Op: "write", Path: tmpPath, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &IOError{Op: "sync", Path: tmpPath, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &IOError{Op: "close", Path: tmpPath, Err: err}
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return &IOError{Op: "chmod", Path: tmpPath, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return &IOError{Op: "rename", Path: path, Err: err}
	}

	return syncDir(dir)
}

// LoadSnapshot reads a snapshot written by SaveSnapshot
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}

	var snapshot Snapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return nil, &IOError{Op: "decode", Path: path, Err: err}
	}

	return &snapshot, nil
}

// Exists reports whether a snapshot file is present at path
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return &IOError{Op: "open", Path: dir, Err: err}
	}
	defer f.Close()

	if err := f.Sync(); err != nil {
		return &IOError{Op: "sync", Path: dir, Err: err}
	}
	return nil
}
