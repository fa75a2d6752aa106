package inventory

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("<record/>"), 0644))
	}
}

func TestListRegularFilesOnly(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "b.xml", "a.xml", "c.xml")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))
	writeFiles(t, filepath.Join(dir, "nested"), "deep.xml")

	files, err := List(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.xml", "b.xml", "c.xml"}, files)
}

func TestListFollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	writeFiles(t, other, "target.xml")
	require.NoError(t, os.Symlink(filepath.Join(other, "target.xml"), filepath.Join(dir, "link.xml")))
	require.NoError(t, os.Symlink(filepath.Join(other, "missing.xml"), filepath.Join(dir, "dangling.xml")))

	files, err := List(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"link.xml"}, files)
}

func TestListMissingDirectory(t *testing.T) {
	_, err := List(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "list", ioErr.Op)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "oai_arXiv.org_1234.5678.xml", "oai_arXiv.org_2101.0001.xml", "oai_arXiv.org_0704.0001.xml")

	snapshot, err := Take(dir)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "state", "files.yaml")
	require.NoError(t, SaveSnapshot(path, snapshot))
	assert.True(t, Exists(path))

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)

	listed, err := List(dir)
	require.NoError(t, err)

	assert.ElementsMatch(t, listed, loaded.Files)
	assert.Equal(t, dir, loaded.Dir)
	assert.True(t, snapshot.CreatedAt.Equal(loaded.CreatedAt))

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSnapshotOfEmptyDirectory(t *testing.T) {
	snapshot, err := Take(t.TempDir())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "files.yaml")
	require.NoError(t, SaveSnapshot(path, snapshot))

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Empty(t, loaded.Files)
}

func TestLoadSnapshotMissing(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "files.yaml"))

	var ioErr *IOError
	assert.True(t, errors.As(err, &ioErr))
}
