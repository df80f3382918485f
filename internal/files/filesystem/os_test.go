package filesystem

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem_GlobSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bart_trip_updates_1.parquet"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bart_trip_updates_2.parquet"), []byte("b"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "bart_trip_updates_x.parquet"), 0755))

	fsys := NewOSFileSystem()
	matches, err := fsys.Glob(filepath.Join(dir, "bart_trip_updates_*.parquet"))
	require.NoError(t, err)
	sort.Strings(matches)

	assert.Equal(t, []string{
		filepath.Join(dir, "bart_trip_updates_1.parquet"),
		filepath.Join(dir, "bart_trip_updates_2.parquet"),
	}, matches)
}

func TestOSFileSystem_GlobMissingDirectory(t *testing.T) {
	matches, err := NewOSFileSystem().Glob(filepath.Join(t.TempDir(), "missing", "*.parquet"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestOSFileSystem_OpenAndStat(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "f.bin")
	require.NoError(t, os.WriteFile(p, []byte("content"), 0644))

	fsys := NewOSFileSystem()
	info, err := fsys.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, int64(7), info.Size())

	f, err := fsys.Open(p)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
}
