package filesystem

import (
	"io"
	"io/fs"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFileSystem_Glob(t *testing.T) {
	mfs := NewMemoryFileSystem("/data/raw")
	mfs.AddFile("bart_trip_updates_20250101_120000.parquet", []byte("a"))
	mfs.AddFile("bart_trip_updates_20250101_120500.parquet", []byte("b"))
	mfs.AddFile("bart_service_alerts_20250101_120000.parquet", []byte("c"))
	mfs.AddFile("archive/bart_trip_updates_20241231_235500.parquet", []byte("d"))

	matches, err := mfs.Glob("/data/raw/bart_trip_updates_*.parquet")
	require.NoError(t, err)
	sort.Strings(matches)

	assert.Equal(t, []string{
		"/data/raw/bart_trip_updates_20250101_120000.parquet",
		"/data/raw/bart_trip_updates_20250101_120500.parquet",
	}, matches)
}

func TestMemoryFileSystem_GlobRelativeToRoot(t *testing.T) {
	mfs := NewMemoryFileSystem("/data/raw")
	mfs.AddFile("x.parquet", []byte("a"))

	matches, err := mfs.Glob("*.parquet")
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/raw/x.parquet"}, matches)
}

func TestMemoryFileSystem_GlobBadPattern(t *testing.T) {
	mfs := NewMemoryFileSystem("/data")
	_, err := mfs.Glob("[")
	assert.Error(t, err)
}

func TestMemoryFileSystem_Open(t *testing.T) {
	mfs := NewMemoryFileSystem("/data")
	mfs.AddFile("a.bin", []byte("hello world"))

	f, err := mfs.Open("/data/a.bin")
	require.NoError(t, err)
	defer f.Close()

	buf := make([]byte, 5)
	_, err = f.ReadAt(buf, 6)
	require.NoError(t, err)
	assert.Equal(t, "world", string(buf))

	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	all, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(all))
}

func TestMemoryFileSystem_OpenMissing(t *testing.T) {
	mfs := NewMemoryFileSystem("/data")
	mfs.AddFile("sub/a.bin", []byte("x"))

	_, err := mfs.Open("/data/none.bin")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = mfs.Open("/data/sub")
	assert.Error(t, err)
}

func TestMemoryFileSystem_Stat(t *testing.T) {
	mfs := NewMemoryFileSystem("/data")
	mfs.AddFile("sub/a.bin", []byte("xyz"))

	info, err := mfs.Stat("/data/sub/a.bin")
	require.NoError(t, err)
	assert.False(t, info.IsDir())
	assert.Equal(t, "a.bin", info.Name())
	assert.Equal(t, int64(3), info.Size())

	info, err = mfs.Stat("/data/sub")
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	info, err = mfs.Stat("/data")
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = mfs.Stat("/elsewhere")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
