package filesystem

import (
	"io"
	"io/fs"
)

// FileInfo is an alias for fs.FileInfo from the standard library.
// This provides compatibility with the fs.FS ecosystem while maintaining
// a stable local type for our abstraction layer.
type FileInfo = fs.FileInfo

// File is an open file supporting random access.
// Columnar formats keep their footer at the end, so sequential reads are not enough.
type File interface {
	io.Reader
	io.ReaderAt
	io.Seeker
	io.Closer
}

// FileSystemProvider locates and opens snapshot files.
type FileSystemProvider interface {
	// Glob returns the names of all files matching pattern, with the
	// semantics of path/filepath.Glob. Order is unspecified.
	Glob(pattern string) ([]string, error)

	// Open opens the file at path for reading.
	Open(path string) (File, error)

	// Stat returns file information for the given path.
	Stat(path string) (FileInfo, error)
}
