// Package filesystem provides filesystem abstraction interfaces and implementations.
//
// This package defines the small set of operations snapshot discovery and
// reading need, enabling testability through an in-memory implementation
// while maintaining compatibility with the OS filesystem.
//
// Key interfaces:
//   - FileSystemProvider: Glob, open and stat snapshot files
//   - File: An open snapshot with random access, as columnar readers require
//   - FileInfo: File metadata similar to os.FileInfo
//
// Implementations:
//   - OSFileSystem: Production implementation using the OS filesystem
//   - MemoryFileSystem: In-memory implementation for testing
package filesystem
