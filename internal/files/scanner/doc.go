// Package scanner discovers snapshot files for a feed category.
//
// Snapshot files follow the feed client's naming convention
// <prefix>_<category>_<YYYYMMDD>_<HHMMSS>.parquet. The scanner globs the
// raw directory for one category, parses the instant embedded in each
// name and returns the files in processing order: oldest snapshot first,
// name as tie-break, names without an instant last.
//
// The scanner is filesystem-agnostic through the filesystem.FileSystemProvider
// interface, enabling both production use with the OS filesystem and testing
// with in-memory filesystems.
package scanner
