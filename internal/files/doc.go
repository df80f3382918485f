// Package files groups the packages that find and read snapshot files.
//
//   - filesystem: filesystem abstraction (OS and in-memory)
//   - scanner: snapshot discovery by category and file-name timestamp
//   - columnar: parquet decoding into Arrow records
//
// # Usage
//
//	import (
//	    "github.com/vvka-141/transitload/internal/files/columnar"
//	    "github.com/vvka-141/transitload/internal/files/filesystem"
//	    "github.com/vvka-141/transitload/internal/files/scanner"
//	)
//
//	fs := filesystem.NewOSFileSystem()
//	snaps, err := scanner.NewScannerWithFS(fs).Discover("./data/raw", "bart", transitload.CategoryTripUpdates)
//	for _, s := range snaps {
//	    rec, err := columnar.NewReader(fs, memory.DefaultAllocator).ReadFile(ctx, s.Path)
//	    ...
//	}
package files
