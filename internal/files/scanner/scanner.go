package scanner

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/vvka-141/transitload/internal/files/filesystem"
	"github.com/vvka-141/transitload/pkg/transitload"
)

// SnapshotExtension is the file extension of columnar snapshot files.
const SnapshotExtension = ".parquet"

// snapshotTimeLayout is how the feed client stamps file names.
const snapshotTimeLayout = "20060102_150405"

var snapshotTimePattern = regexp.MustCompile(`(\d{8}_\d{6})`)

// Snapshot describes one discovered input file.
type Snapshot struct {
	Path     string
	Name     string
	Category transitload.Category
	Size     int64

	// Taken is the instant embedded in the file name; zero when HasTime is false.
	Taken   time.Time
	HasTime bool
}

// Scanner discovers snapshot files.
// Scanner is safe for concurrent use by multiple goroutines as long as
// the provided fsProvider is also thread-safe.
type Scanner struct {
	fsProvider filesystem.FileSystemProvider
}

// NewScanner creates a new scanner over the OS filesystem.
func NewScanner() *Scanner {
	return &Scanner{fsProvider: filesystem.NewOSFileSystem()}
}

// NewScannerWithFS creates a new scanner with a custom filesystem provider.
// This is primarily useful for testing with in-memory filesystems.
// Panics if fsProvider is nil.
func NewScannerWithFS(fsProvider filesystem.FileSystemProvider) *Scanner {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	return &Scanner{fsProvider: fsProvider}
}

// Pattern returns the glob matching every snapshot of category under dir.
func Pattern(dir, prefix string, category transitload.Category) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s_*%s", prefix, category, SnapshotExtension))
}

// Discover returns the snapshots of category under dir in processing order.
// A directory with no matching files yields an empty slice and no error.
func (s *Scanner) Discover(dir, prefix string, category transitload.Category) ([]Snapshot, error) {
	if !category.IsValid() {
		return nil, fmt.Errorf("unknown category %q: %w", category, transitload.ErrInvalidConfig)
	}

	paths, err := s.fsProvider.Glob(Pattern(dir, prefix, category))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s snapshots in %s: %w", category, dir, err)
	}

	snapshots := make([]Snapshot, 0, len(paths))
	for _, p := range paths {
		info, err := s.fsProvider.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}

		name := filepath.Base(p)
		taken, ok := ParseSnapshotTime(name)
		snapshots = append(snapshots, Snapshot{
			Path:     p,
			Name:     name,
			Category: category,
			Size:     info.Size(),
			Taken:    taken,
			HasTime:  ok,
		})
	}

	Sort(snapshots)
	return snapshots, nil
}

// ParseSnapshotTime extracts the YYYYMMDD_HHMMSS instant from a file name,
// read as UTC. When a name holds several candidates the last one wins, since
// the stamp is the final component before the extension.
func ParseSnapshotTime(name string) (time.Time, bool) {
	matches := snapshotTimePattern.FindAllString(filepath.Base(name), -1)
	for i := len(matches) - 1; i >= 0; i-- {
		if t, err := time.ParseInLocation(snapshotTimeLayout, matches[i], time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Sort orders snapshots oldest first. Equal instants are ordered by name;
// snapshots without an instant follow all dated ones, ordered by name.
func Sort(snapshots []Snapshot) {
	sort.SliceStable(snapshots, func(i, j int) bool {
		a, b := snapshots[i], snapshots[j]
		if a.HasTime != b.HasTime {
			return a.HasTime
		}
		if a.HasTime && !a.Taken.Equal(b.Taken) {
			return a.Taken.Before(b.Taken)
		}
		return a.Name < b.Name
	})
}
