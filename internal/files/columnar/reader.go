package columnar

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/vvka-141/transitload/internal/files/filesystem"
	"github.com/vvka-141/transitload/pkg/transitload"
)

// Reader decodes snapshot files. Safe for concurrent use.
type Reader struct {
	fsProvider filesystem.FileSystemProvider
	mem        memory.Allocator
}

// Info summarizes a snapshot without decoding its data pages.
type Info struct {
	Schema       *arrow.Schema
	NumRows      int64
	NumRowGroups int
}

// NewReader creates a reader over fsProvider allocating from mem.
// A nil mem selects memory.DefaultAllocator.
// Panics if fsProvider is nil.
func NewReader(fsProvider filesystem.FileSystemProvider, mem memory.Allocator) *Reader {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	return &Reader{fsProvider: fsProvider, mem: mem}
}

// ReadFile decodes every row group of path into one record.
// The caller owns the record and must Release it.
func (r *Reader) ReadFile(ctx context.Context, path string) (arrow.Record, error) {
	f, err := r.fsProvider.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w: %w", path, transitload.ErrInputUnreadable, err)
	}
	defer f.Close()

	tbl, err := pqarrow.ReadTable(ctx, f,
		parquet.NewReaderProperties(r.mem),
		pqarrow.ArrowReadProperties{Parallel: true},
		r.mem,
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to decode %s: %w: %w", path, transitload.ErrInputUnreadable, err)
	}
	defer tbl.Release()

	rec, err := r.flatten(tbl)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble %s: %w: %w", path, transitload.ErrInputUnreadable, err)
	}
	return rec, nil
}

// flatten concatenates each chunked column of tbl so the result is one contiguous record.
func (r *Reader) flatten(tbl arrow.Table) (arrow.Record, error) {
	ncols := int(tbl.NumCols())
	cols := make([]arrow.Array, 0, ncols)
	release := func() {
		for _, c := range cols {
			c.Release()
		}
	}

	for i := 0; i < ncols; i++ {
		chunked := tbl.Column(i).Data()
		var col arrow.Array
		switch chunks := chunked.Chunks(); len(chunks) {
		case 0:
			b := array.NewBuilder(r.mem, chunked.DataType())
			col = b.NewArray()
			b.Release()
		case 1:
			col = chunks[0]
			col.Retain()
		default:
			var err error
			col, err = array.Concatenate(chunks, r.mem)
			if err != nil {
				release()
				return nil, fmt.Errorf("column %q: %w", tbl.Schema().Field(i).Name, err)
			}
		}
		cols = append(cols, col)
	}

	rec := array.NewRecord(tbl.Schema(), cols, tbl.NumRows())
	release()
	return rec, nil
}

// Inspect reads only the footer of path.
func (r *Reader) Inspect(path string) (*Info, error) {
	f, err := r.fsProvider.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w: %w", path, transitload.ErrInputUnreadable, err)
	}
	defer f.Close()

	pr, err := file.NewParquetReader(f, file.WithReadProps(parquet.NewReaderProperties(r.mem)))
	if err != nil {
		return nil, fmt.Errorf("failed to read footer of %s: %w: %w", path, transitload.ErrInputUnreadable, err)
	}

	fr, err := pqarrow.NewFileReader(pr, pqarrow.ArrowReadProperties{}, r.mem)
	if err != nil {
		return nil, fmt.Errorf("failed to map schema of %s: %w: %w", path, transitload.ErrInputUnreadable, err)
	}
	sc, err := fr.Schema()
	if err != nil {
		return nil, fmt.Errorf("failed to map schema of %s: %w: %w", path, transitload.ErrInputUnreadable, err)
	}

	return &Info{
		Schema:       sc,
		NumRows:      pr.NumRows(),
		NumRowGroups: pr.NumRowGroups(),
	}, nil
}
