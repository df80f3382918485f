package writer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/transitload/internal/schema"
	"github.com/vvka-141/transitload/pkg/transitload"
)

// Conn is the subset of a connection pool the writer needs.
// Satisfied by *pgxpool.Pool and *pgx.Conn.
type Conn interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Observer receives the latency of every committed chunk.
type Observer interface {
	ObserveChunk(table string, rows int, elapsed time.Duration)
}

// Writer appends records to destination tables.
type Writer struct {
	conn     Conn
	schema   string
	mode     transitload.WriteMode
	logger   transitload.Logger
	observer Observer
}

// Option configures a Writer.
type Option func(*Writer)

// WithMode selects insert or copy mode. The default is insert.
func WithMode(mode transitload.WriteMode) Option {
	return func(w *Writer) {
		w.mode = mode
	}
}

// WithObserver reports chunk latencies to o.
func WithObserver(o Observer) Option {
	return func(w *Writer) {
		w.observer = o
	}
}

// New creates a Writer for tables in schemaName.
// Panics if conn or logger is nil.
func New(conn Conn, schemaName string, logger transitload.Logger, opts ...Option) *Writer {
	if conn == nil {
		panic("conn cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if schemaName == "" {
		schemaName = transitload.DefaultSchema
	}
	w := &Writer{
		conn:   conn,
		schema: schemaName,
		mode:   transitload.WriteModeInsert,
		logger: logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Append writes every row of rec to table in chunks of batchSize rows and
// returns the number of rows written. rec must already be in table's
// canonical shape. On failure the returned count is the rows committed by
// earlier chunks and the error is a *transitload.BatchWriteError.
func (w *Writer) Append(ctx context.Context, table schema.Table, rec arrow.Record, batchSize int) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batch size must be positive, got %d: %w", batchSize, transitload.ErrInvalidConfig)
	}
	if err := checkShape(table, rec); err != nil {
		return 0, err
	}

	n := int(rec.NumRows())
	if n == 0 {
		return 0, nil
	}

	accessors := make([]valueFunc, rec.NumCols())
	for i, col := range rec.Columns() {
		get, err := accessor(col)
		if err != nil {
			return 0, fmt.Errorf("column %q: %w", rec.ColumnName(i), err)
		}
		accessors[i] = get
	}

	columns := table.ColumnNames()
	var written int64
	for off := 0; off < n; off += batchSize {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		end := min(off+batchSize, n)
		rows := rowsOf(accessors, off, end)

		start := time.Now()
		var err error
		if w.mode == transitload.WriteModeCopy {
			err = w.copyChunk(ctx, table.Name, columns, rows)
		} else {
			err = w.insertChunk(ctx, table.Name, columns, rows)
		}
		if err != nil {
			return written, &transitload.BatchWriteError{
				Table:     table.Name,
				Offset:    int64(off),
				Rows:      int64(len(rows)),
				Committed: written,
				Err:       err,
			}
		}

		elapsed := time.Since(start)
		written += int64(len(rows))
		if w.observer != nil {
			w.observer.ObserveChunk(table.Name, len(rows), elapsed)
		}
		w.logger.Verbose("%s: wrote rows %d-%d in %s", table.Name, off, end-1, elapsed.Round(time.Millisecond))
	}
	return written, nil
}

func (w *Writer) insertChunk(ctx context.Context, table string, columns []string, rows [][]any) error {
	batch := BuildInsertBatch(w.schema, table, columns, rows)

	br := w.conn.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return err
		}
	}
	return br.Close()
}

func (w *Writer) copyChunk(ctx context.Context, table string, columns []string, rows [][]any) error {
	n, err := w.conn.CopyFrom(ctx, pgx.Identifier{w.schema, table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return err
	}
	if n != int64(len(rows)) {
		return fmt.Errorf("copy wrote %d of %d rows", n, len(rows))
	}
	return nil
}

// RowsPerStatement is how many rows of ncols columns fit in one statement's bind parameters.
func RowsPerStatement(ncols int) int {
	if ncols <= 0 {
		return 0
	}
	return transitload.MaxBindParameters / ncols
}

// BuildInsertBatch queues multi-row INSERT statements covering rows, each
// within the bind parameter limit.
func BuildInsertBatch(schemaName, table string, columns []string, rows [][]any) *pgx.Batch {
	batch := &pgx.Batch{}
	per := RowsPerStatement(len(columns))
	for off := 0; off < len(rows); off += per {
		end := min(off+per, len(rows))
		sql, args := insertStatement(schemaName, table, columns, rows[off:end])
		batch.Queue(sql, args...)
	}
	return batch
}

func insertStatement(schemaName, table string, columns []string, rows [][]any) (string, []any) {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(pgx.Identifier{schemaName, table}.Sanitize())
	b.WriteString(" (")
	b.WriteString(strings.Join(quoted, ", "))
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	p := 1
	for r, row := range rows {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := range columns {
			if c > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(p))
			p++
		}
		b.WriteByte(')')
		args = append(args, row...)
	}
	return b.String(), args
}

func checkShape(table schema.Table, rec arrow.Record) error {
	names := table.ColumnNames()
	if int(rec.NumCols()) != len(names) {
		return fmt.Errorf("record has %d columns, %s expects %d", rec.NumCols(), table.Name, len(names))
	}
	for i, name := range names {
		if rec.ColumnName(i) != name {
			return fmt.Errorf("record column %d is %q, %s expects %q", i, rec.ColumnName(i), table.Name, name)
		}
	}
	return nil
}
