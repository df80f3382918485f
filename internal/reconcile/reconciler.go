package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/vvka-141/transitload/internal/logging"
	"github.com/vvka-141/transitload/internal/schema"
	"github.com/vvka-141/transitload/pkg/transitload"
)

// Reconciler converts input records to canonical records.
// Safe for concurrent use.
type Reconciler struct {
	mem    memory.Allocator
	now    func() time.Time
	logger transitload.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithAllocator sets the allocator used for every array the reconciler builds.
func WithAllocator(mem memory.Allocator) Option {
	return func(r *Reconciler) {
		r.mem = mem
	}
}

// WithClock sets the source of the instant stamped into a missing ingestion_ts.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		r.now = now
	}
}

// WithLogger sets the logger used to report column-set differences.
func WithLogger(logger transitload.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// New creates a Reconciler using the default allocator and wall clock.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{
		mem:    memory.DefaultAllocator,
		now:    time.Now,
		logger: logging.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile reshapes rec into table's canonical form, stamping a missing
// ingestion_ts with the current instant. The caller owns the returned
// record and must Release it; rec is not modified or released.
func (r *Reconciler) Reconcile(ctx context.Context, rec arrow.Record, table schema.Table) (arrow.Record, error) {
	return r.ReconcileAt(ctx, rec, table, r.now())
}

// ReconcileAt is Reconcile with an explicit stamp for missing or null
// ingestion timestamps.
func (r *Reconciler) ReconcileAt(ctx context.Context, rec arrow.Record, table schema.Table, stamp time.Time) (arrow.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := int(rec.NumRows())
	input := rec.Schema()
	diff := schema.Compare(input, table)
	if !diff.IsExact() {
		r.logDiff(table.Name, diff)
	}

	columnFor := func(name string) (arrow.Array, bool) {
		if idx := input.FieldIndices(name); len(idx) > 0 {
			return rec.Column(idx[0]), true
		}
		return nil, false
	}

	cols := make([]arrow.Array, 0, len(table.Columns))
	releaseAll := func() {
		for _, c := range cols {
			c.Release()
		}
	}

	for _, col := range table.Columns {
		src, present := columnFor(col.Name)
		if !present && col.Name == schema.IngestionTimestamp && diff.Aliased {
			src, present = columnFor(schema.TimestampAlias)
		}

		out, err := r.column(ctx, table, col, src, present, n, stamp)
		if err != nil {
			releaseAll()
			return nil, err
		}
		cols = append(cols, out)
	}

	out := array.NewRecord(table.ArrowSchema(), cols, int64(n))
	releaseAll()
	return out, nil
}

func (r *Reconciler) column(
	ctx context.Context,
	table schema.Table,
	col schema.Column,
	src arrow.Array,
	present bool,
	n int,
	stamp time.Time,
) (arrow.Array, error) {
	if !present {
		if col.Nullable && !col.HasDefault() {
			return array.MakeArrayOfNull(r.mem, col.Type.ArrowType(), n), nil
		}
		value, err := fillValue(col, stamp)
		if err != nil {
			return nil, err
		}
		return constantColumn(r.mem, col.Type, value, n)
	}

	out, err := r.coerce(ctx, src, col)
	if err != nil {
		return nil, &transitload.SchemaCoercionError{
			Table:  table.Name,
			Column: col.Name,
			From:   src.DataType().String(),
			To:     col.Type.ArrowType().String(),
			Err:    err,
		}
	}

	if col.Nullable || out.NullN() == 0 {
		return out, nil
	}
	defer out.Release()

	value, err := fillValue(col, stamp)
	if err != nil {
		return nil, err
	}
	return fillNulls(r.mem, out, col.Type, value)
}

// fillValue is what a NOT NULL column holds where the input has nothing.
func fillValue(col schema.Column, stamp time.Time) (any, error) {
	switch {
	case col.HasDefault():
		return col.Default, nil
	case col.Type == schema.TypeTimestamp:
		return stamp.UTC(), nil
	default:
		return nil, fmt.Errorf("column %q is NOT NULL without a default", col.Name)
	}
}

func (r *Reconciler) logDiff(table string, d schema.Diff) {
	if d.Aliased {
		r.logger.Verbose("%s: using %q as %s", table, schema.TimestampAlias, schema.IngestionTimestamp)
	}
	if d.Synthesized {
		r.logger.Verbose("%s: no timestamp column, stamping %s", table, schema.IngestionTimestamp)
	}
	if len(d.Defaulted) > 0 {
		r.logger.Verbose("%s: filling %d column(s) with defaults: %v", table, len(d.Defaulted), d.Defaulted)
	}
	if len(d.Nulled) > 0 {
		r.logger.Verbose("%s: filling %d column(s) with null: %v", table, len(d.Nulled), d.Nulled)
	}
	if len(d.Extra) > 0 {
		r.logger.Verbose("%s: dropping %d extra column(s): %v", table, len(d.Extra), d.Extra)
	}
}
