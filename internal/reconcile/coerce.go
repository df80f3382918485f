package reconcile

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"

	"github.com/vvka-141/transitload/internal/schema"
)

// timestampLayouts are tried in order when parsing text into ingestion or
// arrival instants. Zone-less values are taken as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Instants outside [minInstant, maxInstant] are rejected. The bounds keep
// every stored value printable as a four-digit year and catch epoch
// milliseconds fed where epoch seconds are expected.
var (
	minInstant = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	maxInstant = time.Date(9999, time.December, 31, 23, 59, 59, 999_999_000, time.UTC)
)

// listSeparator joins list-typed identifier columns into canonical text.
const listSeparator = ","

type stringValues interface {
	arrow.Array
	Value(i int) string
}

// coerce returns arr converted to the canonical type of col.
// The caller owns the result.
func (r *Reconciler) coerce(ctx context.Context, arr arrow.Array, col schema.Column) (arrow.Array, error) {
	target := col.Type.ArrowType()

	if arrow.TypeEqual(arr.DataType(), target) {
		arr.Retain()
		return arr, nil
	}
	if arr.DataType().ID() == arrow.NULL {
		return array.MakeArrayOfNull(r.mem, target, arr.Len()), nil
	}
	if dict, ok := arr.(*array.Dictionary); ok {
		dense, err := compute.TakeArray(r.computeCtx(ctx), dict.Dictionary(), dict.Indices())
		if err != nil {
			return nil, fmt.Errorf("decode dictionary: %w", err)
		}
		defer dense.Release()
		return r.coerce(ctx, dense, col)
	}

	switch col.Type {
	case schema.TypeTimestamp:
		return r.toTimestamp(ctx, arr)
	case schema.TypeInteger:
		return r.toInteger(ctx, arr)
	default:
		return r.toText(ctx, arr)
	}
}

func (r *Reconciler) computeCtx(ctx context.Context) context.Context {
	return compute.WithAllocator(ctx, r.mem)
}

// cast delegates to Arrow's safe cast kernels: overflow, float truncation
// and invalid UTF-8 are errors rather than silent corruption.
func (r *Reconciler) cast(ctx context.Context, arr arrow.Array, target arrow.DataType) (arrow.Array, error) {
	return compute.CastArray(r.computeCtx(ctx), arr, compute.SafeCastOptions(target))
}

func (r *Reconciler) toInteger(ctx context.Context, arr arrow.Array) (arrow.Array, error) {
	src, ok := arr.(stringValues)
	if !ok {
		return r.cast(ctx, arr, arrow.PrimitiveTypes.Int32)
	}

	b := array.NewInt32Builder(r.mem)
	defer b.Release()
	b.Reserve(src.Len())

	for i := 0; i < src.Len(); i++ {
		s := strings.TrimSpace(src.Value(i))
		if src.IsNull(i) || s == "" {
			b.AppendNull()
			continue
		}
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		b.Append(int32(v))
	}
	return b.NewArray(), nil
}

func (r *Reconciler) toTimestamp(ctx context.Context, arr arrow.Array) (arrow.Array, error) {
	b := array.NewTimestampBuilder(r.mem, schema.TypeTimestamp.ArrowType().(*arrow.TimestampType))
	defer b.Release()
	b.Reserve(arr.Len())

	switch src := arr.(type) {
	case *array.Timestamp:
		unit := src.DataType().(*arrow.TimestampType).Unit
		for i := 0; i < src.Len(); i++ {
			if src.IsNull(i) {
				b.AppendNull()
				continue
			}
			ts, err := toMicros(int64(src.Value(i)), unit)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			b.Append(ts)
		}

	case *array.Date32:
		for i := 0; i < src.Len(); i++ {
			if src.IsNull(i) {
				b.AppendNull()
				continue
			}
			ts, err := instantMicros(src.Value(i).ToTime())
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			b.Append(ts)
		}

	case *array.Date64:
		for i := 0; i < src.Len(); i++ {
			if src.IsNull(i) {
				b.AppendNull()
				continue
			}
			ts, err := instantMicros(src.Value(i).ToTime())
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			b.Append(ts)
		}

	case stringValues:
		for i := 0; i < src.Len(); i++ {
			s := strings.TrimSpace(src.Value(i))
			if src.IsNull(i) || s == "" {
				b.AppendNull()
				continue
			}
			t, err := parseTimestamp(s)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			ts, err := instantMicros(t)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			b.Append(ts)
		}

	default:
		if !arrow.IsInteger(arr.DataType().ID()) {
			return nil, fmt.Errorf("no conversion from %s to timestamp", arr.DataType())
		}
		// Integer instants are epoch seconds, as GTFS-realtime encodes them.
		secs, err := r.cast(ctx, arr, arrow.PrimitiveTypes.Int64)
		if err != nil {
			return nil, err
		}
		defer secs.Release()
		ints := secs.(*array.Int64)
		for i := 0; i < ints.Len(); i++ {
			if ints.IsNull(i) {
				b.AppendNull()
				continue
			}
			ts, err := toMicros(ints.Value(i), arrow.Second)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			b.Append(ts)
		}
	}

	return b.NewArray(), nil
}

func (r *Reconciler) toText(ctx context.Context, arr arrow.Array) (arrow.Array, error) {
	switch src := arr.(type) {
	case *array.Timestamp:
		unit := src.DataType().(*arrow.TimestampType).Unit
		b := array.NewStringBuilder(r.mem)
		defer b.Release()
		b.Reserve(src.Len())
		for i := 0; i < src.Len(); i++ {
			if src.IsNull(i) {
				b.AppendNull()
				continue
			}
			b.Append(src.Value(i).ToTime(unit).UTC().Format(time.RFC3339Nano))
		}
		return b.NewArray(), nil

	case array.ListLike:
		return r.joinList(ctx, src)

	default:
		return r.cast(ctx, arr, arrow.BinaryTypes.String)
	}
}

// joinList flattens list<T> cells into comma-joined text, the canonical
// encoding of affected route and stop lists.
func (r *Reconciler) joinList(ctx context.Context, src array.ListLike) (arrow.Array, error) {
	values := src.ListValues()
	strs, ok := values.(*array.String)
	if !ok {
		cast, err := r.cast(ctx, values, arrow.BinaryTypes.String)
		if err != nil {
			return nil, fmt.Errorf("list elements: %w", err)
		}
		defer cast.Release()
		strs = cast.(*array.String)
	}

	b := array.NewStringBuilder(r.mem)
	defer b.Release()
	b.Reserve(src.Len())

	parts := make([]string, 0, 8)
	for i := 0; i < src.Len(); i++ {
		if src.IsNull(i) {
			b.AppendNull()
			continue
		}
		start, end := src.ValueOffsets(i)
		parts = parts[:0]
		for j := start; j < end; j++ {
			if !strs.IsNull(int(j)) {
				parts = append(parts, strs.Value(int(j)))
			}
		}
		b.Append(strings.Join(parts, listSeparator))
	}
	return b.NewArray(), nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// toMicros rescales v from unit to microseconds, refusing values that
// overflow int64 or land outside [minInstant, maxInstant].
func toMicros(v int64, unit arrow.TimeUnit) (arrow.Timestamp, error) {
	var micros int64
	switch unit {
	case arrow.Second, arrow.Millisecond:
		factor := int64(1_000_000)
		if unit == arrow.Millisecond {
			factor = 1_000
		}
		if v > math.MaxInt64/factor || v < math.MinInt64/factor {
			return 0, fmt.Errorf("%d %s out of range", v, unitName(unit))
		}
		micros = v * factor
	case arrow.Nanosecond:
		micros = v / 1_000
	default:
		micros = v
	}
	if micros < minInstant.UnixMicro() || micros > maxInstant.UnixMicro() {
		return 0, fmt.Errorf("%d %s is outside %d-%d", v, unitName(unit), minInstant.Year(), maxInstant.Year())
	}
	return arrow.Timestamp(micros), nil
}

func instantMicros(t time.Time) (arrow.Timestamp, error) {
	if t.Before(minInstant) || t.After(maxInstant) {
		return 0, fmt.Errorf("instant %s is outside %d-%d", t.UTC().Format(time.RFC3339), minInstant.Year(), maxInstant.Year())
	}
	return arrow.Timestamp(t.UnixMicro()), nil
}

func unitName(unit arrow.TimeUnit) string {
	switch unit {
	case arrow.Second:
		return "seconds"
	case arrow.Millisecond:
		return "milliseconds"
	case arrow.Nanosecond:
		return "nanoseconds"
	default:
		return "microseconds"
	}
}
