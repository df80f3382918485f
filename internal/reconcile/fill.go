package reconcile

import (
	"fmt"
	"math"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/vvka-141/transitload/internal/schema"
)

// constantColumn builds an n-row array holding value in every cell.
func constantColumn(mem memory.Allocator, typ schema.LogicalType, value any, n int) (arrow.Array, error) {
	switch typ {
	case schema.TypeInteger:
		v, err := int32Value(value)
		if err != nil {
			return nil, err
		}
		b := array.NewInt32Builder(mem)
		defer b.Release()
		b.Reserve(n)
		for i := 0; i < n; i++ {
			b.Append(v)
		}
		return b.NewArray(), nil

	case schema.TypeTimestamp:
		v, err := timestampValue(value)
		if err != nil {
			return nil, err
		}
		b := array.NewTimestampBuilder(mem, typ.ArrowType().(*arrow.TimestampType))
		defer b.Release()
		b.Reserve(n)
		for i := 0; i < n; i++ {
			b.Append(v)
		}
		return b.NewArray(), nil

	default:
		v, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("default %v (%T) is not text", value, value)
		}
		b := array.NewStringBuilder(mem)
		defer b.Release()
		b.Reserve(n)
		for i := 0; i < n; i++ {
			b.Append(v)
		}
		return b.NewArray(), nil
	}
}

// fillNulls copies arr, which already has the canonical type for typ,
// replacing null cells with value.
func fillNulls(mem memory.Allocator, arr arrow.Array, typ schema.LogicalType, value any) (arrow.Array, error) {
	switch src := arr.(type) {
	case *array.Int32:
		v, err := int32Value(value)
		if err != nil {
			return nil, err
		}
		b := array.NewInt32Builder(mem)
		defer b.Release()
		b.Reserve(src.Len())
		for i := 0; i < src.Len(); i++ {
			if src.IsNull(i) {
				b.Append(v)
			} else {
				b.Append(src.Value(i))
			}
		}
		return b.NewArray(), nil

	case *array.Timestamp:
		v, err := timestampValue(value)
		if err != nil {
			return nil, err
		}
		b := array.NewTimestampBuilder(mem, typ.ArrowType().(*arrow.TimestampType))
		defer b.Release()
		b.Reserve(src.Len())
		for i := 0; i < src.Len(); i++ {
			if src.IsNull(i) {
				b.Append(v)
			} else {
				b.Append(src.Value(i))
			}
		}
		return b.NewArray(), nil

	case *array.String:
		v, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("default %v (%T) is not text", value, value)
		}
		b := array.NewStringBuilder(mem)
		defer b.Release()
		b.Reserve(src.Len())
		for i := 0; i < src.Len(); i++ {
			if src.IsNull(i) {
				b.Append(v)
			} else {
				b.Append(src.Value(i))
			}
		}
		return b.NewArray(), nil

	default:
		return nil, fmt.Errorf("cannot fill nulls in %s", arr.DataType())
	}
}

func int32Value(value any) (int32, error) {
	switch v := value.(type) {
	case int32:
		return v, nil
	case int:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return 0, fmt.Errorf("default %d overflows int32", v)
		}
		return int32(v), nil
	case int64:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return 0, fmt.Errorf("default %d overflows int32", v)
		}
		return int32(v), nil
	default:
		return 0, fmt.Errorf("default %v (%T) is not an integer", value, value)
	}
}

func timestampValue(value any) (arrow.Timestamp, error) {
	t, ok := value.(time.Time)
	if !ok {
		return 0, fmt.Errorf("default %v (%T) is not a time", value, value)
	}
	return arrow.Timestamp(t.UTC().UnixMicro()), nil
}
