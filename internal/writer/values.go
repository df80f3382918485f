package writer

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// valueFunc returns the driver value of row i, nil for null.
type valueFunc func(i int) any

// accessor converts an Arrow column of a canonical type to driver values.
func accessor(col arrow.Array) (valueFunc, error) {
	switch a := col.(type) {
	case *array.String:
		return func(i int) any {
			if a.IsNull(i) {
				return nil
			}
			return a.Value(i)
		}, nil
	case *array.Int32:
		return func(i int) any {
			if a.IsNull(i) {
				return nil
			}
			return a.Value(i)
		}, nil
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return func(i int) any {
			if a.IsNull(i) {
				return nil
			}
			return a.Value(i).ToTime(unit).UTC()
		}, nil
	case *array.Null:
		return func(int) any { return nil }, nil
	default:
		return nil, fmt.Errorf("unsupported column type %s", col.DataType())
	}
}

// rowsOf materializes rows [from, to) of the columns behind accessors.
func rowsOf(accessors []valueFunc, from, to int) [][]any {
	rows := make([][]any, 0, to-from)
	for i := from; i < to; i++ {
		row := make([]any, len(accessors))
		for c, get := range accessors {
			row[c] = get(i)
		}
		rows = append(rows, row)
	}
	return rows
}
