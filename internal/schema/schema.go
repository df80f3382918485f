package schema

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/vvka-141/transitload/pkg/transitload"
)

// LogicalType is the warehouse-level type of a canonical column.
type LogicalType int

const (
	TypeText LogicalType = iota
	TypeInteger
	TypeTimestamp
)

// String returns the lowercase name of the type.
func (t LogicalType) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeInteger:
		return "integer"
	case TypeTimestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// ArrowType is the in-memory representation of the type after reconciliation.
func (t LogicalType) ArrowType() arrow.DataType {
	switch t {
	case TypeInteger:
		return arrow.PrimitiveTypes.Int32
	case TypeTimestamp:
		return arrow.FixedWidthTypes.Timestamp_us
	default:
		return arrow.BinaryTypes.String
	}
}

// SQLType is the PostgreSQL column type.
func (t LogicalType) SQLType() string {
	switch t {
	case TypeInteger:
		return "INTEGER"
	case TypeTimestamp:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

// Column describes one canonical column.
// Default is nil for columns without a default; otherwise it holds a value
// of the Go type matching Type (int32, string or time.Time).
type Column struct {
	Name     string
	Type     LogicalType
	Nullable bool
	Default  any
}

// HasDefault reports whether the column is filled with a default when absent.
func (c Column) HasDefault() bool {
	return c.Default != nil
}

// Index is a secondary index on a destination table.
type Index struct {
	Name    string
	Columns []string
}

// Table is a canonical destination table.
type Table struct {
	Name     string
	Category transitload.Category
	Columns  []Column
	Indexes  []Index
}

// ColumnNames returns the canonical column names in order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a canonical column by name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ArrowSchema is the schema every reconciled record of this table carries.
func (t Table) ArrowSchema() *arrow.Schema {
	fields := make([]arrow.Field, len(t.Columns))
	for i, c := range t.Columns {
		fields[i] = arrow.Field{Name: c.Name, Type: c.Type.ArrowType(), Nullable: c.Nullable}
	}
	return arrow.NewSchema(fields, nil)
}
