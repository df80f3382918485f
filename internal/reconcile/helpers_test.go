package reconcile

import (
	"strings"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestReconciler(t *testing.T) (*Reconciler, *memory.CheckedAllocator) {
	t.Helper()
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	t.Cleanup(func() { mem.AssertSize(t, 0) })
	r := New(WithAllocator(mem), WithClock(func() time.Time { return fixedNow }))
	return r, mem
}

// recordFromJSON builds an input record; timestamps are given as epoch microseconds.
func recordFromJSON(t *testing.T, mem memory.Allocator, fields []arrow.Field, rows string) arrow.Record {
	t.Helper()
	rec, _, err := array.RecordFromJSON(mem, arrow.NewSchema(fields, nil), strings.NewReader(rows))
	require.NoError(t, err)
	return rec
}

func column(t *testing.T, rec arrow.Record, name string) arrow.Array {
	t.Helper()
	idx := rec.Schema().FieldIndices(name)
	require.Len(t, idx, 1, "column %q", name)
	return rec.Column(idx[0])
}

func micros(t time.Time) arrow.Timestamp {
	return arrow.Timestamp(t.UnixMicro())
}

var tsUTC = &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}
