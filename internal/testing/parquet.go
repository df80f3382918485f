package testing

import (
	"bytes"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// WriteParquet encodes rec as a parquet file with rowGroupSize rows per row group.
func WriteParquet(t testing.TB, rec arrow.Record, rowGroupSize int64) []byte {
	t.Helper()

	tbl := array.NewTableFromRecords(rec.Schema(), []arrow.Record{rec})
	defer tbl.Release()

	var buf bytes.Buffer
	err := pqarrow.WriteTable(tbl, &buf, rowGroupSize,
		parquet.NewWriterProperties(parquet.WithAllocator(memory.DefaultAllocator)),
		pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()),
	)
	if err != nil {
		t.Fatalf("Failed to encode parquet: %v", err)
	}
	return buf.Bytes()
}

// WriteParquetFile writes rec to path as parquet.
func WriteParquetFile(t testing.TB, path string, rec arrow.Record) {
	t.Helper()

	if err := os.WriteFile(path, WriteParquet(t, rec, 1024), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// SnapshotName returns the feed client's file name for a snapshot taken at ts.
func SnapshotName(prefix, category string, ts time.Time) string {
	return fmt.Sprintf("%s_%s_%s.parquet", prefix, category, ts.UTC().Format("20060102_150405"))
}

// LegacyTripUpdates builds n rows shaped like the feed client's trip update
// frames: no timestamp column, 64-bit integers, nanosecond times and two
// columns the warehouse does not keep.
func LegacyTripUpdates(mem memory.Allocator, n int, base time.Time) arrow.Record {
	tsNanos := &arrow.TimestampType{Unit: arrow.Nanosecond}
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "trip_id", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "route_id", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "stop_id", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "stop_sequence", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "delay_minutes", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "vehicle_id", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "arrival_delay", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "arrival_time", Type: tsNanos, Nullable: true},
		{Name: "departure_delay", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "departure_time", Type: tsNanos, Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	routes := []string{"YL", "RD", "BL", "GR", "OR"}
	for i := 0; i < n; i++ {
		b.Field(0).(*array.StringBuilder).Append(fmt.Sprintf("trip-%04d", i/10))
		b.Field(1).(*array.StringBuilder).Append(routes[i%len(routes)])
		b.Field(2).(*array.StringBuilder).Append(fmt.Sprintf("STOP%02d", i%40))
		if i%7 == 0 {
			b.Field(3).AppendNull()
		} else {
			b.Field(3).(*array.Int64Builder).Append(int64(i % 10))
		}
		b.Field(4).(*array.Float64Builder).Append(float64(i%5) / 2)
		b.Field(5).(*array.StringBuilder).Append(fmt.Sprintf("car-%d", i%12))
		b.Field(6).(*array.Int64Builder).Append(int64(i % 300))
		arrival := base.Add(time.Duration(i) * time.Minute)
		b.Field(7).(*array.TimestampBuilder).Append(arrow.Timestamp(arrival.UnixNano()))
		if i%3 == 0 {
			b.Field(8).AppendNull()
			b.Field(9).AppendNull()
		} else {
			b.Field(8).(*array.Int64Builder).Append(int64(i % 120))
			b.Field(9).(*array.TimestampBuilder).Append(arrow.Timestamp(arrival.Add(30 * time.Second).UnixNano()))
		}
	}
	return b.NewRecord()
}

// LegacyServiceAlerts builds n rows shaped like the feed client's alert
// frames, with the feed instant in the generic timestamp column.
func LegacyServiceAlerts(mem memory.Allocator, n int, feedTime time.Time) arrow.Record {
	tsNanos := &arrow.TimestampType{Unit: arrow.Nanosecond}
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "timestamp", Type: tsNanos, Nullable: true},
		{Name: "alert_id", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "cause", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "effect", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "header_text", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "description_text", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "affected_routes", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "affected_stops", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "active_period_start", Type: tsNanos, Nullable: true},
		{Name: "active_period_end", Type: tsNanos, Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for i := 0; i < n; i++ {
		b.Field(0).(*array.TimestampBuilder).Append(arrow.Timestamp(feedTime.UnixNano()))
		b.Field(1).(*array.StringBuilder).Append(fmt.Sprintf("alert-%d", i))
		b.Field(2).(*array.Int64Builder).Append(int64(1 + i%12))
		b.Field(3).(*array.Int64Builder).Append(int64(1 + i%9))
		b.Field(4).(*array.StringBuilder).Append("BART Delay")
		b.Field(5).(*array.StringBuilder).Append(fmt.Sprintf("Delays of up to %d minutes", 5+i))
		b.Field(6).(*array.StringBuilder).Append("YL,RD")
		b.Field(7).AppendNull()
		b.Field(8).(*array.TimestampBuilder).Append(arrow.Timestamp(feedTime.Add(-time.Hour).UnixNano()))
		b.Field(9).AppendNull()
	}
	return b.NewRecord()
}

// StampedTripUpdates builds n trip update rows carrying the feed instant in
// a generic timestamp column and no stop_sequence column. Every tenth row
// (i%10 == 9) has no route_id and every twentieth (i%20 == 0) no timestamp.
func StampedTripUpdates(mem memory.Allocator, n int, feedTime time.Time) arrow.Record {
	tsMicros := &arrow.TimestampType{Unit: arrow.Microsecond}
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "timestamp", Type: tsMicros, Nullable: true},
		{Name: "trip_id", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "route_id", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "stop_id", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "arrival_delay", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	routes := []string{"YL", "RD", "BL", "GR", "OR"}
	for i := 0; i < n; i++ {
		if i%20 == 0 {
			b.Field(0).AppendNull()
		} else {
			b.Field(0).(*array.TimestampBuilder).Append(arrow.Timestamp(feedTime.UnixMicro()))
		}
		b.Field(1).(*array.StringBuilder).Append(fmt.Sprintf("trip-%04d", i/10))
		if i%10 == 9 {
			b.Field(2).AppendNull()
		} else {
			b.Field(2).(*array.StringBuilder).Append(routes[i%len(routes)])
		}
		b.Field(3).(*array.StringBuilder).Append(fmt.Sprintf("STOP%02d", i%40))
		b.Field(4).(*array.Int32Builder).Append(int32(i % 300))
	}
	return b.NewRecord()
}
