package reconcile

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/transitload/internal/schema"
	"github.com/vvka-141/transitload/pkg/transitload"
)

func TestReconcile_TextTimestamps(t *testing.T) {
	r, mem := newTestReconciler(t)
	in := recordFromJSON(t, mem, []arrow.Field{
		{Name: "arrival_time", Type: arrow.BinaryTypes.String, Nullable: true},
	}, `[
		{"arrival_time": "2025-01-15T08:30:00Z"},
		{"arrival_time": "2025-01-15T00:30:00-08:00"},
		{"arrival_time": "2025-01-15 08:30:00"},
		{"arrival_time": ""},
		{"arrival_time": null}
	]`)
	defer in.Release()

	out, err := r.Reconcile(context.Background(), in, schema.TripUpdates())
	require.NoError(t, err)
	defer out.Release()

	want := micros(time.Date(2025, 1, 15, 8, 30, 0, 0, time.UTC))
	arrival := column(t, out, "arrival_time").(*array.Timestamp)
	for i := 0; i < 3; i++ {
		assert.Equal(t, want, arrival.Value(i), "row %d", i)
	}
	assert.True(t, arrival.IsNull(3))
	assert.True(t, arrival.IsNull(4))
}

func TestReconcile_EpochSecondsAndForeignUnits(t *testing.T) {
	r, mem := newTestReconciler(t)
	in := recordFromJSON(t, mem, []arrow.Field{
		{Name: "arrival_time", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "departure_time", Type: &arrow.TimestampType{Unit: arrow.Nanosecond}, Nullable: true},
		{Name: "ingestion_ts", Type: &arrow.TimestampType{Unit: arrow.Millisecond, TimeZone: "UTC"}, Nullable: true},
	}, `[{"arrival_time": 1736929800, "departure_time": 1736929800123456789, "ingestion_ts": 1736929800123}]`)
	defer in.Release()

	out, err := r.Reconcile(context.Background(), in, schema.TripUpdates())
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, arrow.Timestamp(1736929800000000), column(t, out, "arrival_time").(*array.Timestamp).Value(0))
	assert.Equal(t, arrow.Timestamp(1736929800123456), column(t, out, "departure_time").(*array.Timestamp).Value(0))
	assert.Equal(t, arrow.Timestamp(1736929800123000), column(t, out, "ingestion_ts").(*array.Timestamp).Value(0))
}

func TestReconcile_EpochOutOfRangeIsRejected(t *testing.T) {
	tests := []struct {
		name  string
		field arrow.Field
		value string
	}{
		{"seconds overflow int64 micros", arrow.Field{Name: "arrival_time", Type: arrow.PrimitiveTypes.Int64, Nullable: true}, "10000000000000"},
		{"milliseconds given as seconds", arrow.Field{Name: "arrival_time", Type: arrow.PrimitiveTypes.Int64, Nullable: true}, "1735732800000"},
		{"negative seconds overflow", arrow.Field{Name: "arrival_time", Type: arrow.PrimitiveTypes.Int64, Nullable: true}, "-10000000000000"},
		{"second unit past year 9999", arrow.Field{Name: "departure_time", Type: &arrow.TimestampType{Unit: arrow.Second}, Nullable: true}, "1735732800000"},
		{"millisecond unit past year 9999", arrow.Field{Name: "departure_time", Type: &arrow.TimestampType{Unit: arrow.Millisecond}, Nullable: true}, "300000000000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, mem := newTestReconciler(t)
			in := recordFromJSON(t, mem, []arrow.Field{tt.field},
				`[{"`+tt.field.Name+`": 1736929800}, {"`+tt.field.Name+`": `+tt.value+`}]`)
			defer in.Release()

			out, err := r.Reconcile(context.Background(), in, schema.TripUpdates())
			if out != nil {
				out.Release()
			}
			var ce *transitload.SchemaCoercionError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field.Name, ce.Column)
			assert.Contains(t, err.Error(), "row 1")
		})
	}
}

func TestToMicros(t *testing.T) {
	got, err := toMicros(1736929800, arrow.Second)
	require.NoError(t, err)
	assert.Equal(t, arrow.Timestamp(1736929800000000), got)

	got, err = toMicros(-62135596800, arrow.Second)
	require.NoError(t, err, "0001-01-01 is the lower bound")
	assert.Equal(t, arrow.Timestamp(minInstant.UnixMicro()), got)

	_, err = toMicros(-62135596801, arrow.Second)
	assert.Error(t, err)

	_, err = toMicros(math.MaxInt64/1_000+1, arrow.Millisecond)
	assert.Error(t, err)

	got, err = toMicros(math.MaxInt64, arrow.Nanosecond)
	require.NoError(t, err, "nanoseconds only shrink")
	assert.Equal(t, arrow.Timestamp(math.MaxInt64/1_000), got)
}

func TestReconcile_WideIntegersNarrowed(t *testing.T) {
	r, mem := newTestReconciler(t)
	in := recordFromJSON(t, mem, []arrow.Field{
		{Name: "cause", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "effect", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}, `[{"cause": 3, "effect": 4.0}, {"cause": null, "effect": null}]`)
	defer in.Release()

	out, err := r.Reconcile(context.Background(), in, schema.ServiceAlerts())
	require.NoError(t, err)
	defer out.Release()

	cause := column(t, out, "cause").(*array.Int32)
	assert.Equal(t, int32(3), cause.Value(0))
	assert.True(t, cause.IsNull(1))
	assert.Equal(t, int32(4), column(t, out, "effect").(*array.Int32).Value(0))
}

func TestReconcile_FractionalIntegerIsRejected(t *testing.T) {
	r, mem := newTestReconciler(t)
	in := recordFromJSON(t, mem, []arrow.Field{
		{Name: "effect", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}, `[{"effect": 4.5}]`)
	defer in.Release()

	_, err := r.Reconcile(context.Background(), in, schema.ServiceAlerts())
	var ce *transitload.SchemaCoercionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "effect", ce.Column)
}

func TestReconcile_ListsJoinedToText(t *testing.T) {
	r, mem := newTestReconciler(t)
	in := recordFromJSON(t, mem, []arrow.Field{
		{Name: "affected_routes", Type: arrow.ListOf(arrow.BinaryTypes.String), Nullable: true},
		{Name: "affected_stops", Type: arrow.ListOf(arrow.PrimitiveTypes.Int64), Nullable: true},
	}, `[
		{"affected_routes": ["YL", "RD"], "affected_stops": [12, 13]},
		{"affected_routes": [], "affected_stops": null},
		{"affected_routes": ["BL", null], "affected_stops": [7]}
	]`)
	defer in.Release()

	out, err := r.Reconcile(context.Background(), in, schema.ServiceAlerts())
	require.NoError(t, err)
	defer out.Release()

	routes := column(t, out, "affected_routes").(*array.String)
	assert.Equal(t, "YL,RD", routes.Value(0))
	assert.Equal(t, "", routes.Value(1))
	assert.False(t, routes.IsNull(1))
	assert.Equal(t, "BL", routes.Value(2))

	stops := column(t, out, "affected_stops").(*array.String)
	assert.Equal(t, "12,13", stops.Value(0))
	assert.True(t, stops.IsNull(1))
	assert.Equal(t, "7", stops.Value(2))
}

func TestReconcile_TimestampToText(t *testing.T) {
	r, mem := newTestReconciler(t)
	in := recordFromJSON(t, mem, []arrow.Field{
		{Name: "header_text", Type: tsUTC, Nullable: true},
		{Name: "alert_id", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
	}, `[{"header_text": 1736929800000000, "alert_id": 42}]`)
	defer in.Release()

	out, err := r.Reconcile(context.Background(), in, schema.ServiceAlerts())
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, "2025-01-15T08:30:00Z", column(t, out, "header_text").(*array.String).Value(0))
	assert.Equal(t, "42", column(t, out, "alert_id").(*array.String).Value(0))
}

func TestReconcile_AllNullInputColumn(t *testing.T) {
	r, mem := newTestReconciler(t)
	in := recordFromJSON(t, mem, []arrow.Field{
		{Name: "stop_id", Type: arrow.Null, Nullable: true},
		{Name: "stop_sequence", Type: arrow.Null, Nullable: true},
	}, `[{"stop_id": null, "stop_sequence": null}, {"stop_id": null, "stop_sequence": null}]`)
	defer in.Release()

	out, err := r.Reconcile(context.Background(), in, schema.TripUpdates())
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, 2, column(t, out, "stop_id").NullN())
	assert.Equal(t, []int32{0, 0}, column(t, out, "stop_sequence").(*array.Int32).Int32Values())
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2025-01-15T08:30:00.5Z", want: time.Date(2025, 1, 15, 8, 30, 0, 500_000_000, time.UTC)},
		{in: "2025-01-15 08:30:00+02:00", want: time.Date(2025, 1, 15, 6, 30, 0, 0, time.UTC)},
		{in: "2025-01-15", want: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
		{in: "yesterday", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTimestamp(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}
