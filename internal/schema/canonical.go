package schema

import (
	"fmt"

	"github.com/vvka-141/transitload/pkg/transitload"
)

const (
	// IngestionTimestamp is the canonical, never-null snapshot instant column.
	IngestionTimestamp = "ingestion_ts"

	// TimestampAlias is the generic column name feed clients use for the snapshot instant.
	TimestampAlias = "timestamp"
)

// TripUpdates is the canonical trip update table.
func TripUpdates() Table {
	return Table{
		Name:     string(transitload.CategoryTripUpdates),
		Category: transitload.CategoryTripUpdates,
		Columns: []Column{
			{Name: IngestionTimestamp, Type: TypeTimestamp},
			{Name: "trip_id", Type: TypeText, Nullable: true},
			{Name: "route_id", Type: TypeText, Nullable: true},
			{Name: "stop_id", Type: TypeText, Nullable: true},
			{Name: "stop_sequence", Type: TypeInteger, Default: int32(0)},
			{Name: "arrival_delay", Type: TypeInteger, Nullable: true},
			{Name: "arrival_time", Type: TypeTimestamp, Nullable: true},
			{Name: "departure_delay", Type: TypeInteger, Nullable: true},
			{Name: "departure_time", Type: TypeTimestamp, Nullable: true},
			{Name: "schedule_relationship", Type: TypeInteger, Default: int32(0)},
		},
		Indexes: []Index{
			{Name: "idx_trip_updates_ingestion_ts", Columns: []string{IngestionTimestamp}},
			{Name: "idx_trip_updates_route_id", Columns: []string{"route_id"}},
			{Name: "idx_trip_updates_stop_id", Columns: []string{"stop_id"}},
		},
	}
}

// ServiceAlerts is the canonical service alert table.
// affected_routes and affected_stops hold comma-joined identifier lists.
func ServiceAlerts() Table {
	return Table{
		Name:     string(transitload.CategoryServiceAlerts),
		Category: transitload.CategoryServiceAlerts,
		Columns: []Column{
			{Name: IngestionTimestamp, Type: TypeTimestamp},
			{Name: "alert_id", Type: TypeText, Nullable: true},
			{Name: "cause", Type: TypeInteger, Nullable: true},
			{Name: "effect", Type: TypeInteger, Nullable: true},
			{Name: "header_text", Type: TypeText, Nullable: true},
			{Name: "description_text", Type: TypeText, Nullable: true},
			{Name: "affected_routes", Type: TypeText, Nullable: true},
			{Name: "affected_stops", Type: TypeText, Nullable: true},
			{Name: "active_period_start", Type: TypeTimestamp, Nullable: true},
			{Name: "active_period_end", Type: TypeTimestamp, Nullable: true},
		},
		Indexes: []Index{
			{Name: "idx_service_alerts_ingestion_ts", Columns: []string{IngestionTimestamp}},
		},
	}
}

// Tables returns every canonical table in provisioning order.
func Tables() []Table {
	return []Table{TripUpdates(), ServiceAlerts()}
}

// ForCategory returns the canonical table a feed loads into.
func ForCategory(category transitload.Category) (Table, error) {
	switch category {
	case transitload.CategoryTripUpdates:
		return TripUpdates(), nil
	case transitload.CategoryServiceAlerts:
		return ServiceAlerts(), nil
	default:
		return Table{}, fmt.Errorf("no canonical table for category %q", category)
	}
}
