package output

import (
	"math"
	"strconv"

	"github.com/urban-mobility/trips-cli/internal/trips"
)

// RecordsTable flattens normalized trip records back into the canonical
// tabular column layout. Missing coordinates and timestamps print empty.
func RecordsTable(records []trips.Record) *Table {
	table := &Table{Columns: []string{
		"org_lat", "org_lng", "dst_lat", "dst_lng",
		"start_time", "end_time", trips.MeasureDistanceKM,
	}}
	for _, rec := range records {
		table.Rows = append(table.Rows, []string{
			coordString(rec.OriginLat),
			coordString(rec.OriginLon),
			coordString(rec.DestLat),
			coordString(rec.DestLon),
			timeString(rec, trips.EndpointOrigin),
			timeString(rec, trips.EndpointDestination),
			measureString(rec, trips.MeasureDistanceKM),
		})
	}
	return table
}

func coordString(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func timeString(rec trips.Record, e trips.Endpoint) string {
	t, ok := rec.Time(e)
	if !ok {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func measureString(rec trips.Record, name string) string {
	v, ok := rec.Measures[name]
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
