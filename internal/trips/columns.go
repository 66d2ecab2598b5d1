package trips

import "strings"

// Aggregated table files re-enter the pipeline through the boundary-filter,
// OD-matrix, and time-binning operations, and may carry coordinate and time
// columns under several historical names. Each logical field has an explicit
// ordered fallback table; the first present candidate wins.

var latCandidates = map[Endpoint][]string{
	EndpointOrigin:      {"org_lat", "origin_lat", "originLatitude"},
	EndpointDestination: {"dst_lat", "dest_lat", "destination_lat", "destinationLatitude"},
	EndpointAll: {
		"org_lat", "dst_lat", "origin_lat", "dest_lat",
		"originLatitude", "destinationLatitude", "latitude", "lat",
	},
}

var lonCandidates = map[Endpoint][]string{
	EndpointOrigin:      {"org_lng", "org_long", "origin_lng", "origin_long", "originLongitude"},
	EndpointDestination: {"dst_lng", "dst_long", "dest_lng", "dest_long", "destinationLongitude"},
	EndpointAll: {
		"org_lng", "org_long", "dst_lng", "dst_long", "origin_lng", "dest_lng",
		"originLongitude", "destinationLongitude", "longitude", "lon", "lng",
	},
}

var timeCandidates = map[Endpoint][]string{
	EndpointOrigin:      {"start_time", "org_time", "origin_time", "startTime", "origin_datetime"},
	EndpointDestination: {"end_time", "dst_time", "dest_time", "endTime", "destination_datetime"},
	EndpointAll:         {"start_time", "end_time", "org_time", "dst_time", "startTime", "endTime"},
}

// MapColumns builds a column name to index map from a header row.
func MapColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		m[strings.TrimSpace(col)] = i
	}
	return m
}

// LatColumn resolves the latitude column index for an endpoint, trying the
// ordered candidate names. ok is false when none is present.
func LatColumn(colIdx map[string]int, e Endpoint) (int, bool) {
	return firstPresent(colIdx, latCandidates[e])
}

// LonColumn resolves the longitude column index for an endpoint.
func LonColumn(colIdx map[string]int, e Endpoint) (int, bool) {
	return firstPresent(colIdx, lonCandidates[e])
}

// TimeColumn resolves the timestamp column index for an endpoint.
func TimeColumn(colIdx map[string]int, e Endpoint) (int, bool) {
	return firstPresent(colIdx, timeCandidates[e])
}

func firstPresent(colIdx map[string]int, names []string) (int, bool) {
	for _, name := range names {
		if idx, ok := colIdx[name]; ok {
			return idx, true
		}
	}
	return 0, false
}
