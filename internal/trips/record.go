package trips

import (
	"math"
	"time"
)

// Measure names attached to normalized records.
const (
	MeasureDistanceKM = "distance_km"
)

// Record is the canonical trip shape both providers normalize into.
// Coordinates are WGS84 degrees; a coordinate that failed to parse is NaN.
// Timestamps are timezone-naive; a timestamp that failed to parse is the
// zero time. A record with a missing field is still kept, and excluded only
// from the bins that depend on that field.
type Record struct {
	OriginLat float64
	OriginLon float64
	DestLat   float64
	DestLon   float64

	OriginTime time.Time
	DestTime   time.Time

	Measures map[string]float64
}

// OriginOK reports whether the origin coordinates parsed and are in range.
func (r Record) OriginOK() bool { return coordOK(r.OriginLat, r.OriginLon) }

// DestOK reports whether the destination coordinates parsed and are in range.
func (r Record) DestOK() bool { return coordOK(r.DestLat, r.DestLon) }

// OriginTimeOK reports whether the origin timestamp parsed.
func (r Record) OriginTimeOK() bool { return !r.OriginTime.IsZero() }

// DestTimeOK reports whether the destination timestamp parsed.
func (r Record) DestTimeOK() bool { return !r.DestTime.IsZero() }

func coordOK(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Endpoint selects which end of the trip an operation works on.
type Endpoint string

const (
	EndpointOrigin      Endpoint = "origin"
	EndpointDestination Endpoint = "destination"
	EndpointAll         Endpoint = "all"
)

// Coords returns the record's coordinates for a single endpoint.
func (r Record) Coords(e Endpoint) (lat, lon float64, ok bool) {
	if e == EndpointDestination {
		return r.DestLat, r.DestLon, r.DestOK()
	}
	return r.OriginLat, r.OriginLon, r.OriginOK()
}

// Time returns the record's timestamp for a single endpoint.
func (r Record) Time(e Endpoint) (time.Time, bool) {
	if e == EndpointDestination {
		return r.DestTime, r.DestTimeOK()
	}
	return r.OriginTime, r.OriginTimeOK()
}
