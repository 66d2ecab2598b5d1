package spatial

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/urban-mobility/trips-cli/internal/trips"
)

// BoundarySplit partitions one chunk of records by zone membership. The two
// halves come from a single membership test per record, so together they are
// always exactly the input.
type BoundarySplit struct {
	Inside  []trips.Record
	Outside []trips.Record
}

// SplitByBoundary tests each record's chosen endpoint against the layer,
// reprojecting the tested coordinates into the layer's CRS in one pass over
// the whole chunk. With trips.EndpointAll a record is inside only when both
// of its endpoints are; records missing a tested coordinate count as outside.
func SplitByBoundary(j *Joiner, reproject Reprojector, records []trips.Record, endpoint trips.Endpoint) (BoundarySplit, error) {
	var inside []bool
	switch endpoint {
	case trips.EndpointOrigin, trips.EndpointDestination:
		inside = endpointInside(j, reproject, records, endpoint)
	case trips.EndpointAll:
		inside = endpointInside(j, reproject, records, trips.EndpointOrigin)
		dest := endpointInside(j, reproject, records, trips.EndpointDestination)
		for i := range inside {
			inside[i] = inside[i] && dest[i]
		}
	default:
		return BoundarySplit{}, eris.Errorf("spatial: unknown endpoint %q", endpoint)
	}

	var split BoundarySplit
	for i, rec := range records {
		if inside[i] {
			split.Inside = append(split.Inside, rec)
		} else {
			split.Outside = append(split.Outside, rec)
		}
	}
	return split, nil
}

// endpointInside builds the membership mask for one endpoint, transforming
// the chunk's coordinates as a single flat slice before any containment test.
func endpointInside(j *Joiner, reproject Reprojector, records []trips.Record, endpoint trips.Endpoint) []bool {
	flat := make([]float64, 0, len(records)*2)
	for _, rec := range records {
		lat, lon, ok := rec.Coords(endpoint)
		if !ok {
			lat, lon = math.NaN(), math.NaN()
		}
		flat = append(flat, lon, lat)
	}
	reproject.TransformAll(flat)

	inside := make([]bool, len(records))
	for i := range records {
		inside[i] = j.Zone(flat[2*i], flat[2*i+1]) != ""
	}
	return inside
}
