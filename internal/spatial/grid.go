// Package spatial bins trip coordinates onto square grids and joins them
// against polygon zone layers loaded from shapefiles.
package spatial

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"
)

// MetersPerDegree approximates one degree of latitude near the equator.
// Grid sizes given in meters are converted to degrees with this factor.
const MetersPerDegree = 111000.0

// Cell identifies one square grid cell by its integer bin indices.
type Cell struct {
	X int64
	Y int64
}

// String renders a cell as "x:y", stable for use in output keys.
func (c Cell) String() string { return fmt.Sprintf("%d:%d", c.X, c.Y) }

// GridBinner maps coordinates onto a square grid of fixed cell size.
// Cell indices come from floor division, so negative coordinates bin
// toward negative infinity rather than toward zero.
type GridBinner struct {
	CellSize float64
}

// NewGridBinner builds a binner from a grid size in meters.
func NewGridBinner(sizeMeters float64) (GridBinner, error) {
	if sizeMeters <= 0 || math.IsNaN(sizeMeters) || math.IsInf(sizeMeters, 0) {
		return GridBinner{}, eris.Errorf("spatial: grid size must be a positive number of meters, got %v", sizeMeters)
	}
	return GridBinner{CellSize: sizeMeters / MetersPerDegree}, nil
}

// Bin returns the cell containing a coordinate pair. Missing and
// out-of-range coordinates are an error, never silently binned.
func (g GridBinner) Bin(lon, lat float64) (Cell, error) {
	if math.IsNaN(lon) || math.IsNaN(lat) {
		return Cell{}, eris.New("spatial: cannot bin missing coordinates")
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Cell{}, eris.Errorf("spatial: coordinate (%v, %v) out of lat/lon range", lat, lon)
	}
	return Cell{
		X: int64(math.Floor(lon / g.CellSize)),
		Y: int64(math.Floor(lat / g.CellSize)),
	}, nil
}

// Centroid returns the center point of a cell.
func (g GridBinner) Centroid(c Cell) (lon, lat float64) {
	half := g.CellSize / 2
	return float64(c.X)*g.CellSize + half, float64(c.Y)*g.CellSize + half
}
