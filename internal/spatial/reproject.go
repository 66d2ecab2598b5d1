package spatial

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

const (
	// CRSWGS84 is geographic lon/lat, the native system of the trip data.
	CRSWGS84 = "EPSG:4326"
	// CRSWebMercator is spherical mercator in meters.
	CRSWebMercator = "EPSG:3857"

	earthRadius = 6378137.0
)

// Reprojector transforms lon/lat pairs between two coordinate systems.
// Only WGS84 and web-mercator are supported; anything else is rejected at
// construction so bad configuration surfaces before any data is read.
type Reprojector struct {
	from string
	to   string
}

// NewReprojector validates the pair of coordinate systems.
func NewReprojector(from, to string) (Reprojector, error) {
	from = normalizeCRS(from)
	to = normalizeCRS(to)
	for _, crs := range []string{from, to} {
		if crs != CRSWGS84 && crs != CRSWebMercator {
			return Reprojector{}, eris.Errorf("spatial: unsupported coordinate system %q, want %s or %s", crs, CRSWGS84, CRSWebMercator)
		}
	}
	return Reprojector{from: from, to: to}, nil
}

func normalizeCRS(crs string) string {
	crs = strings.ToUpper(strings.TrimSpace(crs))
	if crs == "" {
		return CRSWGS84
	}
	return crs
}

// Identity reports whether the transform is a no-op.
func (r Reprojector) Identity() bool { return r.from == r.to }

// Transform converts one coordinate pair.
func (r Reprojector) Transform(x, y float64) (float64, float64) {
	if r.Identity() {
		return x, y
	}
	if r.from == CRSWGS84 {
		return forwardMercator(x, y)
	}
	return inverseMercator(x, y)
}

// TransformAll converts a flat [x0 y0 x1 y1 ...] slice in place.
func (r Reprojector) TransformAll(flat []float64) {
	if r.Identity() {
		return
	}
	for i := 0; i+1 < len(flat); i += 2 {
		flat[i], flat[i+1] = r.Transform(flat[i], flat[i+1])
	}
}

func forwardMercator(lon, lat float64) (float64, float64) {
	x := earthRadius * lon * math.Pi / 180
	y := earthRadius * math.Log(math.Tan(math.Pi/4+lat*math.Pi/360))
	return x, y
}

func inverseMercator(x, y float64) (float64, float64) {
	lon := x / earthRadius * 180 / math.Pi
	lat := (2*math.Atan(math.Exp(y/earthRadius)) - math.Pi/2) * 180 / math.Pi
	return lon, lat
}
