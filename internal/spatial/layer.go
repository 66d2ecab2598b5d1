package spatial

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"
)

// Ring is a closed polygon boundary as flat [x0 y0 x1 y1 ...] coordinates.
type Ring []float64

// Zone is one polygon feature of a layer with its join-field value.
type Zone struct {
	ID    string
	Rings []Ring
	BBox  BBox
}

// BBox is an axis-aligned bounding box.
type BBox struct {
	MinX, MinY, MaxX, MaxY float64
}

// Contains reports whether a point falls inside the box.
func (b BBox) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

func (b *BBox) extend(x, y float64) {
	if x < b.MinX {
		b.MinX = x
	}
	if x > b.MaxX {
		b.MaxX = x
	}
	if y < b.MinY {
		b.MinY = y
	}
	if y > b.MaxY {
		b.MaxY = y
	}
}

// Layer is a set of zones loaded from one polygon shapefile.
type Layer struct {
	Name      string
	JoinField string
	CRS       string
	Zones     []Zone
}

// LoadLayer reads a polygon shapefile into a Layer. Features missing
// geometry or the join field are skipped with a counter, not an error.
func LoadLayer(name, shpPath, joinField string) (*Layer, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "spatial: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	joinIdx := -1
	for i, f := range fields {
		fname := strings.TrimRight(f.String(), "\x00")
		if strings.EqualFold(fname, joinField) {
			joinIdx = i
			break
		}
	}
	if joinIdx < 0 {
		return nil, eris.Errorf("spatial: layer %s has no field %q in %s", name, joinField, shpPath)
	}

	layer := &Layer{
		Name:      name,
		JoinField: joinField,
		CRS:       readPrjCRS(shpPath),
	}
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok || poly == nil || poly.NumParts == 0 || len(poly.Points) == 0 {
			skipped++
			continue
		}

		id := strings.TrimSpace(strings.TrimRight(reader.Attribute(joinIdx), "\x00"))
		if id == "" {
			skipped++
			continue
		}

		zone := Zone{ID: id, BBox: BBox{
			MinX: poly.Box.MinX, MinY: poly.Box.MinY,
			MaxX: poly.Box.MaxX, MaxY: poly.Box.MaxY,
		}}
		for i := int32(0); i < poly.NumParts; i++ {
			start := poly.Parts[i]
			end := int32(len(poly.Points))
			if i+1 < poly.NumParts {
				end = poly.Parts[i+1]
			}
			ring := make(Ring, 0, (end-start)*2)
			for j := start; j < end; j++ {
				ring = append(ring, poly.Points[j].X, poly.Points[j].Y)
			}
			zone.Rings = append(zone.Rings, ring)
		}
		layer.Zones = append(layer.Zones, zone)
	}

	if skipped > 0 {
		zap.L().Warn("spatial: skipped shapefile features",
			zap.String("layer", name),
			zap.Int("skipped", skipped),
		)
	}
	if len(layer.Zones) == 0 {
		return nil, eris.Errorf("spatial: layer %s has no usable polygon features", name)
	}

	zap.L().Info("loaded boundary layer",
		zap.String("layer", name),
		zap.Int("zones", len(layer.Zones)),
		zap.String("crs", layer.CRS),
	)
	return layer, nil
}

// readPrjCRS sniffs the companion .prj file for a known CRS. Absent or
// unrecognized projections default to WGS84.
func readPrjCRS(shpPath string) string {
	prj := strings.TrimSuffix(shpPath, filepath.Ext(shpPath)) + ".prj"
	raw, err := os.ReadFile(prj)
	if err != nil {
		return CRSWGS84
	}
	wkt := strings.ToUpper(string(raw))
	if strings.Contains(wkt, "3857") || strings.Contains(wkt, "PSEUDO-MERCATOR") {
		return CRSWebMercator
	}
	return CRSWGS84
}

// Reproject converts every ring and bounding box of the layer in place.
func (l *Layer) Reproject(r Reprojector) {
	if r.Identity() {
		return
	}
	for i := range l.Zones {
		z := &l.Zones[i]
		minX, minY := r.Transform(z.BBox.MinX, z.BBox.MinY)
		maxX, maxY := r.Transform(z.BBox.MaxX, z.BBox.MaxY)
		z.BBox = BBox{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
		for _, ring := range z.Rings {
			r.TransformAll(ring)
		}
	}
}

// Contains reports whether a point falls inside the zone, using the
// even-odd rule across rings so holes are excluded.
func (z Zone) Contains(x, y float64) bool {
	if !z.BBox.Contains(x, y) {
		return false
	}
	inside := false
	for _, ring := range z.Rings {
		if xy.IsPointInRing(geom.XY, geom.Coord{x, y}, ring) {
			inside = !inside
		}
	}
	return inside
}
