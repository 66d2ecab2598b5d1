package output

import (
	"os"
	"path/filepath"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urban-mobility/trips-cli/internal/aggregate"
	"github.com/urban-mobility/trips-cli/internal/spatial"
)

// wgs84WKT is written to the companion .prj so GIS tools pick up the CRS.
const wgs84WKT = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

// WriteGridShapefile writes grid aggregation rows as a centroid point layer
// with the same attribute columns as the tabular output.
func WriteGridShapefile(path string, rows []aggregate.Row, grid *spatial.GridBinner, countCols, sumCols []string) error {
	if grid == nil {
		return eris.New("output: grid shapefile requires grid mode rows")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "output: create dir for %s", path)
	}

	writer, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "output: create shapefile %s", path)
	}
	defer writer.Close()

	fields := []shp.Field{
		shp.NumberField("X_BIN", 12),
		shp.NumberField("Y_BIN", 12),
		shp.NumberField("COUNT", 12),
	}
	for _, col := range countCols {
		fields = append(fields, shp.NumberField(fieldName(col), 12))
	}
	for _, col := range sumCols {
		fields = append(fields, shp.FloatField(fieldName(col), 18, 6))
	}
	writer.SetFields(fields)

	for n, row := range rows {
		lng, lat := grid.Centroid(row.Key.Cell)
		writer.Write(&shp.Point{X: lng, Y: lat})

		writer.WriteAttribute(n, 0, int(row.Key.Cell.X))
		writer.WriteAttribute(n, 1, int(row.Key.Cell.Y))
		writer.WriteAttribute(n, 2, int(row.Count))
		f := 3
		for _, col := range countCols {
			writer.WriteAttribute(n, f, int(row.Counts[col]))
			f++
		}
		for _, col := range sumCols {
			writer.WriteAttribute(n, f, row.Sums[col])
			f++
		}
	}

	if err := writePrj(path); err != nil {
		return err
	}
	zap.L().Info("wrote point shapefile", zap.String("path", path), zap.Int("features", len(rows)))
	return nil
}

// WriteZoneShapefile joins zone aggregation rows back onto the layer's
// polygons and writes one attributed polygon per aggregated zone. Null-zone
// rows have no geometry and are left to the tabular output.
func WriteZoneShapefile(path string, rows []aggregate.Row, layer *spatial.Layer, countCols, sumCols []string) error {
	if layer == nil {
		return eris.New("output: zone shapefile requires a boundary layer")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "output: create dir for %s", path)
	}

	byZone := make(map[string]*spatial.Zone, len(layer.Zones))
	for i := range layer.Zones {
		byZone[layer.Zones[i].ID] = &layer.Zones[i]
	}

	writer, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		return eris.Wrapf(err, "output: create shapefile %s", path)
	}
	defer writer.Close()

	fields := []shp.Field{
		shp.StringField(fieldName(layer.JoinField), 64),
		shp.NumberField("COUNT", 12),
	}
	for _, col := range countCols {
		fields = append(fields, shp.NumberField(fieldName(col), 12))
	}
	for _, col := range sumCols {
		fields = append(fields, shp.FloatField(fieldName(col), 18, 6))
	}
	writer.SetFields(fields)

	n := 0
	var dropped int
	for _, row := range rows {
		zone, ok := byZone[row.Key.Zone]
		if !ok {
			dropped++
			continue
		}

		parts := make([][]shp.Point, 0, len(zone.Rings))
		for _, ring := range zone.Rings {
			pts := make([]shp.Point, 0, len(ring)/2)
			for i := 0; i+1 < len(ring); i += 2 {
				pts = append(pts, shp.Point{X: ring[i], Y: ring[i+1]})
			}
			parts = append(parts, pts)
		}
		poly := shp.Polygon(*shp.NewPolyLine(parts))
		writer.Write(&poly)

		writer.WriteAttribute(n, 0, zone.ID)
		writer.WriteAttribute(n, 1, int(row.Count))
		f := 2
		for _, col := range countCols {
			writer.WriteAttribute(n, f, int(row.Counts[col]))
			f++
		}
		for _, col := range sumCols {
			writer.WriteAttribute(n, f, row.Sums[col])
			f++
		}
		n++
	}

	if dropped > 0 {
		zap.L().Debug("zone rows without geometry left to tabular output",
			zap.String("path", path), zap.Int("rows", dropped))
	}
	if err := writePrj(path); err != nil {
		return err
	}
	zap.L().Info("wrote polygon shapefile", zap.String("path", path), zap.Int("features", n))
	return nil
}

// fieldName shortens a column name to the 10-character DBF limit.
func fieldName(col string) string {
	if len(col) > 10 {
		col = col[:10]
	}
	return col
}

func writePrj(shpPath string) error {
	prj := shpPath[:len(shpPath)-len(filepath.Ext(shpPath))] + ".prj"
	if err := os.WriteFile(prj, []byte(wgs84WKT), 0o644); err != nil {
		return eris.Wrapf(err, "output: write projection file %s", prj)
	}
	return nil
}
