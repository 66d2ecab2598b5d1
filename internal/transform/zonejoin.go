package transform

import (
	"math"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urban-mobility/trips-cli/internal/aggregate"
	"github.com/urban-mobility/trips-cli/internal/output"
	"github.com/urban-mobility/trips-cli/internal/spatial"
	"github.com/urban-mobility/trips-cli/internal/trips"
)

// JoinStats counts the zone-join outcome.
type JoinStats struct {
	Rows      int
	Unmatched int
	Skipped   int
}

// JoinZones appends the layer's join field to a table file by testing each
// row's endpoint coordinates for zone membership. The coordinate columns are
// resolved through the same name fallbacks as the other table re-entry
// paths. Rows outside every zone are dropped, an inner spatial join; rows
// with unparseable coordinates are dropped and counted separately. All
// points are reprojected into the layer's CRS in one pass before the join.
func JoinZones(table *output.Table, joiner *spatial.Joiner, reproject spatial.Reprojector, endpoint trips.Endpoint, batchSize int) (*output.Table, JoinStats, error) {
	colIdx := trips.MapColumns(table.Columns)
	latIdx, ok := trips.LatColumn(colIdx, endpoint)
	if !ok {
		return nil, JoinStats{}, eris.Errorf("transform: table has no %s latitude column", endpoint)
	}
	lonIdx, ok := trips.LonColumn(colIdx, endpoint)
	if !ok {
		return nil, JoinStats{}, eris.Errorf("transform: table has no %s longitude column", endpoint)
	}

	flat := make([]float64, 0, len(table.Rows)*2)
	for _, row := range table.Rows {
		flat = append(flat, tableCoord(row, lonIdx), tableCoord(row, latIdx))
	}
	reproject.TransformAll(flat)
	zones := joiner.JoinBatch(flat, batchSize, nil)

	zoneField := joiner.Layer().JoinField
	out := &output.Table{Columns: append(append([]string(nil), table.Columns...), zoneField)}
	var stats JoinStats
	for i, row := range table.Rows {
		if math.IsNaN(flat[2*i]) || math.IsNaN(flat[2*i+1]) {
			stats.Skipped++
			continue
		}
		if zones[i] == "" {
			stats.Unmatched++
			continue
		}
		newRow := make([]string, len(out.Columns))
		copy(newRow, row)
		newRow[len(out.Columns)-1] = zones[i]
		out.Rows = append(out.Rows, newRow)
		stats.Rows++
	}

	if stats.Skipped > 0 {
		zap.L().Warn("transform: dropped rows with unparseable coordinates",
			zap.String("layer", joiner.Layer().Name),
			zap.Int("skipped", stats.Skipped),
		)
	}
	return out, stats, nil
}

// SumByZone totals the selected numeric columns of a joined table per zone.
// Fields absent from the table are dropped from the selection; when none of
// them is present the sum is meaningless and rejected. Unparseable cell
// values are skipped rather than zeroed into the sum.
func SumByZone(joined *output.Table, zoneField string, sumFields []string) (*aggregate.Accumulator, error) {
	zoneIdx, ok := joined.Column(zoneField)
	if !ok {
		return nil, eris.Errorf("transform: joined table has no %q column", zoneField)
	}

	var present []string
	var fieldIdx []int
	for _, f := range sumFields {
		if idx, ok := joined.Column(f); ok {
			present = append(present, f)
			fieldIdx = append(fieldIdx, idx)
		}
	}
	if len(present) == 0 {
		return nil, eris.New("transform: none of the aggregation fields are in the table")
	}

	acc := aggregate.NewAccumulator(present)
	for _, row := range joined.Rows {
		if zoneIdx >= len(row) {
			continue
		}
		measures := make(map[string]float64, len(present))
		for k, f := range present {
			if fieldIdx[k] < len(row) {
				if v, err := strconv.ParseFloat(row[fieldIdx[k]], 64); err == nil {
					measures[f] = v
				}
			}
		}
		acc.Add(aggregate.Key{Zone: row[zoneIdx], Bin: aggregate.NoBin}, measures)
	}
	return acc, nil
}

func tableCoord(row []string, idx int) float64 {
	if idx >= len(row) {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(row[idx], 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
