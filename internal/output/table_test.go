package output

import (
	"path/filepath"
	"strconv"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urban-mobility/trips-cli/internal/aggregate"
	"github.com/urban-mobility/trips-cli/internal/spatial"
	"github.com/urban-mobility/trips-cli/internal/timebin"
)

func testAccumulator(t *testing.T) (*aggregate.Accumulator, *spatial.GridBinner) {
	t.Helper()
	grid, err := spatial.NewGridBinner(100)
	require.NoError(t, err)

	acc := aggregate.NewAccumulator([]string{"distance_km"})
	k1 := aggregate.Key{Cell: spatial.Cell{X: 57043, Y: 39627}, HasCell: true, Date: "2025-05-01", Bin: 510}
	k2 := aggregate.Key{Cell: spatial.Cell{X: 57054, Y: 39638}, HasCell: true, Date: "2025-05-01", Bin: 510}
	for i := 0; i < 4; i++ {
		acc.Add(k1, map[string]float64{"distance_km": 1.25}, "snapp_origin_count")
	}
	acc.Add(k2, map[string]float64{"distance_km": 0.5}, "snapp_origin_count")
	acc.Add(k2, map[string]float64{"distance_km": 0.75}, "tapsi_origin_count")
	return acc, &grid
}

// Writing an aggregation to CSV and reading it back must reproduce the sums
// and counts exactly.
func TestAggregationTableRoundTrip(t *testing.T) {
	acc, grid := testAccumulator(t)
	binner, err := timebin.New(30, timebin.PolicyFloor)
	require.NoError(t, err)

	table := AggregationTable(acc, nil, grid, "", &binner)
	require.Equal(t, []string{
		"x_bin", "y_bin", "centroid_lng", "centroid_lat",
		"date", "time_bin", "time_bin_label",
		"count", "snapp_origin_count", "tapsi_origin_count", "distance_km",
	}, table.Columns)
	require.Len(t, table.Rows, 2)

	path := filepath.Join(t.TempDir(), "out", "agg.csv")
	require.NoError(t, table.WriteCSV(path))

	back, err := ReadCSV(path)
	require.NoError(t, err)
	require.Equal(t, table.Columns, back.Columns)
	require.Len(t, back.Rows, 2)

	countIdx, ok := back.Column("count")
	require.True(t, ok)
	sumIdx, ok := back.Column("distance_km")
	require.True(t, ok)

	counts := make([]int, 0, 2)
	var total float64
	for _, row := range back.Rows {
		n, err := strconv.Atoi(row[countIdx])
		require.NoError(t, err)
		counts = append(counts, n)
		v, err := strconv.ParseFloat(row[sumIdx], 64)
		require.NoError(t, err)
		total += v
	}
	assert.ElementsMatch(t, []int{4, 2}, counts)
	assert.InDelta(t, 6.25, total, 1e-9)

	labelIdx, ok := back.Column("time_bin_label")
	require.True(t, ok)
	assert.Equal(t, "08:30-09:00", back.Rows[0][labelIdx])
}

func TestAggregationTableZoneMode(t *testing.T) {
	acc := aggregate.NewAccumulator(nil)
	acc.Add(aggregate.Key{Zone: "D1", Bin: aggregate.NoBin}, nil, "snapp_origin_count")
	acc.Add(aggregate.Key{Zone: "", Bin: aggregate.NoBin}, nil, "snapp_origin_count")

	table := AggregationTable(acc, nil, nil, "DISTRICT", nil)
	assert.Equal(t, []string{"DISTRICT", "count", "snapp_origin_count"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "", table.Rows[0][0], "null zone stays a row")
	assert.Equal(t, "D1", table.Rows[1][0])
}

func TestODMatrixTable(t *testing.T) {
	m := aggregate.NewODMatrix()
	m.Add("D1", "D2")
	m.Add("D1", "")

	table := ODMatrixTable(m, "DISTRICT")
	assert.Equal(t, []string{"origin_DISTRICT", "dest_DISTRICT", "count"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"D1", "", "1"}, table.Rows[0])
}

func TestWriteGridShapefile(t *testing.T) {
	acc, grid := testAccumulator(t)
	rows := acc.Rows()

	path := filepath.Join(t.TempDir(), "gis", "grid.shp")
	err := WriteGridShapefile(path, rows, grid, acc.CountColumns(), acc.SumFields())
	require.NoError(t, err)

	reader, err := shp.Open(path)
	require.NoError(t, err)
	defer reader.Close()

	n := 0
	for reader.Next() {
		_, shape := reader.Shape()
		_, ok := shape.(*shp.Point)
		assert.True(t, ok)
		n++
	}
	assert.Equal(t, 2, n)
}

func TestWriteZoneShapefile(t *testing.T) {
	layer := &spatial.Layer{
		Name:      "districts",
		JoinField: "DISTRICT",
		Zones: []spatial.Zone{
			{ID: "D1", Rings: []spatial.Ring{{51, 35, 52, 35, 52, 36, 51, 36, 51, 35}}, BBox: spatial.BBox{MinX: 51, MinY: 35, MaxX: 52, MaxY: 36}},
		},
	}

	acc := aggregate.NewAccumulator(nil)
	acc.Add(aggregate.Key{Zone: "D1", Bin: aggregate.NoBin}, nil)
	acc.Add(aggregate.Key{Zone: "", Bin: aggregate.NoBin}, nil) // no geometry, dropped here

	path := filepath.Join(t.TempDir(), "gis", "zones.shp")
	err := WriteZoneShapefile(path, acc.Rows(), layer, acc.CountColumns(), acc.SumFields())
	require.NoError(t, err)

	loaded, err := spatial.LoadLayer("districts", path, "DISTRICT")
	require.NoError(t, err)
	require.Len(t, loaded.Zones, 1)
	assert.Equal(t, "D1", loaded.Zones[0].ID)
}
