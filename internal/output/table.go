// Package output serializes aggregation results into tabular and
// geospatial files.
package output

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urban-mobility/trips-cli/internal/aggregate"
	"github.com/urban-mobility/trips-cli/internal/spatial"
	"github.com/urban-mobility/trips-cli/internal/timebin"
)

// Table is a generic in-memory table with a header row.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ReadCSV loads a headered CSV into a Table.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "output: open table %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	all, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "output: read table %s", path)
	}
	if len(all) == 0 {
		return nil, eris.Errorf("output: table %s is empty", path)
	}
	return &Table{Columns: all[0], Rows: all[1:]}, nil
}

// WriteCSV writes the table, creating parent directories as needed.
func (t *Table) WriteCSV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "output: create dir for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "output: create table %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return eris.Wrapf(err, "output: write header of %s", path)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return eris.Wrapf(err, "output: write rows of %s", path)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "output: flush table %s", path)
	}
	zap.L().Info("wrote table", zap.String("path", path), zap.Int("rows", len(t.Rows)))
	return nil
}

// Column returns the index of a named column.
func (t *Table) Column(name string) (int, bool) {
	for i, col := range t.Columns {
		if col == name {
			return i, true
		}
	}
	return 0, false
}

// AggregationTable flattens accumulator rows into a Table. Grid keys emit
// cell indices and centroid coordinates; zone keys emit the join-field
// column. Temporal keys add date, bin and label columns.
func AggregationTable(acc *aggregate.Accumulator, rows []aggregate.Row, grid *spatial.GridBinner, zoneField string, binner *timebin.Binner) *Table {
	if len(rows) == 0 {
		rows = acc.Rows()
	}

	gridMode := grid != nil
	temporal := binner != nil
	dated := temporal && anyDated(rows)
	countCols := acc.CountColumns()
	sumCols := acc.SumFields()

	var cols []string
	if gridMode {
		cols = append(cols, "x_bin", "y_bin", "centroid_lng", "centroid_lat")
	} else {
		if zoneField == "" {
			zoneField = "zone"
		}
		cols = append(cols, zoneField)
	}
	if temporal {
		if dated {
			cols = append(cols, "date")
		}
		cols = append(cols, "time_bin", "time_bin_label")
	}
	cols = append(cols, "count")
	cols = append(cols, countCols...)
	cols = append(cols, sumCols...)

	table := &Table{Columns: cols}
	for _, row := range rows {
		var rec []string
		if gridMode {
			lng, lat := grid.Centroid(row.Key.Cell)
			rec = append(rec,
				strconv.FormatInt(row.Key.Cell.X, 10),
				strconv.FormatInt(row.Key.Cell.Y, 10),
				formatFloat(lng),
				formatFloat(lat),
			)
		} else {
			rec = append(rec, row.Key.Zone)
		}
		if temporal {
			if dated {
				rec = append(rec, row.Key.Date)
			}
			rec = append(rec,
				strconv.Itoa(row.Key.Bin),
				binner.Label(row.Key.Bin),
			)
		}
		rec = append(rec, strconv.FormatInt(row.Count, 10))
		for _, col := range countCols {
			rec = append(rec, strconv.FormatInt(row.Counts[col], 10))
		}
		for _, col := range sumCols {
			rec = append(rec, formatFloat(row.Sums[col]))
		}
		table.Rows = append(table.Rows, rec)
	}
	return table
}

func anyDated(rows []aggregate.Row) bool {
	for _, row := range rows {
		if row.Key.Date != "" {
			return true
		}
	}
	return false
}

// ODMatrixTable flattens an OD matrix into a Table. Null zones print as an
// empty value.
func ODMatrixTable(matrix *aggregate.ODMatrix, zoneField string) *Table {
	if zoneField == "" {
		zoneField = "zone"
	}
	table := &Table{Columns: []string{"origin_" + zoneField, "dest_" + zoneField, "count"}}
	for _, row := range matrix.Rows() {
		table.Rows = append(table.Rows, []string{
			row.Key.Origin,
			row.Key.Dest,
			strconv.FormatInt(row.Count, 10),
		})
	}
	return table
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
