package transform

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urban-mobility/trips-cli/internal/output"
	"github.com/urban-mobility/trips-cli/internal/trips"
)

// SliceStats counts the time-slice outcome.
type SliceStats struct {
	Rows     int
	Skipped  int
	Filtered int
}

// SliceTimes keeps only the rows whose endpoint timestamp falls exactly on
// one of the given HH:MM clock points, e.g. the 08:00 and 17:30 rows of a
// binned table. Rows with unparseable timestamps are dropped and counted
// separately from the rows filtered away.
func SliceTimes(table *output.Table, endpoint trips.Endpoint, times []string) (*output.Table, SliceStats, error) {
	if len(times) == 0 {
		return nil, SliceStats{}, eris.New("transform: time slice needs at least one HH:MM time point")
	}
	want := make(map[string]bool, len(times))
	for _, s := range times {
		t, err := time.Parse("15:04", s)
		if err != nil {
			return nil, SliceStats{}, eris.Errorf("transform: invalid time point %q, want HH:MM", s)
		}
		want[t.Format("15:04")] = true
	}

	colIdx := trips.MapColumns(table.Columns)
	timeIdx, ok := trips.TimeColumn(colIdx, endpoint)
	if !ok {
		return nil, SliceStats{}, eris.Errorf("transform: table has no %s timestamp column", endpoint)
	}

	out := &output.Table{Columns: append([]string(nil), table.Columns...)}
	var stats SliceStats
	for _, row := range table.Rows {
		if timeIdx >= len(row) {
			stats.Skipped++
			continue
		}
		t, ok := parseTableTime(row[timeIdx])
		if !ok {
			stats.Skipped++
			continue
		}
		if !want[t.Format("15:04")] {
			stats.Filtered++
			continue
		}
		out.Rows = append(out.Rows, append([]string(nil), row...))
		stats.Rows++
	}

	if stats.Skipped > 0 {
		zap.L().Warn("transform: dropped rows with unparseable timestamps",
			zap.String("column", table.Columns[timeIdx]),
			zap.Int("skipped", stats.Skipped),
		)
	}
	return out, stats, nil
}
