// Package transform reworks table files that re-enter the pipeline after
// aggregation: time binning, clock-point slicing, and zone joins.
package transform

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urban-mobility/trips-cli/internal/output"
	"github.com/urban-mobility/trips-cli/internal/timebin"
	"github.com/urban-mobility/trips-cli/internal/trips"
)

// BinOptions controls the time-binning transform.
type BinOptions struct {
	Endpoint trips.Endpoint
	// KeepOriginal leaves the source column untouched and appends a new
	// binned column; otherwise the source column is rewritten in place.
	KeepOriginal bool
	// AddLabel appends a human-readable "HH:MM-HH:MM" column.
	AddLabel bool
	// HourStart/HourEnd keep only rows whose bin falls in [start, end]
	// hours inclusive. Both -1 disables the filter.
	HourStart int
	HourEnd   int
}

// BinStats counts the transform outcome.
type BinStats struct {
	Rows     int
	Skipped  int
	Filtered int
}

var tableTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"15:04:05",
	"15:04",
}

// BinTable maps the endpoint's timestamp column onto bins. Rows whose
// timestamp cannot be parsed are dropped and counted, matching the raw
// reader's row-level recovery.
func BinTable(table *output.Table, binner timebin.Binner, opts BinOptions) (*output.Table, BinStats, error) {
	if opts.HourStart >= 0 || opts.HourEnd >= 0 {
		if opts.HourStart < 0 || opts.HourEnd < 0 || opts.HourStart > 23 || opts.HourEnd > 23 || opts.HourStart > opts.HourEnd {
			return nil, BinStats{}, eris.Errorf("transform: invalid hour range %d-%d", opts.HourStart, opts.HourEnd)
		}
	}

	colIdx := trips.MapColumns(table.Columns)
	timeIdx, ok := trips.TimeColumn(colIdx, opts.Endpoint)
	if !ok {
		return nil, BinStats{}, eris.Errorf("transform: table has no %s timestamp column", opts.Endpoint)
	}
	srcName := table.Columns[timeIdx]

	cols := append([]string(nil), table.Columns...)
	binIdx := timeIdx
	if opts.KeepOriginal {
		cols = append(cols, srcName+"_bin")
		binIdx = len(cols) - 1
	}
	labelIdx := -1
	if opts.AddLabel {
		cols = append(cols, srcName+"_bin_label")
		labelIdx = len(cols) - 1
	}

	out := &output.Table{Columns: cols}
	var stats BinStats

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

		bin := binner.Bin(t)
		if opts.HourStart >= 0 && (bin/60 < opts.HourStart || bin/60 > opts.HourEnd) {
			stats.Filtered++
			continue
		}

		newRow := make([]string, len(cols))
		copy(newRow, row)
		binned := time.Date(t.Year(), t.Month(), t.Day(), bin/60, bin%60, 0, 0, time.UTC)
		newRow[binIdx] = binned.Format("2006-01-02 15:04:05")
		if labelIdx >= 0 {
			newRow[labelIdx] = binner.Label(bin)
		}
		out.Rows = append(out.Rows, newRow)
		stats.Rows++
	}

	if stats.Skipped > 0 {
		zap.L().Warn("transform: dropped rows with unparseable timestamps",
			zap.String("column", srcName),
			zap.Int("skipped", stats.Skipped),
		)
	}
	return out, stats, nil
}

func parseTableTime(s string) (time.Time, bool) {
	for _, layout := range tableTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
