package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urban-mobility/trips-cli/internal/output"
	"github.com/urban-mobility/trips-cli/internal/timebin"
	"github.com/urban-mobility/trips-cli/internal/trips"
)

func sampleTable() *output.Table {
	return &output.Table{
		Columns: []string{"id", "start_time", "distance_km"},
		Rows: [][]string{
			{"1", "2025-05-01 08:44:00", "1.2"},
			{"2", "2025-05-01 08:31:00", "0.8"},
			{"3", "2025-05-01 14:05:00", "2.0"},
			{"4", "not a time", "9.9"},
		},
	}
}

func TestBinTableInPlace(t *testing.T) {
	binner, err := timebin.New(30, timebin.PolicyFloor)
	require.NoError(t, err)

	out, stats, err := BinTable(sampleTable(), binner, BinOptions{
		Endpoint:  trips.EndpointOrigin,
		HourStart: -1,
		HourEnd:   -1,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Rows)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, []string{"id", "start_time", "distance_km"}, out.Columns)
	assert.Equal(t, "2025-05-01 08:30:00", out.Rows[0][1])
	assert.Equal(t, "2025-05-01 14:00:00", out.Rows[2][1])
}

func TestBinTableKeepOriginalWithLabel(t *testing.T) {
	binner, err := timebin.New(30, timebin.PolicyFloor)
	require.NoError(t, err)

	out, _, err := BinTable(sampleTable(), binner, BinOptions{
		Endpoint:     trips.EndpointOrigin,
		KeepOriginal: true,
		AddLabel:     true,
		HourStart:    -1,
		HourEnd:      -1,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "start_time", "distance_km", "start_time_bin", "start_time_bin_label"}, out.Columns)
	assert.Equal(t, "2025-05-01 08:44:00", out.Rows[0][1], "source column untouched")
	assert.Equal(t, "2025-05-01 08:30:00", out.Rows[0][3])
	assert.Equal(t, "08:30-09:00", out.Rows[0][4])
}

func TestBinTableHourFilter(t *testing.T) {
	binner, err := timebin.New(30, timebin.PolicyFloor)
	require.NoError(t, err)

	out, stats, err := BinTable(sampleTable(), binner, BinOptions{
		Endpoint:  trips.EndpointOrigin,
		HourStart: 8,
		HourEnd:   9,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, 1, stats.Filtered)
	assert.Len(t, out.Rows, 2)
}

func TestBinTableHourRangeValidation(t *testing.T) {
	binner, err := timebin.New(30, timebin.PolicyFloor)
	require.NoError(t, err)

	tests := []struct {
		name       string
		start, end int
	}{
		{"start without end", 8, -1},
		{"end before start", 9, 8},
		{"hour out of range", 8, 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := BinTable(sampleTable(), binner, BinOptions{
				Endpoint:  trips.EndpointOrigin,
				HourStart: tt.start,
				HourEnd:   tt.end,
			})
			assert.Error(t, err)
		})
	}
}

func TestBinTableMissingColumn(t *testing.T) {
	binner, err := timebin.New(30, timebin.PolicyFloor)
	require.NoError(t, err)

	table := &output.Table{Columns: []string{"id"}, Rows: [][]string{{"1"}}}
	_, _, err = BinTable(table, binner, BinOptions{Endpoint: trips.EndpointOrigin, HourStart: -1, HourEnd: -1})
	assert.Error(t, err)
}
