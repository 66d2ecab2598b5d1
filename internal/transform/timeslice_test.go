package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urban-mobility/trips-cli/internal/output"
	"github.com/urban-mobility/trips-cli/internal/trips"
)

func binnedTable() *output.Table {
	return &output.Table{
		Columns: []string{"id", "start_time", "count"},
		Rows: [][]string{
			{"1", "2025-05-01 08:00:00", "12"},
			{"2", "2025-05-01 08:30:00", "7"},
			{"3", "2025-05-01 17:30:00", "20"},
			{"4", "2025-05-02 08:00:00", "4"},
			{"5", "not a time", "1"},
		},
	}
}

func TestSliceTimesKeepsMatchingClockPoints(t *testing.T) {
	out, stats, err := SliceTimes(binnedTable(), trips.EndpointOrigin, []string{"08:00", "17:30"})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Rows)
	assert.Equal(t, 1, stats.Filtered)
	assert.Equal(t, 1, stats.Skipped)

	require.Len(t, out.Rows, 3)
	assert.Equal(t, []string{"id", "start_time", "count"}, out.Columns)
	assert.Equal(t, "1", out.Rows[0][0])
	assert.Equal(t, "3", out.Rows[1][0])
	assert.Equal(t, "4", out.Rows[2][0], "same clock point on another day matches")
}

func TestSliceTimesValidation(t *testing.T) {
	tests := []struct {
		name  string
		times []string
	}{
		{"empty selection", nil},
		{"not a clock value", []string{"soon"}},
		{"hour out of range", []string{"25:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := SliceTimes(binnedTable(), trips.EndpointOrigin, tt.times)
			assert.Error(t, err)
		})
	}
}

func TestSliceTimesMissingColumn(t *testing.T) {
	table := &output.Table{Columns: []string{"id"}, Rows: [][]string{{"1"}}}
	_, _, err := SliceTimes(table, trips.EndpointDestination, []string{"08:00"})
	assert.Error(t, err)
}
