package trips

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func readAll(t *testing.T, path string, provider Provider, chunkSize int) ([]Record, ReadStats) {
	t.Helper()
	var records []Record
	stats, err := ReadFile(path, provider, chunkSize, func(chunk []Record) error {
		records = append(records, chunk...)
		return nil
	})
	require.NoError(t, err)
	return records, stats
}

func TestReadFileSnappPositional(t *testing.T) {
	path := writeFile(t, "140405.csv",
		"1,2025-05-01,35.7219,51.3890,35.7000,51.4000,3.5,2025-05-01 08:44:00,2025-05-01 09:10:00\n"+
			"2,2025-05-01,35.7300,51.3900,35.7100,51.4100,,2025-05-01 10:00:00,2025-05-01 10:20:00\n")

	records, stats := readAll(t, path, ProviderSnapp, 0)
	require.Len(t, records, 2)
	assert.Equal(t, int64(2), stats.Rows)
	assert.Equal(t, int64(0), stats.Skipped)

	r := records[0]
	assert.InDelta(t, 35.7219, r.OriginLat, 1e-9)
	assert.InDelta(t, 51.3890, r.OriginLon, 1e-9)
	assert.Equal(t, time.Date(2025, 5, 1, 8, 44, 0, 0, time.UTC), r.OriginTime)
	assert.InDelta(t, 3.5, r.Measures[MeasureDistanceKM], 1e-9)

	// Missing distance column falls back to the great-circle distance.
	got := records[1].Measures[MeasureDistanceKM]
	assert.Greater(t, got, 1.0)
	assert.Less(t, got, 5.0)
}

func TestReadFileTapsiHeaderMapping(t *testing.T) {
	path := writeFile(t, "1404-05.csv",
		"id,originLatitude,originLongitude,destinationLatitude,destinationLongitude,startTime,endTime\n"+
			"a1,35.7219,51.3890,35.7000,51.4000,2025-05-01 08:44:00,2025-05-01 09:10:00\n")

	records, stats := readAll(t, path, ProviderTapsi, 0)
	require.Len(t, records, 1)
	assert.Equal(t, int64(1), stats.Rows)

	r := records[0]
	assert.InDelta(t, 35.7219, r.OriginLat, 1e-9)
	assert.InDelta(t, 51.4000, r.DestLon, 1e-9)
	assert.True(t, r.OriginTimeOK())
	assert.True(t, r.DestTimeOK())
}

func TestReadFileSkipsMalformedRows(t *testing.T) {
	path := writeFile(t, "140405.csv",
		"1,2025-05-01,35.7219,51.3890,35.7000,51.4000,3.5,2025-05-01 08:44:00,2025-05-01 09:10:00\n"+
			"2,2025-05-01,not-a-lat,not-a-lng,also,bad,,,\n"+
			"3,2025-05-01,35.7300,51.3900,35.7100,51.4100,2.0,2025-05-01 10:00:00,2025-05-01 10:20:00\n")

	records, stats := readAll(t, path, ProviderSnapp, 0)
	assert.Len(t, records, 2)
	assert.Equal(t, int64(2), stats.Rows)
	assert.Equal(t, int64(1), stats.Skipped)
}

func TestReadFileKeepsPartialRecords(t *testing.T) {
	// Origin parses, destination does not: keep the record with the
	// destination fields absent.
	path := writeFile(t, "140405.csv",
		"1,2025-05-01,35.7219,51.3890,,,1.0,2025-05-01 08:44:00,bad-time\n")

	records, _ := readAll(t, path, ProviderSnapp, 0)
	require.Len(t, records, 1)
	r := records[0]
	assert.True(t, r.OriginOK())
	assert.False(t, r.DestOK())
	assert.True(t, math.IsNaN(r.DestLat))
	assert.True(t, r.DestTime.IsZero())
}

func TestReadFileRejectsOutOfRangeCoords(t *testing.T) {
	path := writeFile(t, "140405.csv",
		"1,2025-05-01,95.0,51.3890,-95.0,200.0,1.0,2025-05-01 08:44:00,2025-05-01 09:00:00\n")

	records, stats := readAll(t, path, ProviderSnapp, 0)
	assert.Empty(t, records)
	assert.Equal(t, int64(1), stats.Skipped)
}

func TestReadFileChunking(t *testing.T) {
	body := ""
	for i := 0; i < 7; i++ {
		body += "1,2025-05-01,35.72,51.38,35.70,51.40,3.5,2025-05-01 08:44:00,2025-05-01 09:10:00\n"
	}
	path := writeFile(t, "140405.csv", body)

	var chunkLens []int
	_, err := ReadFile(path, ProviderSnapp, 3, func(chunk []Record) error {
		chunkLens = append(chunkLens, len(chunk))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 1}, chunkLens)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"), ProviderSnapp, 0, func([]Record) error { return nil })
	assert.Error(t, err)
}

func TestParseTimeStripsZone(t *testing.T) {
	got := parseTime("2025-05-01T08:44:00+03:30")
	assert.Equal(t, time.Date(2025, 5, 1, 8, 44, 0, 0, time.UTC), got)
}
