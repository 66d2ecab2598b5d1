package trips

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/umahmood/haversine"
	"go.uber.org/zap"
)

// ReadStats counts what happened while reading one file.
type ReadStats struct {
	Rows    int64
	Skipped int64
}

// timeLayouts are tried in order when parsing timestamps. Parsed values are
// normalized to a timezone-naive clock so cross-provider comparisons hold.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
}

// ReadFile streams a raw provider file in chunks of at most chunkSize
// normalized records. fn is called once per chunk; the chunk slice is reused
// between calls and must not be retained. Malformed rows are skipped and
// counted, never aborting the file.
func ReadFile(path string, provider Provider, chunkSize int, fn func(chunk []Record) error) (ReadStats, error) {
	if chunkSize <= 0 {
		chunkSize = 500000
	}

	f, err := os.Open(path)
	if err != nil {
		return ReadStats{}, eris.Wrapf(err, "trips: open %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	// Snapp files are headerless and positional; Tapsi files carry a
	// camelCase header that is mapped onto the canonical names.
	colIdx := make(map[string]int, len(snappColumns))
	if provider == ProviderTapsi {
		header, err := reader.Read()
		if err != nil {
			return ReadStats{}, eris.Wrapf(err, "trips: read header of %s", path)
		}
		for i, col := range header {
			if canonical, ok := tapsiColumnMapping[strings.TrimSpace(col)]; ok {
				colIdx[canonical] = i
			}
		}
	} else {
		for i, col := range snappColumns {
			colIdx[col] = i
		}
	}

	var stats ReadStats
	chunk := make([]Record, 0, chunkSize)

	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		if err := fn(chunk); err != nil {
			return err
		}
		chunk = chunk[:0]
		return nil
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			stats.Skipped++
			continue
		}

		rec, ok := normalize(row, colIdx)
		if !ok {
			stats.Skipped++
			continue
		}
		stats.Rows++
		chunk = append(chunk, rec)

		if len(chunk) >= chunkSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}

	if err := flush(); err != nil {
		return stats, err
	}

	if stats.Skipped > 0 {
		zap.L().Warn("trips: skipped malformed rows",
			zap.String("file", path),
			zap.String("provider", string(provider)),
			zap.Int64("skipped", stats.Skipped),
		)
	}

	return stats, nil
}

// normalize maps one raw row onto a Record. A row is rejected only when it
// carries no usable endpoint at all; individual unparseable fields are left
// absent (NaN coordinates, zero timestamps).
func normalize(row []string, colIdx map[string]int) (Record, bool) {
	rec := Record{
		OriginLat:  parseCoord(field(row, colIdx, "org_lat")),
		OriginLon:  parseCoord(field(row, colIdx, "org_lng")),
		DestLat:    parseCoord(field(row, colIdx, "dst_lat")),
		DestLon:    parseCoord(field(row, colIdx, "dst_lng")),
		OriginTime: parseTime(field(row, colIdx, "start_time")),
		DestTime:   parseTime(field(row, colIdx, "end_time")),
	}

	if !rec.OriginOK() && !rec.DestOK() {
		return Record{}, false
	}

	dist := distanceMeasure(rec, field(row, colIdx, "distance"))
	if !math.IsNaN(dist) {
		rec.Measures = map[string]float64{MeasureDistanceKM: dist}
	}

	return rec, true
}

// distanceMeasure takes the source distance column when present, otherwise
// derives the great-circle origin-destination distance.
func distanceMeasure(rec Record, raw string) float64 {
	if raw != "" {
		if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && v >= 0 {
			return v
		}
	}
	if rec.OriginOK() && rec.DestOK() {
		_, km := haversine.Distance(
			haversine.Coord{Lat: rec.OriginLat, Lon: rec.OriginLon},
			haversine.Coord{Lat: rec.DestLat, Lon: rec.DestLon},
		)
		return km
	}
	return math.NaN()
}

func field(row []string, colIdx map[string]int, name string) string {
	idx, ok := colIdx[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseCoord(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// parseTime tries the known layouts and strips any zone offset, producing a
// timezone-naive value in the canonical local reference.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
	}
	return time.Time{}
}
