package aggregate

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urban-mobility/trips-cli/internal/spatial"
	"github.com/urban-mobility/trips-cli/internal/timebin"
	"github.com/urban-mobility/trips-cli/internal/trips"
)

// Request carries everything one aggregation run needs. Exactly one of Grid
// or Joiner selects the spatial mode; TimeBin is nil when no temporal
// binning is wanted. It is built once by the caller and never read from
// ambient state.
type Request struct {
	Files map[trips.Provider][]string
	Dirs  map[trips.Provider]string

	Endpoint trips.Endpoint

	Grid      *spatial.GridBinner
	Joiner    *spatial.Joiner
	Reproject spatial.Reprojector

	TimeBin   *timebin.Binner
	SingleDay bool
	FixedDate string

	SumFields []string

	ChunkSize     int
	JoinBatchSize int
	MaxPoints     int64
}

func (req Request) validate() error {
	if (req.Grid == nil) == (req.Joiner == nil) {
		return eris.New("aggregate: exactly one of grid and zone mode must be selected")
	}
	switch req.Endpoint {
	case trips.EndpointOrigin, trips.EndpointDestination, trips.EndpointAll:
	default:
		return eris.Errorf("aggregate: unknown endpoint %q", req.Endpoint)
	}
	return nil
}

func (req Request) endpoints() []trips.Endpoint {
	if req.Endpoint == trips.EndpointAll {
		return []trips.Endpoint{trips.EndpointOrigin, trips.EndpointDestination}
	}
	return []trips.Endpoint{req.Endpoint}
}

// Run streams every matched file through the binners and returns the merged
// accumulator with a structured result. Bad files are skipped with a
// warning; an empty selection or an empty aggregation is a structured
// failure, not an error. Exceeding MaxPoints is a resource error.
func Run(req Request) (*Accumulator, *Result, error) {
	if err := req.validate(); err != nil {
		return nil, nil, err
	}

	res := &Result{Operation: "aggregate", Success: true}
	acc := NewAccumulator(req.SumFields)

	total := 0
	for _, names := range req.Files {
		total += len(names)
	}
	if total == 0 {
		return acc, res.Fail("no source files matched the time filter"), nil
	}

	fileNo := 0
	for _, provider := range trips.Providers {
		for _, name := range req.Files[provider] {
			fileNo++
			path := filepath.Join(req.Dirs[provider], name)
			log := zap.L().With(
				zap.String("component", "aggregate"),
				zap.String("provider", string(provider)),
				zap.String("file", name),
			)
			log.Info("processing file", zap.Int("file", fileNo), zap.Int("of", total))

			part := NewAccumulator(req.SumFields)
			stats, err := trips.ReadFile(path, provider, req.ChunkSize, func(chunk []trips.Record) error {
				binChunk(req, provider, chunk, part, res)
				return nil
			})
			if err != nil {
				res.FilesSkipped++
				log.Warn("skipping unreadable file", zap.Error(err))
				continue
			}

			res.Files++
			res.RowsRead += stats.Rows
			res.RowsSkipped += stats.Skipped
			acc.Merge(part)

			if req.MaxPoints > 0 && res.PointsBinned > req.MaxPoints {
				return nil, nil, eris.Errorf(
					"aggregate: %d points exceed the %d point limit, narrow the time filter or raise analysis.max_points",
					res.PointsBinned, req.MaxPoints)
			}
		}
	}

	if res.Files == 0 {
		return acc, res.Fail("every matched file failed to load"), nil
	}
	if res.PointsBinned == 0 {
		return acc, res.Fail("no points survived the spatial and temporal filters"), nil
	}

	res.OutputRows = acc.Len()
	return acc, res, nil
}

// binChunk folds one chunk into the partial accumulator, once per endpoint.
func binChunk(req Request, provider trips.Provider, chunk []trips.Record, part *Accumulator, res *Result) {
	for _, endpoint := range req.endpoints() {
		countCol := countColumn(provider, endpoint)

		var zones [][]string
		if req.Joiner != nil {
			zones = joinChunk(req, chunk, endpoint)
		}

		for i, rec := range chunk {
			lat, lon, ok := rec.Coords(endpoint)
			if !ok {
				continue
			}

			date, bin, tok := temporalKey(req, rec, endpoint)
			if !tok {
				continue
			}

			if req.Grid != nil {
				cell, err := req.Grid.Bin(lon, lat)
				if err != nil {
					continue
				}
				part.Add(Key{Cell: cell, HasCell: true, Date: date, Bin: bin}, rec.Measures, countCol)
				res.PointsBinned++
				continue
			}

			matched := zones[i]
			if len(matched) == 0 {
				// Null zone kept as its own row.
				part.Add(Key{Zone: "", Date: date, Bin: bin}, rec.Measures, countCol)
			} else {
				for _, zone := range matched {
					part.Add(Key{Zone: zone, Date: date, Bin: bin}, rec.Measures, countCol)
				}
			}
			res.PointsBinned++
		}
	}
}

// joinChunk reprojects the chunk's endpoint coordinates in one pass and
// joins them against the zone layer in fixed-size batches.
func joinChunk(req Request, chunk []trips.Record, endpoint trips.Endpoint) [][]string {
	flat := make([]float64, 0, len(chunk)*2)
	for _, rec := range chunk {
		lat, lon, ok := rec.Coords(endpoint)
		if !ok {
			lat, lon = math.NaN(), math.NaN()
		}
		flat = append(flat, lon, lat)
	}
	req.Reproject.TransformAll(flat)
	return req.Joiner.JoinAllBatch(flat, req.JoinBatchSize, func(done, n int) {
		zap.L().Debug("zone join progress", zap.Int("points", done), zap.Int("of", n))
	})
}

func temporalKey(req Request, rec trips.Record, endpoint trips.Endpoint) (date string, bin int, ok bool) {
	if req.TimeBin == nil {
		return "", NoBin, true
	}
	t, tok := rec.Time(endpoint)
	if !tok {
		return "", 0, false
	}
	bin = req.TimeBin.Bin(t)
	if req.SingleDay {
		// All days collapse onto the configured placeholder date so the
		// bins of different days merge.
		return req.FixedDate, bin, true
	}
	return t.Format("2006-01-02"), bin, true
}

func countColumn(p trips.Provider, e trips.Endpoint) string {
	short := "origin"
	if e == trips.EndpointDestination {
		short = "dest"
	}
	return fmt.Sprintf("%s_%s_count", p, short)
}
