package aggregate

import (
	"math"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urban-mobility/trips-cli/internal/trips"
)

// ODKey is one origin-zone, destination-zone pair. Either side is "" when
// that endpoint matched no zone; the null zone stays in the matrix.
type ODKey struct {
	Origin string
	Dest   string
}

// ODMatrix counts trips per origin/destination zone pair.
type ODMatrix struct {
	counts map[ODKey]int64
}

// NewODMatrix returns an empty matrix.
func NewODMatrix() *ODMatrix {
	return &ODMatrix{counts: make(map[ODKey]int64)}
}

// Add counts one trip.
func (m *ODMatrix) Add(origin, dest string) { m.counts[ODKey{Origin: origin, Dest: dest}]++ }

// Merge folds another matrix into this one.
func (m *ODMatrix) Merge(other *ODMatrix) {
	for k, n := range other.counts {
		m.counts[k] += n
	}
}

// Len returns the number of distinct pairs.
func (m *ODMatrix) Len() int { return len(m.counts) }

// ODRow is one matrix cell.
type ODRow struct {
	Key   ODKey
	Count int64
}

// Rows returns the matrix in deterministic order.
func (m *ODMatrix) Rows() []ODRow {
	out := make([]ODRow, 0, len(m.counts))
	for k, n := range m.counts {
		out = append(out, ODRow{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Origin != out[j].Key.Origin {
			return out[i].Key.Origin < out[j].Key.Origin
		}
		return out[i].Key.Dest < out[j].Key.Dest
	})
	return out
}

// RunODMatrix joins origins and destinations independently against the same
// zone layer and cross-tabulates the pair counts. File handling matches Run:
// bad files are skipped with a warning, empty selections are a structured
// failure.
func RunODMatrix(req Request) (*ODMatrix, *Result, error) {
	if req.Joiner == nil {
		return nil, nil, errZoneModeRequired
	}

	res := &Result{Operation: "odmatrix", Success: true}
	matrix := NewODMatrix()

	total := 0
	for _, names := range req.Files {
		total += len(names)
	}
	if total == 0 {
		return matrix, res.Fail("no source files matched the time filter"), nil
	}

	fileNo := 0
	for _, provider := range trips.Providers {
		for _, name := range req.Files[provider] {
			fileNo++
			path := filepath.Join(req.Dirs[provider], name)
			log := zap.L().With(
				zap.String("component", "odmatrix"),
				zap.String("provider", string(provider)),
				zap.String("file", name),
			)
			log.Info("processing file", zap.Int("file", fileNo), zap.Int("of", total))

			part := NewODMatrix()
			stats, err := trips.ReadFile(path, provider, req.ChunkSize, func(chunk []trips.Record) error {
				odChunk(req, chunk, part, res)
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
			matrix.Merge(part)
		}
	}

	if res.Files == 0 {
		return matrix, res.Fail("every matched file failed to load"), nil
	}
	if res.PointsBinned == 0 {
		return matrix, res.Fail("no trips had usable coordinates"), nil
	}

	res.OutputRows = matrix.Len()
	return matrix, res, nil
}

func odChunk(req Request, chunk []trips.Record, part *ODMatrix, res *Result) {
	origins := odJoin(req, chunk, trips.EndpointOrigin)
	dests := odJoin(req, chunk, trips.EndpointDestination)

	for i, rec := range chunk {
		if !rec.OriginOK() && !rec.DestOK() {
			continue
		}
		part.Add(origins[i], dests[i])
		res.PointsBinned++
	}
}

// odJoin returns one zone per record for an endpoint, "" for unmatched or
// missing coordinates, after the same one-pass reprojection as Run.
func odJoin(req Request, chunk []trips.Record, endpoint trips.Endpoint) []string {
	flat := make([]float64, 0, len(chunk)*2)
	for _, rec := range chunk {
		lat, lon, ok := rec.Coords(endpoint)
		if !ok {
			lat, lon = math.NaN(), math.NaN()
		}
		flat = append(flat, lon, lat)
	}
	req.Reproject.TransformAll(flat)
	return req.Joiner.JoinBatch(flat, req.JoinBatchSize, nil)
}

var errZoneModeRequired = eris.New("aggregate: OD matrix requires a boundary layer")
