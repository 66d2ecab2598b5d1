package spatial

import (
	"math"

	"go.uber.org/zap"
)

// Joiner assigns points to the zones of one layer. Build it once per layer;
// the index construction cost is paid up front.
type Joiner struct {
	layer *Layer
	index *zoneIndex
}

// NewJoiner indexes a layer for point lookups.
func NewJoiner(layer *Layer) *Joiner {
	return &Joiner{layer: layer, index: newZoneIndex(layer)}
}

// Layer returns the joined layer.
func (j *Joiner) Layer() *Layer { return j.layer }

// Zones returns the IDs of every zone containing the point. A point on a
// shared boundary can belong to more than one zone; all matches are kept.
// Missing coordinates and points outside every zone return nil.
func (j *Joiner) Zones(x, y float64) []string {
	if math.IsNaN(x) || math.IsNaN(y) {
		return nil
	}
	var ids []string
	for _, zi := range j.index.candidates(x, y) {
		if j.layer.Zones[zi].Contains(x, y) {
			ids = append(ids, j.layer.Zones[zi].ID)
		}
	}
	return ids
}

// Zone returns the first matching zone ID, or "" when the point falls
// outside the layer.
func (j *Joiner) Zone(x, y float64) string {
	ids := j.Zones(x, y)
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// JoinAllBatch maps a flat [x0 y0 x1 y1 ...] slice to every matching zone
// per point, preserving overlap matches. Unmatched points get a nil entry.
func (j *Joiner) JoinAllBatch(flat []float64, batchSize int, progress func(done, total int)) [][]string {
	n := len(flat) / 2
	out := make([][]string, n)
	if batchSize <= 0 {
		batchSize = n
	}
	for start := 0; start < n; start += batchSize {
		end := start + batchSize
		if end > n {
			end = n
		}
		for i := start; i < end; i++ {
			out[i] = j.Zones(flat[2*i], flat[2*i+1])
		}
		if progress != nil {
			progress(end, n)
		}
	}
	return out
}

// JoinBatch maps a flat [x0 y0 x1 y1 ...] slice to one zone ID per point,
// "" for unmatched. Points are processed in fixed-size batches with a
// progress callback so long joins stay observable.
func (j *Joiner) JoinBatch(flat []float64, batchSize int, progress func(done, total int)) []string {
	n := len(flat) / 2
	out := make([]string, n)
	if batchSize <= 0 {
		batchSize = n
	}
	for start := 0; start < n; start += batchSize {
		end := start + batchSize
		if end > n {
			end = n
		}
		for i := start; i < end; i++ {
			out[i] = j.Zone(flat[2*i], flat[2*i+1])
		}
		if progress != nil {
			progress(end, n)
		}
	}
	zap.L().Debug("zone join complete",
		zap.String("layer", j.layer.Name),
		zap.Int("points", n),
	)
	return out
}
