package spatial

import "math"

// zoneIndex buckets zone bounding boxes onto a coarse grid so point lookups
// only test the handful of zones whose boxes overlap the point's bucket.
type zoneIndex struct {
	layer    *Layer
	cellW    float64
	cellH    float64
	originX  float64
	originY  float64
	cols     int
	rows     int
	buckets  [][]int
	fallback []int
}

const indexResolution = 64

func newZoneIndex(layer *Layer) *zoneIndex {
	var extent BBox
	extent.MinX, extent.MinY = math.Inf(1), math.Inf(1)
	extent.MaxX, extent.MaxY = math.Inf(-1), math.Inf(-1)
	for _, z := range layer.Zones {
		extent.extend(z.BBox.MinX, z.BBox.MinY)
		extent.extend(z.BBox.MaxX, z.BBox.MaxY)
	}

	idx := &zoneIndex{
		layer:   layer,
		originX: extent.MinX,
		originY: extent.MinY,
		cols:    indexResolution,
		rows:    indexResolution,
	}
	idx.cellW = (extent.MaxX - extent.MinX) / float64(idx.cols)
	idx.cellH = (extent.MaxY - extent.MinY) / float64(idx.rows)
	if idx.cellW <= 0 || idx.cellH <= 0 || math.IsInf(idx.cellW, 0) || math.IsInf(idx.cellH, 0) {
		// Degenerate extent, test every zone per point.
		for i := range layer.Zones {
			idx.fallback = append(idx.fallback, i)
		}
		return idx
	}

	idx.buckets = make([][]int, idx.cols*idx.rows)
	for i, z := range layer.Zones {
		c0, r0 := idx.bucketOf(z.BBox.MinX, z.BBox.MinY)
		c1, r1 := idx.bucketOf(z.BBox.MaxX, z.BBox.MaxY)
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				b := r*idx.cols + c
				idx.buckets[b] = append(idx.buckets[b], i)
			}
		}
	}
	return idx
}

func (idx *zoneIndex) bucketOf(x, y float64) (col, row int) {
	col = int((x - idx.originX) / idx.cellW)
	row = int((y - idx.originY) / idx.cellH)
	if col < 0 {
		col = 0
	}
	if col >= idx.cols {
		col = idx.cols - 1
	}
	if row < 0 {
		row = 0
	}
	if row >= idx.rows {
		row = idx.rows - 1
	}
	return col, row
}

// candidates returns indices of zones whose bounding boxes may contain the
// point. Callers still run the exact containment test.
func (idx *zoneIndex) candidates(x, y float64) []int {
	if idx.buckets == nil {
		return idx.fallback
	}
	col, row := idx.bucketOf(x, y)
	return idx.buckets[row*idx.cols+col]
}
