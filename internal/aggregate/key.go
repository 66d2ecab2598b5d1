// Package aggregate accumulates trip records into per-bin counts and sums,
// with a merge step that is commutative and associative so chunk and file
// order never changes the result.
package aggregate

import (
	"github.com/urban-mobility/trips-cli/internal/spatial"
)

// NoBin marks a key without temporal binning.
const NoBin = -1

// Key is the composite bin identity. Exactly one of Zone or Cell is
// meaningful, selected by HasCell. Zone is "" for points that matched no
// zone; that null zone is a real key, kept in the output. Date is empty
// when bins collapse onto a single day.
type Key struct {
	Zone    string
	Cell    spatial.Cell
	HasCell bool
	Date    string
	Bin     int
}

// Less orders keys deterministically for output.
func (k Key) Less(other Key) bool {
	if k.Zone != other.Zone {
		return k.Zone < other.Zone
	}
	if k.Cell.X != other.Cell.X {
		return k.Cell.X < other.Cell.X
	}
	if k.Cell.Y != other.Cell.Y {
		return k.Cell.Y < other.Cell.Y
	}
	if k.Date != other.Date {
		return k.Date < other.Date
	}
	return k.Bin < other.Bin
}
