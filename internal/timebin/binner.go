// Package timebin rounds clock times onto a fixed-width minute grid.
package timebin

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

const minutesPerDay = 24 * 60

// Policy selects which edge of the bin a time snaps to.
type Policy string

const (
	// PolicyFloor snaps down to the start of the bin.
	PolicyFloor Policy = "floor"
	// PolicyCeil snaps up to the end of the bin.
	PolicyCeil Policy = "ceil"
	// PolicyNearest snaps to the closer edge, upward on ties.
	PolicyNearest Policy = "nearest"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyFloor, PolicyCeil, PolicyNearest:
		return Policy(s), nil
	}
	return "", eris.Errorf("timebin: unknown rounding policy %q, want floor, ceil or nearest", s)
}

// Binner assigns clock times to minute-of-day bins.
type Binner struct {
	Width  int
	Policy Policy
}

// New validates the width and policy. Width must be a positive divisor of
// the day so bins tile the clock exactly.
func New(width int, policy Policy) (Binner, error) {
	if width <= 0 {
		return Binner{}, eris.Errorf("timebin: bin width must be positive, got %d", width)
	}
	if minutesPerDay%width != 0 {
		return Binner{}, eris.Errorf("timebin: bin width %d does not divide a day evenly", width)
	}
	if _, err := ParsePolicy(string(policy)); err != nil {
		return Binner{}, err
	}
	return Binner{Width: width, Policy: policy}, nil
}

// Minutes returns the minute of day for a timestamp, ignoring the date.
func Minutes(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// Bin returns the bin start in minutes of day for a timestamp. Ceil and
// nearest can round past midnight; the result wraps back to 0.
func (b Binner) Bin(t time.Time) int {
	m := Minutes(t)
	var binned int
	switch b.Policy {
	case PolicyCeil:
		binned = ((m + b.Width - 1) / b.Width) * b.Width
	case PolicyNearest:
		binned = ((m + b.Width/2) / b.Width) * b.Width
	default:
		binned = (m / b.Width) * b.Width
	}
	return binned % minutesPerDay
}

// Label formats a bin start as its half-open interval, e.g. "08:30-09:00".
func (b Binner) Label(bin int) string {
	end := (bin + b.Width) % minutesPerDay
	return fmt.Sprintf("%02d:%02d-%02d:%02d", bin/60, bin%60, end/60, end%60)
}

// Bins lists every bin start of the day in order.
func (b Binner) Bins() []int {
	out := make([]int, 0, minutesPerDay/b.Width)
	for m := 0; m < minutesPerDay; m += b.Width {
		out = append(out, m)
	}
	return out
}
