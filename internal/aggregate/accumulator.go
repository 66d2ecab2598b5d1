package aggregate

import "sort"

// Row holds the accumulated values for one key: a record count, optional
// named count columns, and sums of the selected numeric measures.
type Row struct {
	Key    Key
	Count  int64
	Counts map[string]int64
	Sums   map[string]float64
}

// Accumulator sums records into rows keyed by bin. With an empty field
// selection it degrades to pure counting. The zero-ish constructor form is
// deliberate: every Add is additive, so merging two accumulators built from
// any partition of the same input gives the same rows.
type Accumulator struct {
	sumFields []string
	rows      map[Key]*Row
}

// NewAccumulator selects which named measures to sum. A nil or empty
// selection counts records only.
func NewAccumulator(sumFields []string) *Accumulator {
	return &Accumulator{
		sumFields: append([]string(nil), sumFields...),
		rows:      make(map[Key]*Row),
	}
}

// SumFields returns the configured measure selection.
func (a *Accumulator) SumFields() []string { return a.sumFields }

// Add folds one record into the key's row. countCols name the per-provider
// count columns this record increments alongside the total.
func (a *Accumulator) Add(k Key, measures map[string]float64, countCols ...string) {
	row := a.rows[k]
	if row == nil {
		row = &Row{Key: k, Counts: make(map[string]int64), Sums: make(map[string]float64)}
		a.rows[k] = row
	}
	row.Count++
	for _, col := range countCols {
		row.Counts[col]++
	}
	for _, f := range a.sumFields {
		if v, ok := measures[f]; ok {
			row.Sums[f] += v
		}
	}
}

// Merge folds another accumulator into this one, summing matching keys and
// adopting the rest.
func (a *Accumulator) Merge(other *Accumulator) {
	for k, src := range other.rows {
		dst := a.rows[k]
		if dst == nil {
			dst = &Row{Key: k, Counts: make(map[string]int64), Sums: make(map[string]float64)}
			a.rows[k] = dst
		}
		dst.Count += src.Count
		for col, n := range src.Counts {
			dst.Counts[col] += n
		}
		for f, v := range src.Sums {
			dst.Sums[f] += v
		}
	}
}

// Len returns the number of distinct keys.
func (a *Accumulator) Len() int { return len(a.rows) }

// Rows returns the accumulated rows in deterministic key order.
func (a *Accumulator) Rows() []Row {
	out := make([]Row, 0, len(a.rows))
	for _, row := range a.rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out
}

// CountColumns returns the union of named count columns across rows, sorted.
func (a *Accumulator) CountColumns() []string {
	seen := make(map[string]bool)
	for _, row := range a.rows {
		for col := range row.Counts {
			seen[col] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for col := range seen {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}
