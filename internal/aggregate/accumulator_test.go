package aggregate

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urban-mobility/trips-cli/internal/spatial"
)

type sample struct {
	key      Key
	measures map[string]float64
	countCol string
}

func sampleData() []sample {
	keys := []Key{
		{Zone: "D1", Bin: NoBin},
		{Zone: "D2", Bin: NoBin},
		{Cell: spatial.Cell{X: 3, Y: -2}, HasCell: true, Bin: 510},
		{Zone: "", Bin: NoBin},
	}
	var out []sample
	for i := 0; i < 40; i++ {
		out = append(out, sample{
			key:      keys[i%len(keys)],
			measures: map[string]float64{"distance_km": float64(i) * 0.25, "fare": float64(i)},
			countCol: []string{"snapp_origin_count", "tapsi_origin_count"}[i%2],
		})
	}
	return out
}

func accumulate(samples []sample, fields []string) *Accumulator {
	acc := NewAccumulator(fields)
	for _, s := range samples {
		acc.Add(s.key, s.measures, s.countCol)
	}
	return acc
}

// Any partition of the input into chunks, accumulated in any order and
// merged, must produce identical rows.
func TestMergeIsOrderIndependent(t *testing.T) {
	samples := sampleData()
	fields := []string{"distance_km", "fare"}
	want := accumulate(samples, fields).Rows()

	for trial := 0; trial < 10; trial++ {
		rng := rand.New(rand.NewSource(int64(trial)))
		shuffled := append([]sample(nil), samples...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		// Split into uneven chunks, accumulate each, merge in shuffled order.
		merged := NewAccumulator(fields)
		for start := 0; start < len(shuffled); {
			end := start + 1 + rng.Intn(7)
			if end > len(shuffled) {
				end = len(shuffled)
			}
			merged.Merge(accumulate(shuffled[start:end], fields))
			start = end
		}

		got := merged.Rows()
		require.Len(t, got, len(want))
		for i := range want {
			assert.Equal(t, want[i].Key, got[i].Key)
			assert.Equal(t, want[i].Count, got[i].Count)
			assert.Equal(t, want[i].Counts, got[i].Counts)
			for f, v := range want[i].Sums {
				assert.InDelta(t, v, got[i].Sums[f], 1e-9)
			}
		}
	}
}

func TestEmptyFieldSelectionCountsOnly(t *testing.T) {
	acc := NewAccumulator(nil)
	k := Key{Zone: "D1", Bin: NoBin}
	acc.Add(k, map[string]float64{"distance_km": 5}, "snapp_origin_count")
	acc.Add(k, nil, "snapp_origin_count")

	rows := acc.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].Count)
	assert.Empty(t, rows[0].Sums)
}

func TestSumSkipsAbsentMeasures(t *testing.T) {
	acc := NewAccumulator([]string{"distance_km"})
	k := Key{Zone: "D1", Bin: NoBin}
	acc.Add(k, map[string]float64{"distance_km": 2.5})
	acc.Add(k, nil) // no measures at all
	acc.Add(k, map[string]float64{"fare": 9})

	rows := acc.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, int64(3), rows[0].Count)
	assert.InDelta(t, 2.5, rows[0].Sums["distance_km"], 1e-9)
}

func TestODMatrixRetainsNullZones(t *testing.T) {
	m := NewODMatrix()
	m.Add("D1", "D2")
	m.Add("D1", "D2")
	m.Add("", "D2")
	m.Add("D1", "")

	rows := m.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, ODKey{Origin: "", Dest: "D2"}, rows[0].Key)
	assert.Equal(t, ODKey{Origin: "D1", Dest: ""}, rows[1].Key)
	assert.Equal(t, ODKey{Origin: "D1", Dest: "D2"}, rows[2].Key)
	assert.Equal(t, int64(2), rows[2].Count)
}

func TestODMatrixMerge(t *testing.T) {
	a, b := NewODMatrix(), NewODMatrix()
	a.Add("D1", "D2")
	b.Add("D1", "D2")
	b.Add("D3", "D1")

	a.Merge(b)
	rows := a.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, int64(2), rows[0].Count)
}
