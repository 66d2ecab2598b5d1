package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urban-mobility/trips-cli/internal/aggregate"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	result := &aggregate.Result{
		Operation:  "aggregate",
		Success:    true,
		Files:      2,
		RowsRead:   1200,
		OutputRows: 48,
		Outputs:    []string{"out/agg.csv"},
	}
	run, err := s.Record(ctx, "aggregate", map[string]string{"filter": "1404_05", "layer": "districts"}, result)
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)

	got, err := s.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "aggregate", got.Operation)
	assert.Equal(t, "districts", got.Params["layer"])
	require.NotNil(t, got.Result)
	assert.True(t, got.Result.Success)
	assert.Equal(t, int64(1200), got.Result.RowsRead)
	assert.Equal(t, []string{"out/agg.csv"}, got.Result.Outputs)
}

func TestGetMissingRun(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	assert.Error(t, err)
}

func TestListFiltersAndOrders(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, op := range []string{"aggregate", "odmatrix", "aggregate"} {
		_, err := s.Record(ctx, op, nil, &aggregate.Result{Operation: op, Success: true})
		require.NoError(t, err)
	}

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	aggs, err := s.List(ctx, Filter{Operation: "aggregate"})
	require.NoError(t, err)
	assert.Len(t, aggs, 2)

	limited, err := s.List(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRecordFailureResult(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	result := (&aggregate.Result{Operation: "aggregate"}).Fail("no source files matched the time filter")
	run, err := s.Record(ctx, "aggregate", map[string]string{"filter": "all"}, result)
	require.NoError(t, err)

	got, err := s.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.False(t, got.Result.Success)
	assert.Contains(t, got.Result.Reason, "no source files")
}
