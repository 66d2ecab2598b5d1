package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urban-mobility/trips-cli/internal/trips"
)

func TestRunODMatrix(t *testing.T) {
	dir := t.TempDir()
	writeSnappFile(t, dir, "140405.csv", []string{
		// origin D1 → dest D1
		"1,2025-05-01,35.5,51.5,35.6,51.6,3.2,2025-05-01 08:31:00,2025-05-01 08:50:00",
		"2,2025-05-01,35.4,51.4,35.6,51.6,2.0,2025-05-01 08:31:00,2025-05-01 08:50:00",
		// origin D1 → unmatched dest
		"3,2025-05-01,35.5,51.5,10.0,10.0,5.0,2025-05-01 09:00:00,2025-05-01 09:20:00",
	})

	req := gridRequest(t, dir, []string{"140405.csv"})
	req.Grid = nil
	req.Joiner = zoneJoiner()

	matrix, res, err := RunODMatrix(req)
	require.NoError(t, err)
	require.True(t, res.Success, res.Reason)
	assert.Equal(t, int64(3), res.PointsBinned)

	rows := matrix.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, ODKey{Origin: "D1", Dest: ""}, rows[0].Key)
	assert.Equal(t, int64(1), rows[0].Count)
	assert.Equal(t, ODKey{Origin: "D1", Dest: "D1"}, rows[1].Key)
	assert.Equal(t, int64(2), rows[1].Count)
}

func TestRunODMatrixRequiresLayer(t *testing.T) {
	req := gridRequest(t, t.TempDir(), nil)
	_, _, err := RunODMatrix(req)
	assert.Error(t, err)
}

func TestRunODMatrixNoFiles(t *testing.T) {
	req := gridRequest(t, t.TempDir(), nil)
	req.Grid = nil
	req.Joiner = zoneJoiner()
	_, res, err := RunODMatrix(req)
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestRunODMatrixEndpointIgnored(t *testing.T) {
	// OD matrices always join both ends regardless of the request endpoint.
	dir := t.TempDir()
	writeSnappFile(t, dir, "140405.csv", []string{
		"1,2025-05-01,35.5,51.5,35.6,51.6,3.2,2025-05-01 08:31:00,2025-05-01 08:50:00",
	})
	req := gridRequest(t, dir, []string{"140405.csv"})
	req.Grid = nil
	req.Joiner = zoneJoiner()
	req.Endpoint = trips.EndpointOrigin

	matrix, res, err := RunODMatrix(req)
	require.NoError(t, err)
	require.True(t, res.Success)
	rows := matrix.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, ODKey{Origin: "D1", Dest: "D1"}, rows[0].Key)
}
