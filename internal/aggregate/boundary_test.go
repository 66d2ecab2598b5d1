package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urban-mobility/trips-cli/internal/trips"
)

func boundaryFixture(t *testing.T) Request {
	t.Helper()
	dir := t.TempDir()
	writeSnappFile(t, dir, "140405.csv", []string{
		snappRow("1", "35.5", "51.5", "2025-05-01 08:31:00"), // inside
		snappRow("2", "35.6", "51.6", "2025-05-01 08:35:00"), // inside
		snappRow("3", "10.0", "10.0", "2025-05-01 08:40:00"), // outside
	})

	req := gridRequest(t, dir, []string{"140405.csv"})
	req.Grid = nil
	req.Joiner = zoneJoiner()
	req.TimeBin = nil
	return req
}

func TestRunBoundaryPartitions(t *testing.T) {
	req := boundaryFixture(t)

	inside, resIn, err := RunBoundary(req, BoundaryInside)
	require.NoError(t, err)
	require.True(t, resIn.Success, resIn.Reason)
	outside, resOut, err := RunBoundary(req, BoundaryOutside)
	require.NoError(t, err)
	require.True(t, resOut.Success, resOut.Reason)

	assert.Len(t, inside, 2)
	assert.Len(t, outside, 1)
	assert.Equal(t, resIn.RowsRead, int64(len(inside)+len(outside)))
}

// A layer covering every input point yields the whole input inside and a
// structured empty result outside.
func TestRunBoundaryFullCoverage(t *testing.T) {
	dir := t.TempDir()
	writeSnappFile(t, dir, "140405.csv", []string{
		snappRow("1", "35.5", "51.5", "2025-05-01 08:31:00"),
		snappRow("2", "35.6", "51.6", "2025-05-01 08:35:00"),
	})

	req := gridRequest(t, dir, []string{"140405.csv"})
	req.Grid = nil
	req.Joiner = zoneJoiner()

	inside, res, err := RunBoundary(req, BoundaryInside)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Len(t, inside, 2)

	outside, res, err := RunBoundary(req, BoundaryOutside)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Nil(t, outside)
}

func TestRunBoundaryValidation(t *testing.T) {
	req := boundaryFixture(t)

	_, _, err := RunBoundary(req, BoundaryMode("near"))
	assert.Error(t, err)

	req.Joiner = nil
	_, _, err = RunBoundary(req, BoundaryInside)
	assert.Error(t, err)

	_, err = ParseBoundaryMode("inside")
	assert.NoError(t, err)
}

func TestRunBoundaryDefaultsToOrigin(t *testing.T) {
	req := boundaryFixture(t)
	req.Endpoint = ""

	inside, res, err := RunBoundary(req, BoundaryInside)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Len(t, inside, 2)
}

func TestRunBoundaryEndpointAll(t *testing.T) {
	dir := t.TempDir()
	// Origin inside, destination outside the layer.
	writeSnappFile(t, dir, "140405.csv", []string{
		"1,2025-05-01,35.5,51.5,10.0,10.0,3.2,2025-05-01 08:31:00,2025-05-01 09:10:00",
		"2,2025-05-01,35.5,51.5,35.6,51.6,2.0,2025-05-01 08:31:00,2025-05-01 09:10:00",
	})

	req := gridRequest(t, dir, []string{"140405.csv"})
	req.Grid = nil
	req.Joiner = zoneJoiner()
	req.Endpoint = trips.EndpointAll

	inside, res, err := RunBoundary(req, BoundaryInside)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Len(t, inside, 1)
}
