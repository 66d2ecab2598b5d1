package aggregate

import (
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urban-mobility/trips-cli/internal/spatial"
	"github.com/urban-mobility/trips-cli/internal/trips"
)

// BoundaryMode selects which half of the partition a boundary run keeps.
type BoundaryMode string

const (
	BoundaryInside  BoundaryMode = "inside"
	BoundaryOutside BoundaryMode = "outside"
)

// ParseBoundaryMode validates a mode name.
func ParseBoundaryMode(s string) (BoundaryMode, error) {
	switch BoundaryMode(s) {
	case BoundaryInside, BoundaryOutside:
		return BoundaryMode(s), nil
	}
	return "", eris.Errorf("aggregate: unknown boundary mode %q, want inside or outside", s)
}

// RunBoundary streams the matched files and keeps the records on the chosen
// side of the boundary. Both sides come from one membership split per chunk,
// so inside and outside always partition the input exactly. The kept set is
// held in memory; MaxPoints bounds it.
func RunBoundary(req Request, mode BoundaryMode) ([]trips.Record, *Result, error) {
	if req.Joiner == nil {
		return nil, nil, eris.New("aggregate: boundary filter requires a boundary layer")
	}
	if _, err := ParseBoundaryMode(string(mode)); err != nil {
		return nil, nil, err
	}
	endpoint := req.Endpoint
	if endpoint == "" {
		endpoint = trips.EndpointOrigin
	}

	res := &Result{Operation: "boundary", Success: true}
	var kept []trips.Record

	total := 0
	for _, names := range req.Files {
		total += len(names)
	}
	if total == 0 {
		return nil, res.Fail("no source files matched the time filter"), nil
	}

	fileNo := 0
	for _, provider := range trips.Providers {
		for _, name := range req.Files[provider] {
			fileNo++
			path := filepath.Join(req.Dirs[provider], name)
			log := zap.L().With(
				zap.String("component", "boundary"),
				zap.String("provider", string(provider)),
				zap.String("file", name),
			)
			log.Info("processing file", zap.Int("file", fileNo), zap.Int("of", total))

			stats, err := trips.ReadFile(path, provider, req.ChunkSize, func(chunk []trips.Record) error {
				split, err := spatial.SplitByBoundary(req.Joiner, req.Reproject, chunk, endpoint)
				if err != nil {
					return err
				}
				res.PointsBinned += int64(len(chunk))
				if mode == BoundaryInside {
					kept = append(kept, split.Inside...)
				} else {
					kept = append(kept, split.Outside...)
				}
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

			if req.MaxPoints > 0 && int64(len(kept)) > req.MaxPoints {
				return nil, nil, eris.Errorf(
					"aggregate: boundary result exceeds the %d point limit, narrow the time filter or raise analysis.max_points",
					req.MaxPoints)
			}
		}
	}

	if res.Files == 0 {
		return nil, res.Fail("every matched file failed to load"), nil
	}
	if len(kept) == 0 {
		return nil, res.Fail("no records on the " + string(mode) + " side of the boundary"), nil
	}

	res.OutputRows = len(kept)
	return kept, res, nil
}
