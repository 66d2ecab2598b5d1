package timefilter

import (
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urban-mobility/trips-cli/internal/trips"
)

// FileIndex lists the candidate source files per provider. Resolution
// matches names against this index, so callers can back it with a real
// directory scan or a fixture.
type FileIndex map[trips.Provider][]string

// IndexDirs scans each provider's raw-data directory for CSV files.
func IndexDirs(dirs map[trips.Provider]string) (FileIndex, error) {
	idx := make(FileIndex, len(dirs))
	for p, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, eris.Wrapf(err, "timefilter: listing %s data dir %s", p, dir)
		}
		var names []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if filepath.Ext(e.Name()) != ".csv" {
				continue
			}
			names = append(names, e.Name())
		}
		idx[p] = names
	}
	return idx, nil
}

// Resolve matches the spec's patterns against the index and returns the
// selected file names per provider, sorted and de-duplicated. Providers with
// no match are present with an empty slice; the caller decides whether an
// entirely empty selection is an error.
func Resolve(spec Spec, seasons SeasonTable, idx FileIndex) (map[trips.Provider][]string, error) {
	out := make(map[trips.Provider][]string, len(idx))
	for _, p := range trips.Providers {
		names, ok := idx[p]
		if !ok {
			continue
		}
		globs, err := spec.Patterns(p, seasons)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]bool)
		var matched []string
		for _, name := range names {
			for _, glob := range globs {
				hit, err := path.Match(glob, name)
				if err != nil {
					return nil, eris.Wrapf(err, "timefilter: bad pattern %q", glob)
				}
				if hit && !seen[name] {
					seen[name] = true
					matched = append(matched, name)
				}
			}
		}
		sort.Strings(matched)
		out[p] = matched
		zap.L().Debug("resolved time filter",
			zap.String("provider", string(p)),
			zap.Strings("patterns", globs),
			zap.Int("matches", len(matched)))
	}
	return out, nil
}

// Total counts the files across all providers in a resolution.
func Total(resolved map[trips.Provider][]string) int {
	n := 0
	for _, names := range resolved {
		n += len(names)
	}
	return n
}
