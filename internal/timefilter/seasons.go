package timefilter

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// SeasonTable maps season names to the months they cover.
type SeasonTable map[string][]string

// DefaultSeasons groups the calendar into fixed quarters.
func DefaultSeasons() SeasonTable {
	return SeasonTable{
		"spring": {"01", "02", "03"},
		"summer": {"04", "05", "06"},
		"fall":   {"07", "08", "09"},
		"winter": {"10", "11", "12"},
	}
}

// LoadSeasons reads a season table from a YAML file. An empty path returns
// the default table.
func LoadSeasons(path string) (SeasonTable, error) {
	if path == "" {
		return DefaultSeasons(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "timefilter: reading season table %s", path)
	}
	var table SeasonTable
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return nil, eris.Wrapf(err, "timefilter: parsing season table %s", path)
	}
	if len(table) == 0 {
		return nil, eris.Errorf("timefilter: season table %s is empty", path)
	}
	for name, months := range table {
		if len(months) == 0 {
			return nil, eris.Errorf("timefilter: season %q has no months", name)
		}
		for _, m := range months {
			if !monthRe.MatchString(m) {
				return nil, eris.Errorf("timefilter: season %q has invalid month %q", name, m)
			}
		}
	}
	return table, nil
}

// Months returns the months of a season, sorted.
func (t SeasonTable) Months(season string) ([]string, error) {
	months, ok := t[season]
	if !ok {
		names := make([]string, 0, len(t))
		for name := range t {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, eris.Errorf("timefilter: unknown season %q, known seasons: %v", season, names)
	}
	out := append([]string(nil), months...)
	sort.Strings(out)
	return out, nil
}
