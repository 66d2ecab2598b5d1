package timefilter

import (
	"regexp"

	"github.com/rotisserie/eris"

	"github.com/urban-mobility/trips-cli/internal/trips"
)

// Kind tags the time-filter variants.
type Kind string

const (
	KindAll           Kind = "all"
	KindSpecificMonth Kind = "specific_month"
	KindYear          Kind = "year"
	KindSeason        Kind = "season"
	KindMonthAllYears Kind = "month_all_years"
	KindCustom        Kind = "custom"
)

var (
	yearRe  = regexp.MustCompile(`^\d{4}$`)
	monthRe = regexp.MustCompile(`^(0[1-9]|1[0-2])$`)
)

// Spec is an immutable, validated time filter. Construct via the New*
// functions; an incomplete spec is a construction error, never a silent
// default.
type Spec struct {
	kind     Kind
	year     string
	month    string
	season   string
	patterns map[trips.Provider][]string
}

// Kind returns the filter variant.
func (s Spec) Kind() Kind { return s.kind }

// NewAll matches every source file.
func NewAll() Spec {
	return Spec{kind: KindAll}
}

// NewSpecificMonth matches a single year/month. Both parts are required.
func NewSpecificMonth(year, month string) (Spec, error) {
	if err := checkYear(year); err != nil {
		return Spec{}, err
	}
	if err := checkMonth(month); err != nil {
		return Spec{}, err
	}
	return Spec{kind: KindSpecificMonth, year: year, month: month}, nil
}

// NewYear matches every month of one year.
func NewYear(year string) (Spec, error) {
	if err := checkYear(year); err != nil {
		return Spec{}, err
	}
	return Spec{kind: KindYear, year: year}, nil
}

// NewSeason matches the months of a named season, optionally restricted to
// one year. The season-to-months mapping is resolved at filter time against
// the configured season table.
func NewSeason(year, season string) (Spec, error) {
	if season == "" {
		return Spec{}, eris.New("timefilter: season filter requires a season")
	}
	if year != "" {
		if err := checkYear(year); err != nil {
			return Spec{}, err
		}
	}
	return Spec{kind: KindSeason, year: year, season: season}, nil
}

// NewMonthAllYears matches one month across every year.
func NewMonthAllYears(month string) (Spec, error) {
	if err := checkMonth(month); err != nil {
		return Spec{}, err
	}
	return Spec{kind: KindMonthAllYears, month: month}, nil
}

// NewCustom matches caller-supplied per-provider glob patterns.
func NewCustom(patterns map[trips.Provider][]string) (Spec, error) {
	total := 0
	for _, globs := range patterns {
		total += len(globs)
	}
	if total == 0 {
		return Spec{}, eris.New("timefilter: custom filter requires at least one pattern")
	}
	copied := make(map[trips.Provider][]string, len(patterns))
	for p, globs := range patterns {
		copied[p] = append([]string(nil), globs...)
	}
	return Spec{kind: KindCustom, patterns: copied}, nil
}

func checkYear(year string) error {
	if year == "" {
		return eris.New("timefilter: filter requires a year")
	}
	if !yearRe.MatchString(year) {
		return eris.Errorf("timefilter: invalid year %q, want 4 digits", year)
	}
	return nil
}

func checkMonth(month string) error {
	if month == "" {
		return eris.New("timefilter: filter requires a month")
	}
	if !monthRe.MatchString(month) {
		return eris.Errorf("timefilter: invalid month %q, want 01-12", month)
	}
	return nil
}

// Patterns translates the spec into filename globs for one provider, using
// that provider's date-encoding convention.
func (s Spec) Patterns(p trips.Provider, seasons SeasonTable) ([]string, error) {
	switch s.kind {
	case KindAll:
		return []string{p.AllPattern()}, nil

	case KindSpecificMonth:
		return []string{p.MonthPattern(s.year, s.month)}, nil

	case KindYear:
		return []string{p.YearPattern(s.year)}, nil

	case KindSeason:
		months, err := seasons.Months(s.season)
		if err != nil {
			return nil, err
		}
		globs := make([]string, 0, len(months))
		for _, m := range months {
			if s.year != "" {
				globs = append(globs, p.MonthPattern(s.year, m))
			} else {
				globs = append(globs, p.MonthAnyYearPattern(m))
			}
		}
		return globs, nil

	case KindMonthAllYears:
		return []string{p.MonthAnyYearPattern(s.month)}, nil

	case KindCustom:
		return s.patterns[p], nil
	}
	return nil, eris.Errorf("timefilter: unknown filter kind %q", s.kind)
}

// Describe returns a short token for output filenames, e.g. "1404_05".
func (s Spec) Describe() string {
	switch s.kind {
	case KindSpecificMonth:
		return s.year + "_" + s.month
	case KindYear:
		return s.year
	case KindSeason:
		if s.year != "" {
			return s.year + "_" + s.season
		}
		return s.season
	case KindMonthAllYears:
		return "month_" + s.month
	default:
		return string(s.kind)
	}
}
