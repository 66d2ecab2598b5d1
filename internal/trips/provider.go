package trips

import "github.com/rotisserie/eris"

// Provider identifies a trip-data source. Each provider has its own raw file
// schema and filename date convention, handled by an explicit variant rather
// than runtime column sniffing.
type Provider string

const (
	ProviderSnapp Provider = "snapp"
	ProviderTapsi Provider = "tapsi"
)

// Providers is the fixed set of known providers, in stable order.
var Providers = []Provider{ProviderSnapp, ProviderTapsi}

// ParseProvider validates a provider name.
func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case ProviderSnapp:
		return ProviderSnapp, nil
	case ProviderTapsi:
		return ProviderTapsi, nil
	}
	return "", eris.Errorf("trips: unknown provider %q", s)
}

// snappColumns is the fixed positional schema of headerless Snapp files.
var snappColumns = []string{
	"id", "reg_date", "org_lat", "org_lng", "dst_lat", "dst_lng",
	"distance", "start_time", "end_time",
}

// tapsiColumnMapping maps Tapsi header names onto the canonical field names.
var tapsiColumnMapping = map[string]string{
	"originLatitude":       "org_lat",
	"originLongitude":      "org_lng",
	"destinationLatitude":  "dst_lat",
	"destinationLongitude": "dst_lng",
	"startTime":            "start_time",
	"endTime":              "end_time",
}

// MonthPattern returns the filename glob matching a single year/month under
// this provider's date-encoding convention. Snapp stems are YYYYMM, Tapsi
// stems are YYYY-MM. These conventions are load-bearing for time filtering.
func (p Provider) MonthPattern(year, month string) string {
	if p == ProviderTapsi {
		return year + "-" + month + ".csv"
	}
	return year + month + ".csv"
}

// YearPattern returns the glob matching every month of a year.
func (p Provider) YearPattern(year string) string {
	if p == ProviderTapsi {
		return year + "-??.csv"
	}
	return year + "??.csv"
}

// MonthAnyYearPattern returns the glob matching a month across all years.
func (p Provider) MonthAnyYearPattern(month string) string {
	if p == ProviderTapsi {
		return "????-" + month + ".csv"
	}
	return "????" + month + ".csv"
}

// AllPattern matches every raw file for the provider.
func (p Provider) AllPattern() string { return "*.csv" }
