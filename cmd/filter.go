package main

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urban-mobility/trips-cli/internal/aggregate"
	"github.com/urban-mobility/trips-cli/internal/history"
	"github.com/urban-mobility/trips-cli/internal/spatial"
	"github.com/urban-mobility/trips-cli/internal/timefilter"
	"github.com/urban-mobility/trips-cli/internal/trips"
)

// addFilterFlags wires the shared time-filter and provider flags onto an
// operation command.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("filter", "all", "Time filter kind: all, month, year, season, month-all-years, custom")
	cmd.Flags().String("year", "", "Year for month/year/season filters (4 digits)")
	cmd.Flags().String("month", "", "Month for month filters (01-12)")
	cmd.Flags().String("season", "", "Season name for the season filter")
	cmd.Flags().StringSlice("snapp-pattern", nil, "Custom filename globs for snapp files")
	cmd.Flags().StringSlice("tapsi-pattern", nil, "Custom filename globs for tapsi files")
	cmd.Flags().String("providers", "snapp,tapsi", "Comma-separated providers to read")
}

// buildFilterSpec assembles a validated time filter from the flags. Invalid
// combinations fail here, before any filesystem access.
func buildFilterSpec(cmd *cobra.Command) (timefilter.Spec, error) {
	kind, _ := cmd.Flags().GetString("filter")
	year, _ := cmd.Flags().GetString("year")
	month, _ := cmd.Flags().GetString("month")
	season, _ := cmd.Flags().GetString("season")

	switch kind {
	case "all":
		return timefilter.NewAll(), nil
	case "month":
		return timefilter.NewSpecificMonth(year, month)
	case "year":
		return timefilter.NewYear(year)
	case "season":
		return timefilter.NewSeason(year, season)
	case "month-all-years":
		return timefilter.NewMonthAllYears(month)
	case "custom":
		snapp, _ := cmd.Flags().GetStringSlice("snapp-pattern")
		tapsi, _ := cmd.Flags().GetStringSlice("tapsi-pattern")
		patterns := map[trips.Provider][]string{}
		if len(snapp) > 0 {
			patterns[trips.ProviderSnapp] = snapp
		}
		if len(tapsi) > 0 {
			patterns[trips.ProviderTapsi] = tapsi
		}
		return timefilter.NewCustom(patterns)
	}
	return timefilter.Spec{}, eris.Errorf("unknown time filter kind %q", kind)
}

func selectedProviders(cmd *cobra.Command) ([]trips.Provider, error) {
	raw, _ := cmd.Flags().GetString("providers")
	var out []trips.Provider
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		p, err := trips.ParseProvider(name)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, eris.New("no providers selected")
	}
	return out, nil
}

func providerDirs(providers []trips.Provider) map[trips.Provider]string {
	dirs := make(map[trips.Provider]string, len(providers))
	for _, p := range providers {
		switch p {
		case trips.ProviderSnapp:
			dirs[p] = cfg.Data.SnappRawDir
		case trips.ProviderTapsi:
			dirs[p] = cfg.Data.TapsiRawDir
		}
	}
	return dirs
}

// resolveSources turns the flags into the matched per-provider file lists.
func resolveSources(cmd *cobra.Command) (timefilter.Spec, map[trips.Provider][]string, map[trips.Provider]string, error) {
	spec, err := buildFilterSpec(cmd)
	if err != nil {
		return timefilter.Spec{}, nil, nil, err
	}
	providers, err := selectedProviders(cmd)
	if err != nil {
		return timefilter.Spec{}, nil, nil, err
	}

	seasons, err := timefilter.LoadSeasons(cfg.Data.SeasonsFile)
	if err != nil {
		return timefilter.Spec{}, nil, nil, err
	}

	dirs := providerDirs(providers)
	idx, err := timefilter.IndexDirs(dirs)
	if err != nil {
		return timefilter.Spec{}, nil, nil, err
	}
	files, err := timefilter.Resolve(spec, seasons, idx)
	if err != nil {
		return timefilter.Spec{}, nil, nil, err
	}
	return spec, files, dirs, nil
}

// baseRequest fills the batching knobs from config.
func baseRequest(files map[trips.Provider][]string, dirs map[trips.Provider]string) aggregate.Request {
	return aggregate.Request{
		Files:         files,
		Dirs:          dirs,
		Endpoint:      trips.EndpointOrigin,
		FixedDate:     cfg.Analysis.FixedDate,
		ChunkSize:     cfg.Analysis.ChunkSize,
		JoinBatchSize: cfg.Analysis.JoinBatchSize,
		MaxPoints:     int64(cfg.Analysis.MaxPoints),
	}
}

// loadJoiner loads a configured boundary layer and the point reprojector
// into its CRS.
func loadJoiner(layerName, joinField string) (*spatial.Joiner, *spatial.Layer, spatial.Reprojector, error) {
	lc, err := cfg.Layer(layerName)
	if err != nil {
		return nil, nil, spatial.Reprojector{}, err
	}
	if joinField == "" {
		joinField = lc.JoinField
	}

	layer, err := spatial.LoadLayer(layerName, lc.Shapefile, joinField)
	if err != nil {
		return nil, nil, spatial.Reprojector{}, err
	}

	// Points are reprojected into the layer's CRS, never the reverse.
	reproject, err := spatial.NewReprojector(cfg.Analysis.CRS, layer.CRS)
	if err != nil {
		return nil, nil, spatial.Reprojector{}, err
	}
	return spatial.NewJoiner(layer), layer, reproject, nil
}

// recordRun stores the operation outcome in the history database. History
// failures are logged, never fatal to a finished operation.
func recordRun(ctx context.Context, operation string, params map[string]string, result *aggregate.Result) {
	store, err := history.Open(ctx, cfg.History.DatabasePath)
	if err != nil {
		zap.L().Warn("history unavailable", zap.Error(err))
		return
	}
	defer store.Close() //nolint:errcheck

	if _, err := store.Record(ctx, operation, params, result); err != nil {
		zap.L().Warn("recording run failed", zap.Error(err))
	}
}

func filterParams(cmd *cobra.Command) map[string]string {
	params := map[string]string{}
	for _, name := range []string{"filter", "year", "month", "season", "providers"} {
		if v, _ := cmd.Flags().GetString(name); v != "" {
			params[name] = v
		}
	}
	return params
}
