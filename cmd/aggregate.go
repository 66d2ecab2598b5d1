package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urban-mobility/trips-cli/internal/aggregate"
	"github.com/urban-mobility/trips-cli/internal/output"
	"github.com/urban-mobility/trips-cli/internal/spatial"
	"github.com/urban-mobility/trips-cli/internal/timebin"
	"github.com/urban-mobility/trips-cli/internal/trips"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Aggregate trips into grid cells or boundary zones",
	Long: `Resolves a time filter into source files, normalizes both provider schemas,
bins origin/destination points spatially (regular grid or boundary layer) and
optionally temporally, and writes the summed result.

Grid mode is the default; pass --layer for zone mode.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "aggregate"))

		spec, files, dirs, err := resolveSources(cmd)
		if err != nil {
			return err
		}

		req := baseRequest(files, dirs)

		endpointStr, _ := cmd.Flags().GetString("endpoint")
		req.Endpoint = trips.Endpoint(endpointStr)

		layerName, _ := cmd.Flags().GetString("layer")
		joinField, _ := cmd.Flags().GetString("join-field")

		var layer *spatial.Layer
		if layerName != "" {
			var joiner *spatial.Joiner
			joiner, layer, req.Reproject, err = loadJoiner(layerName, joinField)
			if err != nil {
				return err
			}
			req.Joiner = joiner
		} else {
			gridSize, _ := cmd.Flags().GetFloat64("grid-size")
			if gridSize == 0 {
				gridSize = cfg.Analysis.GridSizeMeters
			}
			grid, err := spatial.NewGridBinner(gridSize)
			if err != nil {
				return err
			}
			req.Grid = &grid
			req.Reproject, err = spatial.NewReprojector(cfg.Analysis.CRS, cfg.Analysis.CRS)
			if err != nil {
				return err
			}
		}

		var binner *timebin.Binner
		binMinutes, _ := cmd.Flags().GetInt("time-bin")
		if binMinutes > 0 {
			policy, _ := cmd.Flags().GetString("rounding")
			p, err := timebin.ParsePolicy(policy)
			if err != nil {
				return err
			}
			b, err := timebin.New(binMinutes, p)
			if err != nil {
				return err
			}
			binner = &b
			req.TimeBin = binner
		}
		req.SingleDay, _ = cmd.Flags().GetBool("single-day")
		if sumDistance, _ := cmd.Flags().GetBool("sum-distance"); sumDistance {
			req.SumFields = []string{trips.MeasureDistanceKM}
		}

		acc, res, err := aggregate.Run(req)
		if err != nil {
			return err
		}

		params := filterParams(cmd)
		params["layer"] = layerName
		defer recordRun(ctx, "aggregate", params, res)

		if !res.Success {
			fmt.Fprintf(os.Stderr, "aggregate: %s\n", res.Reason)
			return nil
		}

		zoneField := ""
		if layer != nil {
			zoneField = layer.JoinField
		}
		table := output.AggregationTable(acc, nil, req.Grid, zoneField, binner)

		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			out = filepath.Join(cfg.Data.AggregatedDir, outputName("aggregate", layerName, spec.Describe(), format))
		}

		switch format {
		case "csv":
			err = table.WriteCSV(out)
		case "xlsx":
			err = table.WriteXLSX(out, "aggregation")
		case "shp":
			if req.Grid != nil {
				err = output.WriteGridShapefile(out, acc.Rows(), req.Grid, acc.CountColumns(), acc.SumFields())
			} else {
				err = output.WriteZoneShapefile(out, acc.Rows(), layer, acc.CountColumns(), acc.SumFields())
			}
		default:
			return eris.Errorf("unknown output format %q, want csv, xlsx or shp", format)
		}
		if err != nil {
			return err
		}
		res.Outputs = append(res.Outputs, out)

		log.Info("aggregation complete",
			zap.Int64("rows_read", res.RowsRead),
			zap.Int64("points_binned", res.PointsBinned),
			zap.Int("output_rows", res.OutputRows),
			zap.String("output", out),
		)
		fmt.Printf("Wrote %d rows to %s (%d points from %d files)\n",
			res.OutputRows, out, res.PointsBinned, res.Files)
		return nil
	},
}

func outputName(op, layer, filterDesc, format string) string {
	name := op
	if layer != "" {
		name += "_" + layer
	} else {
		name += "_grid"
	}
	if filterDesc != "" {
		name += "_" + filterDesc
	}
	ext := format
	if ext == "" {
		ext = "csv"
	}
	return name + "." + ext
}

func init() {
	addFilterFlags(aggregateCmd)
	aggregateCmd.Flags().String("layer", "", "Boundary layer name for zone mode (grid mode when empty)")
	aggregateCmd.Flags().String("join-field", "", "Override the layer's join attribute field")
	aggregateCmd.Flags().Float64("grid-size", 0, "Grid cell size in meters (config default when 0)")
	aggregateCmd.Flags().String("endpoint", "origin", "Trip endpoint to bin: origin, destination or all")
	aggregateCmd.Flags().Int("time-bin", 0, "Time bin width in minutes (0 disables temporal binning)")
	aggregateCmd.Flags().String("rounding", "floor", "Time bin rounding policy: floor, ceil or nearest")
	aggregateCmd.Flags().Bool("single-day", false, "Collapse all dates onto a single day before summing")
	aggregateCmd.Flags().Bool("sum-distance", false, "Sum the trip distance measure per bin")
	aggregateCmd.Flags().String("format", "csv", "Output format: csv, xlsx or shp")
	aggregateCmd.Flags().String("output", "", "Output path (derived from the filter when empty)")
	rootCmd.AddCommand(aggregateCmd)
}
