package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urban-mobility/trips-cli/internal/aggregate"
	"github.com/urban-mobility/trips-cli/internal/output"
	"github.com/urban-mobility/trips-cli/internal/transform"
	"github.com/urban-mobility/trips-cli/internal/trips"
)

var zonejoinCmd = &cobra.Command{
	Use:   "zonejoin <table.csv>",
	Short: "Join a table file's coordinates onto a boundary layer",
	Long: `Tests each row's endpoint coordinates for zone membership and appends the
layer's join field, dropping rows outside every zone. With --aggregate the
joined rows are instead summed per zone, writable as CSV or as an attributed
polygon shapefile.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "zonejoin"))

		layerName, _ := cmd.Flags().GetString("layer")
		joinField, _ := cmd.Flags().GetString("join-field")
		joiner, layer, reproject, err := loadJoiner(layerName, joinField)
		if err != nil {
			return err
		}

		table, err := output.ReadCSV(args[0])
		if err != nil {
			return err
		}

		endpointStr, _ := cmd.Flags().GetString("endpoint")
		joined, stats, err := transform.JoinZones(table, joiner, reproject,
			trips.Endpoint(endpointStr), cfg.Analysis.JoinBatchSize)
		if err != nil {
			return err
		}

		res := &aggregate.Result{
			Operation:  "zonejoin",
			Success:    stats.Rows > 0,
			RowsRead:   int64(len(table.Rows)),
			OutputRows: stats.Rows,
		}
		if stats.Rows == 0 {
			res.Fail("no rows fell inside the layer")
		}
		defer recordRun(ctx, "zonejoin", map[string]string{
			"input": args[0],
			"layer": layerName,
		}, res)

		if !res.Success {
			fmt.Fprintf(os.Stderr, "zonejoin: %s\n", res.Reason)
			return nil
		}

		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			ext := format
			if ext == "" {
				ext = "csv"
			}
			out = strings.TrimSuffix(args[0], ".csv") + "_" + layerName + "_joined." + ext
		}

		if doAggregate, _ := cmd.Flags().GetBool("aggregate"); doAggregate {
			sumFields, _ := cmd.Flags().GetStringSlice("sum-fields")
			acc, err := transform.SumByZone(joined, layer.JoinField, sumFields)
			if err != nil {
				return err
			}
			res.OutputRows = acc.Len()

			switch format {
			case "csv":
				err = output.AggregationTable(acc, nil, nil, layer.JoinField, nil).WriteCSV(out)
			case "shp":
				err = output.WriteZoneShapefile(out, acc.Rows(), layer, acc.CountColumns(), acc.SumFields())
			default:
				return eris.Errorf("unknown output format %q, want csv or shp", format)
			}
			if err != nil {
				return err
			}
		} else {
			if format != "" && format != "csv" {
				return eris.New("zonejoin: row-level output supports csv only, pass --aggregate for shp")
			}
			if err := joined.WriteCSV(out); err != nil {
				return err
			}
		}
		res.Outputs = append(res.Outputs, out)

		log.Info("zone join complete",
			zap.Int("rows", stats.Rows),
			zap.Int("unmatched", stats.Unmatched),
			zap.Int("skipped", stats.Skipped),
			zap.String("output", out),
		)
		fmt.Printf("Wrote %d rows to %s (%d outside the layer, %d unparseable)\n",
			res.OutputRows, out, stats.Unmatched, stats.Skipped)
		return nil
	},
}

func init() {
	zonejoinCmd.Flags().String("layer", "districts", "Boundary layer to join against")
	zonejoinCmd.Flags().String("join-field", "", "Override the layer's join attribute field")
	zonejoinCmd.Flags().String("endpoint", "origin", "Coordinate columns to test: origin, destination or all")
	zonejoinCmd.Flags().Bool("aggregate", false, "Sum numeric columns per zone instead of writing joined rows")
	zonejoinCmd.Flags().StringSlice("sum-fields", []string{"count"}, "Numeric columns to sum with --aggregate")
	zonejoinCmd.Flags().String("format", "csv", "Output format: csv, or shp with --aggregate")
	zonejoinCmd.Flags().String("output", "", "Output path (input name with the layer suffix when empty)")
	rootCmd.AddCommand(zonejoinCmd)
}
