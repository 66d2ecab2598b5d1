package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urban-mobility/trips-cli/internal/aggregate"
	"github.com/urban-mobility/trips-cli/internal/output"
)

var odmatrixCmd = &cobra.Command{
	Use:   "odmatrix",
	Short: "Build an origin-destination matrix against a boundary layer",
	Long: `Joins trip origins and destinations independently against one boundary
layer and counts trips per (origin zone, destination zone) pair. Endpoints
outside every zone count toward a null zone, kept as its own row.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "odmatrix"))

		spec, files, dirs, err := resolveSources(cmd)
		if err != nil {
			return err
		}

		layerName, _ := cmd.Flags().GetString("layer")
		joinField, _ := cmd.Flags().GetString("join-field")
		joiner, layer, reproject, err := loadJoiner(layerName, joinField)
		if err != nil {
			return err
		}

		req := baseRequest(files, dirs)
		req.Joiner = joiner
		req.Reproject = reproject

		matrix, res, err := aggregate.RunODMatrix(req)
		if err != nil {
			return err
		}

		params := filterParams(cmd)
		params["layer"] = layerName
		defer recordRun(ctx, "odmatrix", params, res)

		if !res.Success {
			fmt.Fprintf(os.Stderr, "odmatrix: %s\n", res.Reason)
			return nil
		}

		table := output.ODMatrixTable(matrix, layer.JoinField)
		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			out = filepath.Join(cfg.Data.AggregatedDir, outputName("odmatrix", layerName, spec.Describe(), "csv"))
		}
		if err := table.WriteCSV(out); err != nil {
			return err
		}
		res.Outputs = append(res.Outputs, out)

		log.Info("od matrix complete",
			zap.Int64("trips", res.PointsBinned),
			zap.Int("pairs", res.OutputRows),
			zap.String("output", out),
		)
		fmt.Printf("Wrote %d zone pairs to %s (%d trips from %d files)\n",
			res.OutputRows, out, res.PointsBinned, res.Files)
		return nil
	},
}

func init() {
	addFilterFlags(odmatrixCmd)
	odmatrixCmd.Flags().String("layer", "traffic_zones", "Boundary layer to join both endpoints against")
	odmatrixCmd.Flags().String("join-field", "", "Override the layer's join attribute field")
	odmatrixCmd.Flags().String("output", "", "Output path (derived from the filter when empty)")
	rootCmd.AddCommand(odmatrixCmd)
}
