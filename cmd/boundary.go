package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urban-mobility/trips-cli/internal/aggregate"
	"github.com/urban-mobility/trips-cli/internal/output"
	"github.com/urban-mobility/trips-cli/internal/trips"
)

var boundaryCmd = &cobra.Command{
	Use:   "boundary",
	Short: "Keep trips inside or outside a boundary layer",
	Long: `Partitions the matched trips by zone membership of the chosen endpoint
and writes the kept half as a table file. Inside and outside come from one
membership test per trip, so the two modes partition the input exactly.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "boundary"))

		spec, files, dirs, err := resolveSources(cmd)
		if err != nil {
			return err
		}

		modeStr, _ := cmd.Flags().GetString("mode")
		mode, err := aggregate.ParseBoundaryMode(modeStr)
		if err != nil {
			return err
		}

		layerName, _ := cmd.Flags().GetString("layer")
		joinField, _ := cmd.Flags().GetString("join-field")
		joiner, _, reproject, err := loadJoiner(layerName, joinField)
		if err != nil {
			return err
		}

		req := baseRequest(files, dirs)
		req.Joiner = joiner
		req.Reproject = reproject
		endpointStr, _ := cmd.Flags().GetString("endpoint")
		req.Endpoint = trips.Endpoint(endpointStr)

		kept, res, err := aggregate.RunBoundary(req, mode)
		if err != nil {
			return err
		}

		params := filterParams(cmd)
		params["layer"] = layerName
		params["mode"] = modeStr
		defer recordRun(ctx, "boundary", params, res)

		if !res.Success {
			fmt.Fprintf(os.Stderr, "boundary: %s\n", res.Reason)
			return nil
		}

		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			out = filepath.Join(cfg.Data.AggregatedDir,
				outputName("boundary_"+modeStr, layerName, spec.Describe(), "csv"))
		}
		if err := output.RecordsTable(kept).WriteCSV(out); err != nil {
			return err
		}
		res.Outputs = append(res.Outputs, out)

		log.Info("boundary filter complete",
			zap.String("mode", modeStr),
			zap.Int("kept", len(kept)),
			zap.String("output", out),
		)
		fmt.Printf("Kept %d of %d trips (%s) in %s\n", len(kept), res.RowsRead, modeStr, out)
		return nil
	},
}

func init() {
	addFilterFlags(boundaryCmd)
	boundaryCmd.Flags().String("layer", "districts", "Boundary layer to test membership against")
	boundaryCmd.Flags().String("join-field", "", "Override the layer's join attribute field")
	boundaryCmd.Flags().String("mode", "inside", "Which side to keep: inside or outside")
	boundaryCmd.Flags().String("endpoint", "origin", "Endpoint tested: origin, destination or all")
	boundaryCmd.Flags().String("output", "", "Output path (derived from the filter when empty)")
	rootCmd.AddCommand(boundaryCmd)
}
