package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/urban-mobility/trips-cli/internal/history"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded operation runs",
	Long:  "Commands for listing and viewing recorded operation runs and their results.",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		store, err := history.Open(ctx, cfg.History.DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		operation, _ := cmd.Flags().GetString("operation")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := store.List(ctx, history.Filter{Operation: operation, Limit: limit})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run's full result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := history.Open(ctx, cfg.History.DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		run, err := store.Get(ctx, args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

func formatRunsList(w io.Writer, runs []history.Run) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tOPERATION\tSTATUS\tROWS\tOUTPUT ROWS\tCREATED")
	for _, r := range runs {
		status := "?"
		rows, outputRows := int64(0), 0
		if r.Result != nil {
			if r.Result.Success {
				status = "ok"
			} else {
				status = "failed"
			}
			rows = r.Result.RowsRead
			outputRows = r.Result.OutputRows
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.Operation, status, rows, outputRows,
			r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	runsListCmd.Flags().String("operation", "", "Filter by operation name")
	runsListCmd.Flags().Int("limit", 20, "Maximum runs to list")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}
