package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/urban-mobility/trips-cli/internal/timefilter"
	"github.com/urban-mobility/trips-cli/internal/trips"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List the source files a time filter would select",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, files, _, err := resolveSources(cmd)
		if err != nil {
			return err
		}

		if timefilter.Total(files) == 0 {
			fmt.Fprintln(os.Stderr, "No files matched the time filter.")
			return nil
		}

		for _, p := range trips.Providers {
			names, ok := files[p]
			if !ok {
				continue
			}
			fmt.Printf("%s (%d):\n", p, len(names))
			for _, name := range names {
				fmt.Printf("  %s\n", name)
			}
		}
		return nil
	},
}

func init() {
	addFilterFlags(filesCmd)
	rootCmd.AddCommand(filesCmd)
}
