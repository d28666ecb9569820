package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"vgbench/internal/benchmark"
	"vgbench/internal/driver"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compare the two most recent runs",
	Long: `Reads the run history kept in the output directory and compares the two
most recent runs benchmark by benchmark. With a single run on record its
summary is printed instead.`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().String("file", "", "Run history file (default <output_dir>/runs.json)")
	reportCmd.Flags().Float64("threshold", 10.0, "Percentage duration change flagged as a regression")
}

func runReport(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	if path == "" {
		path = filepath.Join(appConfig.OutputDir, driver.HistoryFile)
	}

	store, err := benchmark.NewFileStore(path)
	if err != nil {
		return err
	}
	prev, curr, err := store.LoadPair()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case curr == nil:
		fmt.Fprintf(out, "No runs recorded in %s\n", path)
	case prev == nil:
		fmt.Fprintf(out, "Only one run recorded (%s); nothing to compare.\n", curr.ID)
		printSummaries(out, curr.Results)
	default:
		comps := benchmark.Compare(*prev, *curr)
		if len(comps) == 0 {
			fmt.Fprintln(out, "No benchmarks in common between the last two runs.")
			return nil
		}
		printComparisons(out, comps, threshold)
	}
	return nil
}
