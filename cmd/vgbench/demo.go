package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"vgbench/internal/benchmark"
	"vgbench/internal/monitor"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a sleeping workload under a heartbeat monitor",
	Long: `Runs a workload that only sleeps while a heartbeat monitor polls at
monitors.heartbeat.hz. Useful for checking polling cadence and sink output.
With --system the CPU and memory monitors are sampled as well.`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().Duration("duration", 5*time.Second, "How long the workload sleeps")
	demoCmd.Flags().Bool("system", false, "Also sample CPU and memory utilization")
}

func runDemo(cmd *cobra.Command, args []string) error {
	duration, _ := cmd.Flags().GetDuration("duration")
	system, _ := cmd.Flags().GetBool("system")

	bench := benchmark.New("heartbeat", func(ctx context.Context, opts *benchmark.Options) error {
		opts.Logger().Info("Sleeping", "duration", duration)
		select {
		case <-time.After(duration):
		case <-ctx.Done():
		}
		return nil
	})

	mons := []monitor.Monitor{monitor.NewHeartbeat("heartbeat", monitor.Hertz(appConfig.Monitors.Heartbeat.Hz))}
	if system {
		mons = systemMonitors(appConfig)
	}
	if err := bench.Add(mons...); err != nil {
		return err
	}
	return runBenchmarks(cmd, bench)
}
