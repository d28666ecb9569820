package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"vgbench/internal/benchmark"
	"vgbench/internal/config"
	"vgbench/internal/driver"
	"vgbench/internal/monitor"
	"vgbench/internal/sink"
	"vgbench/internal/telemetry"
)

// runBenchmarks drives benches with the loaded configuration and prints a summary.
func runBenchmarks(cmd *cobra.Command, benches ...*benchmark.Benchmark) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	s, err := sink.New(appConfig.SinkConfig())
	if err != nil {
		return err
	}

	metrics := telemetry.NewMetrics()
	if addr := appConfig.Metrics.Addr; addr != "" {
		metricsCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := telemetry.StartMetricsServer(metricsCtx, addr, metrics); err != nil {
				logger.Warn("Failed to start metrics server", "addr", addr, "error", err)
			}
		}()
	}

	d, err := driver.NewBuilder().
		OutputDir(appConfig.OutputDir).
		Logger(logger.Handler()).
		AbortOnError(appConfig.AbortOnError).
		Sink(s).
		Metrics(metrics).
		Add(benches...).
		Build()
	if err != nil {
		s.Close()
		return err
	}

	res, runErr := d.Run(ctx)
	if res != nil {
		printSummaries(cmd.OutOrStdout(), res.Run.Results)
		if len(res.Skipped) > 0 {
			logger.Warn("Benchmarks skipped", "benchmarks", res.Skipped)
		}
	}
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return errors.New("interrupted")
		}
		return runErr
	}
	return nil
}

// systemMonitors builds the heartbeat, CPU and memory monitors from configuration.
func systemMonitors(cfg *config.Config) []monitor.Monitor {
	return []monitor.Monitor{
		monitor.NewHeartbeat("heartbeat", monitor.Hertz(cfg.Monitors.Heartbeat.Hz)),
		monitor.NewCPUUtilization(
			monitor.WithCPUFrequency(monitor.Hertz(cfg.Monitors.CPU.Hz)),
			monitor.WithCPUWindow(cfg.Monitors.CPU.Window),
		),
		monitor.NewMemoryUtilization(monitor.Hertz(cfg.Monitors.Memory.Hz)),
	}
}
