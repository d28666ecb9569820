package benchmark

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"vgbench/internal/measure"
	"vgbench/internal/sink"
	"vgbench/internal/telemetry"
)

// Config is the driver-level environment a benchmark runs in.
type Config struct {
	OutputRoot string
	Logger     *slog.Logger
	Sink       sink.Sink
	Metrics    *telemetry.Metrics
}

func (c Config) withDefaults() Config {
	if c.OutputRoot == "" {
		c.OutputRoot = "output"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Sink == nil {
		c.Sink = sink.NewCSV()
	}
	return c
}

// Options is the read-only view a workload receives.
type Options struct {
	name      string
	outputDir string
	logger    *slog.Logger
	sink      sink.Sink
	reserved  map[string]struct{}
}

// newOptions builds the workload view. reserved holds the monitor keys whose
// tables a workload must not overwrite.
func newOptions(name string, cfg Config, reserved map[string]struct{}) *Options {
	return &Options{
		name:      name,
		outputDir: filepath.Join(cfg.OutputRoot, sink.FileName(name)),
		logger:    cfg.Logger.With("benchmark", name),
		sink:      cfg.Sink,
		reserved:  reserved,
	}
}

// Name returns the benchmark name.
func (o *Options) Name() string { return o.name }

// OutputDir is the benchmark's private output directory. It exists when the workload runs.
func (o *Options) OutputDir() string { return o.outputDir }

// Path resolves elem inside the output directory.
func (o *Options) Path(elem ...string) string {
	return filepath.Join(append([]string{o.outputDir}, elem...)...)
}

// Logger is the benchmark-scoped logger.
func (o *Options) Logger() *slog.Logger { return o.logger }

// Quiet returns a logger that drops everything, for noisy code inside timed sections.
func (o *Options) Quiet() *slog.Logger { return telemetry.Discard() }

// WriteTable persists a workload-produced table next to the monitor histories.
// A name that would land on a monitor's table is rejected.
func (o *Options) WriteTable(ctx context.Context, name string, table measure.Table) (string, error) {
	if _, ok := o.reserved[sink.Key(name)]; ok {
		return "", fmt.Errorf("table %q: %w", name, ErrDuplicateMonitor)
	}
	return o.sink.Write(ctx, sink.Destination{Dir: o.outputDir, Benchmark: o.name, Name: name}, table)
}
