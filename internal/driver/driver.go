// Package driver runs a list of benchmarks one after another against a shared
// output root, logger and sink.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"vgbench/internal/benchmark"
	"vgbench/internal/sink"
	"vgbench/internal/telemetry"
)

// HistoryFile is the run history written under the output root.
const HistoryFile = "runs.json"

// Builder collects driver configuration. The zero value is not usable; call NewBuilder.
type Builder struct {
	outputDir    string
	handlers     []slog.Handler
	abortOnError bool
	sink         sink.Sink
	metrics      *telemetry.Metrics
	store        benchmark.Store
	noHistory    bool
	benchmarks   []*benchmark.Benchmark
}

func NewBuilder() *Builder {
	return &Builder{outputDir: "output"}
}

func (b *Builder) OutputDir(dir string) *Builder {
	b.outputDir = dir
	return b
}

// Logger adds a log sink. Records go to every sink added.
func (b *Builder) Logger(h slog.Handler) *Builder {
	if h != nil {
		b.handlers = append(b.handlers, h)
	}
	return b
}

// AbortOnError stops the run at the first failed benchmark.
func (b *Builder) AbortOnError(abort bool) *Builder {
	b.abortOnError = abort
	return b
}

func (b *Builder) Sink(s sink.Sink) *Builder {
	b.sink = s
	return b
}

func (b *Builder) Metrics(m *telemetry.Metrics) *Builder {
	b.metrics = m
	return b
}

// Store overrides where run summaries are kept. The default is runs.json in the output root.
func (b *Builder) Store(s benchmark.Store) *Builder {
	b.store = s
	return b
}

// WithoutHistory disables run summary persistence.
func (b *Builder) WithoutHistory() *Builder {
	b.noHistory = true
	return b
}

// Add registers benchmarks; they run in the order added.
func (b *Builder) Add(benches ...*benchmark.Benchmark) *Builder {
	b.benchmarks = append(b.benchmarks, benches...)
	return b
}

// Build validates the configuration and prepares the output root.
func (b *Builder) Build() (*Driver, error) {
	if b.outputDir == "" {
		return nil, errors.New("output directory is required")
	}
	seen := make(map[string]struct{}, len(b.benchmarks))
	for _, bench := range b.benchmarks {
		if bench == nil {
			return nil, errors.New("nil benchmark registered")
		}
		// Benchmarks sharing a sanitized name would share an output directory.
		key := sink.Key(bench.Name())
		if _, ok := seen[key]; ok {
			return nil, fmt.Errorf("duplicate benchmark name: %s", bench.Name())
		}
		seen[key] = struct{}{}
	}
	if err := os.MkdirAll(b.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", benchmark.ErrOutputUnavailable, b.outputDir, err)
	}

	logger := slog.Default()
	if len(b.handlers) > 0 {
		logger = slog.New(telemetry.Fanout(b.handlers...))
	}

	store := b.store
	if store == nil && !b.noHistory {
		fs, err := benchmark.NewFileStore(filepath.Join(b.outputDir, HistoryFile))
		if err != nil {
			return nil, err
		}
		store = fs
	}

	s := b.sink
	if s == nil {
		s = sink.NewCSV()
	}

	return &Driver{
		outputDir:    b.outputDir,
		logger:       logger,
		abortOnError: b.abortOnError,
		sink:         s,
		metrics:      b.metrics,
		store:        store,
		benchmarks:   b.benchmarks,
	}, nil
}

// Driver runs benchmarks sequentially. It is consumed by Run.
type Driver struct {
	outputDir    string
	logger       *slog.Logger
	abortOnError bool
	sink         sink.Sink
	metrics      *telemetry.Metrics
	store        benchmark.Store
	benchmarks   []*benchmark.Benchmark
	consumed     bool
}

// Result is the outcome of a driver run.
type Result struct {
	Run     benchmark.Run
	Reports []*benchmark.Report
	// Skipped lists benchmarks not run because of an earlier abort or cancellation.
	Skipped []string
}

// Failed returns the names of benchmarks that returned an error.
func (r *Result) Failed() []string {
	var out []string
	for _, rep := range r.Reports {
		if !rep.Succeeded() {
			out = append(out, rep.Benchmark)
		}
	}
	return out
}

// Run executes every benchmark in registration order. With abort-on-error the
// first failure is returned and the remaining benchmarks are skipped;
// otherwise failures are logged and joined into the returned error.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	if d.consumed {
		return nil, errors.New("driver already run")
	}
	d.consumed = true
	defer d.release()

	host, _ := os.Hostname()
	res := &Result{Run: benchmark.Run{ID: uuid.NewString(), Timestamp: time.Now(), Host: host}}
	cfg := benchmark.Config{
		OutputRoot: d.outputDir,
		Logger:     d.logger,
		Sink:       d.sink,
		Metrics:    d.metrics,
	}

	d.logger.Info("Starting driver", "run_id", res.Run.ID, "benchmarks", len(d.benchmarks), "output_dir", d.outputDir)

	var errs []error
	var abortErr error
	for i, bench := range d.benchmarks {
		if err := ctx.Err(); err != nil {
			abortErr = err
			res.Skipped = benchmarkNames(d.benchmarks[i:])
			break
		}

		report, err := bench.Run(ctx, cfg)
		if report != nil {
			res.Reports = append(res.Reports, report)
			res.Run.Results = append(res.Run.Results, report.Summary())
		}
		if err == nil {
			continue
		}

		if d.abortOnError {
			d.logger.Error("Benchmark failed, aborting", "benchmark", bench.Name(), "error", err)
			abortErr = err
			res.Skipped = benchmarkNames(d.benchmarks[i+1:])
			break
		}
		d.logger.Error("Benchmark failed", "benchmark", bench.Name(), "error", err)
		errs = append(errs, err)
	}

	if d.store != nil && len(res.Run.Results) > 0 {
		if err := d.store.Save(res.Run); err != nil {
			d.logger.Error("Failed to save run summary", "error", err)
			errs = append(errs, fmt.Errorf("save run summary: %w", err))
		}
	}

	if abortErr != nil {
		return res, abortErr
	}
	d.logger.Info("Finished driver", "run_id", res.Run.ID, "failed", len(res.Failed()))
	return res, errors.Join(errs...)
}

func (d *Driver) release() {
	d.benchmarks = nil
	if err := d.sink.Close(); err != nil {
		d.logger.Warn("Failed to close sink", "error", err)
	}
}

func benchmarkNames(benches []*benchmark.Benchmark) []string {
	names := make([]string, 0, len(benches))
	for _, b := range benches {
		names = append(names, b.Name())
	}
	return names
}
