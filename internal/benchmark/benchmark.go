// Package benchmark runs a workload while its monitors poll concurrently.
//
// A run moves through four phases. Every monitor's OnStart runs in parallel
// behind a barrier. Monitors then poll on fixed ticks measured from the run's
// start while the workload executes on the calling goroutine. Once the
// workload returns, every OnStop runs in parallel, and finally each monitor's
// history is persisted through the configured sink. Monitor failures are
// logged and recorded but never abort a run; panics abort it.
package benchmark

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"vgbench/internal/measure"
	"vgbench/internal/monitor"
	"vgbench/internal/sink"
	"vgbench/internal/telemetry"
)

// Workload is the code under measurement.
type Workload func(ctx context.Context, opts *Options) error

// State is the lifecycle position of a Benchmark.
type State int32

const (
	StateRegistered State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Benchmark is a named workload plus the monitors sampled while it runs.
// A Benchmark runs at most once.
type Benchmark struct {
	name     string
	workload Workload
	monitors []monitor.Monitor
	meta     []monitor.Metadata
	names    map[string]struct{}

	state    atomic.Int32
	consumed atomic.Bool
}

// New creates a benchmark with no monitors.
func New(name string, workload Workload) *Benchmark {
	return &Benchmark{
		name:     name,
		workload: workload,
		names:    make(map[string]struct{}),
	}
}

func (b *Benchmark) Name() string { return b.name }

func (b *Benchmark) State() State { return State(b.state.Load()) }

// Monitors returns the registered monitor metadata in registration order.
func (b *Benchmark) Monitors() []monitor.Metadata {
	out := make([]monitor.Metadata, len(b.meta))
	copy(out, b.meta)
	return out
}

// Add registers monitors. Metadata is read once here and must stay constant.
// Names must stay distinct after sanitizing and case folding, since each
// monitor owns one persisted table.
func (b *Benchmark) Add(mons ...monitor.Monitor) error {
	if b.consumed.Load() {
		return fmt.Errorf("%w: %s", ErrAlreadyRun, b.name)
	}
	for _, mon := range mons {
		meta := mon.Metadata()
		if err := meta.Validate(); err != nil {
			return fmt.Errorf("benchmark %q: %w", b.name, err)
		}
		key := sink.Key(meta.Name)
		if _, ok := b.names[key]; ok {
			return fmt.Errorf("benchmark %q: %w: %s", b.name, ErrDuplicateMonitor, meta.Name)
		}
		b.names[key] = struct{}{}
		b.monitors = append(b.monitors, mon)
		b.meta = append(b.meta, meta)
	}
	return nil
}

func (b *Benchmark) setState(log *slog.Logger, s State) {
	b.state.Store(int32(s))
	telemetry.Trace(log, "state changed", "state", s.String())
}

// Run executes the benchmark. The returned report is populated as far as the
// run got, even when an error is returned.
func (b *Benchmark) Run(ctx context.Context, cfg Config) (report *Report, err error) {
	if !b.consumed.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRun, b.name)
	}
	cfg = cfg.withDefaults()
	log := cfg.Logger.With("benchmark", b.name)

	report = newReport(b.name, b.meta)
	defer func() {
		report.Finished = time.Now()
		report.Err = err
		b.setState(log, StateCompleted)
		cfg.Metrics.ObserveBenchmark(b.name, report.WorkloadDuration, err)
	}()

	if err := ctx.Err(); err != nil {
		return report, err
	}

	b.setState(log, StateStarting)
	opts := newOptions(b.name, cfg, b.names)
	if err := os.MkdirAll(opts.OutputDir(), 0o755); err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrOutputUnavailable, opts.OutputDir(), err)
		log.Error("Failed to create output directory", "error", err)
		return report, err
	}

	log.Info("Starting benchmark", "run_id", report.ID, "monitors", len(b.monitors))
	starts, err := b.lifecycle(log, PhaseStart, monitor.Monitor.OnStart)
	report.StartResults = starts
	if err != nil {
		return report, err
	}
	telemetry.Trace(log, "started all monitors")

	b.setState(log, StateRunning)
	res := b.execute(ctx, log, opts, cfg)
	report.WorkloadDuration = res.elapsed
	report.Histories = res.histories
	report.Missed = res.missed

	b.setState(log, StateStopping)
	stops, stopErr := b.lifecycle(log, PhaseStop, monitor.Monitor.OnStop)
	report.StopResults = stops
	telemetry.Trace(log, "stopped all monitors")

	if res.unitErr != nil {
		log.Error("Benchmark aborted", "error", res.unitErr)
		return report, res.unitErr
	}
	if stopErr != nil {
		return report, stopErr
	}

	b.persist(ctx, log, cfg.Sink, opts, report)

	if res.workErr != nil {
		err := fmt.Errorf("benchmark %q: %w: %w", b.name, ErrWorkloadFailed, res.workErr)
		log.Error("Workload failed", "error", res.workErr)
		return report, err
	}

	log.Info("Finished benchmark", "duration", res.elapsed)
	return report, nil
}

// lifecycle runs hook for every monitor in parallel, released together by a
// barrier. Hook errors are recorded and logged; only panics are returned.
func (b *Benchmark) lifecycle(log *slog.Logger, phase Phase, hook func(monitor.Monitor) error) (map[string]error, error) {
	results := make(map[string]error, len(b.monitors))
	var mu sync.Mutex
	ready := newBarrier(len(b.monitors))

	var g errgroup.Group
	for i, mon := range b.monitors {
		name := b.meta[i].Name
		g.Go(func() (err error) {
			defer capturePanic(fmt.Sprintf("monitor %q %s", name, phase), &err)

			telemetry.Trace(log, "waiting on lifecycle barrier", "monitor", name, "phase", phase)
			ready.Wait()

			var result error
			if hookErr := hook(mon); hookErr != nil {
				result = &MonitorError{Monitor: name, Phase: phase, Err: hookErr}
				log.Error("Monitor lifecycle hook failed", "monitor", name, "phase", phase, "error", hookErr)
			}
			mu.Lock()
			results[name] = result
			mu.Unlock()
			return nil
		})
	}
	return results, g.Wait()
}

type execution struct {
	histories map[string]*measure.Measurements
	missed    map[string]int
	elapsed   time.Duration
	workErr   error
	unitErr   error
}

func (b *Benchmark) execute(ctx context.Context, log *slog.Logger, opts *Options, cfg Config) execution {
	res := execution{
		histories: make(map[string]*measure.Measurements, len(b.monitors)),
		missed:    make(map[string]int, len(b.monitors)),
	}
	var (
		mu       sync.Mutex
		complete atomic.Bool
		g        errgroup.Group
	)
	ready := newBarrier(len(b.monitors) + 1)
	start := time.Now()

	for i, mon := range b.monitors {
		meta := b.meta[i]
		p := newPoller(b.name, mon, meta, start, log, cfg.Metrics)
		g.Go(func() (err error) {
			defer capturePanic(fmt.Sprintf("monitor %q poll", meta.Name), &err)
			history, missed := p.run(ready, &complete)
			mu.Lock()
			res.histories[meta.Name] = history
			res.missed[meta.Name] = missed
			mu.Unlock()
			return nil
		})
	}

	telemetry.Trace(log, "waiting to execute")
	ready.Wait()
	telemetry.Trace(log, "starting execution")

	began := time.Now()
	res.workErr, res.unitErr = b.invoke(ctx, opts)
	res.elapsed = time.Since(began)
	complete.Store(true)
	telemetry.Trace(log, "finished execution", "elapsed", res.elapsed)

	if err := g.Wait(); err != nil && res.unitErr == nil {
		res.unitErr = err
	}
	return res
}

func (b *Benchmark) invoke(ctx context.Context, opts *Options) (workErr, unitErr error) {
	defer capturePanic(fmt.Sprintf("workload %q", b.name), &unitErr)
	return b.workload(ctx, opts), nil
}

// persist writes every non-empty history in registration order. Failures are
// recorded on the report and logged.
func (b *Benchmark) persist(ctx context.Context, log *slog.Logger, s sink.Sink, opts *Options, report *Report) {
	for _, meta := range b.meta {
		history, ok := report.Histories[meta.Name]
		if !ok || history.Empty() {
			log.Debug("No samples to persist", "monitor", meta.Name)
			continue
		}
		loc, err := s.Write(ctx, sink.Destination{Dir: opts.OutputDir(), Benchmark: b.name, Name: meta.Name}, history.Table())
		if err != nil {
			err = &MonitorError{Monitor: meta.Name, Phase: PhasePersist, Err: err}
			report.PersistErrors[meta.Name] = err
			log.Error("Failed to persist history", "monitor", meta.Name, "error", err)
			continue
		}
		report.Outputs[meta.Name] = loc
		log.Debug("Persisted history", "monitor", meta.Name, "location", loc, "samples", history.Len())
	}
}

func newRunID() string { return uuid.NewString() }
