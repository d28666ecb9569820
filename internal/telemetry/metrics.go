package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the harness's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	PollsTotal        *prometheus.CounterVec
	PollFailures      *prometheus.CounterVec
	MissedPolls       *prometheus.CounterVec
	SamplesRetained   *prometheus.CounterVec
	PollDuration      *prometheus.HistogramVec
	BenchmarkDuration *prometheus.HistogramVec
	BenchmarkResults  *prometheus.CounterVec
	MonitorsActive    prometheus.Gauge
}

// NewMetrics creates all collectors and registers them on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.PollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vgbench_monitor_polls_total",
			Help: "Total number of monitor polls attempted",
		},
		[]string{"benchmark", "monitor"},
	)

	m.PollFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vgbench_monitor_poll_failures_total",
			Help: "Total number of monitor polls that returned an error",
		},
		[]string{"benchmark", "monitor"},
	)

	m.MissedPolls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vgbench_monitor_missed_polls_total",
			Help: "Ticks skipped because a poll outlasted its period",
		},
		[]string{"benchmark", "monitor"},
	)

	m.SamplesRetained = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vgbench_monitor_samples_total",
			Help: "Samples appended to monitor histories",
		},
		[]string{"benchmark", "monitor"},
	)

	m.PollDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vgbench_monitor_poll_duration_seconds",
			Help:    "Time spent inside monitor polls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"benchmark", "monitor"},
	)

	m.BenchmarkDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vgbench_workload_duration_seconds",
			Help:    "Wall-clock duration of benchmark workloads",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		},
		[]string{"benchmark"},
	)

	m.BenchmarkResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vgbench_benchmark_runs_total",
			Help: "Benchmark runs by outcome",
		},
		[]string{"benchmark", "status"},
	)

	m.MonitorsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vgbench_monitors_active",
			Help: "Number of monitor goroutines currently polling",
		},
	)

	m.registry.MustRegister(
		m.PollsTotal,
		m.PollFailures,
		m.MissedPolls,
		m.SamplesRetained,
		m.PollDuration,
		m.BenchmarkDuration,
		m.BenchmarkResults,
		m.MonitorsActive,
	)

	return m
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObservePoll records one poll attempt.
func (m *Metrics) ObservePoll(benchmark, monitor string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.PollsTotal.WithLabelValues(benchmark, monitor).Inc()
	m.PollDuration.WithLabelValues(benchmark, monitor).Observe(elapsed.Seconds())
	if err != nil {
		m.PollFailures.WithLabelValues(benchmark, monitor).Inc()
	}
}

// AddMissed records ticks skipped by a slow poll.
func (m *Metrics) AddMissed(benchmark, monitor string, missed int) {
	if m == nil || missed <= 0 {
		return
	}
	m.MissedPolls.WithLabelValues(benchmark, monitor).Add(float64(missed))
}

// IncSamples records one retained sample.
func (m *Metrics) IncSamples(benchmark, monitor string) {
	if m == nil {
		return
	}
	m.SamplesRetained.WithLabelValues(benchmark, monitor).Inc()
}

// MonitorStarted and MonitorStopped track live polling goroutines.
func (m *Metrics) MonitorStarted() {
	if m != nil {
		m.MonitorsActive.Inc()
	}
}

func (m *Metrics) MonitorStopped() {
	if m != nil {
		m.MonitorsActive.Dec()
	}
}

// ObserveBenchmark records a finished benchmark run.
func (m *Metrics) ObserveBenchmark(benchmark string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.BenchmarkDuration.WithLabelValues(benchmark).Observe(elapsed.Seconds())
	m.BenchmarkResults.WithLabelValues(benchmark, status).Inc()
}

// Handler returns the Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartMetricsServer serves /metrics on addr until ctx is cancelled.
func StartMetricsServer(ctx context.Context, addr string, m *Metrics) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("Starting metrics server", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
