package benchmark

import (
	"log/slog"
	"sync/atomic"
	"time"

	"vgbench/internal/measure"
	"vgbench/internal/monitor"
	"vgbench/internal/telemetry"
)

// nextTickDelay returns how long to sleep so that the next poll lands on the
// next multiple of period measured from the run's start. Sleeping against the
// start time keeps slow polls from accumulating drift.
func nextTickDelay(elapsed, period time.Duration) time.Duration {
	if period <= 0 {
		return 0
	}
	if elapsed < 0 {
		return -elapsed + period
	}
	return period - elapsed%period
}

// tickIndex is the number of whole periods between start and at.
func tickIndex(start, at time.Time, period time.Duration) int64 {
	if period <= 0 {
		return 0
	}
	return int64(at.Sub(start) / period)
}

// missedTicks counts the tick boundaries crossed while a poll was running.
func missedTicks(start, pollStart, pollEnd time.Time, period time.Duration) int {
	if pollEnd.Sub(pollStart) <= period {
		return 0
	}
	return int(tickIndex(start, pollEnd, period) - tickIndex(start, pollStart, period))
}

type poller struct {
	benchmark string
	mon       monitor.Monitor
	meta      monitor.Metadata
	start     time.Time
	log       *slog.Logger
	metrics   *telemetry.Metrics

	now   func() time.Time
	sleep func(time.Duration)
}

func newPoller(benchmark string, mon monitor.Monitor, meta monitor.Metadata, start time.Time, log *slog.Logger, m *telemetry.Metrics) *poller {
	return &poller{
		benchmark: benchmark,
		mon:       mon,
		meta:      meta,
		start:     start,
		log:       log.With("monitor", meta.Name),
		metrics:   m,
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// run blocks on ready, then polls on every tick until complete is set. The
// poll that observes completion is discarded.
func (p *poller) run(ready *barrier, complete *atomic.Bool) (*measure.Measurements, int) {
	history := measure.NewMeasurements()
	period := p.meta.Frequency.Period()
	missed := 0

	telemetry.Trace(p.log, "waiting to poll")
	ready.Wait()
	telemetry.Trace(p.log, "starting polling", "period", period)

	p.metrics.MonitorStarted()
	defer p.metrics.MonitorStopped()

	for {
		p.sleep(nextTickDelay(p.now().Sub(p.start), period))

		pollStart := p.now()
		value, err := p.mon.Poll()
		pollEnd := p.now()
		took := pollEnd.Sub(pollStart)
		p.metrics.ObservePoll(p.benchmark, p.meta.Name, took, err)

		if n := missedTicks(p.start, pollStart, pollEnd, period); n > 0 {
			missed += n
			p.metrics.AddMissed(p.benchmark, p.meta.Name, n)
			p.log.Warn("Missed poll triggers", "missed", n, "poll_duration", took, "period", period)
		}

		if complete.Load() {
			break
		}

		if err != nil {
			p.log.Error("Failed to poll", "error", &MonitorError{Monitor: p.meta.Name, Phase: PhasePoll, Err: err})
			continue
		}

		sample := measure.Sample{
			Tick:    tickIndex(p.start, pollStart, period),
			Elapsed: pollStart.Sub(p.start),
			Value:   value,
		}
		if err := history.Append(sample); err != nil {
			p.log.Error("Discarding sample", "error", err)
			continue
		}
		p.metrics.IncSamples(p.benchmark, p.meta.Name)
		telemetry.Trace(p.log, "polled", "tick", sample.Tick, "value", value.String(), "took", took)
	}

	telemetry.Trace(p.log, "finished polling", "samples", history.Len(), "missed", missed)
	return history, missed
}
