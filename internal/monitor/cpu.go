package monitor

import (
	"errors"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"

	"vgbench/internal/measure"
)

const (
	// DefaultCPUWindow is how long a single CPU poll observes the system.
	DefaultCPUWindow = 750 * time.Millisecond
	cpuMonitorName   = "cpu_utilization"
)

// CPUSample is the share of CPU time spent in each mode over one sampling
// window, in percent.
type CPUSample struct {
	Idle      float64 `csv:"idle"`
	User      float64 `csv:"user"`
	System    float64 `csv:"system"`
	Nice      float64 `csv:"nice"`
	Interrupt float64 `csv:"interrupt"`
}

// CPUUtilization samples aggregate system CPU load. Each Poll blocks for the
// configured window while it measures.
type CPUUtilization struct {
	meta   Metadata
	window time.Duration

	// replaced in tests
	times func(percpu bool) ([]cpu.TimesStat, error)
	sleep func(time.Duration)
}

// CPUOption configures a CPUUtilization monitor.
type CPUOption func(*CPUUtilization)

// WithCPUName overrides the monitor name.
func WithCPUName(name string) CPUOption {
	return func(c *CPUUtilization) { c.meta.Name = name }
}

// WithCPUFrequency overrides the polling frequency (default 1 Hz).
func WithCPUFrequency(f Frequency) CPUOption {
	return func(c *CPUUtilization) { c.meta.Frequency = f }
}

// WithCPUWindow overrides the sampling window (default 750ms).
func WithCPUWindow(d time.Duration) CPUOption {
	return func(c *CPUUtilization) { c.window = d }
}

// NewCPUUtilization returns a CPU monitor with defaults applied.
func NewCPUUtilization(opts ...CPUOption) *CPUUtilization {
	c := &CPUUtilization{
		meta:   Metadata{Name: cpuMonitorName, Frequency: Hertz(1)},
		window: DefaultCPUWindow,
		times:  cpu.Times,
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CPUUtilization) Metadata() Metadata { return c.meta }

// Window returns the sampling window.
func (c *CPUUtilization) Window() time.Duration { return c.window }

// OnStart checks that CPU times can be read on this platform.
func (c *CPUUtilization) OnStart() error {
	if c.window <= 0 {
		return fmt.Errorf("cpu window must be positive, got %v", c.window)
	}
	if _, err := c.aggregate(); err != nil {
		return fmt.Errorf("cpu times unavailable: %w", err)
	}
	return nil
}

// Poll measures CPU time deltas across one window.
func (c *CPUUtilization) Poll() (measure.Value, error) {
	before, err := c.aggregate()
	if err != nil {
		return measure.Value{}, err
	}
	c.sleep(c.window)
	after, err := c.aggregate()
	if err != nil {
		return measure.Value{}, err
	}

	sample, err := cpuDelta(before, after)
	if err != nil {
		return measure.Value{}, err
	}
	return measure.RecordOf(sample)
}

func (c *CPUUtilization) OnStop() error { return nil }

func (c *CPUUtilization) aggregate() (cpu.TimesStat, error) {
	stats, err := c.times(false)
	if err != nil {
		return cpu.TimesStat{}, err
	}
	if len(stats) == 0 {
		return cpu.TimesStat{}, errors.New("no cpu times reported")
	}
	return stats[0], nil
}

// busyTotal excludes guest time, which the kernel already counts in user time.
func busyTotal(t cpu.TimesStat) float64 {
	return t.User + t.System + t.Idle + t.Nice + t.Iowait + t.Irq + t.Softirq + t.Steal
}

func cpuDelta(before, after cpu.TimesStat) (CPUSample, error) {
	total := busyTotal(after) - busyTotal(before)
	if total <= 0 {
		return CPUSample{}, errors.New("no cpu time elapsed during sampling window")
	}
	pct := func(a, b float64) float64 { return (a - b) / total * 100 }
	return CPUSample{
		Idle:      pct(after.Idle, before.Idle),
		User:      pct(after.User, before.User),
		System:    pct(after.System, before.System),
		Nice:      pct(after.Nice, before.Nice),
		Interrupt: pct(after.Irq+after.Softirq, before.Irq+before.Softirq),
	}, nil
}
