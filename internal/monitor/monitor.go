// Package monitor defines the periodic samplers that run alongside a
// benchmark workload, and the built-in monitors.
package monitor

import (
	"errors"
	"fmt"
	"time"

	"vgbench/internal/measure"
)

// ErrInvalidFrequency is returned for a frequency that does not normalize to a positive period.
var ErrInvalidFrequency = errors.New("monitor frequency must be positive")

// Frequency is a polling rate, expressed either in hertz or as an explicit period.
type Frequency struct {
	period time.Duration
}

// Hertz returns a frequency of hz polls per second.
func Hertz(hz float64) Frequency {
	if hz <= 0 {
		return Frequency{}
	}
	return Frequency{period: time.Duration(float64(time.Second) / hz)}
}

// Every returns a frequency with the given polling period.
func Every(d time.Duration) Frequency {
	return Frequency{period: d}
}

// Period returns the normalized polling period.
func (f Frequency) Period() time.Duration { return f.period }

// Valid reports whether the period is positive.
func (f Frequency) Valid() bool { return f.period > 0 }

func (f Frequency) String() string { return f.period.String() }

// Metadata identifies a monitor within a benchmark and sets its cadence.
type Metadata struct {
	Name      string
	Frequency Frequency
}

// Validate checks the metadata is usable for scheduling.
func (m Metadata) Validate() error {
	if m.Name == "" {
		return errors.New("monitor name is required")
	}
	if !m.Frequency.Valid() {
		return fmt.Errorf("monitor %q: %w (got %v)", m.Name, ErrInvalidFrequency, m.Frequency.Period())
	}
	return nil
}

// Monitor is a sampler polled on a fixed cadence while a workload runs.
//
// OnStart and OnStop are invoked once each, concurrently with sibling
// monitors. Poll is invoked once per period from a single goroutine; an
// error drops that tick's sample without stopping the monitor.
type Monitor interface {
	// Metadata must be stable for the monitor's lifetime.
	Metadata() Metadata
	OnStart() error
	Poll() (measure.Value, error)
	OnStop() error
}

// Func builds a Monitor from plain functions. Nil hooks are no-ops; a nil
// PollFn yields uninitialized samples.
type Func struct {
	Meta    Metadata
	StartFn func() error
	PollFn  func() (measure.Value, error)
	StopFn  func() error
}

func (f *Func) Metadata() Metadata { return f.Meta }

func (f *Func) OnStart() error {
	if f.StartFn == nil {
		return nil
	}
	return f.StartFn()
}

func (f *Func) Poll() (measure.Value, error) {
	if f.PollFn == nil {
		return measure.Uninitialized(), nil
	}
	return f.PollFn()
}

func (f *Func) OnStop() error {
	if f.StopFn == nil {
		return nil
	}
	return f.StopFn()
}
