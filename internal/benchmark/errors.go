package benchmark

import (
	"errors"
	"fmt"
	"runtime/debug"
)

var (
	// ErrOutputUnavailable means the benchmark's output directory could not be created.
	ErrOutputUnavailable = errors.New("benchmark output directory unavailable")
	// ErrWorkloadFailed wraps an error returned by the workload.
	ErrWorkloadFailed = errors.New("workload failed")
	// ErrMonitorStartFailed, ErrMonitorStopFailed and ErrMonitorPollFailed are
	// recorded per monitor and never fail a run on their own.
	ErrMonitorStartFailed = errors.New("monitor start failed")
	ErrMonitorStopFailed  = errors.New("monitor stop failed")
	ErrMonitorPollFailed  = errors.New("monitor poll failed")
	// ErrUnitExecution means a monitor or workload goroutine panicked.
	ErrUnitExecution = errors.New("unit execution exception")
	// ErrPersistenceFailed means a history could not be written to its sink.
	ErrPersistenceFailed = errors.New("persistence failed")

	ErrAlreadyRun       = errors.New("benchmark already run")
	ErrDuplicateMonitor = errors.New("duplicate monitor name")
)

// Phase names a monitor lifecycle step.
type Phase string

const (
	PhaseStart   Phase = "on_start"
	PhasePoll    Phase = "poll"
	PhaseStop    Phase = "on_stop"
	PhasePersist Phase = "persist"
)

func (p Phase) sentinel() error {
	switch p {
	case PhaseStart:
		return ErrMonitorStartFailed
	case PhasePoll:
		return ErrMonitorPollFailed
	case PhaseStop:
		return ErrMonitorStopFailed
	default:
		return ErrPersistenceFailed
	}
}

// MonitorError is a failure contained to a single monitor.
type MonitorError struct {
	Monitor string
	Phase   Phase
	Err     error
}

func (e *MonitorError) Error() string {
	return fmt.Sprintf("monitor %q %s: %v", e.Monitor, e.Phase, e.Err)
}

// Unwrap matches both the phase sentinel and the underlying cause.
func (e *MonitorError) Unwrap() []error {
	return []error{e.Phase.sentinel(), e.Err}
}

// UnitExecutionError is a recovered panic from a monitor or workload goroutine.
type UnitExecutionError struct {
	Unit  string
	Value any
	Stack []byte
}

func (e *UnitExecutionError) Error() string {
	return fmt.Sprintf("%v: %s panicked: %v", ErrUnitExecution, e.Unit, e.Value)
}

func (e *UnitExecutionError) Unwrap() []error {
	if err, ok := e.Value.(error); ok {
		return []error{ErrUnitExecution, err}
	}
	return []error{ErrUnitExecution}
}

// capturePanic must be deferred directly; it turns a panic into a UnitExecutionError.
func capturePanic(unit string, errp *error) {
	if r := recover(); r != nil {
		*errp = &UnitExecutionError{Unit: unit, Value: r, Stack: debug.Stack()}
	}
}
