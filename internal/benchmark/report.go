package benchmark

import (
	"time"

	"vgbench/internal/measure"
	"vgbench/internal/monitor"
)

// Report is everything a single benchmark run produced.
type Report struct {
	ID        string
	Benchmark string
	Started   time.Time
	Finished  time.Time

	// WorkloadDuration covers only the workload, not the monitor lifecycle.
	WorkloadDuration time.Duration

	// StartResults and StopResults hold one entry per monitor; nil means success.
	StartResults map[string]error
	StopResults  map[string]error

	Histories     map[string]*measure.Measurements
	Missed        map[string]int
	Outputs       map[string]string
	PersistErrors map[string]error

	Err error

	monitors []monitor.Metadata
}

func newReport(name string, monitors []monitor.Metadata) *Report {
	return &Report{
		ID:            newRunID(),
		Benchmark:     name,
		Started:       time.Now(),
		StartResults:  map[string]error{},
		StopResults:   map[string]error{},
		Histories:     map[string]*measure.Measurements{},
		Missed:        map[string]int{},
		Outputs:       map[string]string{},
		PersistErrors: map[string]error{},
		monitors:      monitors,
	}
}

// StartFailures returns the monitors whose OnStart failed.
func (r *Report) StartFailures() map[string]error {
	return failures(r.StartResults)
}

// StopFailures returns the monitors whose OnStop failed.
func (r *Report) StopFailures() map[string]error {
	return failures(r.StopResults)
}

func failures(results map[string]error) map[string]error {
	out := make(map[string]error)
	for name, err := range results {
		if err != nil {
			out[name] = err
		}
	}
	return out
}

// Succeeded reports whether the run finished without a run-level error.
func (r *Report) Succeeded() bool { return r.Err == nil }

// Summary flattens the report into its persisted form, monitors in registration order.
func (r *Report) Summary() Summary {
	s := Summary{
		RunID:     r.ID,
		Name:      r.Benchmark,
		Timestamp: r.Started,
		Duration:  r.WorkloadDuration,
		Status:    StatusSuccess,
	}
	if r.Err != nil {
		s.Status = StatusFailure
		s.Error = r.Err.Error()
	}
	for _, meta := range r.monitors {
		ms := MonitorSummary{
			Name:      meta.Name,
			Frequency: meta.Frequency.String(),
			Missed:    r.Missed[meta.Name],
			Output:    r.Outputs[meta.Name],
		}
		if h, ok := r.Histories[meta.Name]; ok {
			ms.Samples = h.Len()
			if stats, ok := h.Stats(); ok {
				ms.Stats = &stats
			}
		}
		if err := r.StartResults[meta.Name]; err != nil {
			ms.StartError = err.Error()
		}
		if err := r.StopResults[meta.Name]; err != nil {
			ms.StopError = err.Error()
		}
		if err := r.PersistErrors[meta.Name]; err != nil {
			ms.Error = err.Error()
		}
		s.Monitors = append(s.Monitors, ms)
	}
	return s
}
