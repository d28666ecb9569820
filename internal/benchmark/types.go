package benchmark

import (
	"time"

	"vgbench/internal/measure"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// MonitorSummary is the persisted outcome of one monitor within a benchmark.
type MonitorSummary struct {
	Name       string         `json:"name"`
	Frequency  string         `json:"frequency"`
	Samples    int            `json:"samples"`
	Missed     int            `json:"missed"`
	Output     string         `json:"output,omitempty"`
	Stats      *measure.Stats `json:"stats,omitempty"`
	StartError string         `json:"start_error,omitempty"`
	StopError  string         `json:"stop_error,omitempty"`
	Error      string         `json:"error,omitempty"` // persistence
}

// Summary is the persisted outcome of a single benchmark.
type Summary struct {
	RunID     string           `json:"run_id"`
	Name      string           `json:"name"`
	Timestamp time.Time        `json:"timestamp"`
	Duration  time.Duration    `json:"duration_ns"`
	Status    string           `json:"status"`
	Error     string           `json:"error,omitempty"`
	Monitors  []MonitorSummary `json:"monitors"`
}

// Run represents a collection of benchmark summaries from a single driver execution.
type Run struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Host      string    `json:"host,omitempty"`
	Results   []Summary `json:"results"`
}
