package monitor

import (
	"sync/atomic"

	"vgbench/internal/measure"
)

// Heartbeat counts its own polls. It is a liveness probe and a placeholder
// monitor for time tracking.
type Heartbeat struct {
	meta  Metadata
	beats atomic.Int64
}

// NewHeartbeat returns a heartbeat monitor polled at freq.
func NewHeartbeat(name string, freq Frequency) *Heartbeat {
	return &Heartbeat{meta: Metadata{Name: name, Frequency: freq}}
}

func (h *Heartbeat) Metadata() Metadata { return h.meta }

// OnStart resets the counter so each run starts from zero.
func (h *Heartbeat) OnStart() error {
	h.beats.Store(0)
	return nil
}

// Poll returns the next beat, starting at 1.
func (h *Heartbeat) Poll() (measure.Value, error) {
	return measure.Int(h.beats.Add(1)), nil
}

func (h *Heartbeat) OnStop() error { return nil }
