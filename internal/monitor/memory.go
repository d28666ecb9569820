package monitor

import (
	"github.com/shirou/gopsutil/v3/mem"

	"vgbench/internal/measure"
)

const memoryMonitorName = "memory_utilization"

// MemorySample is a snapshot of system virtual memory.
type MemorySample struct {
	Total       uint64  `csv:"total_bytes"`
	Available   uint64  `csv:"available_bytes"`
	Used        uint64  `csv:"used_bytes"`
	UsedPercent float64 `csv:"used_percent"`
}

// MemoryUtilization samples system memory usage.
type MemoryUtilization struct {
	meta    Metadata
	virtual func() (*mem.VirtualMemoryStat, error)
}

// NewMemoryUtilization returns a memory monitor polled at freq.
func NewMemoryUtilization(freq Frequency) *MemoryUtilization {
	return &MemoryUtilization{
		meta:    Metadata{Name: memoryMonitorName, Frequency: freq},
		virtual: mem.VirtualMemory,
	}
}

func (m *MemoryUtilization) Metadata() Metadata { return m.meta }

func (m *MemoryUtilization) OnStart() error {
	_, err := m.virtual()
	return err
}

func (m *MemoryUtilization) Poll() (measure.Value, error) {
	vm, err := m.virtual()
	if err != nil {
		return measure.Value{}, err
	}
	return measure.RecordOf(MemorySample{
		Total:       vm.Total,
		Available:   vm.Available,
		Used:        vm.Used,
		UsedPercent: vm.UsedPercent,
	})
}

func (m *MemoryUtilization) OnStop() error { return nil }
