package benchmark

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vgbench/internal/measure"
)

func TestCompare(t *testing.T) {
	prev := Run{
		Results: []Summary{
			{Name: "B1", Duration: 100 * time.Millisecond, Monitors: []MonitorSummary{
				{Name: "cpu", Missed: 1, Stats: &measure.Stats{Mean: 50}},
			}},
			{Name: "B2", Duration: 200 * time.Millisecond},
		},
	}
	curr := Run{
		Results: []Summary{
			{Name: "B1", Duration: 110 * time.Millisecond, Monitors: []MonitorSummary{ // 10% slower
				{Name: "cpu", Missed: 3, Stats: &measure.Stats{Mean: 40}},
				{Name: "new", Stats: &measure.Stats{Mean: 1}},
			}},
			{Name: "B3", Duration: 300 * time.Millisecond}, // New
		},
	}

	comps := Compare(prev, curr)

	require.Len(t, comps, 1) // Only B1 matches

	c := comps[0]
	assert.Equal(t, "B1", c.Name)
	assert.InDelta(t, 10.0, c.DurationDiff, 0.01)
	assert.Equal(t, 2, c.MissedDiff)
	require.Len(t, c.Monitors, 1)
	assert.InDelta(t, -20.0, c.Monitors[0].MeanDiff, 0.01)
	assert.Equal(t, "B1: +10.00% duration, +2 missed polls", c.String())
}
