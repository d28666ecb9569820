package benchmark

import "fmt"

type MonitorComparison struct {
	Name     string
	MeanDiff float64 // Percentage change
	Prev     MonitorSummary
	Curr     MonitorSummary
}

type Comparison struct {
	Name         string
	DurationDiff float64 // Percentage change
	MissedDiff   int
	Prev         Summary
	Curr         Summary
	Monitors     []MonitorComparison
}

// Compare returns a comparison for every benchmark present in both runs, in
// the order they appear in curr.
func Compare(prev, curr Run) []Comparison {
	prevMap := make(map[string]Summary)
	for _, s := range prev.Results {
		prevMap[s.Name] = s
	}

	var comparisons []Comparison
	for _, c := range curr.Results {
		p, ok := prevMap[c.Name]
		if !ok {
			continue
		}
		comp := Comparison{
			Name:       c.Name,
			Prev:       p,
			Curr:       c,
			MissedDiff: totalMissed(c) - totalMissed(p),
		}
		if p.Duration > 0 {
			comp.DurationDiff = float64(c.Duration-p.Duration) / float64(p.Duration) * 100
		}
		comp.Monitors = compareMonitors(p.Monitors, c.Monitors)
		comparisons = append(comparisons, comp)
	}
	return comparisons
}

func compareMonitors(prev, curr []MonitorSummary) []MonitorComparison {
	prevMap := make(map[string]MonitorSummary)
	for _, m := range prev {
		prevMap[m.Name] = m
	}
	var out []MonitorComparison
	for _, c := range curr {
		p, ok := prevMap[c.Name]
		if !ok || p.Stats == nil || c.Stats == nil {
			continue
		}
		mc := MonitorComparison{Name: c.Name, Prev: p, Curr: c}
		if p.Stats.Mean != 0 {
			mc.MeanDiff = (c.Stats.Mean - p.Stats.Mean) / p.Stats.Mean * 100
		}
		out = append(out, mc)
	}
	return out
}

func totalMissed(s Summary) int {
	n := 0
	for _, m := range s.Monitors {
		n += m.Missed
	}
	return n
}

func (c Comparison) String() string {
	return fmt.Sprintf("%s: %+.2f%% duration, %+d missed polls", c.Name, c.DurationDiff, c.MissedDiff)
}
