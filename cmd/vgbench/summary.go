package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"vgbench/internal/benchmark"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	okStyle     = cellStyle.Foreground(lipgloss.Color("42"))
	badStyle    = cellStyle.Foreground(lipgloss.Color("196"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...)
}

func printSummaries(w io.Writer, summaries []benchmark.Summary) {
	for _, s := range summaries {
		status := okStyle
		if s.Status != benchmark.StatusSuccess {
			status = badStyle
		}
		fmt.Fprintf(w, "%s  %s  %s\n", titleStyle.Render(s.Name), status.Render(strings.ToUpper(s.Status)), s.Duration)
		if s.Error != "" {
			fmt.Fprintf(w, "  %s\n", s.Error)
		}
		if len(s.Monitors) == 0 {
			continue
		}

		t := newTable("MONITOR", "FREQ", "SAMPLES", "MISSED", "MEAN", "OUTPUT").
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
		for _, m := range s.Monitors {
			mean := "-"
			if m.Stats != nil {
				mean = strconv.FormatFloat(m.Stats.Mean, 'f', 2, 64)
			}
			output := m.Output
			if m.Error != "" {
				output = m.Error
			}
			t.Row(m.Name, m.Frequency, strconv.Itoa(m.Samples), strconv.Itoa(m.Missed), mean, output)
		}
		fmt.Fprintln(w, t.Render())
	}
}

func printComparisons(w io.Writer, comps []benchmark.Comparison, threshold float64) {
	t := newTable("BENCHMARK", "PREV", "CURR", "DIFF %", "MISSED Δ", "STATUS")
	var statuses []string
	for _, c := range comps {
		status := "OK"
		switch {
		case c.DurationDiff > threshold:
			status = "REGRESSION"
		case c.DurationDiff < -threshold:
			status = "IMPROVEMENT"
		}
		statuses = append(statuses, status)
		t.Row(c.Name, c.Prev.Duration.String(), c.Curr.Duration.String(),
			fmt.Sprintf("%+.2f", c.DurationDiff), fmt.Sprintf("%+d", c.MissedDiff), status)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if col == 5 && row >= 0 && row < len(statuses) {
			if statuses[row] == "REGRESSION" {
				return badStyle
			}
			return okStyle
		}
		return cellStyle
	})
	fmt.Fprintln(w, t.Render())

	for _, c := range comps {
		for _, m := range c.Monitors {
			fmt.Fprintf(w, "  %s/%s mean %+.2f%%\n", c.Name, m.Name, m.MeanDiff)
		}
	}
}
