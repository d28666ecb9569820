package measure

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"
)

// ErrKindMismatch is returned when a sample's representation differs from
// the representation already established for a history.
var ErrKindMismatch = errors.New("measurement kind mismatch")

// Sample is one retained poll result.
type Sample struct {
	Tick    int64         // scheduled tick index since the run's start time
	Elapsed time.Duration // poll start relative to the run's start time
	Value   Value
}

// Table is an ordered, string-typed table ready for a sink.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Measurements is the ordered history of one monitor over one run.
// It is owned by a single goroutine while it grows and must not be shared
// until that goroutine has finished appending.
type Measurements struct {
	samples []Sample
	kind    Kind
	columns []string
}

// NewMeasurements returns an empty history.
func NewMeasurements() *Measurements {
	return &Measurements{}
}

// Append adds a sample at the end of the history. The first sample fixes the
// kind (and record columns) for the rest of the history.
func (m *Measurements) Append(s Sample) error {
	cols := s.Value.Columns()
	if len(s.Value.Cells()) != len(cols) {
		return fmt.Errorf("record has %d values for %d columns", len(s.Value.Cells()), len(cols))
	}
	if len(m.samples) == 0 {
		m.kind = s.Value.Kind()
		m.columns = cols
		m.samples = append(m.samples, s)
		return nil
	}
	if s.Value.Kind() != m.kind {
		return fmt.Errorf("%w: history holds %s, got %s", ErrKindMismatch, m.kind, s.Value.Kind())
	}
	if m.kind == KindRecord && !slices.Equal(cols, m.columns) {
		return fmt.Errorf("%w: record columns %v differ from %v", ErrKindMismatch, cols, m.columns)
	}
	m.samples = append(m.samples, s)
	return nil
}

// Len returns the number of retained samples.
func (m *Measurements) Len() int { return len(m.samples) }

// Empty reports whether nothing was retained.
func (m *Measurements) Empty() bool { return len(m.samples) == 0 }

// Kind returns the representation of this history, or KindUninitialized when empty.
func (m *Measurements) Kind() Kind { return m.kind }

// Samples returns a copy of the retained samples in poll order.
func (m *Measurements) Samples() []Sample {
	return slices.Clone(m.samples)
}

// Table converts the history to rows: tick, elapsed_ns, then the value columns.
func (m *Measurements) Table() Table {
	t := Table{Columns: append([]string{"tick", "elapsed_ns"}, m.columns...)}
	for _, s := range m.samples {
		row := make([]string, 0, len(t.Columns))
		row = append(row, strconv.FormatInt(s.Tick, 10), strconv.FormatInt(s.Elapsed.Nanoseconds(), 10))
		row = append(row, s.Value.Cells()...)
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Stats summarizes a numeric history.
type Stats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
}

// Stats returns summary statistics, or false if the history is empty or not numeric.
func (m *Measurements) Stats() (Stats, bool) {
	if len(m.samples) == 0 || !m.kind.Numeric() {
		return Stats{}, false
	}
	st := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	var sum float64
	for _, s := range m.samples {
		n, _ := s.Value.Number()
		st.Min = math.Min(st.Min, n)
		st.Max = math.Max(st.Max, n)
		sum += n
		st.Count++
	}
	st.Mean = sum / float64(st.Count)
	return st, true
}
