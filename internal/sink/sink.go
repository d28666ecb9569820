// Package sink persists tables of measurements to named destinations.
package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"vgbench/internal/measure"
)

// ErrEmptyTable is returned when a table has no columns.
var ErrEmptyTable = errors.New("table has no columns")

// Destination names where a table goes. Dir is the benchmark's private
// output directory; Name is the table name (usually a monitor name).
type Destination struct {
	Dir       string
	Benchmark string
	Name      string
}

// Sink writes ordered tables. Write returns a human-readable location of
// what it wrote.
type Sink interface {
	Write(ctx context.Context, dst Destination, table measure.Table) (string, error)
	Close() error
}

// FileName turns an arbitrary name into a safe file/table stem.
// "CPU Utilization" becomes "CPU_Utilization".
func FileName(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "unnamed"
	}
	return out
}

// Key is the identity a name has once persisted. Names with equal keys land
// in the same file or table, since SQL identifiers are case-insensitive.
func Key(name string) string {
	return strings.ToLower(FileName(name))
}

func validate(table measure.Table) error {
	if len(table.Columns) == 0 {
		return ErrEmptyTable
	}
	for i, row := range table.Rows {
		if len(row) != len(table.Columns) {
			return &RowError{Row: i, Got: len(row), Want: len(table.Columns)}
		}
	}
	return nil
}

// RowError reports a row whose width does not match the header.
type RowError struct {
	Row, Got, Want int
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d has %d cells, want %d", e.Row, e.Got, e.Want)
}

// quoteIdent quotes a SQL identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
