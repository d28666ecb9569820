package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"vgbench/internal/measure"
)

// CSV writes each table to <dir>/<name>.csv, replacing any previous file.
type CSV struct{}

// NewCSV returns the default file sink.
func NewCSV() *CSV { return &CSV{} }

func (CSV) Write(ctx context.Context, dst Destination, table measure.Table) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validate(table); err != nil {
		return "", err
	}

	path := filepath.Join(dst.Dir, FileName(dst.Name)+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(table.Columns); err != nil {
		return "", err
	}
	if err := w.WriteAll(table.Rows); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

func (CSV) Close() error { return nil }
