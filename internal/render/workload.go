package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vgbench/internal/benchmark"
	"vgbench/internal/measure"
)

// FrameTimesTable is the table name frame timings are written under.
const FrameTimesTable = "frametimes"

// FrameTimes renders every document for a fixed number of frames and records
// each frame's duration.
type FrameTimes struct {
	Renderer  Renderer
	Documents []Document
	Frames    int
}

// FrameTime is one row of the frametimes table.
type FrameTime struct {
	Document string `csv:"document"`
	Frame    int    `csv:"frame"`
	Nanos    int64  `csv:"nanos"`
}

func (f FrameTimes) validate() error {
	if f.Renderer == nil {
		return errors.New("renderer is required")
	}
	if f.Frames <= 0 {
		return fmt.Errorf("frame count must be positive, got %d", f.Frames)
	}
	return nil
}

// Workload returns the benchmark workload.
func (f FrameTimes) Workload() benchmark.Workload {
	return func(ctx context.Context, opts *benchmark.Options) error {
		if err := f.validate(); err != nil {
			return err
		}
		log := opts.Logger()

		var table measure.Table
		for _, doc := range f.Documents {
			if err := ctx.Err(); err != nil {
				return err
			}
			times, err := f.renderDocument(opts, doc)
			if err != nil {
				return fmt.Errorf("document %s: %w", doc.Name, err)
			}
			for i, d := range times {
				row := measure.MustRecord(FrameTime{Document: doc.Name, Frame: i, Nanos: d.Nanoseconds()})
				table.Columns = row.Columns()
				table.Rows = append(table.Rows, row.Cells())
			}
			log.Debug("Rendered document", "document", doc.Name, "frames", len(times))
		}

		if len(table.Rows) == 0 {
			log.Warn("No frames rendered", "documents", len(f.Documents))
			return nil
		}
		loc, err := opts.WriteTable(ctx, FrameTimesTable, table)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", benchmark.ErrPersistenceFailed, FrameTimesTable, err)
		}
		log.Info("Wrote frame times", "location", loc, "rows", len(table.Rows))
		return nil
	}
}

func (f FrameTimes) renderDocument(opts *benchmark.Options, doc Document) ([]time.Duration, error) {
	if ls, ok := f.Renderer.(LogSetter); ok {
		ls.SetLogger(opts.Quiet())
		defer ls.SetLogger(opts.Logger())
	}
	if err := f.Renderer.Init(); err != nil {
		return nil, err
	}
	if err := f.Renderer.Stage(doc); err != nil {
		return nil, err
	}
	return f.Renderer.Render(f.Frames)
}
