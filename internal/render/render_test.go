package render

import (
	"context"
	"encoding/csv"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vgbench/internal/benchmark"
	"vgbench/internal/telemetry"
)

type stubRenderer struct {
	staged []string
	logger *slog.Logger
	quiet  []bool
}

func (s *stubRenderer) library() *Library {
	return NewLibrary(
		func() int { return 0 },
		func(doc string) int {
			s.staged = append(s.staged, doc)
			return 0
		},
		func(frameTimes []uint64) int {
			if s.logger != nil {
				s.quiet = append(s.quiet, !s.logger.Enabled(context.Background(), slog.LevelError))
			}
			for i := range frameTimes {
				frameTimes[i] = uint64((i + 1) * 1000)
			}
			return 0
		},
	)
}

// loggingRenderer records the logger it holds while rendering.
type loggingRenderer struct {
	*Library
	stub *stubRenderer
}

func (l loggingRenderer) SetLogger(logger *slog.Logger) { l.stub.logger = logger }

func TestLibraryRender(t *testing.T) {
	stub := &stubRenderer{}
	lib := stub.library()

	require.NoError(t, lib.Init())
	require.NoError(t, lib.Stage(Document{Name: "a.svg", Content: "<svg/>"}))
	assert.Equal(t, []string{"<svg/>"}, stub.staged)

	times, err := lib.Render(3)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{1000, 2000, 3000}, times)

	_, err = lib.Render(0)
	assert.Error(t, err)
}

func TestLibraryRuntimeError(t *testing.T) {
	lib := NewLibrary(
		func() int { return 0 },
		func(string) int { return 7 },
		func([]uint64) int { return -1 },
	)

	err := lib.Stage(Document{})
	var rtErr *RuntimeError
	require.True(t, errors.As(err, &rtErr))
	assert.Equal(t, 7, rtErr.Code)
	assert.Equal(t, "stage", rtErr.Phase)

	_, err = lib.Render(2)
	require.True(t, errors.As(err, &rtErr))
	assert.Equal(t, -1, rtErr.Code)
	assert.Equal(t, "renderer render returned code -1", rtErr.Error())
}

func TestLibraryMissingSymbols(t *testing.T) {
	lib := NewLibrary(nil, nil, nil)
	assert.ErrorIs(t, lib.Init(), ErrSymbolMissing)
	assert.ErrorIs(t, lib.Stage(Document{}), ErrSymbolMissing)
	_, err := lib.Render(1)
	assert.ErrorIs(t, err, ErrSymbolMissing)
	assert.ErrorContains(t, err, SymbolRender)
}

func TestOpenMissingPlugin(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.so"))
	assert.ErrorContains(t, err, "failed to load renderer")
}

func TestLoadDocuments(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.svg"), []byte("<svg id='b'/>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.SVG"), []byte("<svg id='a'/>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.svg"), 0o755))

	docs, err := LoadDocuments(dir, ".svg")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a.SVG", docs[0].Name)
	assert.Equal(t, "<svg id='a'/>", docs[0].Content)
	assert.Equal(t, filepath.Join(dir, "b.svg"), docs[1].Path)

	all, err := LoadDocuments(dir)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = LoadDocuments(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestFrameTimesWorkload(t *testing.T) {
	root := t.TempDir()
	stub := &stubRenderer{}
	ft := FrameTimes{
		Renderer:  loggingRenderer{Library: stub.library(), stub: stub},
		Documents: []Document{{Name: "a.svg", Content: "A"}, {Name: "b.svg", Content: "B"}},
		Frames:    2,
	}

	b := benchmark.New("naive render", ft.Workload())
	_, err := b.Run(context.Background(), benchmark.Config{OutputRoot: root, Logger: telemetry.Discard()})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, stub.staged)
	assert.Equal(t, []bool{true, true}, stub.quiet, "renderers log through a silenced logger while timed")

	f, err := os.Open(filepath.Join(root, "naive_render", FrameTimesTable+".csv"))
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"document", "frame", "nanos"},
		{"a.svg", "0", "1000"},
		{"a.svg", "1", "2000"},
		{"b.svg", "0", "1000"},
		{"b.svg", "1", "2000"},
	}, records)
}

func TestFrameTimesWorkloadErrors(t *testing.T) {
	cfg := benchmark.Config{OutputRoot: t.TempDir(), Logger: telemetry.Discard()}

	_, err := benchmark.New("no renderer", FrameTimes{Frames: 1}.Workload()).Run(context.Background(), cfg)
	assert.ErrorIs(t, err, benchmark.ErrWorkloadFailed)

	failing := FrameTimes{
		Renderer:  NewLibrary(func() int { return 3 }, nil, nil),
		Documents: []Document{{Name: "x.svg"}},
		Frames:    1,
	}
	_, err = benchmark.New("failing init", failing.Workload()).Run(context.Background(), cfg)
	var rtErr *RuntimeError
	require.True(t, errors.As(err, &rtErr))
	assert.Equal(t, "init", rtErr.Phase)
	assert.ErrorContains(t, err, "document x.svg")
}
