// Package render times frame rendering through an externally supplied renderer.
//
// A renderer exposes three entry points with a fixed calling convention:
//
//	Init() int
//	Stage(document string) int
//	Render(frameTimes []uint64) int
//
// A zero return is success. Render fills one nanosecond duration per frame.
// Any other return code is surfaced as a *RuntimeError.
package render

import (
	"errors"
	"fmt"
	"log/slog"
	"plugin"
	"time"
)

var ErrSymbolMissing = errors.New("renderer symbol missing")

// Renderer is the in-process view of a renderer.
type Renderer interface {
	Init() error
	Stage(doc Document) error
	Render(frames int) ([]time.Duration, error)
}

// LogSetter is implemented by renderers that log; they receive a silenced
// logger while frames are being timed.
type LogSetter interface {
	SetLogger(*slog.Logger)
}

// RuntimeError is a non-zero return code from a renderer entry point.
type RuntimeError struct {
	Phase string
	Code  int
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("renderer %s returned code %d", e.Phase, e.Code)
}

// Symbol names a Go plugin must export.
const (
	SymbolInit   = "Init"
	SymbolStage  = "Stage"
	SymbolRender = "Render"
)

type (
	InitFunc   = func() int
	StageFunc  = func(document string) int
	RenderFunc = func(frameTimes []uint64) int
)

// Library adapts the three entry points to Renderer.
type Library struct {
	init   InitFunc
	stage  StageFunc
	render RenderFunc
}

// NewLibrary wraps entry points already in hand. A nil entry point fails with
// ErrSymbolMissing when called.
func NewLibrary(initFn InitFunc, stageFn StageFunc, renderFn RenderFunc) *Library {
	return &Library{init: initFn, stage: stageFn, render: renderFn}
}

// Open loads a Go plugin and resolves its entry points.
func Open(path string) (*Library, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load renderer %s: %w", path, err)
	}
	initFn, err := lookup[InitFunc](p, SymbolInit)
	if err != nil {
		return nil, err
	}
	stageFn, err := lookup[StageFunc](p, SymbolStage)
	if err != nil {
		return nil, err
	}
	renderFn, err := lookup[RenderFunc](p, SymbolRender)
	if err != nil {
		return nil, err
	}
	return NewLibrary(initFn, stageFn, renderFn), nil
}

func lookup[T any](p *plugin.Plugin, name string) (T, error) {
	var zero T
	sym, err := p.Lookup(name)
	if err != nil {
		return zero, fmt.Errorf("%w: %s: %w", ErrSymbolMissing, name, err)
	}
	fn, ok := sym.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s has type %T, want %T", ErrSymbolMissing, name, sym, zero)
	}
	return fn, nil
}

func (l *Library) Init() error {
	if l.init == nil {
		return fmt.Errorf("%w: %s", ErrSymbolMissing, SymbolInit)
	}
	return check("init", l.init())
}

func (l *Library) Stage(doc Document) error {
	if l.stage == nil {
		return fmt.Errorf("%w: %s", ErrSymbolMissing, SymbolStage)
	}
	return check("stage", l.stage(doc.Content))
}

func (l *Library) Render(frames int) ([]time.Duration, error) {
	if l.render == nil {
		return nil, fmt.Errorf("%w: %s", ErrSymbolMissing, SymbolRender)
	}
	if frames <= 0 {
		return nil, fmt.Errorf("frame count must be positive, got %d", frames)
	}
	buf := make([]uint64, frames)
	if err := check("render", l.render(buf)); err != nil {
		return nil, err
	}
	times := make([]time.Duration, frames)
	for i, nanos := range buf {
		times[i] = time.Duration(nanos)
	}
	return times, nil
}

func check(phase string, code int) error {
	if code != 0 {
		return &RuntimeError{Phase: phase, Code: code}
	}
	return nil
}
