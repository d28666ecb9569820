package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelTrace is below debug and used for lifecycle transitions.
const LevelTrace = slog.Level(-8)

// LoggerOptions configures InitLogger.
type LoggerOptions struct {
	Level  slog.Level
	Format string   // "json" (default) or "text"
	Files  []string // extra sinks, appended to
	Stdout io.Writer
}

// ParseLevel accepts trace, debug, info, warn and error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// NewHandler returns a handler of the given format writing to w.
func NewHandler(w io.Writer, format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: replaceLevel}
	if strings.EqualFold(format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// InitLogger configures the default logger with stdout plus optional file output.
// The returned function closes any opened log files.
func InitLogger(opts LoggerOptions) (*slog.Logger, func()) {
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	handlers := []slog.Handler{NewHandler(stdout, opts.Format, opts.Level)}

	var files []*os.File
	for _, path := range opts.Files {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			slog.Error("Failed to open log file", "path", path, "error", err)
			continue
		}
		files = append(files, f)
		handlers = append(handlers, NewHandler(f, opts.Format, opts.Level))
	}

	logger := slog.New(Fanout(handlers...))
	slog.SetDefault(logger)

	return logger, func() {
		for _, f := range files {
			f.Close()
		}
	}
}

// Fanout combines handlers so each record reaches all of them.
func Fanout(handlers ...slog.Handler) slog.Handler {
	switch len(handlers) {
	case 0:
		return slog.DiscardHandler
	case 1:
		return handlers[0]
	}
	return &multiHandler{handlers: handlers}
}

// Discard returns a logger that drops everything. Hand it to noisy
// dependencies inside timed sections instead of changing global log levels.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Trace logs at LevelTrace.
func Trace(logger *slog.Logger, msg string, args ...any) {
	logger.Log(context.Background(), LevelTrace, msg, args...)
}

func replaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
			a.Value = slog.StringValue("TRACE")
		}
	}
	return a
}

type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, h := range m.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}
