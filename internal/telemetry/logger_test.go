package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock handler to inspect log records
type mockHandler struct {
	mu       sync.Mutex
	records  []slog.Record
	attrs    []slog.Attr
	group    string
	enabled  bool
	handleFn func(slog.Record) error // Optional custom handle logic
}

func (h *mockHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.enabled
}

func (h *mockHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.handleFn != nil {
		return h.handleFn(record)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, record)
	return nil
}

func (h *mockHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	newHandler := mockHandler{
		records:  h.records,
		attrs:    h.attrs,
		group:    h.group,
		enabled:  h.enabled,
		handleFn: h.handleFn,
	}
	newHandler.attrs = append(h.attrs, attrs...)
	return &newHandler
}

func (h *mockHandler) WithGroup(name string) slog.Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	newHandler := mockHandler{
		records:  h.records,
		attrs:    h.attrs,
		group:    h.group,
		enabled:  h.enabled,
		handleFn: h.handleFn,
	}
	if newHandler.group == "" {
		newHandler.group = name
	} else {
		newHandler.group = newHandler.group + "." + name
	}
	return &newHandler
}

func (h *mockHandler) getRecords() []slog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.records
}

func TestMultiHandler(t *testing.T) {
	h1 := &mockHandler{enabled: true}
	h2 := &mockHandler{enabled: true}

	multi := &multiHandler{handlers: []slog.Handler{h1, h2}}

	t.Run("Enabled", func(t *testing.T) {
		assert.True(t, multi.Enabled(context.Background(), slog.LevelInfo))

		h1.enabled = false
		h2.enabled = false
		assert.False(t, multi.Enabled(context.Background(), slog.LevelInfo))

		h1.enabled = true
		h2.enabled = true
	})

	t.Run("Handle", func(t *testing.T) {
		record := slog.NewRecord(time.Now(), slog.LevelInfo, "test message", 0)
		err := multi.Handle(context.Background(), record)
		assert.NoError(t, err)
		assert.Len(t, h1.getRecords(), 1)
		assert.Len(t, h2.getRecords(), 1)
		assert.Equal(t, "test message", h1.getRecords()[0].Message)
	})

	t.Run("WithAttrs", func(t *testing.T) {
		attrs := []slog.Attr{slog.String("key", "value")}
		handlerWithAttrs := multi.WithAttrs(attrs)

		// Check if the new handler is a multiHandler
		newMulti, ok := handlerWithAttrs.(*multiHandler)
		require.True(t, ok, "WithAttrs should return a *multiHandler")

		// Check if underlying handlers have the attributes
		for _, h := range newMulti.handlers {
			mockH, ok := h.(*mockHandler)
			require.True(t, ok)
			assert.Equal(t, attrs, mockH.attrs)
		}
	})

	t.Run("WithGroup", func(t *testing.T) {
		handlerWithGroup := multi.WithGroup("my-group")

		newMulti, ok := handlerWithGroup.(*multiHandler)
		require.True(t, ok, "WithGroup should return a *multiHandler")

		for _, h := range newMulti.handlers {
			mockH, ok := h.(*mockHandler)
			require.True(t, ok)
			assert.Equal(t, "my-group", mockH.group)
		}
	})
}

func TestMultiHandlerSkipsDisabled(t *testing.T) {
	on := &mockHandler{enabled: true}
	off := &mockHandler{enabled: false}
	multi := &multiHandler{handlers: []slog.Handler{on, off}}

	require.NoError(t, multi.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelWarn, "only one", 0)))
	assert.Len(t, on.getRecords(), 1)
	assert.Empty(t, off.getRecords())
}

func TestFanout(t *testing.T) {
	assert.Equal(t, slog.DiscardHandler, Fanout())

	single := &mockHandler{enabled: true}
	assert.Same(t, single, Fanout(single))

	_, ok := Fanout(single, &mockHandler{}).(*multiHandler)
	assert.True(t, ok)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"trace", LevelTrace, false},
		{"DEBUG", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInitLogger(t *testing.T) {
	originalLogger := slog.Default()
	defer slog.SetDefault(originalLogger)

	t.Run("Stdout and file", func(t *testing.T) {
		var buf bytes.Buffer
		path := filepath.Join(t.TempDir(), "trace.log")

		logger, closeFn := InitLogger(LoggerOptions{Level: LevelTrace, Files: []string{path}, Stdout: &buf})
		Trace(logger, "lifecycle", "phase", "starting")
		closeFn()

		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "lifecycle", line["msg"])
		assert.Equal(t, "TRACE", line["level"])

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "lifecycle")

		assert.Same(t, logger, slog.Default())
	})

	t.Run("Text format respects level", func(t *testing.T) {
		var buf bytes.Buffer
		logger, closeFn := InitLogger(LoggerOptions{Level: slog.LevelWarn, Format: "text", Stdout: &buf})
		defer closeFn()

		logger.Info("hidden")
		logger.Warn("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "msg=shown")
	})

	t.Run("File error", func(t *testing.T) {
		var errBuf bytes.Buffer
		slog.SetDefault(slog.New(slog.NewJSONHandler(&errBuf, nil)))

		invalidPath := filepath.Join(t.TempDir(), "nonexistent/test.log")
		var buf bytes.Buffer
		logger, closeFn := InitLogger(LoggerOptions{Files: []string{invalidPath}, Stdout: &buf})
		defer closeFn()
		assert.NotNil(t, logger)
		assert.True(t, strings.Contains(errBuf.String(), "Failed to open log file"), "Expected log file error message, got: "+errBuf.String())
	})
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
	logger.Error("dropped")
}
