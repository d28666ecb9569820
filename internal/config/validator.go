package config

import (
	"fmt"
	"strings"
	"time"

	"vgbench/internal/telemetry"
)

var sinkTypes = map[string]bool{
	"csv": true, "sqlite": true, "sqlite3": true, "postgres": true, "postgresql": true,
}

// Validate checks every configuration value and reports all violations at once.
func Validate(cfg *Config) error {
	var errors []string

	if strings.TrimSpace(cfg.OutputDir) == "" {
		errors = append(errors, "output_dir is required")
	}

	if _, err := telemetry.ParseLevel(cfg.Log.Level); err != nil {
		errors = append(errors, fmt.Sprintf("log.level: %v", err))
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "", "json", "text":
	default:
		errors = append(errors, fmt.Sprintf("log.format must be json or text, got: %s", cfg.Log.Format))
	}

	sinkType := strings.ToLower(cfg.Sink.Type)
	if sinkType != "" && !sinkTypes[sinkType] {
		errors = append(errors, fmt.Sprintf("sink.type must be one of csv, sqlite, postgres, got: %s", cfg.Sink.Type))
	}
	if (sinkType == "postgres" || sinkType == "postgresql") && cfg.Sink.DSN == "" {
		errors = append(errors, "sink.dsn is required for the postgres sink")
	}
	if (sinkType == "sqlite" || sinkType == "sqlite3") && strings.ContainsAny(cfg.Sink.DSN, `/\`) {
		errors = append(errors, fmt.Sprintf("sink.dsn must be a bare file name for the sqlite sink, got: %s", cfg.Sink.DSN))
	}

	rates := []struct {
		key string
		hz  float64
	}{
		{"monitors.heartbeat.hz", cfg.Monitors.Heartbeat.Hz},
		{"monitors.cpu.hz", cfg.Monitors.CPU.Hz},
		{"monitors.memory.hz", cfg.Monitors.Memory.Hz},
	}
	for _, r := range rates {
		if r.hz <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %v", r.key, r.hz))
		}
	}

	if cfg.Monitors.CPU.Window <= 0 {
		errors = append(errors, fmt.Sprintf("monitors.cpu.window must be positive, got: %v", cfg.Monitors.CPU.Window))
	} else if cfg.Monitors.CPU.Hz > 0 {
		period := time.Duration(float64(time.Second) / cfg.Monitors.CPU.Hz)
		if cfg.Monitors.CPU.Window >= period {
			errors = append(errors, fmt.Sprintf("monitors.cpu.window (%v) must be shorter than the cpu poll period (%v)", cfg.Monitors.CPU.Window, period))
		}
	}

	if cfg.Render.Frames <= 0 {
		errors = append(errors, fmt.Sprintf("render.frames must be positive, got: %d", cfg.Render.Frames))
	}
	if cfg.Render.Plugin != "" && cfg.Render.InputDir == "" {
		errors = append(errors, "render.input_dir is required when render.plugin is set")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  %s", strings.Join(errors, "\n  "))
	}
	return nil
}
