package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"vgbench/internal/monitor"
	"vgbench/internal/sink"
	"vgbench/internal/telemetry"
)

// Config is the fully resolved harness configuration.
type Config struct {
	OutputDir    string         `mapstructure:"output_dir"`
	AbortOnError bool           `mapstructure:"abort_on_error"`
	Log          LogConfig      `mapstructure:"log"`
	Sink         SinkConfig     `mapstructure:"sink"`
	Metrics      MetricsConfig  `mapstructure:"metrics"`
	Monitors     MonitorsConfig `mapstructure:"monitors"`
	Render       RenderConfig   `mapstructure:"render"`
}

type LogConfig struct {
	Level  string   `mapstructure:"level"`
	Format string   `mapstructure:"format"`
	Files  []string `mapstructure:"files"`
}

type SinkConfig struct {
	Type string `mapstructure:"type"`
	DSN  string `mapstructure:"dsn"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"` // empty disables the /metrics endpoint
}

type MonitorsConfig struct {
	Heartbeat RateConfig `mapstructure:"heartbeat"`
	CPU       CPUConfig  `mapstructure:"cpu"`
	Memory    RateConfig `mapstructure:"memory"`
}

type RateConfig struct {
	Hz float64 `mapstructure:"hz"`
}

type CPUConfig struct {
	Hz     float64       `mapstructure:"hz"`
	Window time.Duration `mapstructure:"window"`
}

type RenderConfig struct {
	Frames   int    `mapstructure:"frames"`
	Plugin   string `mapstructure:"plugin"`
	InputDir string `mapstructure:"input_dir"`
}

// SetDefaults registers every key so environment overrides reach Unmarshal.
func SetDefaults() {
	viper.SetDefault("output_dir", "./output")
	viper.SetDefault("abort_on_error", false)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("log.files", []string{})
	viper.SetDefault("sink.type", "csv")
	viper.SetDefault("sink.dsn", "")
	viper.SetDefault("metrics.addr", "")
	viper.SetDefault("monitors.heartbeat.hz", 1.0)
	viper.SetDefault("monitors.cpu.hz", 1.0)
	viper.SetDefault("monitors.cpu.window", monitor.DefaultCPUWindow)
	viper.SetDefault("monitors.memory.hz", 1.0)
	viper.SetDefault("render.frames", 500)
	viper.SetDefault("render.plugin", "")
	viper.SetDefault("render.input_dir", "")
}

// Load initializes the configuration from an optional file, .env and
// VGBENCH_* environment variables, in increasing precedence.
func Load(cfgFile string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("vgbench")
	}

	viper.SetEnvPrefix("VGBENCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	SetDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else {
		var notFound viper.ConfigFileNotFoundError
		// An explicit file must exist; the implicit one is optional.
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// LoggerOptions maps the log section onto telemetry options.
func (c *Config) LoggerOptions() (telemetry.LoggerOptions, error) {
	level, err := telemetry.ParseLevel(c.Log.Level)
	if err != nil {
		return telemetry.LoggerOptions{}, err
	}
	return telemetry.LoggerOptions{Level: level, Format: c.Log.Format, Files: c.Log.Files}, nil
}

// SinkConfig maps the sink section onto the sink factory's configuration.
func (c *Config) SinkConfig() sink.Config {
	return sink.Config{Type: c.Sink.Type, DSN: c.Sink.DSN}
}
