package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vgbench/internal/config"
	"vgbench/internal/telemetry"
)

var (
	exit    = os.Exit
	cfgFile string

	appConfig   *config.Config
	logger      *slog.Logger
	closeLogger = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "vgbench",
	Short: "Benchmark harness that samples system monitors while a workload runs",
	Long: `vgbench runs benchmark workloads while a set of monitors (heartbeat,
CPU, memory) poll at fixed frequencies on their own goroutines. Each
monitor's history is written to the configured sink (CSV, SQLite or
Postgres) and a summary of every run is kept for later comparison.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) { closeLogger() },
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n=== CRITICAL ERROR: Command Execution Panic ===\n")
			fmt.Fprintf(os.Stderr, "Error: %v\n", r)
			exit(1)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./vgbench.yaml)")
	flags.StringP("output-dir", "o", "", "Output root directory (default ./output)")
	flags.String("log-level", "", "Log level: trace, debug, info, warn, error")
	flags.String("log-format", "", "Log format: json or text")
	flags.StringSlice("log-file", nil, "Additional log file (repeatable)")
	flags.String("sink", "", "History sink: csv, sqlite or postgres")
	flags.String("sink-dsn", "", "SQLite file name created inside each benchmark directory (no path), or Postgres connection string")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :2112)")
	flags.Bool("abort-on-error", false, "Stop at the first failed benchmark")

	viper.BindPFlag("output_dir", flags.Lookup("output-dir"))
	viper.BindPFlag("log.level", flags.Lookup("log-level"))
	viper.BindPFlag("log.format", flags.Lookup("log-format"))
	viper.BindPFlag("log.files", flags.Lookup("log-file"))
	viper.BindPFlag("sink.type", flags.Lookup("sink"))
	viper.BindPFlag("sink.dsn", flags.Lookup("sink-dsn"))
	viper.BindPFlag("metrics.addr", flags.Lookup("metrics-addr"))
	viper.BindPFlag("abort_on_error", flags.Lookup("abort-on-error"))
}

// setup loads and validates configuration and installs the logger.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	opts, err := cfg.LoggerOptions()
	if err != nil {
		return err
	}
	// Logs go to stderr so stdout carries only command output.
	opts.Stdout = cmd.ErrOrStderr()

	appConfig = cfg
	logger, closeLogger = telemetry.InitLogger(opts)
	return nil
}
