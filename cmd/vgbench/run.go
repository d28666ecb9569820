package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vgbench/internal/benchmark"
	"vgbench/internal/render"
)

// openRenderer is replaced in tests.
var openRenderer = func(path string) (render.Renderer, error) { return render.Open(path) }

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Time frame rendering through a renderer plugin",
	Long: `Loads the renderer plugin named by render.plugin, renders every document in
render.input_dir for render.frames frames, and records per-frame timings while
the heartbeat, CPU and memory monitors sample the system.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("plugin", "", "Renderer plugin (.so) exporting Init, Stage and Render")
	runCmd.Flags().StringP("input", "i", "", "Directory of documents to render")
	runCmd.Flags().Int("frames", 0, "Frames rendered per document (default 500)")
	runCmd.Flags().StringSlice("ext", []string{".svg"}, "Document extensions to load")

	viper.BindPFlag("render.plugin", runCmd.Flags().Lookup("plugin"))
	viper.BindPFlag("render.input_dir", runCmd.Flags().Lookup("input"))
	viper.BindPFlag("render.frames", runCmd.Flags().Lookup("frames"))
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := appConfig.Render
	if cfg.Plugin == "" {
		return errors.New("no renderer configured: set render.plugin or pass --plugin (try 'vgbench demo')")
	}
	exts, _ := cmd.Flags().GetStringSlice("ext")

	docs, err := render.LoadDocuments(cfg.InputDir, exts...)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents found in %s", cfg.InputDir)
	}

	renderer, err := openRenderer(cfg.Plugin)
	if err != nil {
		return err
	}

	workload := render.FrameTimes{Renderer: renderer, Documents: docs, Frames: cfg.Frames}
	bench := benchmark.New("frame times", workload.Workload())
	if err := bench.Add(systemMonitors(appConfig)...); err != nil {
		return err
	}

	logger.Info("Rendering documents", "documents", len(docs), "frames", cfg.Frames, "plugin", cfg.Plugin)
	return runBenchmarks(cmd, bench)
}
