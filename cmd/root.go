package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/segloom/internal/config"
	"github.com/KaramelBytes/segloom/internal/dataset"
	"github.com/KaramelBytes/segloom/internal/logging"
	"github.com/KaramelBytes/segloom/internal/pipeline"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile      string
	debug        bool
	flagLogLevel string

	// Loaded configuration
	cfg    *cfgpkg.Global
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "segloom",
	Short: "Segloom: k-means customer segmentation with chart artifacts",
	Long: `Segloom validates a customer CSV (Age, Gender, Income, Spending Score),
groups customers into three segments with k-means and renders five PNG charts.
It runs one file, a batch of files, or an HTTP service.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.segloom/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{MaxUploadMB: 16, MaxRows: dataset.DefaultOptions().MaxRows, BatchJobs: 1, LogLevel: "info"}
	}
	cfg = c
	if rootCmd.PersistentFlags().Changed("log-level") && flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	logger = logging.Init(cfg.LogLevel, debug)
}

// newRunner builds a pipeline runner from the loaded configuration.
func newRunner() *pipeline.Runner {
	opt := dataset.DefaultOptions()
	if cfg != nil && cfg.MaxRows >= 0 {
		opt.MaxRows = cfg.MaxRows
	}
	return pipeline.NewRunner(pipeline.Options{Dataset: opt}, logger)
}
