package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vidyalab/vidya"
	"github.com/vidyalab/vidya/config"
)

const version = "0.1.0"

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "vidya",
	Short: "Offline textbook question answering",
	Long: `Vidya answers textbook questions entirely offline. A corpus is built
once into an immutable bundle; questions are answered against it with a
local embedding model and generator, and every answer is either grounded
in cited corpus chunks or an explicit refusal.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// loadConfig resolves the effective configuration: defaults, optionally
// overlaid by --config.
func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func newLogger() *vidya.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return vidya.NewTextLogger(level)
}
