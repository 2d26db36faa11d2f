package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/brusilov1916/brusilov-map/internal/config"
	"github.com/brusilov1916/brusilov-map/internal/dataset"
	"github.com/brusilov1916/brusilov-map/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	AppName string = "brusilov_map"
)

// global variables
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	SessionStartTime time.Time = time.Now()
)

// flags
var (
	configDir string
	logLevel  string
	dataDir   string
)

var rootCmd = &cobra.Command{
	Use:           AppName,
	Short:         "Serve the Brusilov Offensive 1916 campaign map",
	Version:       fmt.Sprintf("%s (built %s)", CurrentVersion, BuildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory containing "+config.FileName)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logLevel (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "dataset directory (default: embedded dataset)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(phasesCmd)
	rootCmd.AddCommand(validateCmd)
}

// initConfig loads the config file and sets up console logging. Commands that
// need file or remote log outputs call setupLogging again.
func initConfig() {
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(logging.Options{Level: "info", Console: os.Stderr})
	Logger = SlogManager.Logger()

	if err := config.Load(configDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config", "dir", configDir)
	}
	if logLevel != "" {
		viper.Set("logLevel", logLevel)
	}
	if dataDir != "" {
		viper.Set("dataDir", dataDir)
	}

	SlogManager.Setup(logging.Options{Level: config.GetString("logLevel"), Console: os.Stderr})
	Logger = SlogManager.Logger()
}

// loadDataset reads the configured dataset and rejects inconsistent data.
func loadDataset() (*dataset.Dataset, error) {
	dir := config.GetString("dataDir")
	ds, err := dataset.Load(dir)
	if err != nil {
		return nil, err
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	source := dir
	if source == "" {
		source = "embedded"
	}
	Logger.Info("Dataset loaded", "source", source, "version", ds.Version,
		"movements", len(ds.Movements), "cities", len(ds.Cities))
	return ds, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if Logger != nil {
			Logger.Error("Command failed", "error", err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
