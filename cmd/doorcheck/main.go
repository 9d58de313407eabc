package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"doorway/internal/config"
	"doorway/internal/logger"
	"doorway/internal/store"
)

var (
	cfgFile   string
	appConfig *config.Config
	appLogger *slog.Logger
	appStore  *store.Store
)

func main() {
	configPath := os.Getenv("DOORCHECK_CONFIG")
	if configPath == "" {
		configPath = "doorcheck.yml"
	}

	var rootCmd = &cobra.Command{
		Use:     "doorcheck",
		Short:   "Door host harness: inspect dropfiles, serve doors for testing",
		Version: "0.1.000",
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", configPath, "config file")

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// boot loads configuration, wires the logger, and opens the history
// store. Subcommands that want no log output pass quiet=true.
func boot(quiet bool) error {
	newConfig, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	appConfig = newConfig

	appLogger = logger.Setup(appConfig.Loggers, quiet)

	dir := appConfig.Paths.Data
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data path: %w", err)
	}

	newStore, err := store.New(filepath.Clean(filepath.Join(dir, "doorcheck.sqlite3")), quiet)
	if err != nil {
		return fmt.Errorf("failed to open the history store: %w", err)
	}

	if appStore != nil {
		if err := appStore.Close(); err != nil {
			appLogger.Error("Failed to close existing store", "err", err)
		}
	}
	appStore = newStore

	if !quiet {
		appLogger.Info("Successfully loaded configuration", "file", cfgFile)
	}
	return nil
}
