// Package main provides the rxl CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/rxivlink/internal/config"
	"github.com/matsen/rxivlink/internal/logging"
	"github.com/matsen/rxivlink/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	verbose     bool
	configPath  string
)

func main() {
	// Print the error since we have SilenceErrors: true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rxl",
	Short: "Link bioRxiv preprints to their published versions",
	Long: `rxl links preprint revisions to publisher records.

Pipeline:
  - Fetch revision metadata from the bioRxiv/medRxiv API
  - Reduce revisions to the first and latest version of each preprint
  - Look up published DOIs on Crossref and search titles for missing links
  - Score author overlap and classify each record
  - Reconcile publication dates and compute day metrics

Results are written as CSV and JSONL, and can be exported to SQLite for queries.
All commands output JSON by default; logs go to stderr.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug messages")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/rxl/config.yml)")
	rootCmd.Version = Version
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustNewLogger builds the stderr logger for a command, exits on error.
// The caller should Sync the returned logger.
func mustNewLogger() *zap.Logger {
	log, err := logging.New(verbose, humanOutput)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	return log
}

// mustOpenDatabase opens the SQLite database, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(path string) *storage.DB {
	db, err := storage.OpenDB(path)
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}
