package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/rxivlink/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the configuration rxl commands run with.

Values come from, in increasing precedence:
  built-in defaults
  the config file (--config, or ~/.config/rxl/config.yml)
  a .env file in the working directory
  RXL_* environment variables (e.g. RXL_CROSSREF_MAILTO)

Example config.yml:
  crossref_mailto: you@example.org
  requests_per_second: 1
  search_rows: 10
  timeout_seconds: 15`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

// ConfigResponse is the response for the config command.
type ConfigResponse struct {
	Path string `json:"path"`
	config.Config
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	path := configPath
	if path == "" {
		path = config.GlobalConfigPath()
	}

	if humanOutput {
		fmt.Printf("config file:         %s\n", path)
		fmt.Printf("crossref_mailto:     %s\n", cfg.CrossrefMailto)
		fmt.Printf("crossref_base_url:   %s\n", cfg.CrossrefBaseURL)
		fmt.Printf("biorxiv_base_url:    %s\n", cfg.BiorxivBaseURL)
		fmt.Printf("requests_per_second: %v\n", cfg.RequestsPerSecond)
		fmt.Printf("search_rows:         %d\n", cfg.SearchRows)
		fmt.Printf("timeout_seconds:     %d\n", cfg.TimeoutSeconds)
		return nil
	}
	return outputJSON(ConfigResponse{Path: path, Config: *cfg})
}
