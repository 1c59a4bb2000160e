package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/metrotraffic/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "traffic",
	Short:        "Metro Interstate traffic volume prediction",
	SilenceUsage: true,
}

func init() {
	rootCmd.RunE = runServe
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig reads the configuration file. The default file is optional:
// when absent, defaults and K_ environment overrides apply.
func loadConfig() (*config.Config, error) {
	path := cfgPath
	if !rootCmd.PersistentFlags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
