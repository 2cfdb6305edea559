package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"melechmcp/internal/config"
	"melechmcp/internal/logging"
)

var (
	flagConfig   string
	flagLogLevel string
)

// cfg is loaded before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "melechmcp",
	Short:         "MCP tool servers, indexes and JUCE documentation search for MelechDSP",
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		if flagLogLevel != "" {
			c.LogLevel = flagLogLevel
		}
		cfg = c
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBrowse()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "TOML config file (default config/local_paths.toml if present)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "debug, info, warn or error (default from config)")
}

// newLogger returns the stderr logger for a command or server.
func newLogger(name string) (*zap.Logger, error) {
	return logging.New(name, cfg.LogLevel)
}
