// Package commands implements the CLI commands for the lmod-proxy server.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mitodl/lmod-proxy/internal/logger"
	"github.com/mitodl/lmod-proxy/pkg/config"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var configFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "lmod-proxy",
	Short: "Proxy edX gradebook requests to the MIT Learning Modules API",
	Long: `lmod-proxy bridges edx-platform and the MIT Learning Modules gradebook.

It accepts the edX remote gradebook form POST over HTTP basic authentication,
translates each action into certificate-authenticated calls against the
Learning Modules API, and normalizes the responses into the msg/data shape
edx-platform expects.

Use "lmod-proxy [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: searches ., ~/.config/lmod-proxy, /etc/lmod-proxy)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and validates the configuration honoring --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// initLogger initializes the structured logger from configuration.
func initLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}
