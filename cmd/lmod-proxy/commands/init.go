package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mitodl/lmod-proxy/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Write a configuration file populated with default values.

Examples:
  # Write lmod_proxy.yaml in the user config directory
  lmod-proxy init

  # Write to a custom location
  lmod-proxy init --config /etc/lmod-proxy/lmod_proxy.yaml

  # Overwrite an existing file
  lmod-proxy init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to resolve home directory: %w", err)
		}
		path = filepath.Join(home, ".config", "lmod-proxy", "lmod_proxy.yaml")
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := config.SaveConfig(config.GetDefaultConfig(), path); err != nil {
		return err
	}

	fmt.Printf("Configuration file created at: %s\n", path)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Point auth.htpasswd_path at your htpasswd file (create entries with: lmod-proxy user hash)")
	fmt.Println("  2. Point gradebook.cert at your combined key-and-certificate PEM file")
	fmt.Printf("  3. Start the server with: lmod-proxy serve --config %s\n", path)
	return nil
}
