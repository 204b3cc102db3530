// Package commands implements the CLI commands for the lmod-proxyctl client.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mitodl/lmod-proxy/internal/cli/prompt"
	"github.com/mitodl/lmod-proxy/pkg/proxyclient"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var flags struct {
	server    string
	username  string
	password  string
	gradebook string
	user      string
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "lmod-proxyctl",
	Short: "Command-line client for lmod-proxy",
	Long: `lmod-proxyctl exercises a running lmod-proxy instance from the
command line: list sections, assignments, and students, or upload a grade
spreadsheet, exactly as edx-platform would.

Use "lmod-proxyctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flags.server, "server", "http://localhost:5000", "lmod-proxy base URL")
	rootCmd.PersistentFlags().StringVar(&flags.username, "username", "", "Basic auth username (LMODP_CTL_USERNAME)")
	rootCmd.PersistentFlags().StringVar(&flags.password, "password", "", "Basic auth password (LMODP_CTL_PASSWORD; prompted when empty)")
	rootCmd.PersistentFlags().StringVar(&flags.gradebook, "gradebook", "", "Remote gradebook id")
	rootCmd.PersistentFlags().StringVar(&flags.user, "user", "", "Requesting user's email address")

	rootCmd.AddCommand(sectionsCmd)
	rootCmd.AddCommand(assignmentsCmd)
	rootCmd.AddCommand(membershipCmd)
	rootCmd.AddCommand(gradesCmd)
	rootCmd.AddCommand(versionCmd)
}

// getClient builds an authenticated client from flags and environment.
func getClient() (*proxyclient.Client, error) {
	username := flags.username
	if username == "" {
		username = os.Getenv("LMODP_CTL_USERNAME")
	}
	if username == "" {
		return nil, fmt.Errorf("no username given (use --username or LMODP_CTL_USERNAME)")
	}

	password := flags.password
	if password == "" {
		password = os.Getenv("LMODP_CTL_PASSWORD")
	}
	if password == "" {
		var err error
		password, err = prompt.Password("Password")
		if err != nil {
			return nil, err
		}
	}

	return proxyclient.New(flags.server).WithBasicAuth(username, password), nil
}

// requireGradebook validates the flags every action needs.
func requireGradebook() error {
	if flags.gradebook == "" {
		return fmt.Errorf("no gradebook given (use --gradebook)")
	}
	if flags.user == "" {
		return fmt.Errorf("no user email given (use --user)")
	}
	return nil
}
