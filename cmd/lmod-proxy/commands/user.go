package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/mitodl/lmod-proxy/internal/cli/output"
	"github.com/mitodl/lmod-proxy/internal/cli/prompt"
	"github.com/mitodl/lmod-proxy/pkg/htpasswd"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Credential management",
	Long: `Manage the htpasswd credentials accepted by the proxy.

Examples:
  # Generate an htpasswd line for a new user
  lmod-proxy user hash staff

  # Append it to the credentials file
  lmod-proxy user hash staff >> /etc/lmod-proxy/htpasswd

  # List the users in the configured credentials file
  lmod-proxy user list`,
}

var userHashCmd = &cobra.Command{
	Use:   "hash <username>",
	Short: "Generate an htpasswd entry",
	Long: `Prompt for a password and print a username:bcrypt-hash line suitable
for the htpasswd file. Equivalent to htpasswd -nB.`,
	Args: cobra.ExactArgs(1),
	RunE: runUserHash,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users in the configured htpasswd file",
	RunE:  runUserList,
}

func init() {
	userCmd.AddCommand(userHashCmd)
	userCmd.AddCommand(userListCmd)
}

func runUserHash(cmd *cobra.Command, args []string) error {
	username := args[0]

	password, err := prompt.PasswordWithConfirmation("Password", "Confirm password", 8)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	fmt.Printf("%s:%s\n", username, hash)
	return nil
}

func runUserList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.Auth.HtpasswdPath == "" {
		return fmt.Errorf("no htpasswd file configured (set auth.htpasswd_path)")
	}

	store := htpasswd.New(cfg.Auth.HtpasswdPath)

	table := output.NewTableData("USERNAME")
	for _, user := range store.Users() {
		table.AddRow(user)
	}
	return output.PrintTable(os.Stdout, table)
}
