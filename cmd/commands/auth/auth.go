package auth

import (
	"github.com/spf13/cobra"
)

// tokenNames are the credential slots the collectors know how to use.
var tokenNames = []string{"hetzner"}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage API tokens for cloud collectors",
		Long: `Manage API tokens for cloud collectors.

Use this command group to store and remove tokens in the local keychain.`,
	}

	cmd.AddCommand(LoginCommand())
	cmd.AddCommand(StatusCommand())
	cmd.AddCommand(LogoutCommand())

	return cmd
}
