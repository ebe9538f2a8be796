package auth

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/billdonner/server-monitor/internal/domain"
	"github.com/billdonner/server-monitor/internal/secrets"
)

func StatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which tokens are stored",
		Long: `Show which tokens are stored in the local keychain.

Example:
  server-monitor auth status`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := secrets.DefaultStore()

			for _, name := range tokenNames {
				_, err := store.GetToken(name)
				switch {
				case err == nil:
					fmt.Fprintf(cmd.OutOrStdout(), "%s: stored\n", name)
				case errors.Is(err, domain.ErrTokenNotFound):
					fmt.Fprintf(cmd.OutOrStdout(), "%s: not stored\n", name)
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "%s: error (%v)\n", name, err)
				}
			}
			return nil
		},
		SilenceUsage: true,
	}

	return cmd
}
