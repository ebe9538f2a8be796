package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/billdonner/server-monitor/internal/domain"
	"github.com/billdonner/server-monitor/internal/secrets"
)

func LogoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout <name>",
		Short: "Remove a stored API token",
		Long: `Remove a stored API token from the local keychain.

Example:
  server-monitor auth logout hetzner`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])

			force, _ := cmd.Flags().GetBool("force")
			if !force {
				var confirmed bool
				err := huh.NewConfirm().
					Title(fmt.Sprintf("Remove the stored %q token?", name)).
					Affirmative("Remove").
					Negative("Cancel").
					Value(&confirmed).
					Run()
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.ErrOrStderr(), "Logout cancelled.")
					return nil
				}
			}

			store := secrets.DefaultStore()
			if err := store.DeleteToken(name); err != nil {
				if errors.Is(err, domain.ErrTokenNotFound) {
					fmt.Fprintf(cmd.OutOrStdout(), "No token stored for %s\n", name)
					return nil
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed token %s\n", name)
			return nil
		},
		SilenceUsage: true,
	}

	cmd.Flags().Bool("force", false, "Skip the confirmation prompt")

	return cmd
}
