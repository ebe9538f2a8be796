package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/billdonner/server-monitor/cmd/commands/auth"
	"github.com/billdonner/server-monitor/cmd/commands/check"
	"github.com/billdonner/server-monitor/cmd/commands/dash"
	"github.com/billdonner/server-monitor/cmd/commands/serve"
	"github.com/billdonner/server-monitor/cmd/commands/targets"
	"github.com/billdonner/server-monitor/internal/collectors"
)

// rootCmd represents the base command when called without any subcommands.
func rootCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "server-monitor",
		Short: "A polling dashboard for heterogeneous server fleets",
		Long: `server-monitor polls a mixed fleet of services (HTTP apps, Redis,
PostgreSQL, Hetzner Cloud servers) on independent cadences and shows
their vitals in one place: a terminal dashboard, a JSON API, and
Prometheus metrics.

Targets are declared in a servers file (default config/servers.yaml).

Quick start:
  server-monitor targets               # Show the configured targets
  server-monitor check                 # One-shot poll of every target
  server-monitor dash                  # Live terminal dashboard
  server-monitor serve                 # Headless poller with HTTP API`,
	}

	cmd.AddCommand(auth.NewCommand())
	cmd.AddCommand(check.NewCommand())
	cmd.AddCommand(dash.NewCommand())
	cmd.AddCommand(serve.NewCommand())
	cmd.AddCommand(targets.NewCommand())

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	collectors.RegisterBuiltins()

	var root = rootCmd()
	err := root.Execute()
	if err != nil {
		os.Exit(1)
	}
}
