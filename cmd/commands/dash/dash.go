// Package dash implements the live terminal dashboard: the poll loops run
// in the background while a Bubbletea program renders the snapshot store.
package dash

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/billdonner/server-monitor/internal/collectors"
	"github.com/billdonner/server-monitor/internal/config"
	"github.com/billdonner/server-monitor/internal/logging"
	"github.com/billdonner/server-monitor/internal/scheduler"
	"github.com/billdonner/server-monitor/internal/secrets"
	"github.com/billdonner/server-monitor/internal/store"
	"github.com/billdonner/server-monitor/internal/tui"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Show the live terminal dashboard",
		Long: `Show the live terminal dashboard. Targets are polled in the
background on their configured cadences; press r to refresh everything
immediately, q to quit.

Example:
  server-monitor dash --config config/servers.yaml`,
		RunE:         runDash,
		SilenceUsage: true,
	}

	cmd.Flags().String("config", config.DefaultPath, "Path to the servers file")
	cmd.Flags().String("log-file", "", "Append JSON logs to this file (default: discard)")
	cmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")

	return cmd
}

func runDash(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	logFile, _ := cmd.Flags().GetString("log-file")
	logLevel, _ := cmd.Flags().GetString("log-level")

	// The TUI owns the terminal, so logs either go to a file or nowhere.
	log := zap.NewNop()
	if logFile != "" {
		var err error
		log, err = logging.NewFile(logLevel, logFile)
		if err != nil {
			return err
		}
		defer log.Sync()
	}

	targets, err := config.Load(configPath)
	if err != nil {
		return err
	}

	cs, err := collectors.BuildAll(targets, collectors.Deps{
		Tokens: secrets.DefaultStore(),
		Log:    log,
	})
	if err != nil {
		return err
	}

	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Target().Name
	}
	st := store.New(names)

	sched := scheduler.New(cs, st, nil, log)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	err = tui.RunDashboard(st, sched)

	cancel()
	<-done
	return err
}
