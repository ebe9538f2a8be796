// Package serve implements the headless poller: every target's loop runs
// under one process with the JSON API and Prometheus metrics exposed over
// HTTP.
package serve

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/billdonner/server-monitor/internal/collectors"
	"github.com/billdonner/server-monitor/internal/config"
	"github.com/billdonner/server-monitor/internal/logging"
	"github.com/billdonner/server-monitor/internal/metrics"
	"github.com/billdonner/server-monitor/internal/scheduler"
	"github.com/billdonner/server-monitor/internal/secrets"
	"github.com/billdonner/server-monitor/internal/store"
	"github.com/billdonner/server-monitor/internal/web"
)

const shutdownGrace = 10 * time.Second

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the poller with the HTTP API, without a terminal UI",
		Long: `Run the poller headless. Every configured target is polled on its
own cadence; results are exposed as JSON under /api and as Prometheus
metrics under /metrics.

Example:
  server-monitor serve --config config/servers.yaml --listen :8080`,
		RunE:         runServe,
		SilenceUsage: true,
	}

	cmd.Flags().String("config", config.DefaultPath, "Path to the servers file")
	cmd.Flags().String("listen", ":8080", "HTTP listen address")
	cmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	listen, _ := cmd.Flags().GetString("listen")
	logLevel, _ := cmd.Flags().GetString("log-level")

	log, err := logging.New(logLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

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

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.SetTargetCounts(len(cs), 0, 0)

	sched := scheduler.New(cs, st, m, log)
	srv := web.NewServer(listen, st, sched, reg, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting poller",
		zap.Int("targets", len(cs)),
		zap.String("listen", listen),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(ctx)
	})
	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		return srv.Stop(shutdownGrace)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
