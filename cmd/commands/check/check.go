// Package check implements a one-shot poll of every target, for smoke
// tests and cron-style alerting.
package check

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/billdonner/server-monitor/internal/collectors"
	"github.com/billdonner/server-monitor/internal/config"
	"github.com/billdonner/server-monitor/internal/secrets"
)

const checkTimeout = 10 * time.Second

type result struct {
	name    string
	metrics int
	err     error
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Poll every target once and report reachability",
		Long: `Poll every target once, concurrently, and print one line per
target. Exits non-zero if any target failed, which makes it usable from
cron or CI.

Example:
  server-monitor check --config config/servers.yaml`,
		RunE:         runCheck,
		SilenceUsage: true,
	}

	cmd.Flags().String("config", config.DefaultPath, "Path to the servers file")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	targets, err := config.Load(configPath)
	if err != nil {
		return err
	}

	cs, err := collectors.BuildAll(targets, collectors.Deps{
		Tokens: secrets.DefaultStore(),
		Log:    zap.NewNop(),
	})
	if err != nil {
		return err
	}

	results := make([]result, len(cs))

	accessible := os.Getenv("ACCESSIBLE") != ""
	spinErr := spinner.New().
		Title(fmt.Sprintf("Checking %d targets...", len(cs))).
		Accessible(accessible).
		Output(cmd.ErrOrStderr()).
		Action(func() {
			ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
			defer cancel()

			g, ctx := errgroup.WithContext(ctx)
			for i, c := range cs {
				i, c := i, c
				g.Go(func() error {
					res, err := c.Collect(ctx)
					r := result{name: c.Target().Name, err: err}
					if err == nil {
						r.metrics = len(res.Samples)
					}
					results[i] = r
					return nil
				})
			}
			g.Wait()
		}).
		Run()
	if spinErr != nil {
		return spinErr
	}

	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(cmd.OutOrStdout(), "FAIL  %-20s %v\n", r.name, r.err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "OK    %-20s %d metrics\n", r.name, r.metrics)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d targets failed", failed, len(results))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "All %d targets reachable.\n", len(results))
	return nil
}
