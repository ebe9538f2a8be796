// Package targets implements the target listing command.
package targets

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/billdonner/server-monitor/internal/config"
	"github.com/billdonner/server-monitor/internal/domain"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "List the configured targets",
		Long: `List the targets declared in the servers file, without polling
anything.

Example:
  server-monitor targets --config config/servers.yaml`,
		RunE:         runTargets,
		SilenceUsage: true,
	}

	cmd.Flags().String("config", config.DefaultPath, "Path to the servers file")
	cmd.Flags().String("output", "table", "Output format (table, json)")

	return cmd
}

func runTargets(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	output, _ := cmd.Flags().GetString("output")

	targets, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if output == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(targets)
	}

	printTargetsTable(cmd, targets)
	return nil
}

func printTargetsTable(cmd *cobra.Command, targets []domain.Target) {
	// Leave room for the fixed columns when truncating endpoints.
	endpointWidth := 48
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 60 {
			endpointWidth = w - 50
		}
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tPOLL\tQUERIES\tENDPOINT")

	for _, t := range targets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			t.Name,
			t.Kind,
			t.PollEvery,
			len(t.SubQueries),
			ansi.Truncate(endpoint(t), endpointWidth, "…"),
		)
	}
	w.Flush()
}

// endpoint summarizes where a target points, with credentials elided.
func endpoint(t domain.Target) string {
	switch t.Kind {
	case domain.KindHTTP:
		return t.MetricsEndpoint
	case domain.KindRedis:
		host := t.Host
		if host == "" {
			host = "localhost"
		}
		port := t.Port
		if port == 0 {
			port = 6379
		}
		return fmt.Sprintf("%s:%d", host, port)
	case domain.KindPostgres:
		return redactDSN(t.DSN)
	case domain.KindHetzner:
		return "hcloud:" + t.Server
	default:
		return ""
	}
}

// redactDSN strips the password from a URL-style DSN for display.
func redactDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at == -1 {
		return dsn
	}
	scheme := strings.Index(dsn, "://")
	if scheme == -1 {
		return dsn
	}
	userinfo := dsn[scheme+3 : at]
	if colon := strings.Index(userinfo, ":"); colon != -1 {
		userinfo = userinfo[:colon] + ":***"
	}
	return dsn[:scheme+3] + userinfo + dsn[at:]
}
