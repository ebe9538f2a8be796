package collectors

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/billdonner/server-monitor/internal/domain"
)

// cpuMetricsWindow is how far back the CPU series is requested; only the
// most recent point is kept.
const cpuMetricsWindow = 5 * time.Minute

// HetznerCollector polls a Hetzner Cloud server through the vendor API:
// cloud-side status plus the latest CPU reading. The API token comes from
// the OS keyring (server-monitor auth login hetzner).
type HetznerCollector struct {
	target domain.Target
	client *hcloud.Client
}

func newHetznerCollector(target domain.Target, deps Deps) (Collector, error) {
	if target.Server == "" {
		return nil, fmt.Errorf("target %q: server is required for hetzner targets", target.Name)
	}
	if deps.Tokens == nil {
		return nil, fmt.Errorf("target %q: no token source configured", target.Name)
	}

	token, err := deps.Tokens.GetToken(domain.KindHetzner)
	if err != nil {
		return nil, fmt.Errorf("target %q: hetzner token: %w", target.Name, err)
	}

	return &HetznerCollector{
		target: target,
		client: hcloud.NewClient(hcloud.WithToken(token)),
	}, nil
}

func (c *HetznerCollector) Target() domain.Target { return c.target }

func (c *HetznerCollector) Collect(ctx context.Context) (*Result, error) {
	server, _, err := c.client.Server.GetByName(ctx, c.target.Server)
	if err != nil {
		return nil, fmt.Errorf("get server: %w", err)
	}
	if server == nil {
		return nil, fmt.Errorf("server %q not found", c.target.Server)
	}

	samples := []domain.MetricSample{
		{
			Key:   "status",
			Label: "Status",
			Value: domain.Text(string(server.Status)),
			Color: statusColor(server.Status),
		},
	}
	if server.ServerType != nil {
		samples = append(samples, domain.MetricSample{
			Key:   "server_type",
			Label: "Server Type",
			Value: domain.Text(server.ServerType.Name),
		})
	}
	if server.Datacenter != nil {
		samples = append(samples, domain.MetricSample{
			Key:   "datacenter",
			Label: "Datacenter",
			Value: domain.Text(server.Datacenter.Name),
		})
	}

	var uptime int64
	if server.Status == hcloud.ServerStatusRunning {
		uptime = int64(time.Since(server.Created).Seconds())

		if cpu, ok := c.latestCPU(ctx, server); ok {
			samples = append(samples, domain.MetricSample{
				Key:       "cpu_percent",
				Label:     "CPU",
				Value:     domain.Number(cpu),
				Unit:      "%",
				WarnAbove: domain.Threshold(80),
			})
		}
	}

	version := ""
	if server.Image != nil {
		version = server.Image.Name
	}

	return &Result{
		Version:       version,
		UptimeSeconds: uptime,
		Samples:       samples,
	}, nil
}

// latestCPU fetches the most recent CPU percentage. A metrics failure is
// treated as a missing optional measurement, not a fetch failure.
func (c *HetznerCollector) latestCPU(ctx context.Context, server *hcloud.Server) (float64, bool) {
	end := time.Now()
	metrics, _, err := c.client.Server.GetMetrics(ctx, server, hcloud.ServerGetMetricsOpts{
		Types: []hcloud.ServerMetricType{hcloud.ServerMetricCPU},
		Start: end.Add(-cpuMetricsWindow),
		End:   end,
		Step:  int(cpuMetricsWindow.Seconds() / 60),
	})
	if err != nil || metrics == nil {
		return 0, false
	}

	series, ok := metrics.TimeSeries["cpu"]
	if !ok || len(series) == 0 {
		return 0, false
	}

	last := series[len(series)-1]
	v, err := strconv.ParseFloat(last.Value, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func statusColor(status hcloud.ServerStatus) domain.Color {
	switch status {
	case hcloud.ServerStatusRunning:
		return domain.ColorGreen
	case hcloud.ServerStatusOff:
		return domain.ColorRed
	default:
		return domain.ColorYellow
	}
}
