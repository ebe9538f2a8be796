package collectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/billdonner/server-monitor/internal/domain"
)

// httpFetchTimeout bounds one metrics endpoint request.
const httpFetchTimeout = 5 * time.Second

// HTTPCollector polls services exposing GET <metrics_endpoint> returning a
// JSON body of the form {"metrics":[{key,label,value,...}]}.
type HTTPCollector struct {
	target domain.Target
	client *http.Client
}

// metricsPayload is the wire shape of a metrics endpoint response. The
// optional version and uptime fields let instrumented services fill the
// snapshot header.
type metricsPayload struct {
	Version       string                `json:"version"`
	UptimeSeconds int64                 `json:"uptime_seconds"`
	Metrics       []domain.MetricSample `json:"metrics"`
}

func newHTTPCollector(target domain.Target, _ Deps) (Collector, error) {
	if target.MetricsEndpoint == "" {
		return nil, fmt.Errorf("target %q: metrics_endpoint is required for http targets", target.Name)
	}
	return &HTTPCollector{
		target: target,
		client: &http.Client{Timeout: httpFetchTimeout},
	}, nil
}

func (c *HTTPCollector) Target() domain.Target { return c.target }

func (c *HTTPCollector) Collect(ctx context.Context) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.target.MetricsEndpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metrics request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metrics endpoint returned %d", resp.StatusCode)
	}

	var payload metricsPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode metrics response: %w", err)
	}

	// Normalize: the metrics key may be absent on an otherwise valid body.
	samples := payload.Metrics
	if samples == nil {
		samples = []domain.MetricSample{}
	}

	return &Result{
		Version:       payload.Version,
		UptimeSeconds: payload.UptimeSeconds,
		Samples:       samples,
	}, nil
}
