package collectors

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/billdonner/server-monitor/internal/domain"
)

// redisSocketTimeout bounds dial and read on the INFO command.
const redisSocketTimeout = 3 * time.Second

const bytesPerMB = 1 << 20

// RedisCollector polls a Redis server using the native INFO command.
type RedisCollector struct {
	target domain.Target
	client *redis.Client
}

func newRedisCollector(target domain.Target, _ Deps) (Collector, error) {
	host := target.Host
	if host == "" {
		host = "localhost"
	}
	port := target.Port
	if port == 0 {
		port = 6379
	}

	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%d", host, port),
		Password:    target.Password,
		DialTimeout: redisSocketTimeout,
		ReadTimeout: redisSocketTimeout,
	})
	return &RedisCollector{target: target, client: client}, nil
}

func (c *RedisCollector) Target() domain.Target { return c.target }

func (c *RedisCollector) Collect(ctx context.Context) (*Result, error) {
	raw, err := c.client.Info(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("redis info: %w", err)
	}
	info := parseRedisInfo(raw)

	samples := []domain.MetricSample{
		{
			Key:       "connected_clients",
			Label:     "Connected Clients",
			Value:     domain.Number(infoFloat(info, "connected_clients")),
			Unit:      "clients",
			WarnAbove: domain.Threshold(100),
		},
		{
			Key:       "used_memory_mb",
			Label:     "Memory Used",
			Value:     domain.Number(roundTenth(infoFloat(info, "used_memory") / bytesPerMB)),
			Unit:      "MB",
			WarnAbove: domain.Threshold(512),
		},
		{
			Key:   "used_memory_peak_mb",
			Label: "Memory Peak",
			Value: domain.Number(roundTenth(infoFloat(info, "used_memory_peak") / bytesPerMB)),
			Unit:  "MB",
		},
		{
			Key:   "ops_per_sec",
			Label: "Ops/sec",
			Value: domain.Number(infoFloat(info, "instantaneous_ops_per_sec")),
			Unit:  "ops/s",
		},
		{
			Key:   "total_connections",
			Label: "Total Connections",
			Value: domain.Number(infoFloat(info, "total_connections_received")),
			Unit:  "count",
		},
		{
			Key:   "keyspace_hits",
			Label: "Keyspace Hits",
			Value: domain.Number(infoFloat(info, "keyspace_hits")),
			Unit:  "count",
		},
		{
			Key:   "keyspace_misses",
			Label: "Keyspace Misses",
			Value: domain.Number(infoFloat(info, "keyspace_misses")),
			Unit:  "count",
		},
	}

	// Hit rate is derived; a server that has served no lookups yet gets no
	// hit rate metric at all rather than a misleading zero.
	hits := infoFloat(info, "keyspace_hits")
	misses := infoFloat(info, "keyspace_misses")
	if rate, ok := domain.Percent(hits, hits+misses, 1); ok {
		samples = append(samples, domain.MetricSample{
			Key:       "hit_rate",
			Label:     "Hit Rate",
			Value:     domain.Number(rate),
			Unit:      "%",
			WarnBelow: domain.Threshold(90),
		})
	}

	role := info["role"]
	if role == "" {
		role = "unknown"
	}
	samples = append(samples, domain.MetricSample{
		Key:   "role",
		Label: "Role",
		Value: domain.Text(role),
	})

	return &Result{
		Version:       info["redis_version"],
		UptimeSeconds: int64(infoFloat(info, "uptime_in_seconds")),
		Samples:       samples,
	}, nil
}

// parseRedisInfo splits an INFO response into a flat key/value map,
// ignoring section headers and blank lines.
func parseRedisInfo(raw string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		out[key] = value
	}
	return out
}

func infoFloat(info map[string]string, key string) float64 {
	v, err := strconv.ParseFloat(info[key], 64)
	if err != nil {
		return 0
	}
	return v
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
