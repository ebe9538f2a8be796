// Package config loads the servers file that declares which targets to
// monitor.
//
// The file is YAML with one entry per target under a top-level "servers"
// key. Environment references like ${PG_DSN} are expanded in connection
// fields so credentials stay out of the file itself.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/billdonner/server-monitor/internal/domain"
)

// DefaultPath is where the serve and dash commands look for the servers
// file unless --config says otherwise.
const DefaultPath = "config/servers.yaml"

// defaultPollEvery applies to targets that do not set poll_every.
const defaultPollEvery = 5 * time.Second

type fileConfig struct {
	Servers []serverConfig `mapstructure:"servers"`
}

// serverConfig is the on-disk shape of one target. Durations are plain
// seconds, matching how operators think about poll cadences.
type serverConfig struct {
	Name      string  `mapstructure:"name"`
	Type      string  `mapstructure:"type"`
	PollEvery float64 `mapstructure:"poll_every"`
	WebURL    string  `mapstructure:"web_url"`

	MetricsEndpoint string `mapstructure:"metrics_endpoint"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`

	DSN         string        `mapstructure:"dsn"`
	SystemStats bool          `mapstructure:"system_stats"`
	Queries     []queryConfig `mapstructure:"queries"`

	Server string `mapstructure:"server"`
}

type queryConfig struct {
	Label     string   `mapstructure:"label"`
	SQL       string   `mapstructure:"sql"`
	PollEvery float64  `mapstructure:"poll_every"`
	Color     string   `mapstructure:"color"`
	WarnAbove *float64 `mapstructure:"warn_above"`
	WarnBelow *float64 `mapstructure:"warn_below"`
}

// Load reads the servers file at path and returns the targets in file
// order. File order is also registration order, which drives dashboard
// layout and health reporting.
func Load(path string) ([]domain.Target, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read servers file: %w", err)
	}

	var file fileConfig
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("cannot decode servers file: %w", err)
	}
	if len(file.Servers) == 0 {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrNoTargets)
	}

	targets := make([]domain.Target, 0, len(file.Servers))
	seen := make(map[string]bool, len(file.Servers))
	for i, sc := range file.Servers {
		target, err := sc.toTarget()
		if err != nil {
			return nil, fmt.Errorf("servers[%d]: %w", i, err)
		}
		if seen[target.Name] {
			return nil, fmt.Errorf("servers[%d]: duplicate server name %q", i, target.Name)
		}
		seen[target.Name] = true
		targets = append(targets, target)
	}
	return targets, nil
}

func (sc serverConfig) toTarget() (domain.Target, error) {
	if sc.Name == "" {
		return domain.Target{}, fmt.Errorf("name is required")
	}

	kind := sc.Type
	if kind == "" {
		kind = domain.KindHTTP
	}

	pollEvery := defaultPollEvery
	if sc.PollEvery < 0 {
		return domain.Target{}, fmt.Errorf("server %q: poll_every must be positive", sc.Name)
	}
	if sc.PollEvery > 0 {
		pollEvery = secondsToDuration(sc.PollEvery)
	}

	target := domain.Target{
		Name:            sc.Name,
		Kind:            kind,
		PollEvery:       pollEvery,
		WebURL:          os.ExpandEnv(sc.WebURL),
		MetricsEndpoint: os.ExpandEnv(sc.MetricsEndpoint),
		Host:            os.ExpandEnv(sc.Host),
		Port:            sc.Port,
		Password:        os.ExpandEnv(sc.Password),
		DSN:             os.ExpandEnv(sc.DSN),
		SystemStats:     sc.SystemStats,
		Server:          os.ExpandEnv(sc.Server),
	}

	labels := make(map[string]bool, len(sc.Queries))
	for i, qc := range sc.Queries {
		q, err := qc.toSubQuery(pollEvery)
		if err != nil {
			return domain.Target{}, fmt.Errorf("server %q queries[%d]: %w", sc.Name, i, err)
		}
		if labels[q.Label] {
			return domain.Target{}, fmt.Errorf("server %q: duplicate query label %q", sc.Name, q.Label)
		}
		labels[q.Label] = true
		target.SubQueries = append(target.SubQueries, q)
	}

	return target, nil
}

// toSubQuery converts one custom query. Its poll_every becomes the cache
// TTL; when unset the query refreshes at the target's own cadence.
func (qc queryConfig) toSubQuery(targetCadence time.Duration) (domain.SubQuery, error) {
	if qc.Label == "" {
		return domain.SubQuery{}, fmt.Errorf("label is required")
	}
	if qc.SQL == "" {
		return domain.SubQuery{}, fmt.Errorf("sql is required")
	}

	ttl := targetCadence
	if qc.PollEvery < 0 {
		return domain.SubQuery{}, fmt.Errorf("poll_every must be positive")
	}
	if qc.PollEvery > 0 {
		ttl = secondsToDuration(qc.PollEvery)
	}

	var color domain.Color
	if qc.Color != "" {
		c, ok := domain.ParseColor(qc.Color)
		if !ok {
			return domain.SubQuery{}, fmt.Errorf("unknown color %q", qc.Color)
		}
		color = c
	}

	return domain.SubQuery{
		Label:     qc.Label,
		SQL:       qc.SQL,
		TTL:       ttl,
		Color:     color,
		WarnAbove: qc.WarnAbove,
		WarnBelow: qc.WarnBelow,
	}, nil
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
