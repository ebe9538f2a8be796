package domain

import "time"

// Target kinds understood by the collector registry.
const (
	KindHTTP     = "http"
	KindRedis    = "redis"
	KindPostgres = "postgres"
	KindHetzner  = "hetzner"
)

// Target describes one monitored endpoint. Targets are built from the
// servers file at startup and never mutated afterwards; the kind-specific
// connection fields mirror the flat per-server layout of the config.
type Target struct {
	Name      string
	Kind      string
	PollEvery time.Duration

	// WebURL is an optional link to the service's own UI, passed through
	// to renderers untouched.
	WebURL string

	// http
	MetricsEndpoint string

	// redis
	Host     string
	Port     int
	Password string

	// postgres
	DSN         string
	SystemStats bool
	SubQueries  []SubQuery

	// hetzner
	Server string
}

// SubQuery is an optional, independently cached probe attached to a target.
// Its TTL is decoupled from the target's own cadence so an expensive query
// can refresh every minute while the rest of the target polls every five
// seconds.
type SubQuery struct {
	Label     string
	SQL       string
	TTL       time.Duration
	Color     Color
	WarnAbove *float64
	WarnBelow *float64
}
