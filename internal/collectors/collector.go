// Package collectors contains the protocol-specific adapters that fetch raw
// measurements from monitored targets, plus the registry that maps target
// kinds to adapter factories.
//
// Collectors implement a single capability: Collect fetches the target's
// current state and returns raw samples. A Collect error means the target
// is unreachable; partial failures inside an otherwise successful fetch
// (one custom query erroring) are reported as degraded samples in the
// result instead, so the rest of the snapshot survives.
package collectors

import (
	"context"

	"github.com/billdonner/server-monitor/internal/domain"
)

// Result is the raw outcome of one successful fetch, before history and
// publication are applied by the scheduler.
type Result struct {
	Version       string
	UptimeSeconds int64
	Samples       []domain.MetricSample
}

// Collector fetches current measurements for exactly one target.
// Implementations must respect context cancellation and deadlines and must
// be safe for use from the scheduled loop and a concurrent manual refresh.
type Collector interface {
	// Target returns the immutable target this collector was built for.
	Target() domain.Target

	// Collect fetches current metrics. An error return marks the target
	// unreachable for this cycle; it must never panic.
	Collect(ctx context.Context) (*Result, error)
}
