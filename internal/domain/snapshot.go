package domain

import "time"

// Snapshot is the latest complete result for one target. Snapshots are
// immutable once published; every poll cycle replaces the previous one
// wholesale, so readers never see a half-written update.
type Snapshot struct {
	TargetName    string         `json:"target_name"`
	Reachable     bool           `json:"reachable"`
	Version       string         `json:"version,omitempty"`
	UptimeSeconds int64          `json:"uptime_seconds,omitempty"`
	Metrics       []MetricSample `json:"metrics"`
	Error         string         `json:"error,omitempty"`

	// ObservedAt is the wall-clock completion time, for display.
	ObservedAt time.Time `json:"observed_at"`

	// ProducedAt is the monotonic completion reading of the fetch that
	// produced this snapshot. The store only replaces an entry with a
	// candidate whose ProducedAt is strictly newer, which is what keeps a
	// slow stale fetch from clobbering a fresher result.
	ProducedAt time.Time `json:"-"`
}

// UnreachableSnapshot builds the snapshot published when a fetch fails
// outright: no metrics, the error text retained, reachable=false.
func UnreachableSnapshot(targetName string, err error) Snapshot {
	now := time.Now()
	return Snapshot{
		TargetName: targetName,
		Reachable:  false,
		Metrics:    []MetricSample{},
		Error:      err.Error(),
		ObservedAt: now,
		ProducedAt: now,
	}
}
