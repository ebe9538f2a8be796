// Package store holds the latest complete snapshot for every registered
// target. It is the single piece of state shared between the poll loops
// and the consumers (terminal dashboard, read API, health aggregation).
//
// Concurrency discipline: updates are atomic whole-entry replacements
// under a write lock, so concurrent readers never observe a torn write.
// A candidate snapshot only replaces the stored one when its producer
// timestamp is strictly newer, which keeps a slow stale fetch (scheduled
// or manual) from clobbering a fresher result.
package store

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/billdonner/server-monitor/internal/domain"
)

// Store maps target names to their current snapshots. Target registration
// happens once at construction; the name set and its order never change
// afterwards.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]domain.Snapshot
	order     []string

	polls   atomic.Int64
	started time.Time
}

// New creates a store for the given targets, in registration order.
func New(names []string) *Store {
	order := make([]string, len(names))
	copy(order, names)
	return &Store{
		snapshots: make(map[string]domain.Snapshot, len(names)),
		order:     order,
		started:   time.Now(),
	}
}

// Publish offers a candidate snapshot. It is accepted, replacing the
// stored entry wholesale, only when no snapshot exists yet for the target
// or the candidate's ProducedAt is strictly newer than the stored one.
// Every call counts as one completed poll cycle regardless of acceptance.
func (s *Store) Publish(snap domain.Snapshot) bool {
	s.polls.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.snapshots[snap.TargetName]; ok && !snap.ProducedAt.After(cur.ProducedAt) {
		return false
	}
	s.snapshots[snap.TargetName] = snap
	return true
}

// Get returns the current snapshot for a target, if one has been published.
func (s *Store) Get(name string) (domain.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[name]
	return snap, ok
}

// List returns all published snapshots in registration order. Targets that
// have not completed a cycle yet are absent.
func (s *Store) List() []domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Snapshot, 0, len(s.snapshots))
	for _, name := range s.order {
		if snap, ok := s.snapshots[name]; ok {
			out = append(out, snap)
		}
	}
	return out
}

// Names returns the registered target names in registration order.
func (s *Store) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// TotalPolls returns the number of completed poll cycles since startup.
func (s *Store) TotalPolls() int64 { return s.polls.Load() }

// Uptime returns how long the store (and so the process) has been running.
func (s *Store) Uptime() time.Duration { return time.Since(s.started) }
