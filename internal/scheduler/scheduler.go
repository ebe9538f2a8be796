// Package scheduler runs the per-target poll loops that feed the snapshot
// store. Each target gets its own goroutine with its own cadence; a slow
// database never delays a fast Redis poll.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/billdonner/server-monitor/internal/collectors"
	"github.com/billdonner/server-monitor/internal/domain"
	"github.com/billdonner/server-monitor/internal/health"
	"github.com/billdonner/server-monitor/internal/metrics"
	"github.com/billdonner/server-monitor/internal/store"
)

// fetchTimeout bounds a single collect, independent of the poll cadence.
const fetchTimeout = 5 * time.Second

// targetState is the per-target bookkeeping the poll loop maintains. The
// mutex serializes history updates and store publishes for one target so a
// manual refresh racing a scheduled poll cannot interleave between the
// staleness check and the write.
type targetState struct {
	collector collectors.Collector

	mu      sync.Mutex
	history map[string]*domain.History
}

// Scheduler owns one poll loop per target plus the refresh-now entry
// points used by the TUI and the web API.
type Scheduler struct {
	store   *store.Store
	metrics *metrics.Metrics
	log     *zap.Logger

	targets []*targetState
	byName  map[string]*targetState

	// ctxMu guards ctx: Run writes it at startup while RefreshNow and
	// RefreshAll read it from the web and TUI goroutines.
	ctxMu sync.Mutex
	ctx   context.Context
}

func New(cs []collectors.Collector, st *store.Store, m *metrics.Metrics, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}

	s := &Scheduler{
		store:   st,
		metrics: m,
		log:     log,
		byName:  make(map[string]*targetState, len(cs)),
	}
	for _, c := range cs {
		ts := &targetState{
			collector: c,
			history:   make(map[string]*domain.History),
		}
		s.targets = append(s.targets, ts)
		s.byName[c.Target().Name] = ts
	}
	return s
}

// Run starts every poll loop and blocks until ctx is cancelled and all
// loops have drained.
func (s *Scheduler) Run(ctx context.Context) error {
	s.ctxMu.Lock()
	s.ctx = ctx
	s.ctxMu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, ts := range s.targets {
		ts := ts
		g.Go(func() error {
			s.runTarget(ctx, ts)
			return nil
		})
	}
	return g.Wait()
}

// runTarget polls one target until ctx is cancelled. The wait for the next
// cycle starts when the previous one completes, so a fetch that takes
// three seconds on a five-second cadence still leaves five idle seconds
// between cycles and scheduled fetches never overlap.
func (s *Scheduler) runTarget(ctx context.Context, ts *targetState) {
	for {
		s.pollOnce(ctx, ts)

		select {
		case <-ctx.Done():
			return
		case <-time.After(ts.collector.Target().PollEvery):
		}
	}
}

// RefreshNow polls the named target once, immediately, without disturbing
// its scheduled cadence. Unknown names are ignored.
func (s *Scheduler) RefreshNow(name string) {
	ts, ok := s.byName[name]
	if !ok {
		return
	}
	go s.pollOnce(s.runCtx(), ts)
}

// RefreshAll polls every target once, immediately.
func (s *Scheduler) RefreshAll() {
	for _, ts := range s.targets {
		ts := ts
		go s.pollOnce(s.runCtx(), ts)
	}
}

func (s *Scheduler) runCtx() context.Context {
	s.ctxMu.Lock()
	defer s.ctxMu.Unlock()
	if s.ctx != nil {
		return s.ctx
	}
	return context.Background()
}

// pollOnce runs a single fetch cycle for one target and publishes the
// result. Every cycle publishes exactly one snapshot, success or not.
func (s *Scheduler) pollOnce(ctx context.Context, ts *targetState) {
	target := ts.collector.Target()
	producedAt := time.Now()

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	result, err := s.collect(fetchCtx, ts.collector)
	cancel()

	elapsed := time.Since(producedAt)
	if s.metrics != nil {
		s.metrics.RecordPollCycle(target.Name)
		s.metrics.ObserveFetchDuration(target.Name, elapsed.Seconds())
	}

	var snap domain.Snapshot
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordFetchError(target.Name)
		}
		s.log.Warn("fetch failed",
			zap.String("target", target.Name),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		snap = domain.UnreachableSnapshot(target.Name, err)
	} else {
		snap = domain.Snapshot{
			TargetName:    target.Name,
			Reachable:     true,
			Version:       result.Version,
			UptimeSeconds: result.UptimeSeconds,
			Metrics:       result.Samples,
			ObservedAt:    time.Now(),
		}
		s.log.Debug("fetch ok",
			zap.String("target", target.Name),
			zap.Duration("elapsed", elapsed),
			zap.Int("metrics", len(result.Samples)),
		)
	}
	snap.ProducedAt = producedAt

	s.publish(ts, snap)
	s.updateHealthGauges()
}

// collect invokes the collector with panic containment. A panicking
// adapter downgrades its own target to unreachable instead of crashing
// the process.
func (s *Scheduler) collect(ctx context.Context, c collectors.Collector) (result *collectors.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("collector panicked: %v", r)
		}
	}()
	return c.Collect(ctx)
}

// publish applies history to the snapshot and hands it to the store. The
// staleness pre-check under the target mutex keeps history rings in step
// with accepted snapshots: a snapshot the store would reject contributes
// nothing to history.
func (s *Scheduler) publish(ts *targetState, snap domain.Snapshot) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if cur, ok := s.store.Get(snap.TargetName); ok && !snap.ProducedAt.After(cur.ProducedAt) {
		s.store.Publish(snap)
		s.log.Debug("dropped stale snapshot", zap.String("target", snap.TargetName))
		return
	}

	if snap.Reachable {
		for i := range snap.Metrics {
			m := &snap.Metrics[i]
			v, ok := m.Value.Float()
			if !ok {
				continue
			}
			ring := ts.history[m.Key]
			if ring == nil {
				ring = domain.NewHistory(domain.HistoryDepth)
				ts.history[m.Key] = ring
			}
			ring.Push(v)
			m.History = ring.Values()
		}
	}

	s.store.Publish(snap)
}

func (s *Scheduler) updateHealthGauges() {
	if s.metrics == nil {
		return
	}
	summary := health.Evaluate(s.store)
	s.metrics.SetTargetCounts(summary.TargetsTotal, summary.TargetsHealthy, summary.TargetsErrored)
}
