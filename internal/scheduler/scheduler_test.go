package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/billdonner/server-monitor/internal/collectors"
	"github.com/billdonner/server-monitor/internal/domain"
	"github.com/billdonner/server-monitor/internal/store"
)

// fakeCollector drives the scheduler in tests with scripted behavior.
type fakeCollector struct {
	target  domain.Target
	delay   time.Duration
	err     error
	panics  bool
	calls   atomic.Int64
	active  atomic.Int64
	overlap atomic.Bool
}

func (f *fakeCollector) Target() domain.Target { return f.target }

func (f *fakeCollector) Collect(ctx context.Context) (*collectors.Result, error) {
	if f.active.Add(1) > 1 {
		f.overlap.Store(true)
	}
	defer f.active.Add(-1)

	n := f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.panics {
		panic("scripted failure")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &collectors.Result{
		Version:       "1.0.0",
		UptimeSeconds: 100,
		Samples: []domain.MetricSample{
			{Key: "calls", Label: "Calls", Value: domain.Number(float64(n))},
			{Key: "mode", Label: "Mode", Value: domain.Text("primary")},
		},
	}, nil
}

func runFor(t *testing.T, s *Scheduler, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestSchedulerPublishesSnapshots(t *testing.T) {
	fc := &fakeCollector{target: domain.Target{Name: "app", PollEvery: 10 * time.Millisecond}}
	st := store.New([]string{"app"})
	s := New([]collectors.Collector{fc}, st, nil, nil)

	runFor(t, s, 55*time.Millisecond)

	snap, ok := st.Get("app")
	if !ok {
		t.Fatal("no snapshot published")
	}
	if !snap.Reachable {
		t.Errorf("snapshot unreachable: %s", snap.Error)
	}
	if snap.Version != "1.0.0" {
		t.Errorf("Version = %q, want 1.0.0", snap.Version)
	}
	if fc.calls.Load() < 2 {
		t.Errorf("collector called %d times, want at least 2", fc.calls.Load())
	}
	if st.TotalPolls() != fc.calls.Load() {
		t.Errorf("TotalPolls = %d, collector calls = %d", st.TotalPolls(), fc.calls.Load())
	}
}

func TestScheduledFetchesNeverOverlap(t *testing.T) {
	fc := &fakeCollector{
		target: domain.Target{Name: "slow", PollEvery: 5 * time.Millisecond},
		delay:  20 * time.Millisecond,
	}
	st := store.New([]string{"slow"})
	s := New([]collectors.Collector{fc}, st, nil, nil)

	runFor(t, s, 100*time.Millisecond)

	if fc.overlap.Load() {
		t.Error("scheduled fetches overlapped")
	}
	if fc.calls.Load() < 2 {
		t.Errorf("collector called %d times, want at least 2", fc.calls.Load())
	}
}

func TestSchedulerContinuesAfterError(t *testing.T) {
	fc := &fakeCollector{
		target: domain.Target{Name: "down", PollEvery: 10 * time.Millisecond},
		err:    errors.New("connection refused"),
	}
	st := store.New([]string{"down"})
	s := New([]collectors.Collector{fc}, st, nil, nil)

	runFor(t, s, 55*time.Millisecond)

	if fc.calls.Load() < 2 {
		t.Errorf("collector called %d times after errors, want at least 2", fc.calls.Load())
	}
	snap, ok := st.Get("down")
	if !ok {
		t.Fatal("no snapshot published for failing target")
	}
	if snap.Reachable {
		t.Error("snapshot reachable, want unreachable")
	}
	if !strings.Contains(snap.Error, "connection refused") {
		t.Errorf("Error = %q, want connection refused", snap.Error)
	}
}

func TestSchedulerContainsPanics(t *testing.T) {
	fc := &fakeCollector{
		target: domain.Target{Name: "buggy", PollEvery: 10 * time.Millisecond},
		panics: true,
	}
	st := store.New([]string{"buggy"})
	s := New([]collectors.Collector{fc}, st, nil, nil)

	runFor(t, s, 35*time.Millisecond)

	snap, ok := st.Get("buggy")
	if !ok {
		t.Fatal("no snapshot published for panicking target")
	}
	if snap.Reachable {
		t.Error("snapshot reachable, want unreachable")
	}
	if !strings.Contains(snap.Error, "panic") {
		t.Errorf("Error = %q, want panic mention", snap.Error)
	}
	if fc.calls.Load() < 2 {
		t.Errorf("loop stopped after panic, %d calls", fc.calls.Load())
	}
}

func TestRefreshNow(t *testing.T) {
	fc := &fakeCollector{target: domain.Target{Name: "app", PollEvery: time.Hour}}
	st := store.New([]string{"app"})
	s := New([]collectors.Collector{fc}, st, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	waitFor(t, func() bool { return fc.calls.Load() == 1 })

	s.RefreshNow("app")
	waitFor(t, func() bool { return fc.calls.Load() == 2 })

	// Unknown names are a no-op, not a panic.
	s.RefreshNow("nope")

	cancel()
	<-done

	if got := fc.calls.Load(); got != 2 {
		t.Errorf("collector called %d times, want 2", got)
	}
}

func TestRefreshAll(t *testing.T) {
	fa := &fakeCollector{target: domain.Target{Name: "a", PollEvery: time.Hour}}
	fb := &fakeCollector{target: domain.Target{Name: "b", PollEvery: time.Hour}}
	st := store.New([]string{"a", "b"})
	s := New([]collectors.Collector{fa, fb}, st, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	waitFor(t, func() bool { return fa.calls.Load() == 1 && fb.calls.Load() == 1 })

	s.RefreshAll()
	waitFor(t, func() bool { return fa.calls.Load() == 2 && fb.calls.Load() == 2 })

	cancel()
	<-done
}

func TestRefreshDuringStartup(t *testing.T) {
	fc := &fakeCollector{target: domain.Target{Name: "app", PollEvery: time.Hour}}
	st := store.New([]string{"app"})
	s := New([]collectors.Collector{fc}, st, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// The serve command starts the HTTP server and the scheduler together,
	// so a refresh can arrive while Run is still starting up. Interleaving
	// the two must be safe under the race detector.
	for i := 0; i < 10; i++ {
		s.RefreshNow("app")
		s.RefreshAll()
	}

	waitFor(t, func() bool { return fc.calls.Load() >= 1 })
	cancel()
	<-done
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func reachableSnap(name string, producedAt time.Time, samples ...domain.MetricSample) domain.Snapshot {
	return domain.Snapshot{
		TargetName: name,
		Reachable:  true,
		Metrics:    samples,
		ObservedAt: producedAt,
		ProducedAt: producedAt,
	}
}

func TestPublishAppendsHistory(t *testing.T) {
	fc := &fakeCollector{target: domain.Target{Name: "app"}}
	st := store.New([]string{"app"})
	s := New([]collectors.Collector{fc}, st, nil, nil)
	ts := s.byName["app"]

	base := time.Now()
	for i := 0; i < domain.HistoryDepth+5; i++ {
		s.publish(ts, reachableSnap("app", base.Add(time.Duration(i)*time.Millisecond),
			domain.MetricSample{Key: "load", Label: "Load", Value: domain.Number(float64(i))},
			domain.MetricSample{Key: "mode", Label: "Mode", Value: domain.Text("primary")},
		))
	}

	snap, _ := st.Get("app")
	load := snap.Metrics[0]
	if len(load.History) != domain.HistoryDepth {
		t.Fatalf("history length = %d, want %d", len(load.History), domain.HistoryDepth)
	}
	if load.History[0] != 5 {
		t.Errorf("oldest history value = %v, want 5", load.History[0])
	}
	if last := load.History[len(load.History)-1]; last != float64(domain.HistoryDepth+4) {
		t.Errorf("newest history value = %v, want %v", last, domain.HistoryDepth+4)
	}
	if snap.Metrics[1].History != nil {
		t.Error("text metric grew a history")
	}
}

func TestPublishRejectsStaleWithoutHistory(t *testing.T) {
	fc := &fakeCollector{target: domain.Target{Name: "app"}}
	st := store.New([]string{"app"})
	s := New([]collectors.Collector{fc}, st, nil, nil)
	ts := s.byName["app"]

	base := time.Now()
	s.publish(ts, reachableSnap("app", base.Add(time.Second),
		domain.MetricSample{Key: "load", Label: "Load", Value: domain.Number(2)},
	))
	s.publish(ts, reachableSnap("app", base,
		domain.MetricSample{Key: "load", Label: "Load", Value: domain.Number(1)},
	))

	snap, _ := st.Get("app")
	if v, _ := snap.Metrics[0].Value.Float(); v != 2 {
		t.Errorf("stored value = %v, want 2 from the newer producer", v)
	}
	if got := len(snap.Metrics[0].History); got != 1 {
		t.Errorf("history length = %d, want 1; stale snapshot must not feed history", got)
	}
	if st.TotalPolls() != 2 {
		t.Errorf("TotalPolls = %d, want 2; rejected cycles still count", st.TotalPolls())
	}
}

func TestUnreachableSnapshotSkipsHistory(t *testing.T) {
	fc := &fakeCollector{target: domain.Target{Name: "app"}}
	st := store.New([]string{"app"})
	s := New([]collectors.Collector{fc}, st, nil, nil)
	ts := s.byName["app"]

	base := time.Now()
	s.publish(ts, reachableSnap("app", base,
		domain.MetricSample{Key: "load", Label: "Load", Value: domain.Number(1)},
	))
	down := domain.UnreachableSnapshot("app", errors.New("timeout"))
	down.ProducedAt = base.Add(time.Second)
	s.publish(ts, down)
	s.publish(ts, reachableSnap("app", base.Add(2*time.Second),
		domain.MetricSample{Key: "load", Label: "Load", Value: domain.Number(3)},
	))

	snap, _ := st.Get("app")
	want := []float64{1, 3}
	got := snap.Metrics[0].History
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("history = %v, want %v; outage must not pad history", got, want)
	}
}
