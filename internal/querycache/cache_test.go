package querycache

import (
	"errors"
	"testing"
	"time"

	"github.com/billdonner/server-monitor/internal/domain"
)

// fakeClock advances only when told to.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time          { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newFixture() (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	return newWithClock(clock.Now), clock
}

func TestGetOrCompute_CachesWithinTTL(t *testing.T) {
	c, clock := newFixture()
	calls := 0
	compute := func() (domain.MetricSample, error) {
		calls++
		return domain.MetricSample{Key: "q", Value: domain.Number(float64(calls))}, nil
	}

	first := c.GetOrCompute("q", 10*time.Second, compute)
	clock.Advance(9 * time.Second)
	second := c.GetOrCompute("q", 10*time.Second, compute)

	if calls != 1 {
		t.Fatalf("compute called %d times within ttl, want 1", calls)
	}
	if v, _ := second.Value.Float(); v != 1 {
		t.Errorf("second call returned value %v, want cached 1", v)
	}
	_ = first

	clock.Advance(2 * time.Second) // now 11s past the computation
	third := c.GetOrCompute("q", 10*time.Second, compute)
	if calls != 2 {
		t.Fatalf("compute called %d times after expiry, want 2", calls)
	}
	if v, _ := third.Value.Float(); v != 2 {
		t.Errorf("expired entry returned value %v, want recomputed 2", v)
	}
}

func TestGetOrCompute_FailureDoesNotUpdateTimestamp(t *testing.T) {
	c, clock := newFixture()
	calls := 0
	failing := func() (domain.MetricSample, error) {
		calls++
		return domain.MetricSample{}, errors.New("connection reset")
	}

	got := c.GetOrCompute("q", time.Minute, failing)
	if got.Key != "query_error_q" {
		t.Errorf("Key = %q, want query_error_q", got.Key)
	}
	if got.Value.IsNumber() {
		t.Error("degraded sample should carry the error text")
	}

	// The failure must not have been cached: an immediate retry computes
	// again even though the ttl has not elapsed.
	clock.Advance(time.Second)
	c.GetOrCompute("q", time.Minute, failing)
	if calls != 2 {
		t.Fatalf("compute called %d times, want 2 (failures never cached)", calls)
	}
	if c.Len() != 0 {
		t.Errorf("cache holds %d entries after failures, want 0", c.Len())
	}
}

func TestGetOrCompute_RecoveryAfterFailure(t *testing.T) {
	c, clock := newFixture()
	fail := true
	compute := func() (domain.MetricSample, error) {
		if fail {
			return domain.MetricSample{}, errors.New("timeout")
		}
		return domain.MetricSample{Key: "q", Value: domain.Number(3)}, nil
	}

	c.GetOrCompute("q", time.Minute, compute)
	fail = false
	clock.Advance(time.Second)

	got := c.GetOrCompute("q", time.Minute, compute)
	if v, ok := got.Value.Float(); !ok || v != 3 {
		t.Errorf("recovered value = %v, %v, want 3", v, ok)
	}
	if c.Len() != 1 {
		t.Errorf("cache holds %d entries after recovery, want 1", c.Len())
	}
}

func TestGetOrCompute_IndependentLabels(t *testing.T) {
	c, _ := newFixture()
	for _, label := range []string{"Pending Jobs", "Active Users"} {
		label := label
		c.GetOrCompute(label, time.Minute, func() (domain.MetricSample, error) {
			return domain.MetricSample{Key: domain.SlugKey(label)}, nil
		})
	}
	if c.Len() != 2 {
		t.Errorf("cache holds %d entries, want 2", c.Len())
	}
}
