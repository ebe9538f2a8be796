package store

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/billdonner/server-monitor/internal/domain"
)

func snapAt(name string, producedAt time.Time, err string) domain.Snapshot {
	return domain.Snapshot{
		TargetName: name,
		Reachable:  err == "",
		Error:      err,
		ObservedAt: producedAt,
		ProducedAt: producedAt,
	}
}

func TestPublish_ReplacesWholesale(t *testing.T) {
	s := New([]string{"api"})
	base := time.Now()

	first := snapAt("api", base, "connection refused")
	if !s.Publish(first) {
		t.Fatal("first publish rejected")
	}

	second := snapAt("api", base.Add(5*time.Second), "")
	second.Metrics = []domain.MetricSample{{Key: "ops", Value: domain.Number(12)}}
	if !s.Publish(second) {
		t.Fatal("newer publish rejected")
	}

	got, ok := s.Get("api")
	if !ok {
		t.Fatal("snapshot missing after publish")
	}
	if got.Error != "" || !got.Reachable || len(got.Metrics) != 1 {
		t.Errorf("stored snapshot is a mix of old and new: %+v", got)
	}
}

func TestPublish_StaleProducerLoses(t *testing.T) {
	s := New([]string{"api"})
	base := time.Now()

	// A manual refresh starts first (T1) but its fetch completes after the
	// scheduled cycle's result (T2 > T1) was already stored. The stale
	// write must be rejected no matter the real-time arrival order.
	scheduled := snapAt("api", base.Add(2*time.Second), "")
	manual := snapAt("api", base.Add(1*time.Second), "")

	if !s.Publish(scheduled) {
		t.Fatal("scheduled publish rejected")
	}
	if s.Publish(manual) {
		t.Fatal("stale manual publish was accepted")
	}

	got, _ := s.Get("api")
	if !got.ProducedAt.Equal(scheduled.ProducedAt) {
		t.Errorf("stored ProducedAt = %v, want %v", got.ProducedAt, scheduled.ProducedAt)
	}

	// Equal timestamps also lose: replacement requires strictly newer.
	if s.Publish(snapAt("api", base.Add(2*time.Second), "")) {
		t.Error("publish with equal ProducedAt was accepted")
	}
}

func TestPublish_CountsEveryCycle(t *testing.T) {
	s := New([]string{"api"})
	base := time.Now()

	s.Publish(snapAt("api", base.Add(time.Second), ""))
	s.Publish(snapAt("api", base, "")) // rejected, still a completed cycle

	if got := s.TotalPolls(); got != 2 {
		t.Errorf("TotalPolls() = %d, want 2", got)
	}
}

func TestList_RegistrationOrder(t *testing.T) {
	s := New([]string{"cache", "db", "api"})
	base := time.Now()

	// Publish out of registration order.
	s.Publish(snapAt("api", base, ""))
	s.Publish(snapAt("cache", base, ""))

	var names []string
	for _, snap := range s.List() {
		names = append(names, snap.TargetName)
	}
	if diff := cmp.Diff([]string{"cache", "api"}, names); diff != "" {
		t.Errorf("List() order mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"cache", "db", "api"}, s.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
}

func TestGet_Missing(t *testing.T) {
	s := New([]string{"api"})
	if _, ok := s.Get("api"); ok {
		t.Error("Get returned a snapshot before any publish")
	}
}
