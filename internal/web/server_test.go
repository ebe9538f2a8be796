package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/billdonner/server-monitor/internal/domain"
	"github.com/billdonner/server-monitor/internal/health"
	"github.com/billdonner/server-monitor/internal/metrics"
	"github.com/billdonner/server-monitor/internal/store"
)

type fakeRefresher struct {
	calls atomic.Int64
}

func (f *fakeRefresher) RefreshAll() { f.calls.Add(1) }

func newTestServer(t *testing.T, st *store.Store, sched Refresher) *Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics.New(reg)
	return NewServer("localhost:0", st, sched, reg, nil)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestStatusEmptyStore(t *testing.T) {
	st := store.New([]string{"a", "b"})
	s := newTestServer(t, st, nil)

	w := get(t, s.Handler(), "/api/status")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Servers   []domain.Snapshot `json:"servers"`
		Timestamp time.Time         `json:"timestamp"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Servers) != 0 {
		t.Errorf("got %d servers before any poll, want 0", len(resp.Servers))
	}
	if resp.Timestamp.IsZero() {
		t.Error("timestamp missing")
	}
}

func TestStatusPopulatedStore(t *testing.T) {
	st := store.New([]string{"redis-prod"})
	st.Publish(domain.Snapshot{
		TargetName: "redis-prod",
		Reachable:  true,
		Version:    "7.2.4",
		Metrics: []domain.MetricSample{
			{Key: "connected_clients", Label: "Connected Clients", Value: domain.Number(3)},
		},
		ObservedAt: time.Now(),
		ProducedAt: time.Now(),
	})
	s := newTestServer(t, st, nil)

	w := get(t, s.Handler(), "/api/status")

	var resp struct {
		Servers []domain.Snapshot `json:"servers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Servers) != 1 {
		t.Fatalf("got %d servers, want 1", len(resp.Servers))
	}
	if resp.Servers[0].Version != "7.2.4" {
		t.Errorf("Version = %q, want 7.2.4", resp.Servers[0].Version)
	}
}

func TestHealthEndpoint(t *testing.T) {
	st := store.New([]string{"a"})
	s := newTestServer(t, st, nil)

	w := get(t, s.Handler(), "/api/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var summary health.Summary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.State != health.StateWaiting {
		t.Errorf("state = %v, want waiting before first poll", summary.State)
	}
}

func TestSelfEndpoint(t *testing.T) {
	st := store.New([]string{"a"})
	st.Publish(domain.Snapshot{TargetName: "a", Reachable: true, ProducedAt: time.Now()})
	s := newTestServer(t, st, nil)

	w := get(t, s.Handler(), "/api/self")

	var resp struct {
		Version       string                `json:"version"`
		UptimeSeconds int64                 `json:"uptime_seconds"`
		Metrics       []domain.MetricSample `json:"metrics"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Version == "" {
		t.Error("version missing")
	}
	if len(resp.Metrics) == 0 {
		t.Fatal("no self metrics")
	}

	byKey := map[string]domain.MetricSample{}
	for _, m := range resp.Metrics {
		byKey[m.Key] = m
	}
	if v, _ := byKey["total_polls"].Value.Float(); v != 1 {
		t.Errorf("total_polls = %v, want 1", v)
	}
	if v, _ := byKey["servers_monitored"].Value.Float(); v != 1 {
		t.Errorf("servers_monitored = %v, want 1", v)
	}
}

func TestRefreshEndpoint(t *testing.T) {
	st := store.New(nil)
	ref := &fakeRefresher{}
	s := newTestServer(t, st, ref)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}
	if ref.calls.Load() != 1 {
		t.Errorf("RefreshAll called %d times, want 1", ref.calls.Load())
	}

	// Wrong method falls through to 405.
	w = get(t, s.Handler(), "/api/refresh")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/refresh = %d, want 405", w.Code)
	}
}

func TestHealthzAndMetrics(t *testing.T) {
	st := store.New(nil)
	s := newTestServer(t, st, nil)

	if w := get(t, s.Handler(), "/healthz"); w.Code != http.StatusOK {
		t.Errorf("/healthz = %d, want 200", w.Code)
	}
	if w := get(t, s.Handler(), "/metrics"); w.Code != http.StatusOK {
		t.Errorf("/metrics = %d, want 200", w.Code)
	}
}
