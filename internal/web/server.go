// Package web exposes the monitor's HTTP surface: dashboard JSON for
// remote consumers, aggregate health, Prometheus metrics, and the
// refresh-now hook.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/billdonner/server-monitor/internal/domain"
	"github.com/billdonner/server-monitor/internal/health"
	"github.com/billdonner/server-monitor/internal/store"
)

// Version is stamped at build time via -ldflags and reported by
// /api/self.
var Version = "dev"

// Refresher triggers an immediate poll of every target. Implemented by
// the scheduler.
type Refresher interface {
	RefreshAll()
}

// Server wraps http.Server with sane timeouts and the monitor routes.
type Server struct {
	server *http.Server
	store  *store.Store
	sched  Refresher
	log    *zap.Logger
}

func NewServer(addr string, st *store.Store, sched Refresher, gatherer prometheus.Gatherer, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{store: st, sched: sched, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/self", s.handleSelf)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the route handler for tests.
func (s *Server) Handler() http.Handler { return s.server.Handler }

// Start serves until Stop is called. A closed-server return is not an
// error.
func (s *Server) Start() error {
	s.log.Info("http server listening", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop drains in-flight requests, forcing close after timeout.
func (s *Server) Stop(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// statusResponse is the wire shape of GET /api/status.
type statusResponse struct {
	Servers   []domain.Snapshot `json:"servers"`
	Timestamp time.Time         `json:"timestamp"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, statusResponse{
		Servers:   s.store.List(),
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, health.Evaluate(s.store))
}

// handleSelf reports the monitor's own vitals in the same metric shape
// the collectors produce, so the monitor can be a target of another
// monitor instance.
func (s *Server) handleSelf(w http.ResponseWriter, r *http.Request) {
	summary := health.Evaluate(s.store)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"version":        Version,
		"uptime_seconds": int64(s.store.Uptime().Seconds()),
		"metrics": []domain.MetricSample{
			{
				Key:   "servers_monitored",
				Label: "Servers Monitored",
				Value: domain.Number(float64(summary.TargetsTotal)),
				Unit:  "servers",
			},
			{
				Key:   "servers_healthy",
				Label: "Servers Healthy",
				Value: domain.Number(float64(summary.TargetsHealthy)),
				Unit:  "servers",
			},
			{
				Key:       "servers_errored",
				Label:     "Servers Errored",
				Value:     domain.Number(float64(summary.TargetsErrored)),
				Unit:      "servers",
				WarnAbove: domain.Threshold(0),
			},
			{
				Key:   "total_polls",
				Label: "Total Polls",
				Value: domain.Number(float64(s.store.TotalPolls())),
				Unit:  "count",
			},
		},
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.sched == nil {
		http.Error(w, "refresh unavailable", http.StatusServiceUnavailable)
		return
	}
	s.sched.RefreshAll()
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "refreshing"})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("write response", zap.Error(err))
	}
}
