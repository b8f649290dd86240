package observability

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthStatus is the /health payload. Phase mirrors the pipeline state so
// a scrape can tell a stuck run from an idle one.
type HealthStatus struct {
	Status string `json:"status"`
	Phase  string `json:"phase"`
}

// Server exposes /metrics and /health on a dedicated listener. The phase
// callback decouples it from the pipeline package.
type Server struct {
	addr   string
	phase  func() string
	server *http.Server
}

func NewServer(addr string, phase func() string) *Server {
	if phase == nil {
		phase = func() string { return "unknown" }
	}
	return &Server{addr: addr, phase: phase}
}

func (s *Server) Start() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		phase := s.phase()
		status := HealthStatus{Status: "up", Phase: phase}
		w.Header().Set("Content-Type", "application/json")
		if phase == "error" {
			status.Status = "degraded"
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(status)
	})

	s.server = &http.Server{Addr: s.addr, Handler: mux}

	slog.Info("observability server starting", "addr", s.addr)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("observability server failed", "error", err)
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
