package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hardng/arca/internal/infrastructure/logger"
)

// MetricsServer exposes the Prometheus registry while the daemon runs.
type MetricsServer struct {
	logger *logger.Logger
	server *http.Server
}

func NewMetricsServer(log *logger.Logger, addr string, metricsHandler http.Handler) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	return &MetricsServer{
		logger: log,
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves in a goroutine. Listen errors other than a clean shutdown
// are logged; a daemon with a broken metrics port still backs up.
func (s *MetricsServer) Start() {
	go func() {
		s.logger.Infof("Metrics server listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("Metrics server error: %v", err)
		}
	}()
}

func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown metrics server: %w", err)
	}
	s.logger.Infof("Metrics server stopped")
	return nil
}
