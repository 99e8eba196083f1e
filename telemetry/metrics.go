package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsPath is where the Prometheus handler is mounted.
const MetricsPath = "/metrics"

// MetricsServer serves the default Prometheus registry.
type MetricsServer struct {
	server   *http.Server
	listener net.Listener
	logger   *slog.Logger
	done     chan struct{}
}

// StartMetricsServer listens on addr and serves metrics in the background.
func StartMetricsServer(addr string, logger *slog.Logger) (*MetricsServer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(MetricsPath, promhttp.Handler())

	s := &MetricsServer{
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		listener: ln,
		logger:   logger,
		done:     make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Metrics server stopped", "error", err)
		}
	}()

	logger.Info("Metrics endpoint listening", "addr", ln.Addr().String(), "path", MetricsPath)
	return s, nil
}

// Addr returns the bound address.
func (s *MetricsServer) Addr() string {
	return s.listener.Addr().String()
}

// Shutdown stops the server and waits for the serve loop to exit.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	<-s.done
	return err
}
