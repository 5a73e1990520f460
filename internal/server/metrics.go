package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opsforge/mcp-telemetry/internal/telemetry"
)

// DefaultMetricsAddr is the default listen address for the metrics server.
const DefaultMetricsAddr = ":9090"

// DefaultShutdownTimeout bounds graceful shutdown of HTTP servers.
const DefaultShutdownTimeout = 10 * time.Second

// MetricsServerConfig configures the standalone Prometheus metrics server.
type MetricsServerConfig struct {
	// Addr is the listen address. Defaults to DefaultMetricsAddr when empty.
	Addr string

	// TelemetryProvider supplies the metric pipeline being scraped. Required,
	// even when disabled, so the /metrics endpoint reflects the real state.
	TelemetryProvider *telemetry.Provider
}

// MetricsServer serves the Prometheus /metrics endpoint on a dedicated
// listener, keeping scrape traffic off the MCP transport port.
type MetricsServer struct {
	addr     string
	provider *telemetry.Provider
	server   *http.Server
}

// NewMetricsServer creates a metrics server for the given configuration.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	if config.TelemetryProvider == nil {
		return nil, errors.New("telemetry provider is required")
	}

	addr := config.Addr
	if addr == "" {
		addr = DefaultMetricsAddr
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &MetricsServer{
		addr:     addr,
		provider: config.TelemetryProvider,
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Addr returns the configured listen address.
func (m *MetricsServer) Addr() string {
	return m.addr
}

// Start begins serving. It blocks until the server stops and returns
// http.ErrServerClosed after a graceful Shutdown.
func (m *MetricsServer) Start() error {
	return m.server.ListenAndServe()
}

// Shutdown gracefully stops the metrics server.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	err := m.server.Shutdown(ctx)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
