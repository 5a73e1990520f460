package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// HealthChecker provides health check endpoints for Kubernetes probes.
type HealthChecker struct {
	// ready indicates whether the server is ready to receive traffic
	ready atomic.Bool
	// serverContext provides access to dependencies for health checks
	serverContext *ServerContext
	// startTime tracks when the server started
	startTime time.Time
}

// NewHealthChecker creates a new HealthChecker.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{
		serverContext: sc,
		startTime:     time.Now(),
	}
	// Server starts as ready by default
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state of the server.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the server is ready to receive traffic.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// HealthResponse represents the JSON response for health endpoints.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks,omitempty"`
	Version string            `json:"version,omitempty"`
}

// DetailedHealthResponse provides comprehensive health information including
// telemetry pipeline status.
type DetailedHealthResponse struct {
	Status        string                 `json:"status"`
	Version       string                 `json:"version,omitempty"`
	Uptime        string                 `json:"uptime"`
	Telemetry     *TelemetryHealthCheck  `json:"telemetry,omitempty"`
	Sessions      *SessionsHealthStatus  `json:"sessions,omitempty"`
	Registrations *RegistrationsSnapshot `json:"registrations,omitempty"`
}

// TelemetryHealthCheck provides health information about the telemetry pipeline.
type TelemetryHealthCheck struct {
	Enabled         bool   `json:"enabled"`
	TracingExporter string `json:"tracing_exporter,omitempty"`
	MetricsExporter string `json:"metrics_exporter,omitempty"`
}

// SessionsHealthStatus provides health information about session tracking.
type SessionsHealthStatus struct {
	Tracked int `json:"tracked"`
}

// RegistrationsSnapshot reports how many callables are instrumented.
type RegistrationsSnapshot struct {
	Tools     int64 `json:"tools"`
	Resources int64 `json:"resources"`
	Prompts   int64 `json:"prompts"`
}

// LivenessHandler returns an HTTP handler for the /healthz endpoint.
// Liveness probes indicate whether the process should be restarted.
// This should be a simple check that the server process is running.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Simple liveness check - if we can respond, we're alive
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		response := HealthResponse{
			Status: "ok",
		}

		// Add version if available from server context
		if h.serverContext != nil && h.serverContext.Config() != nil {
			response.Version = h.serverContext.Config().Version
		}

		_ = json.NewEncoder(w).Encode(response)
	})
}

// ReadinessHandler returns an HTTP handler for the /readyz endpoint.
// Readiness probes indicate whether the server is ready to receive traffic.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		checks := make(map[string]string)
		allOk := true

		// Check if server is marked as ready
		if !h.ready.Load() {
			checks["ready"] = "not ready"
			allOk = false
		} else {
			checks["ready"] = "ok"
		}

		// Check if server context is not shutdown
		if h.serverContext != nil && h.serverContext.IsShutdown() {
			checks["shutdown"] = "shutting down"
			allOk = false
		} else {
			checks["shutdown"] = "ok"
		}

		// A disabled telemetry provider is a valid state, not a failure.
		if h.serverContext != nil {
			provider := h.serverContext.TelemetryProvider()
			if provider != nil {
				if provider.Enabled() {
					checks["telemetry"] = "ok"
				} else {
					checks["telemetry"] = "disabled"
				}
			}
		}

		response := HealthResponse{
			Checks: checks,
		}

		if allOk {
			response.Status = "ok"
			w.WriteHeader(http.StatusOK)
		} else {
			response.Status = "not ready"
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		_ = json.NewEncoder(w).Encode(response)
	})
}

// RegisterHealthEndpoints registers health check endpoints on the given mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}

// DetailedHealthHandler returns an HTTP handler for the /healthz/detailed endpoint.
// This endpoint provides comprehensive health information including telemetry
// pipeline and session tracking status.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		response := DetailedHealthResponse{
			Status: "ok",
			Uptime: time.Since(h.startTime).Truncate(time.Second).String(),
		}

		// Add version if available
		if h.serverContext != nil && h.serverContext.Config() != nil {
			response.Version = h.serverContext.Config().Version
		}

		if h.serverContext != nil {
			response.Telemetry = h.getTelemetryStatus()
			response.Sessions = h.getSessionsStatus()
			response.Registrations = h.getRegistrationsSnapshot()
		}

		// Determine overall status
		if !h.ready.Load() {
			response.Status = "not ready"
			w.WriteHeader(http.StatusServiceUnavailable)
		} else if h.serverContext != nil && h.serverContext.IsShutdown() {
			response.Status = "shutting down"
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		_ = json.NewEncoder(w).Encode(response)
	})
}

// getTelemetryStatus returns telemetry pipeline health status.
func (h *HealthChecker) getTelemetryStatus() *TelemetryHealthCheck {
	provider := h.serverContext.TelemetryProvider()
	if provider == nil {
		return &TelemetryHealthCheck{
			Enabled: false,
		}
	}

	status := &TelemetryHealthCheck{
		Enabled: provider.Enabled(),
	}
	if cfg := provider.Config(); cfg != nil {
		status.TracingExporter = cfg.TracingExporter
		status.MetricsExporter = cfg.MetricsExporter
	}
	return status
}

// getSessionsStatus returns session tracking health status.
func (h *HealthChecker) getSessionsStatus() *SessionsHealthStatus {
	tracker := h.serverContext.Sessions()
	if tracker == nil {
		return nil
	}
	return &SessionsHealthStatus{
		Tracked: tracker.Len(),
	}
}

// getRegistrationsSnapshot returns instrumented callable counts.
func (h *HealthChecker) getRegistrationsSnapshot() *RegistrationsSnapshot {
	metrics := h.serverContext.Metrics()
	if metrics == nil {
		return nil
	}
	tools, resources, prompts := metrics.GetMetrics()
	return &RegistrationsSnapshot{
		Tools:     tools,
		Resources: resources,
		Prompts:   prompts,
	}
}
