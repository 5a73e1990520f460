package server

import (
	"context"
	"sync"

	"github.com/opsforge/mcp-telemetry/internal/telemetry"
)

// ServerContext encapsulates all dependencies needed by the MCP server
// and provides a clean abstraction for dependency injection and lifecycle management.
type ServerContext struct {
	// Core dependencies
	logger Logger
	config *Config

	// Telemetry pipeline. The provider owns the OpenTelemetry trace and
	// metric exporters; the instrumentor wraps registered callables; the
	// session tracker correlates requests into sessions.
	telemetryProvider *telemetry.Provider
	instrumentor      *telemetry.Instrumentor
	sessions          *telemetry.SessionTracker

	// Registration tracking
	metrics *Metrics

	// Context management
	ctx    context.Context
	cancel context.CancelFunc

	// Lifecycle management
	mu       sync.RWMutex
	shutdown bool
}

// Metrics tracks registration counts for monitoring and health reporting.
type Metrics struct {
	ToolsRegistered     int64
	ResourcesRegistered int64
	PromptsRegistered   int64

	mu sync.RWMutex
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncrementToolsRegistered increments the registered tool counter
func (m *Metrics) IncrementToolsRegistered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ToolsRegistered++
}

// IncrementResourcesRegistered increments the registered resource counter
func (m *Metrics) IncrementResourcesRegistered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResourcesRegistered++
}

// IncrementPromptsRegistered increments the registered prompt counter
func (m *Metrics) IncrementPromptsRegistered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PromptsRegistered++
}

// GetMetrics returns a snapshot of current registration counts
func (m *Metrics) GetMetrics() (tools, resources, prompts int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ToolsRegistered, m.ResourcesRegistered, m.PromptsRegistered
}

// NewServerContext creates a new ServerContext with default values.
// Use the provided functional options to customize the context.
func NewServerContext(ctx context.Context, opts ...Option) (*ServerContext, error) {
	// Create a cancellable context
	serverCtx, cancel := context.WithCancel(ctx)

	// Initialize with defaults
	sc := &ServerContext{
		ctx:      serverCtx,
		cancel:   cancel,
		config:   NewDefaultConfig(),
		logger:   NewDefaultLogger(),
		sessions: telemetry.NewSessionTracker(),
		metrics:  NewMetrics(),
	}

	// Apply functional options
	for _, opt := range opts {
		if err := opt(sc); err != nil {
			cancel()
			return nil, err
		}
	}

	// Validate required dependencies
	if err := sc.validate(); err != nil {
		cancel()
		return nil, err
	}

	// The instrumentor derives from the provider unless one was injected.
	if sc.instrumentor == nil {
		sc.instrumentor = telemetry.NewInstrumentor(sc.telemetryProvider)
	}

	return sc, nil
}

// Context returns the server context for cancellation and deadlines.
func (sc *ServerContext) Context() context.Context {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.ctx
}

// TelemetryProvider returns the telemetry provider.
func (sc *ServerContext) TelemetryProvider() *telemetry.Provider {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.telemetryProvider
}

// Instrumentor returns the callable instrumentor.
func (sc *ServerContext) Instrumentor() *telemetry.Instrumentor {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.instrumentor
}

// Sessions returns the session tracker.
func (sc *ServerContext) Sessions() *telemetry.SessionTracker {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.sessions
}

// Metrics returns the registration metrics tracker.
func (sc *ServerContext) Metrics() *Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// Logger returns the logger interface.
func (sc *ServerContext) Logger() Logger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.logger
}

// Config returns the server configuration.
func (sc *ServerContext) Config() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config
}

// Shutdown gracefully shuts down the server context.
// This cancels the context and flushes any buffered telemetry.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.logger.Info("Shutting down server context")

	var err error
	if sc.telemetryProvider != nil {
		// Use a background context; sc.ctx is about to be cancelled and the
		// provider applies its own flush deadline.
		err = sc.telemetryProvider.Shutdown(context.Background())
	}

	// Cancel the context
	if sc.cancel != nil {
		sc.cancel()
	}

	// Mark as shutdown
	sc.shutdown = true

	sc.logger.Info("Server context shutdown complete")
	return err
}

// IsShutdown returns true if the server context has been shutdown.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// validate ensures all required dependencies are set.
func (sc *ServerContext) validate() error {
	if sc.telemetryProvider == nil {
		return ErrMissingTelemetryProvider
	}
	if sc.logger == nil {
		return ErrMissingLogger
	}
	if sc.config == nil {
		return ErrMissingConfig
	}
	return nil
}

// Logger defines the interface for logging operations.
type Logger interface {
	// Info logs an informational message.
	Info(msg string, args ...interface{})

	// Debug logs a debug message.
	Debug(msg string, args ...interface{})

	// Warn logs a warning message.
	Warn(msg string, args ...interface{})

	// Error logs an error message.
	Error(msg string, args ...interface{})

	// With returns a new logger with additional context fields.
	With(args ...interface{}) Logger
}

// Config holds the server configuration.
type Config struct {
	// Server settings
	ServerName string `json:"serverName"`
	Version    string `json:"version"`

	// Logging settings
	LogLevel  string `json:"logLevel"`
	LogFormat string `json:"logFormat"`

	// Tools listed here are skipped during registration.
	DisabledTools []string `json:"disabledTools"`
}

// NewDefaultConfig creates a configuration with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		ServerName: "mcp-telemetry",
		Version:    "0.1.0",
		LogLevel:   "info",
		LogFormat:  "json",
	}
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	clone := *c

	// Deep copy slices
	if c.DisabledTools != nil {
		clone.DisabledTools = make([]string, len(c.DisabledTools))
		copy(clone.DisabledTools, c.DisabledTools)
	}

	return &clone
}

// ToolDisabled reports whether the named tool is excluded from registration.
func (c *Config) ToolDisabled(name string) bool {
	if c == nil {
		return false
	}
	for _, disabled := range c.DisabledTools {
		if disabled == name {
			return true
		}
	}
	return false
}
