package server

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/opsforge/mcp-telemetry/internal/telemetry"
)

// Option is a functional option for configuring ServerContext.
type Option func(*ServerContext) error

// WithTelemetryProvider sets the telemetry provider for the ServerContext.
// The provider is required; a disabled provider (telemetry.NewProvider with
// exporters set to none) is a valid choice for fully untraced operation.
func WithTelemetryProvider(provider *telemetry.Provider) Option {
	return func(sc *ServerContext) error {
		if provider == nil {
			return ErrMissingTelemetryProvider
		}
		sc.telemetryProvider = provider
		return nil
	}
}

// WithInstrumentor sets the callable instrumentor for the ServerContext.
// When omitted, one is derived from the telemetry provider.
func WithInstrumentor(instrumentor *telemetry.Instrumentor) Option {
	return func(sc *ServerContext) error {
		sc.instrumentor = instrumentor
		return nil
	}
}

// WithSessionTracker sets the session tracker for the ServerContext.
func WithSessionTracker(tracker *telemetry.SessionTracker) Option {
	return func(sc *ServerContext) error {
		if tracker == nil {
			return errors.New("session tracker cannot be nil")
		}
		sc.sessions = tracker
		return nil
	}
}

// WithLogger sets the logger for the ServerContext.
func WithLogger(logger Logger) Option {
	return func(sc *ServerContext) error {
		if logger == nil {
			return ErrMissingLogger
		}
		sc.logger = logger
		return nil
	}
}

// WithConfig sets the configuration for the ServerContext.
func WithConfig(config *Config) Option {
	return func(sc *ServerContext) error {
		if config == nil {
			return ErrMissingConfig
		}
		sc.config = config.Clone()
		return nil
	}
}

// WithServerName sets the server name in the configuration.
func WithServerName(name string) Option {
	return func(sc *ServerContext) error {
		if sc.config == nil {
			sc.config = NewDefaultConfig()
		}
		sc.config.ServerName = name
		return nil
	}
}

// WithVersion sets the server version in the configuration.
func WithVersion(version string) Option {
	return func(sc *ServerContext) error {
		if sc.config == nil {
			sc.config = NewDefaultConfig()
		}
		sc.config.Version = version
		return nil
	}
}

// WithLogLevel sets the logging level.
func WithLogLevel(level string) Option {
	return func(sc *ServerContext) error {
		if sc.config == nil {
			sc.config = NewDefaultConfig()
		}
		sc.config.LogLevel = level
		return nil
	}
}

// WithDisabledTools sets the list of tools excluded from registration.
func WithDisabledTools(tools []string) Option {
	return func(sc *ServerContext) error {
		if sc.config == nil {
			sc.config = NewDefaultConfig()
		}
		if tools != nil {
			sc.config.DisabledTools = make([]string, len(tools))
			copy(sc.config.DisabledTools, tools)
		}
		return nil
	}
}

// Error definitions for ServerContext validation and operations.
var (
	ErrMissingTelemetryProvider = errors.New("telemetry provider is required")
	ErrMissingLogger            = errors.New("logger is required")
	ErrMissingConfig            = errors.New("configuration is required")
	ErrServerShutdown           = errors.New("server context has been shutdown")
)

// DefaultLogger is a simple logger implementation that wraps the standard library logger.
type DefaultLogger struct {
	logger *log.Logger
	level  string
}

// NewDefaultLogger creates a new default logger with standard error output.
func NewDefaultLogger() Logger {
	return &DefaultLogger{
		logger: log.New(os.Stderr, "[mcp-telemetry] ", log.LstdFlags|log.Lshortfile),
		level:  "info",
	}
}

// Info logs an informational message.
func (l *DefaultLogger) Info(msg string, args ...interface{}) {
	l.logger.Printf("[INFO] "+msg, args...)
}

// Debug logs a debug message.
func (l *DefaultLogger) Debug(msg string, args ...interface{}) {
	if l.level == "debug" {
		l.logger.Printf("[DEBUG] "+msg, args...)
	}
}

// Warn logs a warning message.
func (l *DefaultLogger) Warn(msg string, args ...interface{}) {
	l.logger.Printf("[WARN] "+msg, args...)
}

// Error logs an error message.
func (l *DefaultLogger) Error(msg string, args ...interface{}) {
	l.logger.Printf("[ERROR] "+msg, args...)
}

// With returns a new logger with additional context fields.
func (l *DefaultLogger) With(args ...interface{}) Logger {
	// For the default logger, we'll just add the context to the prefix
	if len(args) > 0 {
		prefix := fmt.Sprintf("[mcp-telemetry] %v ", args)
		return &DefaultLogger{
			logger: log.New(os.Stderr, prefix, log.LstdFlags|log.Lshortfile),
			level:  l.level,
		}
	}
	return l
}
