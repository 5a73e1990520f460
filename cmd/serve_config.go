package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/opsforge/mcp-telemetry/internal/server"
)

// envValueTrue is the string value used to enable boolean environment variables.
const envValueTrue = "true"

// slogLogger adapts slog to the server.Logger interface, including the
// With-style context accumulation the interface requires.
type slogLogger struct {
	logger *slog.Logger
}

// newSlogLogger creates a structured logger writing to stderr. Logs go to
// stderr so stdout stays clean for the stdio transport.
func newSlogLogger(debugMode bool) server.Logger {
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &slogLogger{logger: slog.New(handler)}
}

func (l *slogLogger) Debug(msg string, args ...interface{}) {
	l.logger.Debug(msg, args...)
}

func (l *slogLogger) Info(msg string, args ...interface{}) {
	l.logger.Info(msg, args...)
}

func (l *slogLogger) Warn(msg string, args ...interface{}) {
	l.logger.Warn(msg, args...)
}

func (l *slogLogger) Error(msg string, args ...interface{}) {
	l.logger.Error(msg, args...)
}

func (l *slogLogger) With(args ...interface{}) server.Logger {
	return &slogLogger{logger: l.logger.With(args...)}
}

// ServeConfig holds all configuration for the serve command.
type ServeConfig struct {
	// Transport settings
	Transport string
	HTTPAddr  string

	// Endpoint paths
	SSEEndpoint     string
	MessageEndpoint string
	HTTPEndpoint    string

	// Behavior settings
	DebugMode     bool
	DisabledTools []string

	// Metrics server configuration
	Metrics MetricsServeConfig
}

// MetricsServeConfig holds configuration for the dedicated metrics server.
type MetricsServeConfig struct {
	// Enabled controls whether the standalone metrics server is started.
	Enabled bool

	// Addr is the metrics server listen address.
	Addr string
}

// loadEnvIfEmpty loads an environment variable into a string pointer if it's empty.
func loadEnvIfEmpty(target *string, envKey string) {
	if *target == "" {
		*target = os.Getenv(envKey)
	}
}

// loadMetricsEnvVars loads metrics server configuration from environment
// variables. Environment variables only override flag values when the flag
// was not explicitly set by the user.
func loadMetricsEnvVars(cmd *cobra.Command, config *MetricsServeConfig) {
	if !cmd.Flags().Changed("metrics-enabled") {
		if os.Getenv("METRICS_ENABLED") == envValueTrue {
			config.Enabled = true
		}
	}

	if !cmd.Flags().Changed("metrics-addr") {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			config.Addr = addr
		}
	}

	if config.Addr == "" {
		config.Addr = server.DefaultMetricsAddr
	}
}
