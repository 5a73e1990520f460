package telemetry

import (
	"os"
	"strconv"
	"strings"
)

// Exporter kind selectors for traces and metrics.
const (
	// ExporterConsole writes spans to stderr in a human-readable form.
	ExporterConsole = "console"

	// ExporterOTLP ships spans/metrics over OTLP HTTP.
	ExporterOTLP = "otlp"

	// ExporterPrometheus exposes metrics for Prometheus scraping.
	ExporterPrometheus = "prometheus"

	// ExporterStdout writes metrics to stdout.
	ExporterStdout = "stdout"

	// ExporterNone disables the corresponding signal entirely.
	ExporterNone = "none"
)

// Config holds the configuration for OpenTelemetry instrumentation.
type Config struct {
	// ServiceName is the name of the service (default: mcp-telemetry)
	ServiceName string

	// ServiceVersion is the version of the service
	ServiceVersion string

	// ServiceInstanceID identifies this process instance
	ServiceInstanceID string

	// TracingExporter specifies the trace exporter type
	// Options: "otlp", "console", "none" (default: "console")
	TracingExporter string

	// MetricsExporter specifies the metrics exporter type
	// Options: "prometheus", "otlp", "stdout", "none" (default: "prometheus")
	MetricsExporter string

	// OTLPEndpoint is the OTLP collector endpoint, e.g. "http://localhost:4318".
	// Required when either exporter is "otlp"; when missing, tracing degrades
	// to the disabled state rather than failing startup.
	OTLPEndpoint string

	// OTLPHeaders carries extra headers for the OTLP exporter as a flat
	// comma-separated key=value list, e.g. "X-Api-Key=abc,X-Tenant=t1".
	OTLPHeaders string

	// OTLPInsecure controls whether to use insecure HTTP for OTLP export.
	// Set to true only for local development with unencrypted endpoints.
	OTLPInsecure bool
}

// DefaultConfig returns a Config with sensible defaults based on environment variables.
func DefaultConfig() Config {
	return Config{
		ServiceName:       getEnvOrDefault("OTEL_SERVICE_NAME", "mcp-telemetry"),
		ServiceVersion:    getEnvOrDefault("SERVICE_VERSION", "unknown"),
		ServiceInstanceID: getEnvOrDefault("SERVICE_INSTANCE_ID", "default"),
		TracingExporter:   strings.ToLower(getEnvOrDefault("OTEL_TRACES_EXPORTER", ExporterConsole)),
		MetricsExporter:   strings.ToLower(getEnvOrDefault("METRICS_EXPORTER", ExporterPrometheus)),
		OTLPEndpoint:      getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPHeaders:       getEnvOrDefault("OTEL_EXPORTER_OTLP_HEADERS", ""),
		OTLPInsecure:      getEnvBoolOrDefault("OTEL_EXPORTER_OTLP_INSECURE", false),
	}
}

// ParseHeaderList parses a flat comma-separated key=value list into a map.
// Entries without "=" are skipped; keys and values are whitespace-trimmed.
// Returns nil for an empty list so callers can pass it straight to exporter
// options.
func ParseHeaderList(list string) map[string]string {
	if list == "" {
		return nil
	}
	headers := make(map[string]string)
	for _, pair := range strings.Split(list, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(value)
	}
	if len(headers) == 0 {
		return nil
	}
	return headers
}

// getEnvOrDefault returns the value of an environment variable or a default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBoolOrDefault returns the boolean value of an environment variable or a default value.
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}
