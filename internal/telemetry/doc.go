// Package telemetry provides OpenTelemetry instrumentation for MCP servers.
//
// The package covers four concerns:
//   - Provider lifecycle: trace and metric pipeline setup from environment
//     configuration, with a fail-soft disabled state when the configured
//     exporter cannot be used
//   - Handler instrumentation: wrapping tool, resource, and prompt handlers
//     in spans with a fixed attribute and event contract
//   - Session correlation: a bounded registry classifying requests as new
//     or continuing sessions, propagated downstream as baggage
//   - HTTP middleware: per-request spans, session extraction, and request
//     metrics with normalized paths
//
// # Metrics
//
// The collector exposes:
//   - mcp_tool_executions_total: Counter of tool executions by tool and outcome
//   - mcp_tool_duration_seconds: Histogram of successful tool execution durations
//   - mcp_http_requests_total: Counter of HTTP requests by method, path, and status
//   - mcp_http_request_duration_seconds: Histogram of HTTP request durations
//   - mcp_errors_total: Counter of errors by category and error type
//   - mcp_sessions_total: Counter of session starts
//   - mcp_session_duration_seconds: Histogram of observed session ages
//
// # Configuration
//
// Instrumentation is configured via environment variables:
//   - OTEL_SERVICE_NAME: Service name (default: mcp-telemetry)
//   - SERVICE_VERSION: Service version (default: unknown)
//   - SERVICE_INSTANCE_ID: Instance identifier (default: default)
//   - OTEL_TRACES_EXPORTER: Trace exporter (console, otlp, none, default: console)
//   - METRICS_EXPORTER: Metrics exporter (prometheus, otlp, stdout, none, default: prometheus)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint, required for the otlp exporters
//   - OTEL_EXPORTER_OTLP_HEADERS: Extra OTLP headers as comma-separated key=value pairs
//   - OTEL_EXPORTER_OTLP_INSECURE: Use plain HTTP for OTLP export (default: false)
//
// Selecting the otlp exporter without an endpoint disables tracing instead of
// failing: instrumentation is strictly additive and never prevents the host
// from starting.
//
// # Example Usage
//
//	provider, err := telemetry.NewProvider(ctx, telemetry.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	// Wrap a tool handler
//	in := telemetry.NewInstrumentor(provider)
//	handler := in.WrapTool("echo", echoHandler)
//
//	// Trace inbound HTTP requests
//	sessions := telemetry.NewSessionTracker()
//	http.Handle("/mcp", telemetry.HTTPTracing(provider, sessions)(mcpHandler))
package telemetry
