// Package server provides the ServerContext pattern and related infrastructure
// for the MCP telemetry server.
//
// This package implements the core server architecture patterns including:
//
//   - ServerContext: Encapsulates all server dependencies and lifecycle management
//   - Functional Options: Clean dependency injection and configuration
//   - Logger Interface: Abstraction for logging operations
//   - HealthChecker: Liveness, readiness, and detailed health endpoints
//   - MetricsServer: Standalone Prometheus scrape endpoint
//
// The ServerContext Pattern:
//
// The ServerContext struct follows the context pattern commonly used in Go
// applications to encapsulate dependencies and provide clean separation of
// concerns. It includes:
//
//   - Telemetry provider (trace and metric pipelines)
//   - Callable instrumentor for tool, resource, and prompt handlers
//   - Session tracker for request correlation
//   - Logger interface
//   - Configuration settings
//   - Context for cancellation and timeouts
//   - Lifecycle management (shutdown, cleanup)
//
// All dependencies are injected using functional options, making the code
// highly testable and modular.
//
// Example usage:
//
//	// Create a server context with custom configuration
//	ctx := context.Background()
//	serverCtx, err := NewServerContext(ctx,
//		WithTelemetryProvider(provider),
//		WithLogger(customLogger),
//		WithServerName("mcp-telemetry"),
//		WithLogLevel("debug"),
//	)
//	if err != nil {
//		return err
//	}
//	defer serverCtx.Shutdown()
//
//	// Wrap handlers before registering them on the MCP server
//	instrumentor := serverCtx.Instrumentor()
//	logger := serverCtx.Logger()
//	config := serverCtx.Config()
//
//	// Check if server is shutting down
//	if serverCtx.IsShutdown() {
//		return ErrServerShutdown
//	}
//
// Shutdown cancels the inner context and flushes buffered telemetry through
// the provider, so spans recorded just before exit still reach the collector.
//
// Functional Options Pattern:
//
// The package uses functional options for flexible and extensible configuration:
//
//   - WithTelemetryProvider: Inject the telemetry provider (required)
//   - WithInstrumentor: Inject a custom instrumentor
//   - WithSessionTracker: Inject a shared session tracker
//   - WithLogger: Inject custom logger
//   - WithConfig: Provide complete configuration
//   - WithServerName: Set server name
//   - WithVersion: Set server version
//   - WithLogLevel: Set logging level
//   - WithDisabledTools: Exclude tools from registration
//
// This pattern allows for clean composition and makes the API forward-compatible
// as new options can be added without breaking existing code.
package server
