// Package logging provides structured logging utilities for the mcp-telemetry
// application.
//
// This package centralizes logging patterns to ensure consistent, structured
// logging throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - Session id anonymization for correlation without identifier exposure
//   - Host/URL sanitization so collector endpoints never leak topology
//   - Consistent attribute naming across the codebase
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "tool.execute")
//	logger.Info("executing tool",
//	    logging.Tool("echo"),
//	    logging.SessionHash(sessionID))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("exporter configured",
//	    logging.Host(otlpEndpoint))
//
// # Security Considerations
//
// This package is designed with security in mind:
//   - Session ids are hashed to prevent identifier leakage while allowing correlation
//   - Collector URLs have IP addresses redacted to prevent topology leakage
//   - Header values and tokens are never logged directly
package logging
