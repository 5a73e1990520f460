// Package cmd provides the command-line interface for mcp-telemetry.
//
// This package implements a Cobra-based CLI with multiple subcommands:
//   - serve: Starts the MCP server (default behavior when no subcommand is provided)
//   - version: Displays the application version
//
// The CLI maintains backwards compatibility by running the serve command when
// no subcommand is specified, preserving the original behavior of the application.
//
// Command Structure:
//
//	mcp-telemetry [flags]                 # Starts the MCP server (default)
//	mcp-telemetry serve [flags]           # Explicitly starts the MCP server
//	mcp-telemetry version                 # Shows version information
//	mcp-telemetry help [command]          # Shows help information
//
// The serve command supports multiple transport options:
//   - stdio: Standard input/output (default) - for command-line integration
//   - sse: Server-Sent Events over HTTP - for web-based clients
//   - streamable-http: Streamable HTTP transport - for HTTP-based integration
//
// Transport Configuration Examples:
//
//	mcp-telemetry serve --transport stdio           # Default STDIO transport
//	mcp-telemetry serve --transport sse --http-addr :8080 --sse-endpoint /sse
//	mcp-telemetry serve --transport streamable-http --http-addr :9000 --http-endpoint /mcp
//
// Telemetry itself is configured through environment variables: OTEL_TRACES_EXPORTER
// selects the trace exporter (otlp, console, none), METRICS_EXPORTER selects the
// metrics exporter (prometheus, otlp, stdout, none), and OTEL_EXPORTER_OTLP_ENDPOINT
// points the OTLP exporters at a collector. The --metrics-enabled and --metrics-addr
// flags control the dedicated Prometheus endpoint for HTTP transports.
package cmd
