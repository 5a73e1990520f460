package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/opsforge/mcp-telemetry/internal/logging"
	"github.com/opsforge/mcp-telemetry/internal/server"
	"github.com/opsforge/mcp-telemetry/internal/telemetry"
	"github.com/opsforge/mcp-telemetry/internal/tools/diagnostics"
)

// Transport type constants for the MCP server.
const (
	transportStdio          = "stdio"
	transportSSE            = "sse"
	transportStreamableHTTP = "streamable-http"
)

// serverName is the MCP server identity reported during initialization.
const serverName = "mcp-telemetry"

// newServeCmd creates the Cobra command for starting the MCP server.
func newServeCmd() *cobra.Command {
	var (
		debugMode     bool
		disabledTools []string

		// Transport options
		transport       string
		httpAddr        string
		sseEndpoint     string
		messageEndpoint string
		httpEndpoint    string

		// Metrics server options
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP telemetry server",
		Long: `Start the MCP telemetry server. All registered tools, resources, and
prompts are wrapped with OpenTelemetry tracing before they are exposed over
the Model Context Protocol.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - sse: Server-Sent Events over HTTP
  - streamable-http: Streamable HTTP transport

Telemetry is configured through OTEL_* environment variables (exporter
selection, OTLP endpoint, sampling ratio). When no exporter is configured
the server runs with tracing disabled and near-zero overhead.

HTTP transports additionally serve /healthz and /readyz, correlate requests
to MCP sessions, and can expose Prometheus metrics on a dedicated port.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := ServeConfig{
				Transport:       transport,
				HTTPAddr:        httpAddr,
				SSEEndpoint:     sseEndpoint,
				MessageEndpoint: messageEndpoint,
				HTTPEndpoint:    httpEndpoint,
				DebugMode:       debugMode,
				DisabledTools:   disabledTools,
				Metrics: MetricsServeConfig{
					Enabled: metricsEnabled,
					Addr:    metricsAddr,
				},
			}
			// Load env vars only for flags not explicitly set by user
			loadMetricsEnvVars(cmd, &config.Metrics)

			return runServe(config)
		},
	}

	// Behavior flags
	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging (default: false)")
	cmd.Flags().StringSliceVar(&disabledTools, "disable-tool", nil, "Tool name to skip during registration (repeatable)")

	// Transport flags
	cmd.Flags().StringVar(&transport, "transport", transportStdio, "Transport type: stdio, sse, or streamable-http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "HTTP server address (for sse and streamable-http transports)")
	cmd.Flags().StringVar(&sseEndpoint, "sse-endpoint", "/sse", "SSE endpoint path (for sse transport)")
	cmd.Flags().StringVar(&messageEndpoint, "message-endpoint", "/message", "Message endpoint path (for sse transport)")
	cmd.Flags().StringVar(&httpEndpoint, "http-endpoint", "/mcp", "HTTP endpoint path (for streamable-http transport)")

	// Metrics flags
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Serve Prometheus metrics on a dedicated port (can also be set via METRICS_ENABLED env var)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address (can also be set via METRICS_ADDR env var)")

	return cmd
}

// runServe contains the main server logic with support for multiple transports
func runServe(config ServeConfig) error {
	// Setup graceful shutdown - listen for both SIGINT and SIGTERM
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize the OpenTelemetry provider from the environment
	telemetryConfig := telemetry.DefaultConfig()
	telemetryConfig.ServiceVersion = rootCmd.Version
	provider, err := telemetry.NewProvider(shutdownCtx, telemetryConfig)
	if err != nil {
		return fmt.Errorf("failed to create telemetry provider: %w", err)
	}
	defer func() {
		if shutdownErr := provider.Shutdown(context.Background()); shutdownErr != nil {
			// Only log shutdown errors for non-stdio transports to avoid output interference
			if config.Transport != transportStdio {
				log.Printf("Error during telemetry shutdown: %v", shutdownErr)
			}
		}
	}()

	if provider.Enabled() && config.Transport != transportStdio {
		log.Printf("OpenTelemetry tracing enabled (tracing: %s, metrics: %s, endpoint: %s)",
			telemetryConfig.TracingExporter, telemetryConfig.MetricsExporter,
			logging.SanitizeHost(telemetryConfig.OTLPEndpoint))
	}

	// Create server context wired to the telemetry provider
	serverContext, err := server.NewServerContext(shutdownCtx,
		server.WithTelemetryProvider(provider),
		server.WithLogger(newSlogLogger(config.DebugMode)),
		server.WithServerName(serverName),
		server.WithVersion(rootCmd.Version),
		server.WithDisabledTools(config.DisabledTools),
	)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			// Only log shutdown errors for non-stdio transports to avoid output interference
			if config.Transport != transportStdio {
				log.Printf("Error during server context shutdown: %v", err)
			}
		}
	}()

	// Create MCP server
	mcpSrv := mcpserver.NewMCPServer(serverName, rootCmd.Version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(true, true),
		mcpserver.WithPromptCapabilities(true),
	)

	// Register the built-in diagnostics callables, instrumented
	diagnostics.RegisterAll(mcpSrv, serverContext)

	// Start the appropriate server based on transport type
	switch config.Transport {
	case transportStdio:
		// Don't print startup message for stdio mode as it interferes with MCP communication
		return runStdioServer(mcpSrv)
	case transportSSE:
		fmt.Printf("Starting MCP telemetry server with %s transport...\n", config.Transport)
		return runSSEServer(mcpSrv, config, shutdownCtx, provider, serverContext)
	case transportStreamableHTTP:
		fmt.Printf("Starting MCP telemetry server with %s transport...\n", config.Transport)
		return runStreamableHTTPServer(mcpSrv, config, shutdownCtx, provider, serverContext)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, sse, streamable-http)", config.Transport)
	}
}
