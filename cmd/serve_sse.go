package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/opsforge/mcp-telemetry/internal/server"
	"github.com/opsforge/mcp-telemetry/internal/telemetry"
)

// runSSEServer runs the server with SSE transport
func runSSEServer(mcpSrv *mcpserver.MCPServer, config ServeConfig, ctx context.Context, provider *telemetry.Provider, sc *server.ServerContext) error {
	if config.DebugMode {
		log.Printf("[DEBUG] Initializing SSE server with configuration:")
		log.Printf("[DEBUG]   Address: %s", config.HTTPAddr)
		log.Printf("[DEBUG]   SSE Endpoint: %s", config.SSEEndpoint)
		log.Printf("[DEBUG]   Message Endpoint: %s", config.MessageEndpoint)
	}

	// Create SSE server with custom endpoints
	sseServer := mcpserver.NewSSEServer(mcpSrv,
		mcpserver.WithSSEEndpoint(config.SSEEndpoint),
		mcpserver.WithMessageEndpoint(config.MessageEndpoint),
	)

	// The SSE server is mounted as a handler on our own http.Server so the
	// tracing middleware sees both the SSE stream and message requests.
	mux := http.NewServeMux()
	mux.Handle("/", sseServer)

	healthChecker := server.NewHealthChecker(sc)
	healthChecker.RegisterHealthEndpoints(mux)

	var handler http.Handler = mux
	handler = telemetry.HTTPTracing(provider, sc.Sessions())(handler)

	// Start metrics server if enabled
	var metricsServer *server.MetricsServer
	if config.Metrics.Enabled && provider != nil && provider.Enabled() {
		var err error
		metricsServer, err = startMetricsServer(config.Metrics, provider)
		if err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	httpServer := &http.Server{
		Addr:              config.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	fmt.Printf("SSE server starting on %s\n", config.HTTPAddr)
	fmt.Printf("  SSE endpoint: %s\n", config.SSEEndpoint)
	fmt.Printf("  Message endpoint: %s\n", config.MessageEndpoint)

	if config.DebugMode {
		log.Printf("[DEBUG] SSE server instance created, starting listener on %s", config.HTTPAddr)
	}

	if err := serveUntilDone(ctx, httpServer, metricsServer); err != nil {
		return err
	}

	fmt.Println("SSE server gracefully stopped")
	if config.DebugMode {
		log.Printf("[DEBUG] SSE server shutdown sequence completed")
	}
	return nil
}
