package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opsforge/mcp-telemetry/internal/logging"
	"github.com/opsforge/mcp-telemetry/internal/server"
	"github.com/opsforge/mcp-telemetry/internal/telemetry"
	"github.com/opsforge/mcp-telemetry/internal/tools"
)

// maxEchoRepeat bounds the echo repeat argument.
const maxEchoRepeat = 10

// handlers carries the server context into handlers that need it. Stateless
// handlers stay package-level functions.
type handlers struct {
	sc      *server.ServerContext
	started time.Time
}

func newHandlers(sc *server.ServerContext) *handlers {
	return &handlers{
		sc:      sc,
		started: time.Now(),
	}
}

// handleEcho returns the message argument, optionally upper-cased and
// repeated.
func handleEcho(_ context.Context, args map[string]any) (any, error) {
	message, ok := tools.RequireString(args, "message")
	if !ok {
		return nil, errors.New("message is required")
	}

	if tools.GetBool(args, "uppercase", false) {
		message = strings.ToUpper(message)
	}

	repeat := tools.GetInt(args, "repeat", 1)
	if repeat < 1 {
		repeat = 1
	}
	if repeat > maxEchoRepeat {
		return nil, fmt.Errorf("repeat must be at most %d, got %d", maxEchoRepeat, repeat)
	}
	if repeat == 1 {
		return message, nil
	}

	parts := make([]string, repeat)
	for i := range parts {
		parts[i] = message
	}
	return strings.Join(parts, " "), nil
}

// handleServerInfo reports server identity and telemetry pipeline state.
func (h *handlers) handleServerInfo(_ context.Context, _ map[string]any) (any, error) {
	cfg := h.sc.Config()
	registeredTools, resources, prompts := h.sc.Metrics().GetMetrics()

	info := map[string]any{
		"name":    cfg.ServerName,
		"version": cfg.Version,
		"uptime":  time.Since(h.started).Truncate(time.Second).String(),
		"registrations": map[string]any{
			"tools":     registeredTools,
			"resources": resources,
			"prompts":   prompts,
		},
	}

	if provider := h.sc.TelemetryProvider(); provider != nil {
		telemetryInfo := map[string]any{
			"enabled": provider.Enabled(),
		}
		if pc := provider.Config(); pc != nil {
			telemetryInfo["tracing_exporter"] = pc.TracingExporter
			telemetryInfo["metrics_exporter"] = pc.MetricsExporter
		}
		info["telemetry"] = telemetryInfo
	}

	if sessions := h.sc.Sessions(); sessions != nil {
		info["sessions_tracked"] = sessions.Len()
	}

	return info, nil
}

// handleSessionInfo reports the correlation state of the calling request.
// Session identity comes from baggage, so it reflects whatever the HTTP
// middleware extracted upstream. The trace and span ids of the calling
// request are included when a recording span is active.
func (h *handlers) handleSessionInfo(ctx context.Context, _ map[string]any) (any, error) {
	sessionID := telemetry.SessionIDFromContext(ctx)
	if sessionID == "" {
		info := map[string]any{
			"correlated": false,
		}
		addTraceContext(ctx, info)
		return info, nil
	}

	info := map[string]any{
		"correlated":   true,
		"session_hash": logging.AnonymizeSessionID(sessionID),
	}
	addTraceContext(ctx, info)

	if sessions := h.sc.Sessions(); sessions != nil {
		if firstSeen, ok := sessions.FirstSeen(sessionID); ok {
			info["tracked"] = true
			info["age"] = time.Since(firstSeen).Truncate(time.Millisecond).String()
		} else {
			info["tracked"] = false
		}
	}

	return info, nil
}

// addTraceContext records the active trace and span ids in the info map.
// Without a valid span context (stdio transport, telemetry disabled) the
// map is left untouched.
func addTraceContext(ctx context.Context, info map[string]any) {
	if traceID := telemetry.GetTraceID(ctx); traceID != "" {
		info["trace_id"] = traceID
		info["span_id"] = telemetry.GetSpanID(ctx)
	}
}

// handleServerConfigResource serves the active configuration.
func (h *handlers) handleServerConfigResource(_ context.Context, _ map[string]any) (any, error) {
	return h.sc.Config().Clone(), nil
}

// handleSessionResource serves correlation state for an arbitrary session id.
func (h *handlers) handleSessionResource(_ context.Context, args map[string]any) (any, error) {
	id, ok := tools.RequireString(args, "id")
	if !ok {
		return nil, errors.New("session id is required")
	}

	state := map[string]any{
		"session_hash": logging.AnonymizeSessionID(id),
		"tracked":      false,
	}

	if sessions := h.sc.Sessions(); sessions != nil {
		if firstSeen, ok := sessions.FirstSeen(id); ok {
			state["tracked"] = true
			state["first_seen"] = firstSeen.UTC().Format(time.RFC3339)
			state["age"] = time.Since(firstSeen).Truncate(time.Millisecond).String()
		}
	}

	return state, nil
}

// handleTroubleshootPrompt produces a prompt guiding trace-based diagnosis.
func handleTroubleshootPrompt(_ context.Context, args map[string]any) ([]telemetry.PromptMessage, error) {
	component := tools.GetString(args, "component", "tool")
	switch component {
	case "tool", "resource", "prompt":
	default:
		return nil, fmt.Errorf("unknown component %q, expected tool, resource, or prompt", component)
	}

	return []telemetry.PromptMessage{
		{
			Role: "system",
			Content: "You are diagnosing failed MCP operations from their OpenTelemetry " +
				"traces. Spans follow the naming scheme mcp.<component>.<name>.<operation> " +
				"and carry lifecycle events for start, completion, and errors.",
		},
		{
			Role: "user",
			Content: fmt.Sprintf("Inspect the most recent %s spans with error status. "+
				"For each, report the span name, the error.type and error.message "+
				"event attributes, and whether the session id attribute links it to "+
				"other failures.", component),
		},
	}, nil
}
