package diagnostics

import (
	"context"
	"testing"

	mcpgoserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/opsforge/mcp-telemetry/internal/server"
	"github.com/opsforge/mcp-telemetry/internal/telemetry"
)

func newTestServerContext(t *testing.T, opts ...server.Option) *server.ServerContext {
	t.Helper()

	provider, err := telemetry.NewProvider(context.Background(), telemetry.Config{
		ServiceName:     "diagnostics-test",
		TracingExporter: telemetry.ExporterNone,
		MetricsExporter: telemetry.ExporterNone,
	})
	require.NoError(t, err)

	opts = append([]server.Option{server.WithTelemetryProvider(provider)}, opts...)
	sc, err := server.NewServerContext(context.Background(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestHandleEcho(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		want    string
		wantErr string
	}{
		{
			name:    "missing message",
			args:    map[string]any{},
			wantErr: "message is required",
		},
		{
			name: "plain echo",
			args: map[string]any{"message": "hello"},
			want: "hello",
		},
		{
			name: "uppercase",
			args: map[string]any{"message": "hello", "uppercase": true},
			want: "HELLO",
		},
		{
			name: "repeat",
			args: map[string]any{"message": "hi", "repeat": float64(3)},
			want: "hi hi hi",
		},
		{
			name:    "repeat over limit",
			args:    map[string]any{"message": "hi", "repeat": 11},
			wantErr: "repeat must be at most 10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := handleEcho(context.Background(), tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHandleServerInfo(t *testing.T) {
	sc := newTestServerContext(t,
		server.WithServerName("info-test"),
		server.WithVersion("9.9.9"),
	)
	sc.Metrics().IncrementToolsRegistered()
	h := newHandlers(sc)

	result, err := h.handleServerInfo(context.Background(), nil)
	require.NoError(t, err)

	info, ok := result.(map[string]any)
	require.True(t, ok)

	assert.Equal(t, "info-test", info["name"])
	assert.Equal(t, "9.9.9", info["version"])
	assert.NotEmpty(t, info["uptime"])

	registrations, ok := info["registrations"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(1), registrations["tools"])

	telemetryInfo, ok := info["telemetry"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, telemetryInfo["enabled"])
	assert.Equal(t, telemetry.ExporterNone, telemetryInfo["tracing_exporter"])
}

func TestHandleSessionInfo(t *testing.T) {
	sc := newTestServerContext(t)
	h := newHandlers(sc)

	t.Run("no session in context", func(t *testing.T) {
		result, err := h.handleSessionInfo(context.Background(), nil)
		require.NoError(t, err)

		info := result.(map[string]any)
		assert.Equal(t, false, info["correlated"])
	})

	t.Run("tracked session", func(t *testing.T) {
		sc.Sessions().Observe("abc-123")
		ctx := telemetry.ContextWithSessionID(context.Background(), "abc-123")

		result, err := h.handleSessionInfo(ctx, nil)
		require.NoError(t, err)

		info := result.(map[string]any)
		assert.Equal(t, true, info["correlated"])
		assert.Equal(t, true, info["tracked"])
		assert.Contains(t, info["session_hash"], "session:")
		assert.NotContains(t, info["session_hash"], "abc-123")
	})

	t.Run("correlated but untracked session", func(t *testing.T) {
		ctx := telemetry.ContextWithSessionID(context.Background(), "never-observed")

		result, err := h.handleSessionInfo(ctx, nil)
		require.NoError(t, err)

		info := result.(map[string]any)
		assert.Equal(t, true, info["correlated"])
		assert.Equal(t, false, info["tracked"])
		assert.NotContains(t, info, "trace_id", "no trace context without an active span")
	})

	t.Run("trace context from active span", func(t *testing.T) {
		tp := sdktrace.NewTracerProvider()
		t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
		ctx, span := tp.Tracer("test").Start(context.Background(), "session.info")
		defer span.End()

		result, err := h.handleSessionInfo(ctx, nil)
		require.NoError(t, err)

		info := result.(map[string]any)
		assert.Equal(t, span.SpanContext().TraceID().String(), info["trace_id"])
		assert.Equal(t, span.SpanContext().SpanID().String(), info["span_id"])
	})
}

func TestHandleServerConfigResource(t *testing.T) {
	sc := newTestServerContext(t, server.WithServerName("config-test"))
	h := newHandlers(sc)

	result, err := h.handleServerConfigResource(context.Background(), nil)
	require.NoError(t, err)

	cfg, ok := result.(*server.Config)
	require.True(t, ok)
	assert.Equal(t, "config-test", cfg.ServerName)

	// The resource serves a copy, not the live configuration.
	cfg.ServerName = "mutated"
	assert.Equal(t, "config-test", sc.Config().ServerName)
}

func TestHandleSessionResource(t *testing.T) {
	sc := newTestServerContext(t)
	h := newHandlers(sc)

	t.Run("missing id", func(t *testing.T) {
		_, err := h.handleSessionResource(context.Background(), map[string]any{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "session id is required")
	})

	t.Run("unknown id", func(t *testing.T) {
		result, err := h.handleSessionResource(context.Background(), map[string]any{"id": "ghost"})
		require.NoError(t, err)

		state := result.(map[string]any)
		assert.Equal(t, false, state["tracked"])
	})

	t.Run("tracked id", func(t *testing.T) {
		sc.Sessions().Observe("known")

		result, err := h.handleSessionResource(context.Background(), map[string]any{"id": "known"})
		require.NoError(t, err)

		state := result.(map[string]any)
		assert.Equal(t, true, state["tracked"])
		assert.NotEmpty(t, state["first_seen"])
		assert.NotContains(t, state["session_hash"], "known")
	})
}

func TestHandleTroubleshootPrompt(t *testing.T) {
	t.Run("default component", func(t *testing.T) {
		messages, err := handleTroubleshootPrompt(context.Background(), map[string]any{})
		require.NoError(t, err)
		require.Len(t, messages, 2)

		assert.Equal(t, "system", messages[0].Role)
		assert.Equal(t, "user", messages[1].Role)
		assert.Contains(t, messages[1].Content, "tool spans")
	})

	t.Run("explicit component", func(t *testing.T) {
		messages, err := handleTroubleshootPrompt(context.Background(), map[string]any{"component": "resource"})
		require.NoError(t, err)
		assert.Contains(t, messages[1].Content, "resource spans")
	})

	t.Run("unknown component", func(t *testing.T) {
		_, err := handleTroubleshootPrompt(context.Background(), map[string]any{"component": "widget"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown component")
	})
}

func TestRegisterAll(t *testing.T) {
	sc := newTestServerContext(t)
	mcpServer := mcpgoserver.NewMCPServer("diagnostics-test", "0.0.1")

	RegisterAll(mcpServer, sc)

	toolCount, resources, prompts := sc.Metrics().GetMetrics()
	assert.Equal(t, int64(3), toolCount)
	assert.Equal(t, int64(2), resources)
	assert.Equal(t, int64(1), prompts)
}

func TestRegisterAllSkipsDisabledTools(t *testing.T) {
	sc := newTestServerContext(t, server.WithDisabledTools([]string{"echo"}))
	mcpServer := mcpgoserver.NewMCPServer("diagnostics-test", "0.0.1")

	RegisterAll(mcpServer, sc)

	toolCount, _, _ := sc.Metrics().GetMetrics()
	assert.Equal(t, int64(2), toolCount)
}
