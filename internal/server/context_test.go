// Package server provides tests for ServerContext functionality.
package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsforge/mcp-telemetry/internal/telemetry"
)

func TestNewServerContext_RequiresTelemetryProvider(t *testing.T) {
	sc, err := NewServerContext(context.Background())

	assert.Nil(t, sc)
	assert.ErrorIs(t, err, ErrMissingTelemetryProvider)
}

func TestNewServerContext_Defaults(t *testing.T) {
	provider := createTestProvider(t)

	sc, err := NewServerContext(context.Background(), WithTelemetryProvider(provider))
	require.NoError(t, err)
	defer func() { _ = sc.Shutdown() }()

	assert.Same(t, provider, sc.TelemetryProvider())
	assert.NotNil(t, sc.Logger())
	assert.NotNil(t, sc.Config())
	assert.NotNil(t, sc.Instrumentor(), "instrumentor should derive from the provider")
	assert.NotNil(t, sc.Sessions())
	assert.NotNil(t, sc.Metrics())
	assert.Equal(t, "mcp-telemetry", sc.Config().ServerName)
	assert.False(t, sc.IsShutdown())
}

func TestNewServerContext_Options(t *testing.T) {
	provider := createTestProvider(t)
	tracker := telemetry.NewSessionTracker()

	sc, err := NewServerContext(context.Background(),
		WithTelemetryProvider(provider),
		WithServerName("custom-server"),
		WithVersion("1.2.3"),
		WithLogLevel("debug"),
		WithDisabledTools([]string{"echo"}),
		WithSessionTracker(tracker),
	)
	require.NoError(t, err)
	defer func() { _ = sc.Shutdown() }()

	assert.Equal(t, "custom-server", sc.Config().ServerName)
	assert.Equal(t, "1.2.3", sc.Config().Version)
	assert.Equal(t, "debug", sc.Config().LogLevel)
	assert.True(t, sc.Config().ToolDisabled("echo"))
	assert.False(t, sc.Config().ToolDisabled("server_info"))
	assert.Same(t, tracker, sc.Sessions())
}

func TestNewServerContext_NilOptionValues(t *testing.T) {
	provider := createTestProvider(t)

	_, err := NewServerContext(context.Background(),
		WithTelemetryProvider(provider),
		WithLogger(nil),
	)
	assert.ErrorIs(t, err, ErrMissingLogger)

	_, err = NewServerContext(context.Background(),
		WithTelemetryProvider(provider),
		WithConfig(nil),
	)
	assert.ErrorIs(t, err, ErrMissingConfig)

	_, err = NewServerContext(context.Background(), WithTelemetryProvider(nil))
	assert.ErrorIs(t, err, ErrMissingTelemetryProvider)
}

func TestWithConfig_Clones(t *testing.T) {
	provider := createTestProvider(t)

	original := &Config{
		ServerName:    "clone-test",
		Version:       "0.0.1",
		DisabledTools: []string{"echo"},
	}

	sc, err := NewServerContext(context.Background(),
		WithTelemetryProvider(provider),
		WithConfig(original),
	)
	require.NoError(t, err)
	defer func() { _ = sc.Shutdown() }()

	// Mutating the original after construction must not leak into the context.
	original.ServerName = "mutated"
	original.DisabledTools[0] = "mutated"

	assert.Equal(t, "clone-test", sc.Config().ServerName)
	assert.Equal(t, "echo", sc.Config().DisabledTools[0])
}

func TestConfigClone(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		var c *Config
		assert.Nil(t, c.Clone())
	})

	t.Run("deep copies slices", func(t *testing.T) {
		c := &Config{DisabledTools: []string{"a", "b"}}
		clone := c.Clone()

		clone.DisabledTools[0] = "z"
		assert.Equal(t, "a", c.DisabledTools[0])
	})
}

func TestServerContextShutdown(t *testing.T) {
	provider := createTestProvider(t)

	sc, err := NewServerContext(context.Background(), WithTelemetryProvider(provider))
	require.NoError(t, err)

	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())

	select {
	case <-sc.Context().Done():
	default:
		t.Error("server context was not cancelled on shutdown")
	}

	// Shutdown is idempotent.
	assert.NoError(t, sc.Shutdown())
}

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.IncrementToolsRegistered()
	m.IncrementToolsRegistered()
	m.IncrementResourcesRegistered()
	m.IncrementPromptsRegistered()

	tools, resources, prompts := m.GetMetrics()
	assert.Equal(t, int64(2), tools)
	assert.Equal(t, int64(1), resources)
	assert.Equal(t, int64(1), prompts)
}
