package telemetry

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys - using constants for consistency and DRY
const (
	attrTool      = "tool"
	attrOutcome   = "outcome"
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrCategory  = "category"
	attrErrorType = "error_type"
)

// Outcome values for tool execution metrics.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Collector provides methods for recording observability metrics.
//
// A nil *Collector is valid: every recording method no-ops, so callers
// never need to check whether metrics are enabled.
type Collector struct {
	// Tool execution metrics
	toolExecutionsTotal metric.Int64Counter
	toolDuration        metric.Float64Histogram

	// HTTP request metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Error and session metrics
	errorsTotal     metric.Int64Counter
	sessionsTotal   metric.Int64Counter
	sessionDuration metric.Float64Histogram
}

// NewCollector creates a new Collector with all instruments initialized.
func NewCollector(meter metric.Meter) (*Collector, error) {
	c := &Collector{}

	var err error

	c.toolExecutionsTotal, err = meter.Int64Counter(
		"mcp_tool_executions_total",
		metric.WithDescription("Total number of MCP tool executions"),
		metric.WithUnit("{execution}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_executions_total counter: %w", err)
	}

	c.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	c.httpRequestsTotal, err = meter.Int64Counter(
		"mcp_http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_http_requests_total counter: %w", err)
	}

	c.httpRequestDuration, err = meter.Float64Histogram(
		"mcp_http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_http_request_duration_seconds histogram: %w", err)
	}

	c.errorsTotal, err = meter.Int64Counter(
		"mcp_errors_total",
		metric.WithDescription("Total number of errors by category"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_errors_total counter: %w", err)
	}

	c.sessionsTotal, err = meter.Int64Counter(
		"mcp_sessions_total",
		metric.WithDescription("Total number of MCP sessions started"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_sessions_total counter: %w", err)
	}

	c.sessionDuration, err = meter.Float64Histogram(
		"mcp_session_duration_seconds",
		metric.WithDescription("Observed session age in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 1, 5, 30, 60, 300, 900, 1800, 3600),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_session_duration_seconds histogram: %w", err)
	}

	return c, nil
}

// RecordToolExecution records a completed tool execution with its outcome.
func (c *Collector) RecordToolExecution(ctx context.Context, tool, outcome string) {
	if c == nil || c.toolExecutionsTotal == nil {
		return // Instrumentation not initialized
	}

	c.toolExecutionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrTool, tool),
		attribute.String(attrOutcome, outcome),
	))
}

// RecordToolDuration records the duration of a successful tool execution.
func (c *Collector) RecordToolDuration(ctx context.Context, tool string, duration time.Duration) {
	if c == nil || c.toolDuration == nil {
		return // Instrumentation not initialized
	}

	c.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(attrTool, tool),
	))
}

// RecordHTTPRequest records an HTTP request with method, normalized path,
// status code, and duration. The status code rides on the counter only;
// the duration histogram is keyed by method and path.
func (c *Collector) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if c == nil || c.httpRequestsTotal == nil || c.httpRequestDuration == nil {
		return // Instrumentation not initialized
	}

	methodAttr := attribute.String(attrMethod, method)
	pathAttr := attribute.String(attrPath, path)

	c.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(
		methodAttr,
		pathAttr,
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	))
	c.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		methodAttr,
		pathAttr,
	))
}

// RecordError records an error occurrence by category and error type.
// Category is the instrumented surface ("tool", "resource", "prompt",
// "http"); errorType is the concrete Go type name of the error.
func (c *Collector) RecordError(ctx context.Context, category, errorType string) {
	if c == nil || c.errorsTotal == nil {
		return // Instrumentation not initialized
	}

	c.errorsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrCategory, category),
		attribute.String(attrErrorType, errorType),
	))
}

// RecordSessionStart records the first observation of a session identifier.
func (c *Collector) RecordSessionStart(ctx context.Context) {
	if c == nil || c.sessionsTotal == nil {
		return // Instrumentation not initialized
	}

	c.sessionsTotal.Add(ctx, 1)
}

// RecordSessionDuration records the running age of an established session.
func (c *Collector) RecordSessionDuration(ctx context.Context, duration time.Duration) {
	if c == nil || c.sessionDuration == nil {
		return // Instrumentation not initialized
	}

	c.sessionDuration.Record(ctx, duration.Seconds())
}
