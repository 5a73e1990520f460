package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys for instrumented MCP callables.
const (
	// SpanAttrComponentType is the instrumented component kind
	// ("tool", "resource", "prompt").
	SpanAttrComponentType = "mcp.component.type"

	// SpanAttrComponentName is the registered component name.
	SpanAttrComponentName = "mcp.component.name"

	// SpanAttrToolName is the registered tool name, attached to lifecycle
	// events so they stay interpretable when exported without the span.
	SpanAttrToolName = "mcp.tool.name"

	// SpanAttrToolFunction is the Go function name of the wrapped handler.
	SpanAttrToolFunction = "mcp.tool.function"

	// SpanAttrToolModule is the package path of the wrapped handler.
	SpanAttrToolModule = "mcp.tool.module"

	// SpanAttrResourceFunction is the Go function name of the wrapped
	// resource handler.
	SpanAttrResourceFunction = "mcp.resource.function"

	// SpanAttrResourceModule is the package path of the wrapped resource
	// handler.
	SpanAttrResourceModule = "mcp.resource.module"

	// SpanAttrPromptFunction is the Go function name of the wrapped prompt
	// handler.
	SpanAttrPromptFunction = "mcp.prompt.function"

	// SpanAttrPromptModule is the package path of the wrapped prompt
	// handler.
	SpanAttrPromptModule = "mcp.prompt.module"

	// SpanAttrArgsCount is the number of arguments passed to the handler.
	SpanAttrArgsCount = "mcp.execution.args_count"

	// SpanAttrAsync indicates whether the handler takes a context
	// (the suspension-capable shape).
	SpanAttrAsync = "mcp.execution.async"

	// SpanAttrSessionID is the correlated session identifier.
	SpanAttrSessionID = "mcp.session.id"

	// SpanAttrResourceURI is the URI of an instrumented resource read.
	SpanAttrResourceURI = "mcp.resource.uri"

	// SpanAttrPromptName is the name of an instrumented prompt.
	SpanAttrPromptName = "mcp.prompt.name"

	// spanAttrContextPrefix prefixes allow-listed execution context fields.
	spanAttrContextPrefix = "mcp.context."
)

// Span attribute keys for HTTP request spans.
const (
	SpanAttrHTTPMethod = "http.method"
	SpanAttrHTTPPath   = "http.path"
	SpanAttrHTTPStatus = "http.status_code"
	SpanAttrOperation  = "mcp.operation"
	SpanAttrClientAddr = "client.address"
	SpanAttrUserAgent  = "http.user_agent"
	SpanAttrSessionNew = "mcp.session.new"
)

// SetSpanError records an error on the span and sets the status to error.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// AddSpanEvent adds an event to the span with optional attributes.
func AddSpanEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// GetTraceID returns the trace ID from the current span in context.
// Returns empty string if no valid span is present.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}

// GetSpanID returns the span ID from the current span in context.
// Returns empty string if no valid span is present.
func GetSpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().SpanID().String()
	}
	return ""
}
