package telemetry

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Handler is the context-taking handler shape. Handlers of this form can
// suspend on the context and are recorded with mcp.execution.async=true.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// SyncHandler is the plain handler shape, recorded with
// mcp.execution.async=false. It runs on a background context internally so
// both shapes share one instrumentation path.
type SyncHandler func(args map[string]any) (any, error)

// PromptMessage is one message produced by a prompt handler.
type PromptMessage struct {
	Role    string
	Content string
}

// PromptHandler generates prompt messages from arguments.
type PromptHandler func(ctx context.Context, args map[string]any) ([]PromptMessage, error)

// SyncPromptHandler is the plain prompt handler shape.
type SyncPromptHandler func(args map[string]any) ([]PromptMessage, error)

// Span event names emitted around instrumented callables.
const (
	eventToolStarted   = "tool.execution.started"
	eventToolCompleted = "tool.execution.completed"
	eventToolError     = "tool.execution.error"

	eventResourceStarted   = "resource.read.started"
	eventResourceCompleted = "resource.read.completed"
	eventResourceError     = "resource.read.error"

	eventPromptStarted   = "prompt.generation.started"
	eventPromptCompleted = "prompt.generation.completed"
	eventPromptError     = "prompt.generation.error"
)

// Attribute keys attached to error lifecycle events.
const (
	eventAttrErrorType    = "error.type"
	eventAttrErrorMessage = "error.message"
)

// Error categories for the error counter.
const (
	categoryTool     = "tool"
	categoryResource = "resource"
	categoryPrompt   = "prompt"
	categoryHTTP     = "http"
)

// Instrumentor wraps MCP handlers with spans, events, and metrics.
//
// When the provider is disabled every Wrap method returns its argument
// unchanged, so registration code never branches on telemetry state.
type Instrumentor struct {
	provider *Provider
}

// NewInstrumentor creates an Instrumentor bound to the given provider.
func NewInstrumentor(provider *Provider) *Instrumentor {
	return &Instrumentor{provider: provider}
}

// WrapTool instruments a tool handler. The span is named
// "mcp.tool.<name>.execute" and carries the component identity, handler
// function identity, argument count, execution context fields, and a
// summary of the result shape. Errors are recorded on the span and
// returned to the caller unchanged.
func (in *Instrumentor) WrapTool(name string, handler Handler) Handler {
	if !in.provider.Enabled() {
		return handler
	}
	function, module := handlerIdentity(handler)
	spanName := fmt.Sprintf("mcp.tool.%s.execute", name)

	return func(ctx context.Context, args map[string]any) (any, error) {
		attrs := in.callableAttributes(ctx, categoryTool, name, args, true)
		attrs = append(attrs,
			attribute.String(SpanAttrToolFunction, function),
			attribute.String(SpanAttrToolModule, module),
		)
		identity := attribute.String(SpanAttrToolName, name)
		return in.run(ctx, spanName, attrs, toolEvents, identity, categoryTool, name, SummarizeToolResult,
			func(ctx context.Context) (any, error) {
				return handler(ctx, args)
			})
	}
}

// WrapToolSync instruments a plain tool handler. Behavior matches WrapTool
// except the execution is recorded as synchronous.
func (in *Instrumentor) WrapToolSync(name string, handler SyncHandler) SyncHandler {
	if !in.provider.Enabled() {
		return handler
	}
	function, module := handlerIdentity(handler)
	spanName := fmt.Sprintf("mcp.tool.%s.execute", name)

	return func(args map[string]any) (any, error) {
		ctx := context.Background()
		attrs := in.callableAttributes(ctx, categoryTool, name, args, false)
		attrs = append(attrs,
			attribute.String(SpanAttrToolFunction, function),
			attribute.String(SpanAttrToolModule, module),
		)
		identity := attribute.String(SpanAttrToolName, name)
		return in.run(ctx, spanName, attrs, toolEvents, identity, categoryTool, name, SummarizeToolResult,
			func(context.Context) (any, error) {
				return handler(args)
			})
	}
}

// WrapResource instruments a resource read handler. Template resources
// (URIs with parameters) are named "mcp.resource.template.read", static
// ones "mcp.resource.static.read"; the concrete URI rides as an attribute.
func (in *Instrumentor) WrapResource(uri string, template bool, handler Handler) Handler {
	if !in.provider.Enabled() {
		return handler
	}
	function, module := handlerIdentity(handler)
	spanName := "mcp.resource.static.read"
	if template {
		spanName = "mcp.resource.template.read"
	}

	return func(ctx context.Context, args map[string]any) (any, error) {
		attrs := in.callableAttributes(ctx, categoryResource, uri, args, true)
		attrs = append(attrs,
			attribute.String(SpanAttrResourceURI, uri),
			attribute.String(SpanAttrResourceFunction, function),
			attribute.String(SpanAttrResourceModule, module),
		)
		identity := attribute.String(SpanAttrResourceURI, uri)
		return in.run(ctx, spanName, attrs, resourceEvents, identity, categoryResource, "", SummarizeResourceResult,
			func(ctx context.Context) (any, error) {
				return handler(ctx, args)
			})
	}
}

// WrapPrompt instruments a prompt handler. The span is named
// "mcp.prompt.<name>.generate" and summarizes the generated messages by
// count and distinct roles.
func (in *Instrumentor) WrapPrompt(name string, handler PromptHandler) PromptHandler {
	if !in.provider.Enabled() {
		return handler
	}
	function, module := handlerIdentity(handler)
	return in.wrapPrompt(name, function, module, true, handler)
}

// WrapPromptSync instruments a plain prompt handler. The handler's own
// identity is recorded, not the adapter's, and the execution is recorded
// as synchronous.
func (in *Instrumentor) WrapPromptSync(name string, handler SyncPromptHandler) SyncPromptHandler {
	if !in.provider.Enabled() {
		return handler
	}
	function, module := handlerIdentity(handler)
	wrapped := in.wrapPrompt(name, function, module, false, func(_ context.Context, args map[string]any) ([]PromptMessage, error) {
		return handler(args)
	})
	return func(args map[string]any) ([]PromptMessage, error) {
		return wrapped(context.Background(), args)
	}
}

// wrapPrompt is the shared prompt instrumentation core behind both handler
// shapes.
func (in *Instrumentor) wrapPrompt(name, function, module string, async bool, handler PromptHandler) PromptHandler {
	spanName := fmt.Sprintf("mcp.prompt.%s.generate", name)

	return func(ctx context.Context, args map[string]any) ([]PromptMessage, error) {
		attrs := in.callableAttributes(ctx, categoryPrompt, name, args, async)
		attrs = append(attrs,
			attribute.String(SpanAttrPromptName, name),
			attribute.String(SpanAttrPromptFunction, function),
			attribute.String(SpanAttrPromptModule, module),
		)
		identity := attribute.String(SpanAttrPromptName, name)
		result, err := in.run(ctx, spanName, attrs, promptEvents, identity, categoryPrompt, "", summarizePromptResult,
			func(ctx context.Context) (any, error) {
				messages, err := handler(ctx, args)
				if err != nil {
					return nil, err
				}
				return messages, nil
			})
		if err != nil {
			return nil, err
		}
		messages, _ := result.([]PromptMessage)
		return messages, nil
	}
}

// eventSet names the lifecycle events for one instrumented surface.
type eventSet struct {
	started   string
	completed string
	errored   string
}

var (
	toolEvents     = eventSet{eventToolStarted, eventToolCompleted, eventToolError}
	resourceEvents = eventSet{eventResourceStarted, eventResourceCompleted, eventResourceError}
	promptEvents   = eventSet{eventPromptStarted, eventPromptCompleted, eventPromptError}
)

// callableAttributes assembles the attributes common to every instrumented
// callable: component identity, argument count, execution mode, session id
// from baggage, and allow-listed execution context fields.
func (in *Instrumentor) callableAttributes(ctx context.Context, componentType, name string, args map[string]any, async bool) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(SpanAttrComponentType, componentType),
		attribute.String(SpanAttrComponentName, name),
		attribute.Int(SpanAttrArgsCount, len(args)),
		attribute.Bool(SpanAttrAsync, async),
	}
	if sessionID := SessionIDFromContext(ctx); sessionID != "" {
		attrs = append(attrs, attribute.String(SpanAttrSessionID, sessionID))
	}
	attrs = append(attrs, contextAttributes(requestContextFromArgs(args))...)
	return attrs
}

// run executes a callable inside a span with the started/completed/error
// event contract. Every event carries the component identity attribute;
// the error event additionally carries the error's type name and message.
// The error from the callable is always returned unchanged; duration
// metrics are recorded only for successful executions.
func (in *Instrumentor) run(
	ctx context.Context,
	spanName string,
	attrs []attribute.KeyValue,
	events eventSet,
	identity attribute.KeyValue,
	category, metricName string,
	summarize func(any) []attribute.KeyValue,
	call func(context.Context) (any, error),
) (any, error) {
	ctx, span := in.provider.Tracer().Start(ctx, spanName,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	metrics := in.provider.Metrics()

	AddSpanEvent(span, events.started, identity)
	start := time.Now()
	result, err := call(ctx)
	elapsed := time.Since(start)

	if err != nil {
		AddSpanEvent(span, events.errored,
			identity,
			attribute.String(eventAttrErrorType, fmt.Sprintf("%T", err)),
			attribute.String(eventAttrErrorMessage, err.Error()),
		)
		SetSpanError(span, err)
		metrics.RecordError(ctx, category, fmt.Sprintf("%T", err))
		if metricName != "" {
			metrics.RecordToolExecution(ctx, metricName, OutcomeError)
		}
		return result, err
	}

	span.SetAttributes(summarize(result)...)
	AddSpanEvent(span, events.completed, identity)
	SetSpanSuccess(span)
	if metricName != "" {
		metrics.RecordToolExecution(ctx, metricName, OutcomeSuccess)
		metrics.RecordToolDuration(ctx, metricName, elapsed)
	}
	return result, nil
}

// summarizePromptResult adapts SummarizePromptMessages to the generic
// summary signature used by run.
func summarizePromptResult(result any) []attribute.KeyValue {
	messages, ok := result.([]PromptMessage)
	if !ok {
		return SummarizeToolResult(result)
	}
	roles := make([]string, len(messages))
	for i, message := range messages {
		roles[i] = message.Role
	}
	return SummarizePromptMessages(roles)
}

// handlerIdentity resolves the function name and package path of a handler
// via the runtime. Method values carry a "-fm" suffix, which is stripped.
func handlerIdentity(handler any) (function, module string) {
	pc := reflect.ValueOf(handler).Pointer()
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown", "unknown"
	}
	full := strings.TrimSuffix(fn.Name(), "-fm")
	slash := strings.LastIndex(full, "/")
	dot := strings.Index(full[slash+1:], ".")
	if dot < 0 {
		return full, ""
	}
	dot += slash + 1
	return full[dot+1:], full[:dot]
}
