package telemetry

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Operation types derived from the request path.
const (
	OperationMCPRequest = "mcp.request"
	OperationSSEStream  = "sse.stream"
	OperationAuth       = "auth"
	OperationUnknown    = "unknown"
)

// Session id sources on inbound requests, in fallback order.
const (
	sessionQueryParam    = "session_id"
	sessionHeaderMCP     = "Mcp-Session-Id"
	sessionHeaderGeneric = "X-Session-Id"
)

// HTTP span event names.
const (
	eventHTTPCompleted = "http.request.completed"
	eventHTTPError     = "http.request.error"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK, // Default status code
	}
}

// WriteHeader captures the status code before writing the header.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures that a response was written.
func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.written = true
	}
	return rw.ResponseWriter.Write(b)
}

// Unwrap returns the underlying ResponseWriter to support http.Flusher etc.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Flush implements http.Flusher for streaming responses.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// HTTPTracing creates middleware that traces every inbound HTTP request.
//
// Per request it derives the span name from the path's operation type and
// the lowercased method, correlates the session id (query parameter first,
// then headers), carries the session id in baggage for the duration of the
// request, and records request count and duration metrics keyed by method
// and normalized path. A panic in the downstream handler is recorded on
// the span and re-raised.
//
// When the provider is nil or disabled the middleware returns the next
// handler unchanged.
func HTTPTracing(provider *Provider, sessions *SessionTracker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if provider == nil || !provider.Enabled() {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			metrics := provider.Metrics()

			sessionID := extractSessionID(r)
			event, sessionAge := sessions.Observe(sessionID)

			ctx := provider.Propagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx = ContextWithSessionID(ctx, sessionID)

			operation := operationType(r.URL.Path)
			spanName := operation + "." + strings.ToLower(r.Method)

			attrs := []attribute.KeyValue{
				attribute.String(SpanAttrOperation, operation),
				attribute.String(SpanAttrHTTPMethod, r.Method),
				attribute.String("http.url", r.URL.String()),
				attribute.String("http.scheme", requestScheme(r)),
				attribute.String("http.host", r.Host),
				attribute.String(SpanAttrHTTPPath, r.URL.Path),
			}
			if ua := r.UserAgent(); ua != "" {
				attrs = append(attrs, attribute.String(SpanAttrUserAgent, ua))
			}
			if r.ContentLength >= 0 {
				attrs = append(attrs, attribute.Int64("http.request.size", r.ContentLength))
			}
			if sessionID != "" {
				attrs = append(attrs,
					attribute.String(SpanAttrSessionID, sessionID),
					attribute.Bool(SpanAttrSessionNew, event == SessionNew),
				)
			}

			ctx, span := provider.Tracer().Start(ctx, spanName,
				trace.WithAttributes(attrs...),
				trace.WithSpanKind(trace.SpanKindServer),
			)
			defer span.End()

			switch event {
			case SessionNew:
				metrics.RecordSessionStart(ctx)
			case SessionContinuing:
				metrics.RecordSessionDuration(ctx, sessionAge)
			}

			path := normalizeMetricPath(r.URL.Path)
			defer func() {
				if rec := recover(); rec != nil {
					err := fmt.Errorf("panic: %v", rec)
					span.RecordError(err)
					span.SetStatus(codes.Error, err.Error())
					AddSpanEvent(span, eventHTTPError,
						attribute.String(eventAttrErrorType, fmt.Sprintf("%T", rec)),
						attribute.String(eventAttrErrorMessage, err.Error()),
					)
					metrics.RecordHTTPRequest(ctx, r.Method, path, http.StatusInternalServerError, time.Since(start))
					metrics.RecordError(ctx, categoryHTTP, fmt.Sprintf("%T", rec))
					panic(rec)
				}
			}()

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r.WithContext(ctx))

			span.SetAttributes(
				attribute.Int(SpanAttrHTTPStatus, wrapped.statusCode),
				attribute.String("http.status_class", statusClass(wrapped.statusCode)),
			)
			if wrapped.statusCode >= http.StatusBadRequest {
				span.SetStatus(codes.Error, http.StatusText(wrapped.statusCode))
			} else {
				span.SetStatus(codes.Ok, "")
			}
			AddSpanEvent(span, eventHTTPCompleted)

			metrics.RecordHTTPRequest(ctx, r.Method, path, wrapped.statusCode, time.Since(start))
		})
	}
}

// operationType classifies a request path by fixed substring rules.
func operationType(path string) string {
	switch {
	case strings.Contains(path, "/mcp"):
		return OperationMCPRequest
	case strings.Contains(path, "/sse"):
		return OperationSSEStream
	case strings.Contains(path, "/auth"):
		return OperationAuth
	default:
		return OperationUnknown
	}
}

// extractSessionID pulls the session id from the query parameter, falling
// back to the MCP session header and then the generic one.
func extractSessionID(r *http.Request) string {
	if id := r.URL.Query().Get(sessionQueryParam); id != "" {
		return id
	}
	if id := r.Header.Get(sessionHeaderMCP); id != "" {
		return id
	}
	return r.Header.Get(sessionHeaderGeneric)
}

// normalizeMetricPath bounds metric cardinality: the query string is
// dropped, one leading slash is stripped, and an empty result maps to
// "root".
func normalizeMetricPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return "root"
	}
	return path
}

// requestScheme reports the scheme the request arrived on.
func requestScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// statusClass maps a status code to its class label ("2xx", "4xx", ...).
func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
