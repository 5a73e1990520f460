package telemetry

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/codes"
)

func TestOperationType(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/mcp", OperationMCPRequest},
		{"/mcp/abc123", OperationMCPRequest},
		{"/api/mcp", OperationMCPRequest},
		{"/sse", OperationSSEStream},
		{"/sse/stream", OperationSSEStream},
		{"/auth/callback", OperationAuth},
		{"/healthz", OperationUnknown},
		{"/", OperationUnknown},
	}

	for _, tt := range tests {
		if got := operationType(tt.path); got != tt.want {
			t.Errorf("operationType(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestNormalizeMetricPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/mcp", "mcp"},
		{"/mcp?session_id=abc", "mcp"},
		{"/a/b/c", "a/b/c"},
		{"//double", "/double"},
		{"/", "root"},
		{"", "root"},
		{"?only=query", "root"},
	}

	for _, tt := range tests {
		if got := normalizeMetricPath(tt.path); got != tt.want {
			t.Errorf("normalizeMetricPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestExtractSessionID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/mcp?session_id=from-query", nil)
	r.Header.Set("Mcp-Session-Id", "from-mcp-header")
	if got := extractSessionID(r); got != "from-query" {
		t.Errorf("session id = %q, want query parameter to win", got)
	}

	r = httptest.NewRequest(http.MethodGet, "/mcp", nil)
	r.Header.Set("Mcp-Session-Id", "from-mcp-header")
	r.Header.Set("X-Session-Id", "from-generic-header")
	if got := extractSessionID(r); got != "from-mcp-header" {
		t.Errorf("session id = %q, want Mcp-Session-Id to win over X-Session-Id", got)
	}

	r = httptest.NewRequest(http.MethodGet, "/mcp", nil)
	r.Header.Set("X-Session-Id", "from-generic-header")
	if got := extractSessionID(r); got != "from-generic-header" {
		t.Errorf("session id = %q, want X-Session-Id fallback", got)
	}

	r = httptest.NewRequest(http.MethodGet, "/mcp", nil)
	if got := extractSessionID(r); got != "" {
		t.Errorf("session id = %q, want empty", got)
	}
}

func TestHTTPTracingDisabledIsIdentity(t *testing.T) {
	p := newDisabledProvider(t)
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	wrapped := HTTPTracing(p, NewSessionTracker())(next)
	if reflect.ValueOf(wrapped).Pointer() != reflect.ValueOf(next).Pointer() {
		t.Error("HTTPTracing() on disabled provider did not return the handler unchanged")
	}
}

func TestHTTPTracingRequest(t *testing.T) {
	p, exporter, reader := newTestProvider(t)
	tracker := NewSessionTracker()

	var handlerSession string
	handler := HTTPTracing(p, tracker)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerSession = SessionIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp?session_id=xyz", nil))

	if handlerSession != "xyz" {
		t.Errorf("downstream session id = %q, want xyz via baggage", handlerSession)
	}

	span := requireSingleSpan(t, exporter)
	if span.Name != "mcp.request.post" {
		t.Errorf("span name = %q, want mcp.request.post", span.Name)
	}
	if span.Status.Code != codes.Ok {
		t.Errorf("span status = %v, want Ok", span.Status.Code)
	}

	attrs := spanAttrMap(span)
	if v := attrs[SpanAttrOperation].AsString(); v != OperationMCPRequest {
		t.Errorf("operation = %q, want %q", v, OperationMCPRequest)
	}
	if v := attrs[SpanAttrSessionID].AsString(); v != "xyz" {
		t.Errorf("session id attribute = %q, want xyz", v)
	}
	if !attrs[SpanAttrSessionNew].AsBool() {
		t.Error("session.new = false, want true on first request")
	}
	if v := attrs[SpanAttrHTTPStatus].AsInt64(); v != http.StatusOK {
		t.Errorf("status = %d, want 200", v)
	}
	if v := attrs["http.status_class"].AsString(); v != "2xx" {
		t.Errorf("status class = %q, want 2xx", v)
	}

	if got := counterValue(t, reader, "mcp_sessions_total"); got != 1 {
		t.Errorf("sessions = %d, want 1", got)
	}
	if got := counterValue(t, reader, "mcp_http_requests_total"); got != 1 {
		t.Errorf("http requests = %d, want 1", got)
	}

	// The second request with the same session id is continuing and reports
	// the session age.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp?session_id=xyz", nil))

	if got := counterValue(t, reader, "mcp_sessions_total"); got != 1 {
		t.Errorf("sessions after repeat = %d, want still 1", got)
	}
	if got := histogramCount(t, reader, "mcp_session_duration_seconds"); got != 1 {
		t.Errorf("session duration samples = %d, want 1", got)
	}

	spans := exporter.GetSpans()
	attrs = spanAttrMap(spans[len(spans)-1])
	if attrs[SpanAttrSessionNew].AsBool() {
		t.Error("session.new = true on repeat request, want false")
	}
}

func TestHTTPTracingErrorStatus(t *testing.T) {
	p, exporter, _ := newTestProvider(t)

	handler := HTTPTracing(p, NewSessionTracker())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))

	span := requireSingleSpan(t, exporter)
	if span.Name != "unknown.get" {
		t.Errorf("span name = %q, want unknown.get", span.Name)
	}
	if span.Status.Code != codes.Error {
		t.Errorf("span status = %v, want Error for 404", span.Status.Code)
	}
	attrs := spanAttrMap(span)
	if v := attrs[SpanAttrHTTPStatus].AsInt64(); v != http.StatusNotFound {
		t.Errorf("status = %d, want 404", v)
	}
	if v := attrs["http.status_class"].AsString(); v != "4xx" {
		t.Errorf("status class = %q, want 4xx", v)
	}
}

func TestHTTPTracingPanic(t *testing.T) {
	p, exporter, reader := newTestProvider(t)

	handler := HTTPTracing(p, NewSessionTracker())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	func() {
		defer func() {
			if recover() == nil {
				t.Error("panic was swallowed, want re-raise")
			}
		}()
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/mcp", nil))
	}()

	span := requireSingleSpan(t, exporter)
	if span.Status.Code != codes.Error {
		t.Errorf("span status = %v, want Error after panic", span.Status.Code)
	}
	errorEvent := eventAttrs(t, span, eventHTTPError)
	if v := errorEvent[eventAttrErrorType].AsString(); v != "string" {
		t.Errorf("error.type = %q, want string for a string panic value", v)
	}
	if v := errorEvent[eventAttrErrorMessage].AsString(); v != "panic: boom" {
		t.Errorf("error.message = %q, want panic: boom", v)
	}
	if got := counterValue(t, reader, "mcp_errors_total"); got != 1 {
		t.Errorf("errors = %d, want 1", got)
	}
	if got := counterValue(t, reader, "mcp_http_requests_total"); got != 1 {
		t.Errorf("http requests = %d, want assumed-500 recorded", got)
	}
}

func TestBaggageIsolationAcrossRequests(t *testing.T) {
	p, _, _ := newTestProvider(t)
	tracker := NewSessionTracker()

	sessions := make(map[string]string)
	var mu sync.Mutex
	handler := HTTPTracing(p, tracker)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		sessions[r.URL.Query().Get("session_id")] = SessionIDFromContext(r.Context())
		mu.Unlock()
	}))

	var wg sync.WaitGroup
	for _, id := range []string{"abc", "def", "ghi"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/mcp?session_id="+id, nil))
		}(id)
	}
	wg.Wait()

	for _, id := range []string{"abc", "def", "ghi"} {
		if sessions[id] != id {
			t.Errorf("request %q observed session %q, want its own id", id, sessions[id])
		}
	}
}
