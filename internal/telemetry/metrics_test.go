package telemetry

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestCollector(t *testing.T) (*Collector, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	collector, err := NewCollector(meterProvider.Meter("test"))
	if err != nil {
		t.Fatalf("NewCollector() error = %v", err)
	}
	return collector, reader
}

// findMetric locates a named metric in a fresh collection snapshot.
func findMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name == name {
				return m
			}
		}
	}
	t.Fatalf("metric %s not found", name)
	return metricdata.Metrics{}
}

func TestRecordHTTPRequestAttributes(t *testing.T) {
	collector, reader := newTestCollector(t)
	collector.RecordHTTPRequest(context.Background(), "POST", "mcp", 500, 25*time.Millisecond)

	counter := findMetric(t, reader, "mcp_http_requests_total")
	sum, ok := counter.Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) != 1 {
		t.Fatalf("counter data = %T with %d points, want Sum[int64] with 1", counter.Data, len(sum.DataPoints))
	}
	counterAttrs := sum.DataPoints[0].Attributes
	if v, ok := counterAttrs.Value(attribute.Key(attrStatus)); !ok || v.AsString() != "500" {
		t.Errorf("counter status = %v (present %t), want 500", v.AsString(), ok)
	}
	if v, _ := counterAttrs.Value(attribute.Key(attrMethod)); v.AsString() != "POST" {
		t.Errorf("counter method = %q, want POST", v.AsString())
	}
	if v, _ := counterAttrs.Value(attribute.Key(attrPath)); v.AsString() != "mcp" {
		t.Errorf("counter path = %q, want mcp", v.AsString())
	}

	histogram := findMetric(t, reader, "mcp_http_request_duration_seconds")
	hist, ok := histogram.Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) != 1 {
		t.Fatalf("histogram data = %T with %d points, want Histogram[float64] with 1", histogram.Data, len(hist.DataPoints))
	}
	histAttrs := hist.DataPoints[0].Attributes
	if _, ok := histAttrs.Value(attribute.Key(attrStatus)); ok {
		t.Error("duration histogram carries a status attribute, want method and path only")
	}
	if v, _ := histAttrs.Value(attribute.Key(attrMethod)); v.AsString() != "POST" {
		t.Errorf("histogram method = %q, want POST", v.AsString())
	}
	if v, _ := histAttrs.Value(attribute.Key(attrPath)); v.AsString() != "mcp" {
		t.Errorf("histogram path = %q, want mcp", v.AsString())
	}
}

func TestRecordHTTPRequestStatusSeries(t *testing.T) {
	collector, reader := newTestCollector(t)
	ctx := context.Background()
	collector.RecordHTTPRequest(ctx, "GET", "mcp", 200, time.Millisecond)
	collector.RecordHTTPRequest(ctx, "GET", "mcp", 500, time.Millisecond)

	// Two status codes make two counter series but a single histogram series.
	counter := findMetric(t, reader, "mcp_http_requests_total")
	if sum, ok := counter.Data.(metricdata.Sum[int64]); !ok || len(sum.DataPoints) != 2 {
		t.Errorf("counter series = %d, want 2", len(sum.DataPoints))
	}
	histogram := findMetric(t, reader, "mcp_http_request_duration_seconds")
	if hist, ok := histogram.Data.(metricdata.Histogram[float64]); !ok || len(hist.DataPoints) != 1 {
		t.Errorf("histogram series = %d, want 1", len(hist.DataPoints))
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	ctx := context.Background()

	c.RecordToolExecution(ctx, "lookup", OutcomeSuccess)
	c.RecordToolDuration(ctx, "lookup", time.Second)
	c.RecordHTTPRequest(ctx, "GET", "mcp", 200, time.Second)
	c.RecordError(ctx, "tool", "*errors.errorString")
	c.RecordSessionStart(ctx)
	c.RecordSessionDuration(ctx, time.Minute)
}
