package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	otelprom "go.opentelemetry.io/otel/exporters/prometheus"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// TracerName is the instrumentation scope name for spans created by this package.
const TracerName = "github.com/opsforge/mcp-telemetry"

// Batch span processor tuning. The short schedule delay keeps export latency
// low for interactive MCP sessions.
const (
	batchMaxQueueSize   = 2048
	batchScheduleDelay  = 1 * time.Second
	batchMaxExportSize  = 512
	batchExportTimeout  = 5 * time.Second
	metricExportPeriod  = 10 * time.Second
	shutdownGracePeriod = 5 * time.Second
)

// noopTracer is the shared tracer handed out whenever tracing is disabled or
// the provider has been shut down. Span operations on it are zero-cost.
var noopTracer = tracenoop.NewTracerProvider().Tracer(TracerName)

// Provider owns the OpenTelemetry trace and metric pipelines for the process.
//
// A disabled Provider (tracing misconfigured or explicitly off) is fully
// functional: Tracer returns a no-op tracer, Metrics returns a nil Collector,
// and Shutdown is a no-op. Callers never need to branch on enablement.
type Provider struct {
	config Config

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	propagator     propagation.TextMapPropagator
	metrics        *Collector

	mu       sync.RWMutex
	tracer   trace.Tracer
	shutdown bool
}

// NewProvider creates a telemetry provider from the given configuration.
//
// Insufficient configuration never prevents the host from starting: an OTLP
// exporter with no endpoint degrades to the disabled state, an unknown
// tracing exporter falls back to console, and an unknown metrics exporter
// disables metrics. Backend construction failures, by contrast, are returned
// to the caller: a requested-but-broken exporter is a misconfiguration the
// operator must see.
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	p := &Provider{
		config:     config,
		propagator: propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}),
	}

	if config.TracingExporter == ExporterOTLP && config.OTLPEndpoint == "" {
		slog.Warn("tracing disabled: OTEL_EXPORTER_OTLP_ENDPOINT is not set for OTLP exporter")
		return p, nil
	}
	if config.TracingExporter == ExporterNone || config.TracingExporter == "" {
		return p, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(config.ServiceName),
		semconv.ServiceVersion(config.ServiceVersion),
		semconv.ServiceInstanceID(config.ServiceInstanceID),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to build telemetry resource: %w", err)
	}

	exporter, err := newTraceExporter(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s trace exporter: %w", config.TracingExporter, err)
	}

	p.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter,
			sdktrace.WithMaxQueueSize(batchMaxQueueSize),
			sdktrace.WithBatchTimeout(batchScheduleDelay),
			sdktrace.WithMaxExportBatchSize(batchMaxExportSize),
			sdktrace.WithExportTimeout(batchExportTimeout),
		),
	)

	meterProvider, metrics, err := newMetricPipeline(ctx, config, res)
	if err != nil {
		// Tear down the trace side before surfacing the error so a failed
		// construction never leaks a running batch processor.
		_ = p.tracerProvider.Shutdown(ctx)
		return nil, err
	}
	p.meterProvider = meterProvider
	p.metrics = metrics

	return p, nil
}

// newTraceExporter constructs the span exporter selected by the configuration.
func newTraceExporter(ctx context.Context, config Config) (sdktrace.SpanExporter, error) {
	switch config.TracingExporter {
	case ExporterOTLP:
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpointURL(config.OTLPEndpoint),
		}
		if headers := ParseHeaderList(config.OTLPHeaders); headers != nil {
			opts = append(opts, otlptracehttp.WithHeaders(headers))
		}
		if config.OTLPInsecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	case ExporterConsole:
		return stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	default:
		slog.Warn("unknown tracing exporter, falling back to console",
			"exporter", config.TracingExporter)
		return stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	}
}

// newMetricPipeline constructs the meter provider and Collector for the
// configured metrics exporter. A "none" exporter yields a nil Collector,
// which every recording path treats as a silent no-op.
func newMetricPipeline(ctx context.Context, config Config, res *resource.Resource) (*sdkmetric.MeterProvider, *Collector, error) {
	var reader sdkmetric.Reader

	switch config.MetricsExporter {
	case ExporterPrometheus:
		exporter, err := otelprom.New()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		reader = exporter
	case ExporterOTLP:
		if config.OTLPEndpoint == "" {
			slog.Warn("metrics disabled: OTEL_EXPORTER_OTLP_ENDPOINT is not set for OTLP exporter")
			return nil, nil, nil
		}
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpointURL(config.OTLPEndpoint),
		}
		if headers := ParseHeaderList(config.OTLPHeaders); headers != nil {
			opts = append(opts, otlpmetrichttp.WithHeaders(headers))
		}
		if config.OTLPInsecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(metricExportPeriod))
	case ExporterStdout:
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create stdout metric exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(metricExportPeriod))
	case ExporterNone, "":
		return nil, nil, nil
	default:
		slog.Warn("metrics disabled: unknown metrics exporter",
			"exporter", config.MetricsExporter)
		return nil, nil, nil
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	metrics, err := NewCollector(meterProvider.Meter(TracerName))
	if err != nil {
		_ = meterProvider.Shutdown(ctx)
		return nil, nil, fmt.Errorf("failed to create metrics collector: %w", err)
	}
	return meterProvider, metrics, nil
}

// Config returns the configuration the provider was built from.
func (p *Provider) Config() *Config {
	return &p.config
}

// Enabled reports whether spans are actually being recorded and exported.
func (p *Provider) Enabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tracerProvider != nil && !p.shutdown
}

// Tracer returns the tracer handle for this subsystem, memoizing it on first
// use. When the provider is disabled or already shut down it returns a stable
// no-op tracer, so it is always safe to call.
func (p *Provider) Tracer() trace.Tracer {
	p.mu.RLock()
	if p.tracer != nil {
		tracer := p.tracer
		p.mu.RUnlock()
		return tracer
	}
	disabled := p.tracerProvider == nil || p.shutdown
	p.mu.RUnlock()

	if disabled {
		return noopTracer
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tracer == nil {
		if p.shutdown {
			return noopTracer
		}
		p.tracer = p.tracerProvider.Tracer(TracerName)
	}
	return p.tracer
}

// Propagator returns the text map propagator (trace context + baggage) used
// by this provider.
func (p *Provider) Propagator() propagation.TextMapPropagator {
	return p.propagator
}

// Metrics returns the metrics collector, or nil when metrics are disabled.
// A nil Collector is safe to use; all of its recording methods are no-ops.
func (p *Provider) Metrics() *Collector {
	return p.metrics
}

// Shutdown flushes buffered spans and releases the trace and metric pipelines.
// It is idempotent; span creation after shutdown routes through the no-op
// tracer without error.
func (p *Provider) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return nil
	}
	p.shutdown = true
	p.tracer = noopTracer
	tracerProvider := p.tracerProvider
	meterProvider := p.meterProvider
	p.mu.Unlock()

	if tracerProvider == nil && meterProvider == nil {
		return nil
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, shutdownGracePeriod)
		defer cancel()
	}

	var errs []error
	if tracerProvider != nil {
		if err := tracerProvider.ForceFlush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("trace flush: %w", err))
		}
		if err := tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("trace shutdown: %w", err))
		}
	}
	if meterProvider != nil {
		if err := meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metric shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}
