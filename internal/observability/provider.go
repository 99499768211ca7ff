package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	prometheusexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/formbricks/feedback-pulse/internal/config"
)

// MeterScope is the instrumentation scope for application meters.
const MeterScope = "github.com/formbricks/feedback-pulse"

const (
	serviceName          = "feedback-pulse"
	metricExportInterval = 60 * time.Second
	cardinalityLimit     = 2000
)

// Duration histograms record in seconds; OTel default boundaries are millisecond-oriented.
var durationHistogramBounds = []float64{0, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// newResource returns a resource with the service name merged with the SDK default.
func newResource() (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("merge resource: %w", err)
	}

	return res, nil
}

// NewMeterProvider creates a MeterProvider for cfg.OTelMetricsExporter:
//   - "otlp": periodic OTLP HTTP push (endpoint from OTEL_EXPORTER_OTLP_* env)
//   - "prometheus": pull exporter; the returned handler serves /metrics
//
// Any other value disables metrics and returns (nil, nil, nil).
func NewMeterProvider(ctx context.Context, cfg *config.Config) (*sdkmetric.MeterProvider, http.Handler, error) {
	if cfg == nil {
		return nil, nil, nil
	}

	var (
		reader  sdkmetric.Reader
		handler http.Handler
	)

	switch cfg.OTelMetricsExporter {
	case "otlp":
		exp, err := otlpmetrichttp.New(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("create OTLP metric exporter: %w", err)
		}

		reader = sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(metricExportInterval))
	case "prometheus":
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		exp, err := prometheusexporter.New(prometheusexporter.WithRegisterer(reg))
		if err != nil {
			return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
		}

		reader = exp
		handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	default:
		return nil, nil, nil
	}

	res, err := newResource()
	if err != nil {
		return nil, nil, fmt.Errorf("create resource: %w", err)
	}

	view := sdkmetric.NewView(
		sdkmetric.Instrument{Name: "feedback_*_duration_seconds"},
		sdkmetric.Stream{Aggregation: sdkmetric.AggregationExplicitBucketHistogram{Boundaries: durationHistogramBounds}},
	)

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		sdkmetric.WithView(view),
		sdkmetric.WithCardinalityLimit(cardinalityLimit),
	)

	return provider, handler, nil
}

// ShutdownMeterProvider flushes and shuts down the MeterProvider. Safe to call with nil.
func ShutdownMeterProvider(ctx context.Context, provider *sdkmetric.MeterProvider) error {
	if provider == nil {
		return nil
	}

	if err := provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("meter provider shutdown: %w", err)
	}

	return nil
}

// NewTracerProvider creates a TracerProvider when tracing is enabled ("otlp" or "stdout").
// Any other value returns (nil, nil).
func NewTracerProvider(ctx context.Context, cfg *config.Config) (*sdktrace.TracerProvider, error) {
	if cfg == nil {
		//nolint:nilnil // intentional: tracing disabled, caller checks for nil
		return nil, nil
	}

	var (
		exp sdktrace.SpanExporter
		err error
	)

	switch cfg.OTelTracesExporter {
	case "otlp":
		exp, err = newOTLPTraceExporter(ctx)
	case "stdout":
		exp, err = newStdoutTraceExporter()
	default:
		//nolint:nilnil // tracing disabled or unknown exporter, caller checks for nil
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	res, err := newResource()
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler()),
		sdktrace.WithBatcher(exp),
	), nil
}

// ShutdownTracerProvider flushes and shuts down the TracerProvider. Safe to call with nil.
func ShutdownTracerProvider(ctx context.Context, provider *sdktrace.TracerProvider) error {
	if provider == nil {
		return nil
	}

	if err := provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("tracer provider shutdown: %w", err)
	}

	return nil
}
