package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/injectkit/logger"
)

const instrumentationName = "github.com/kbukum/injectkit"

// Span names.
const (
	SpanHTTPRequest = "http.request"
	SpanPhase       = "bootstrap.phase"
)

// Attribute keys.
const (
	AttrServiceName   = "service.name"
	AttrOperationName = "operation.name"
	AttrPhase         = "bootstrap.phase"
	AttrRequestID     = "request.id"
	AttrDurationMs    = "duration_ms"
	AttrStatus        = "status"
	AttrErrorMessage  = "error.message"
)

// newTracerProvider creates an OTLP/HTTP tracer provider and installs it
// globally together with the W3C propagators.
func newTracerProvider(ctx context.Context, cfg Config, svc ServiceInfo) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	res, err := newResource(svc)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRate)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("Tracer initialized", logger.Fields(
		"service", svc.Name,
		"endpoint", cfg.Endpoint,
		"sample_rate", cfg.SampleRate,
	))
	return tp, nil
}

// sampler maps a rate to a sampler: 1 and above samples everything, 0 and
// below nothing.
func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

func newResource(svc ServiceInfo) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(svc.Name),
			semconv.ServiceVersion(svc.Version),
			attribute.String("environment", svc.Environment),
		),
	)
}

// StartSpan starts a span on the global tracer provider.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, opts...)
}

// SetSpanError records err on the span carried by ctx.
func SetSpanError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if err == nil || !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
}
