package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/injectkit/logger"
)

// Metric names.
const (
	MetricRequestCount    = "injectkit.request.count"
	MetricRequestDuration = "injectkit.request.duration"
	MetricScopeActive     = "injectkit.scope.active"
	MetricPhaseCount      = "injectkit.phase.count"
	MetricPhaseDuration   = "injectkit.phase.duration"
	MetricErrorCount      = "injectkit.error.count"
)

// newMeterProvider creates an OTLP/HTTP meter provider with a periodic
// reader and installs it globally.
func newMeterProvider(ctx context.Context, cfg Config, svc ServiceInfo) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(svc)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.MetricsInterval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.MetricsInterval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("Meter initialized", logger.Fields(
		"service", svc.Name,
		"endpoint", cfg.Endpoint,
		"interval", cfg.MetricsInterval.String(),
	))
	return mp, nil
}

// Metrics holds the instruments for request scopes and bootstrap phases.
type Metrics struct {
	requests        metric.Int64Counter
	requestDuration metric.Float64Histogram
	activeScopes    metric.Int64UpDownCounter
	phases          metric.Int64Counter
	phaseDuration   metric.Float64Histogram
	errors          metric.Int64Counter
}

// instruments creates instruments on a meter, keeping the first error.
type instruments struct {
	meter metric.Meter
	err   error
}

func (in *instruments) counter(name, desc string) metric.Int64Counter {
	c, err := in.meter.Int64Counter(name, metric.WithDescription(desc))
	in.keep(name, err)
	return c
}

func (in *instruments) upDown(name, desc string) metric.Int64UpDownCounter {
	c, err := in.meter.Int64UpDownCounter(name, metric.WithDescription(desc))
	in.keep(name, err)
	return c
}

func (in *instruments) seconds(name, desc string) metric.Float64Histogram {
	h, err := in.meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	in.keep(name, err)
	return h
}

func (in *instruments) keep(name string, err error) {
	if err != nil && in.err == nil {
		in.err = fmt.Errorf("creating %s: %w", name, err)
	}
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	in := &instruments{meter: meter}
	m := &Metrics{
		requests:        in.counter(MetricRequestCount, "Requests served through a request scope"),
		requestDuration: in.seconds(MetricRequestDuration, "Duration of scoped requests"),
		activeScopes:    in.upDown(MetricScopeActive, "Request scopes currently open"),
		phases:          in.counter(MetricPhaseCount, "Bootstrap phases run"),
		phaseDuration:   in.seconds(MetricPhaseDuration, "Duration of bootstrap phases"),
		errors:          in.counter(MetricErrorCount, "Errors by kind and component"),
	}
	if in.err != nil {
		return nil, in.err
	}
	return m, nil
}

// RecordScopeOpen counts a request scope as open.
func (m *Metrics) RecordScopeOpen(ctx context.Context) {
	m.activeScopes.Add(ctx, 1)
}

// RecordRequestEnd closes the request scope count and records the request.
func (m *Metrics) RecordRequestEnd(ctx context.Context, service, operation, status string, d time.Duration) {
	m.activeScopes.Add(ctx, -1)
	m.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
	m.requestDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("operation", operation),
	))
}

// RecordPhase records one bootstrap phase, such as a bundle run.
func (m *Metrics) RecordPhase(ctx context.Context, service, phase, status string, d time.Duration) {
	m.phases.Add(ctx, 1, metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("phase", phase),
		attribute.String("status", status),
	))
	m.phaseDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("phase", phase),
	))
}

// RecordError counts an error by kind and component.
func (m *Metrics) RecordError(ctx context.Context, kind, component string) {
	m.errors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("component", component),
	))
}
