package observability

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/injectkit/logger"
)

// Provider owns the tracer and meter providers created by Init.
type Provider struct {
	service ServiceInfo
	tracer  *sdktrace.TracerProvider
	meter   *sdkmetric.MeterProvider
}

// Init creates OTLP tracer and meter providers when cfg.Enabled is set.
// When telemetry is disabled the returned Provider falls back to the global
// (no-op by default) providers and Shutdown does nothing.
func Init(ctx context.Context, cfg Config, svc ServiceInfo) (*Provider, error) {
	p := &Provider{service: svc}
	if !cfg.Enabled {
		logger.Debug("Telemetry disabled", logger.Fields("service", svc.Name))
		return p, nil
	}

	cfg.ApplyDefaults()
	tp, err := newTracerProvider(ctx, cfg, svc)
	if err != nil {
		return nil, err
	}
	p.tracer = tp

	mp, err := newMeterProvider(ctx, cfg, svc)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	p.meter = mp
	return p, nil
}

// Enabled reports whether OTLP export is active.
func (p *Provider) Enabled() bool {
	return p != nil && p.tracer != nil
}

// Meter returns the meter for the service.
func (p *Provider) Meter() metric.Meter {
	if p != nil && p.meter != nil {
		return p.meter.Meter(p.service.Name)
	}
	return otel.Meter(instrumentationName)
}

// Shutdown flushes and stops the providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.tracer != nil {
		errs = append(errs, p.tracer.Shutdown(ctx))
	}
	if p.meter != nil {
		errs = append(errs, p.meter.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
