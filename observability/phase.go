package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// TracePhase runs fn inside a bootstrap phase span and records the phase
// metric. metrics may be nil.
func TracePhase(ctx context.Context, metrics *Metrics, service, phase string, fn func(ctx context.Context) error) error {
	ctx, span := StartSpan(ctx, SpanPhase)
	span.SetAttributes(
		attribute.String(AttrServiceName, service),
		attribute.String(AttrPhase, phase),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	status := "success"
	if err != nil {
		status = "error"
		SetSpanError(ctx, err)
		if metrics != nil {
			metrics.RecordError(ctx, "phase", phase)
		}
	}
	span.SetAttributes(attribute.String(AttrStatus, status))
	if metrics != nil {
		metrics.RecordPhase(ctx, service, phase, status, time.Since(start))
	}
	return err
}
