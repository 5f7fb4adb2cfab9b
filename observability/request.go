package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RequestObservation tracks the span and metrics of one HTTP request.
type RequestObservation struct {
	ServiceName   string
	OperationName string
	RequestID     string
	StartTime     time.Time
	Metrics       *Metrics

	ctx  context.Context
	span trace.Span
}

// StartRequest starts a span for the request and counts its scope as open.
// A nil metrics skips recording.
func StartRequest(ctx context.Context, metrics *Metrics, serviceName, operationName, requestID string) *RequestObservation {
	ctx, span := StartSpan(ctx, SpanHTTPRequest,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String(AttrServiceName, serviceName),
			attribute.String(AttrOperationName, operationName),
			attribute.String(AttrRequestID, requestID),
		),
	)
	if metrics != nil {
		metrics.RecordScopeOpen(ctx)
	}
	return &RequestObservation{
		ServiceName:   serviceName,
		OperationName: operationName,
		RequestID:     requestID,
		StartTime:     time.Now(),
		Metrics:       metrics,
		ctx:           ctx,
		span:          span,
	}
}

// Context returns the context carrying the request span.
func (o *RequestObservation) Context() context.Context { return o.ctx }

// End ends the span and records request-end metrics.
func (o *RequestObservation) End(status string, err error) {
	duration := time.Since(o.StartTime)

	SetSpanError(o.ctx, err)
	o.span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	o.span.End()

	if o.Metrics != nil {
		o.Metrics.RecordRequestEnd(o.ctx, o.ServiceName, o.OperationName, status, duration)
	}
}

// Duration returns the elapsed time since the request started.
func (o *RequestObservation) Duration() time.Duration {
	return time.Since(o.StartTime)
}
