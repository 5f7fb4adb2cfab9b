package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// withSpanRecorder installs an in-memory tracer provider for the test.
func withSpanRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return exporter
}

// collectedNames returns the names of every metric the reader collected.
func collectedNames(t *testing.T, reader *sdkmetric.ManualReader) map[string]bool {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	names := make(map[string]bool)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	return names
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("unexpected endpoint %q", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 || cfg.MetricsInterval != 15*time.Second {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"sample rate above one", Config{SampleRate: 1.5}},
		{"negative sample rate", Config{SampleRate: -0.1}},
		{"negative interval", Config{SampleRate: 1, MetricsInterval: -time.Second}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, sdktrace.AlwaysSample().Description()},
		{2.0, sdktrace.AlwaysSample().Description()},
		{0, sdktrace.NeverSample().Description()},
		{0.5, sdktrace.TraceIDRatioBased(0.5).Description()},
	}
	for _, tc := range tests {
		if got := sampler(tc.rate).Description(); got != tc.want {
			t.Errorf("sampler(%v) = %q, want %q", tc.rate, got, tc.want)
		}
	}
}

func TestInitDisabled(t *testing.T) {
	p, err := Init(context.Background(), Config{}, ServiceInfo{Name: "users"})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if p.Enabled() {
		t.Error("expected disabled provider")
	}
	if p.Meter() == nil {
		t.Error("expected fallback meter")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}

	var nilProvider *Provider
	if err := nilProvider.Shutdown(context.Background()); err != nil {
		t.Errorf("nil provider Shutdown failed: %v", err)
	}
}

func TestInitEnabled(t *testing.T) {
	prevTP, prevMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	defer func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	}()

	cfg := Config{Enabled: true, Insecure: true, SampleRate: 0.5}
	p, err := Init(context.Background(), cfg, ServiceInfo{Name: "users", Version: "1.0.0"})
	if err != nil {
		t.Skipf("exporter setup failed: %v", err)
	}
	if !p.Enabled() {
		t.Error("expected enabled provider")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = p.Shutdown(ctx)
}

func TestMetricsRecord(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	ctx := context.Background()
	metrics.RecordScopeOpen(ctx)
	metrics.RecordRequestEnd(ctx, "svc", "GET /test", "200", 100*time.Millisecond)
	metrics.RecordPhase(ctx, "svc", "bundle.run", "success", 50*time.Millisecond)
	metrics.RecordError(ctx, "validation", "handler")

	names := collectedNames(t, reader)
	for _, want := range []string{
		MetricRequestCount, MetricRequestDuration, MetricScopeActive,
		MetricPhaseCount, MetricPhaseDuration, MetricErrorCount,
	} {
		if !names[want] {
			t.Errorf("expected metric %q to be collected", want)
		}
	}
}

func TestNewMetricsNoop(t *testing.T) {
	if _, err := NewMetrics(noop.NewMeterProvider().Meter("test")); err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}
}

func TestStartRequest(t *testing.T) {
	exporter := withSpanRecorder(t)

	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	obs := StartRequest(context.Background(), metrics, "users", "GET /users", "req-1")
	if obs.RequestID != "req-1" || obs.StartTime.IsZero() {
		t.Errorf("unexpected observation %+v", obs)
	}
	obs.End("500", errors.New("boom"))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != SpanHTTPRequest {
		t.Errorf("expected span %q, got %q", SpanHTTPRequest, spans[0].Name)
	}
	if len(spans[0].Events) == 0 {
		t.Error("expected the error to be recorded on the span")
	}
}

func TestStartRequestNilMetrics(t *testing.T) {
	obs := StartRequest(context.Background(), nil, "users", "GET /", "req-2")
	obs.End("200", nil)
	if obs.Duration() < 0 {
		t.Error("duration must not be negative")
	}
}

func TestTracePhase(t *testing.T) {
	exporter := withSpanRecorder(t)
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())
	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}

	ran := false
	if err := TracePhase(context.Background(), metrics, "users", "bundle", func(context.Context) error {
		ran = true
		return nil
	}); err != nil || !ran {
		t.Fatalf("expected phase to run, err=%v", err)
	}

	boom := errors.New("boom")
	if err := TracePhase(context.Background(), metrics, "users", "on_run", func(context.Context) error {
		return boom
	}); !errors.Is(err, boom) {
		t.Errorf("expected the phase error, got %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 2 || spans[0].Name != SpanPhase {
		t.Fatalf("expected 2 phase spans, got %d", len(spans))
	}
	if len(spans[1].Events) == 0 {
		t.Error("expected the failing phase to record its error")
	}
	names := collectedNames(t, reader)
	if !names[MetricPhaseCount] || !names[MetricErrorCount] {
		t.Errorf("expected phase and error metrics, got %v", names)
	}
}

func TestTracePhaseNilMetrics(t *testing.T) {
	if err := TracePhase(context.Background(), nil, "users", "bundle", func(context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}
}

func TestSetSpanErrorNoSpan(t *testing.T) {
	SetSpanError(context.Background(), errors.New("no span"))
	SetSpanError(context.Background(), nil)
}
