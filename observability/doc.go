// Package observability provides OpenTelemetry tracing and metrics for
// applications hosted by the bootstrap driver.
//
// Providers are configured from the telemetry section of the service
// configuration. With telemetry disabled the global no-op providers stay in
// place:
//
//	p, err := observability.Init(ctx, cfg.Telemetry, observability.ServiceInfo{Name: "users"})
//	defer p.Shutdown(ctx)
//
// The request scope filter wraps every request in a span and keeps the
// open-scope gauge:
//
//	obs := observability.StartRequest(ctx, metrics, "users", "GET /users", requestID)
//	defer obs.End(status, err)
//
// Bootstrap phases are traced with TracePhase.
package observability
