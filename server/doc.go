// Package server provides the HTTP server that hosts application resources:
// Gin for routing, a root ServeMux for extra handlers, and h2c for HTTP/2
// cleartext.
//
// Resources are mounted under the configured context path; health, ping,
// info, metrics and admin tasks live under the admin path.
//
// # Middleware
//
// Server-level middleware (server/middleware) wraps every request:
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: X-Request-Id generation and propagation
//   - CORS: cross-origin headers, enabled when origins are configured
//   - BodySizeLimit: request body size limit
//   - RequestLogger: request logging with duration tracking
//
// # Endpoints
//
// Built-in endpoints (server/endpoint), relative to the admin path:
//
//   - /health: aggregated component and health-check status
//   - /ping: liveness
//   - /info: build and version information
//   - /metrics: runtime statistics
//   - /tasks/:name: admin task execution (POST)
package server
