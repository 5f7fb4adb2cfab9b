package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is an object whose lifecycle is bound to the application's:
// started after wiring, stopped on shutdown.
type Component interface {
	// Name returns the unique name of the component for registration.
	Name() string

	// Start starts the component.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the component and releases resources.
	Stop(ctx context.Context) error

	// Health returns the current health status of the component.
	Health(ctx context.Context) Health
}

// Description holds summary information for the startup display.
type Description struct {
	// Name is the human-readable display name. If empty, Name() is used.
	Name string
	// Type categorizes the component: "server", "worker", "scheduler".
	Type string
	// Details is a one-liner shown in the startup summary.
	Details string
	// Port is the primary port, 0 if not applicable.
	Port int
}

// Describable is optionally implemented by Components to self-report in the
// startup summary.
type Describable interface {
	Describe() Description
}

// Route holds a single HTTP route for the startup summary.
type Route struct {
	Method  string
	Path    string
	Handler string
}

// RouteProvider is optionally implemented by components that serve HTTP
// routes to report them in the startup summary.
type RouteProvider interface {
	Routes() []Route
}

// Overall folds component health into one status: unhealthy wins over
// degraded, degraded over healthy.
func Overall(healths []Health) HealthStatus {
	status := StatusHealthy
	for _, h := range healths {
		switch h.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}
