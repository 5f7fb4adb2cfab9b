package setup

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/kbukum/injectkit/component"
	"github.com/kbukum/injectkit/logger"
)

// ApplicationContext describes where application resources are mounted.
type ApplicationContext struct {
	contextPath string
}

// ContextPath returns the mount path of application resources. It always
// starts and ends with a slash.
func (a ApplicationContext) ContextPath() string { return a.contextPath }

// Environment is the run-phase environment of an application.
type Environment struct {
	name  string
	log   *logger.Logger
	meter metric.Meter
	app   ApplicationContext

	resources *ResourceEnvironment
	filters   *FilterEnvironment
	health    *HealthCheckRegistry
	lifecycle *component.Registry
	admin     *AdminEnvironment
}

// EnvironmentOption configures an Environment.
type EnvironmentOption func(*Environment)

// WithLogger sets the environment logger.
func WithLogger(l *logger.Logger) EnvironmentOption {
	return func(e *Environment) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMeter sets the meter used for application metrics.
func WithMeter(m metric.Meter) EnvironmentOption {
	return func(e *Environment) {
		if m != nil {
			e.meter = m
		}
	}
}

// WithContextPath sets the resource mount path. Missing leading and
// trailing slashes are added.
func WithContextPath(path string) EnvironmentOption {
	return func(e *Environment) { e.app.contextPath = normalizeContextPath(path) }
}

// WithLifecycle uses an existing component registry.
func WithLifecycle(r *component.Registry) EnvironmentOption {
	return func(e *Environment) {
		if r != nil {
			e.lifecycle = r
		}
	}
}

// NewEnvironment creates an Environment for the named application.
func NewEnvironment(name string, opts ...EnvironmentOption) *Environment {
	e := &Environment{
		name:      name,
		log:       logger.GetGlobalLogger(),
		meter:     otel.Meter(name),
		app:       ApplicationContext{contextPath: "/"},
		resources: NewResourceEnvironment(),
		filters:   NewFilterEnvironment(),
		health:    NewHealthCheckRegistry(),
		admin:     NewAdminEnvironment(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.lifecycle == nil {
		e.lifecycle = component.NewRegistry()
	}
	return e
}

// Name returns the application name.
func (e *Environment) Name() string { return e.name }

// Logger returns the application logger.
func (e *Environment) Logger() *logger.Logger { return e.log }

// Meter returns the application meter.
func (e *Environment) Meter() metric.Meter { return e.meter }

// ApplicationContext returns the resource mount information.
func (e *Environment) ApplicationContext() ApplicationContext { return e.app }

// Resources returns the resource environment.
func (e *Environment) Resources() *ResourceEnvironment { return e.resources }

// Filters returns the request filter environment.
func (e *Environment) Filters() *FilterEnvironment { return e.filters }

// HealthChecks returns the health check registry.
func (e *Environment) HealthChecks() *HealthCheckRegistry { return e.health }

// Lifecycle returns the registry of managed components.
func (e *Environment) Lifecycle() *component.Registry { return e.lifecycle }

// Admin returns the admin environment.
func (e *Environment) Admin() *AdminEnvironment { return e.admin }

func normalizeContextPath(path string) string {
	if path == "" || path == "/" {
		return "/"
	}
	if path[0] != '/' {
		path = "/" + path
	}
	if path[len(path)-1] != '/' {
		path += "/"
	}
	return path
}
