package setup

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/injectkit/component"
)

// HealthCheck reports the health of something the application depends on.
type HealthCheck interface {
	Check(ctx context.Context) error
}

// HealthCheckFunc adapts a function to HealthCheck.
type HealthCheckFunc func(ctx context.Context) error

// Check calls f.
func (f HealthCheckFunc) Check(ctx context.Context) error { return f(ctx) }

type namedCheck struct {
	name  string
	check HealthCheck
}

// HealthCheckRegistry holds named health checks.
type HealthCheckRegistry struct {
	mu     sync.RWMutex
	checks []namedCheck
}

// NewHealthCheckRegistry creates an empty registry.
func NewHealthCheckRegistry() *HealthCheckRegistry {
	return &HealthCheckRegistry{}
}

// Register adds check under name. Names must be unique.
func (r *HealthCheckRegistry) Register(name string, check HealthCheck) error {
	if check == nil {
		return fmt.Errorf("setup: health check %s is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.checks {
		if c.name == name {
			return fmt.Errorf("setup: health check %s already registered", name)
		}
	}
	r.checks = append(r.checks, namedCheck{name: name, check: check})
	return nil
}

// Names returns the registered check names in order.
func (r *HealthCheckRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.checks))
	for i, c := range r.checks {
		names[i] = c.name
	}
	return names
}

// RunAll runs every check and reports one Health per check.
func (r *HealthCheckRegistry) RunAll(ctx context.Context) []component.Health {
	r.mu.RLock()
	checks := make([]namedCheck, len(r.checks))
	copy(checks, r.checks)
	r.mu.RUnlock()

	results := make([]component.Health, 0, len(checks))
	for _, c := range checks {
		h := component.Health{Name: c.name, Status: component.StatusHealthy}
		if err := c.check.Check(ctx); err != nil {
			h.Status = component.StatusUnhealthy
			h.Message = err.Error()
		}
		results = append(results, h)
	}
	return results
}
