package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/injectkit/logger"
)

// DefaultStopTimeout bounds how long a single component may take to stop.
const DefaultStopTimeout = 10 * time.Second

// componentEntry holds a component and its started state.
type componentEntry struct {
	component Component
	started   bool
}

// Registry manages component lifecycle with deterministic ordering.
// Components are started in registration order and stopped in reverse order.
type Registry struct {
	entries     []*componentEntry
	lookup      map[string]*componentEntry
	stopTimeout time.Duration
	mu          sync.RWMutex
	log         *logger.Logger
}

// NewRegistry creates a new component registry.
func NewRegistry() *Registry {
	return &Registry{
		entries:     make([]*componentEntry, 0),
		lookup:      make(map[string]*componentEntry),
		stopTimeout: DefaultStopTimeout,
		log:         logger.WithComponent("lifecycle"),
	}
}

// SetStopTimeout changes the per-component stop timeout.
func (r *Registry) SetStopTimeout(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d > 0 {
		r.stopTimeout = d
	}
}

// Register adds a component to the registry. Components are started in
// the order they are registered, so register dependencies first.
func (r *Registry) Register(c Component) error {
	if c == nil {
		return fmt.Errorf("component: nil component")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, exists := r.lookup[name]; exists {
		return fmt.Errorf("component %s already registered", name)
	}

	entry := &componentEntry{component: c}
	r.entries = append(r.entries, entry)
	r.lookup[name] = entry

	r.log.Debug("Component registered", map[string]interface{}{
		logger.FieldComponent: name,
	})
	return nil
}

// StartAll starts all components in registration order. It stops at the
// first failure; components already started stay started so that StopAll
// can release them.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.Info("Starting all components", map[string]interface{}{
		"count": len(r.entries),
	})

	for _, entry := range r.entries {
		if entry.started {
			continue
		}
		name := entry.component.Name()

		r.log.Debug("Starting component", map[string]interface{}{logger.FieldComponent: name})
		if err := entry.component.Start(ctx); err != nil {
			r.log.Error("Component start failed", map[string]interface{}{
				logger.FieldComponent: name,
				logger.FieldError:     err.Error(),
			})
			return fmt.Errorf("failed to start %s: %w", name, err)
		}

		entry.started = true
		r.log.Debug("Component started", map[string]interface{}{logger.FieldComponent: name})
	}

	r.log.Info("All components started successfully")
	return nil
}

// StopAll gracefully stops all started components in reverse registration order.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.Info("Stopping all components")

	var errs []error
	for i := len(r.entries) - 1; i >= 0; i-- {
		entry := r.entries[i]
		if !entry.started {
			continue
		}

		name := entry.component.Name()
		r.log.Debug("Stopping component", map[string]interface{}{logger.FieldComponent: name})

		stopCtx, cancel := context.WithTimeout(ctx, r.stopTimeout)
		if err := entry.component.Stop(stopCtx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", name, err))
			r.log.Error("Component stop failed", map[string]interface{}{
				logger.FieldComponent: name,
				logger.FieldError:     err.Error(),
			})
		} else {
			r.log.Info("Component stopped", map[string]interface{}{logger.FieldComponent: name})
		}
		entry.started = false
		cancel()
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	r.log.Info("All components stopped successfully")
	return nil
}

// HealthAll returns health status for all registered components.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]Health, 0, len(r.entries))
	for _, entry := range r.entries {
		h := entry.component.Health(ctx)
		if h.Name == "" {
			h.Name = entry.component.Name()
		}
		results = append(results, h)
	}
	return results
}

// Get returns a registered component by name, or nil if not found.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, exists := r.lookup[name]; exists {
		return entry.component
	}
	return nil
}

// All returns all registered components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Component, 0, len(r.entries))
	for _, entry := range r.entries {
		result = append(result, entry.component)
	}
	return result
}

// Len returns the number of registered components.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
