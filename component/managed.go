package component

import (
	"context"
	"sync/atomic"
)

// Managed adapts start and stop functions into a Component. Health reports
// healthy while started.
type Managed struct {
	name    string
	start   func(ctx context.Context) error
	stop    func(ctx context.Context) error
	running atomic.Bool
}

// NewManaged creates a Managed component. Either function may be nil.
func NewManaged(name string, start, stop func(ctx context.Context) error) *Managed {
	return &Managed{name: name, start: start, stop: stop}
}

// Name returns the component name.
func (m *Managed) Name() string { return m.name }

// Start runs the start function.
func (m *Managed) Start(ctx context.Context) error {
	if m.start != nil {
		if err := m.start(ctx); err != nil {
			return err
		}
	}
	m.running.Store(true)
	return nil
}

// Stop runs the stop function.
func (m *Managed) Stop(ctx context.Context) error {
	m.running.Store(false)
	if m.stop != nil {
		return m.stop(ctx)
	}
	return nil
}

// Health reports whether the component is running.
func (m *Managed) Health(_ context.Context) Health {
	if m.running.Load() {
		return Health{Name: m.name, Status: StatusHealthy}
	}
	return Health{Name: m.name, Status: StatusUnhealthy, Message: "not running"}
}
