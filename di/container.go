package di

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/kbukum/injectkit/logger"
)

// Resolver resolves values by key. Injectors and request scopes are resolvers.
type Resolver interface {
	Resolve(key Key) (any, error)
}

// Injector is a constructed dependency graph.
type Injector interface {
	Resolver

	// Invoke calls fn with its parameters resolved by type. fn may return
	// nothing, (error), (T) or (T, error); the T result is returned.
	Invoke(fn any) (any, error)

	// Binding returns the binding registered for key.
	Binding(key Key) (*Binding, bool)

	// Bindings describes every binding for introspection.
	Bindings() []BindingInfo

	// Stage returns the stage the injector was created in.
	Stage() Stage

	// Close closes built singletons implementing io.Closer, newest first.
	Close() error
}

// Preloader is implemented by injectors that can build all remaining
// singletons on demand, including those depending on deferred bindings.
type Preloader interface {
	Preload() error
}

// InjectorFactory creates an injector for a stage from a list of modules.
// It is the extension point for alternate container engines.
type InjectorFactory func(stage Stage, modules []Module) (Injector, error)

// BindingInfo describes a binding for introspection.
type BindingInfo struct {
	Key         Key
	Scope       Scope
	Deferred    bool
	Initialized bool
	Source      string
}

// container is the default Injector.
type container struct {
	stage         Stage
	registrations map[Key]*registration
	order         []Key

	mu     sync.RWMutex
	built  []any
	closed bool

	log *logger.Logger
}

type registration struct {
	binding     *Binding
	mu          sync.RWMutex
	instance    any
	initialized bool
}

var _ InjectorFactory = New

// New creates the default injector. In StageProduction every singleton that
// does not depend on a deferred binding is built before New returns, so
// construction failures surface here.
func New(stage Stage, modules []Module) (Injector, error) {
	start := time.Now()

	binder, err := Collect(modules)
	if err != nil {
		return nil, err
	}

	c := &container{
		stage:         stage,
		registrations: make(map[Key]*registration),
		log:           logger.WithComponent("di"),
	}
	if err := binder.Instance(Injector(c), As(TypeOf[Injector]())); err != nil {
		return nil, err
	}

	index := make(map[Key]*Binding)
	for _, b := range binder.Bindings() {
		c.registrations[b.Key] = &registration{binding: b}
		c.order = append(c.order, b.Key)
		index[b.Key] = b
	}

	if stage != StageTool {
		if err := Validate(index, c.order); err != nil {
			return nil, err
		}
	}

	eager := 0
	if stage == StageProduction {
		for _, key := range EagerKeys(index, c.order) {
			if _, err := c.Resolve(key); err != nil {
				return nil, err
			}
			eager++
		}
	}

	c.log.Debug("Injector created", map[string]interface{}{
		logger.FieldStage:    stage.String(),
		"bindings":           len(c.order),
		"eager":              eager,
		logger.FieldDuration: time.Since(start).Milliseconds(),
	})
	return c, nil
}

// Resolve returns the value bound to key.
func (c *container) Resolve(key Key) (any, error) {
	return c.resolve(key, nil)
}

func (c *container) resolve(key Key, stack []Key) (any, error) {
	if slices.Contains(stack, key) {
		return nil, cycleError(key, stack)
	}

	c.mu.RLock()
	closed := c.closed
	reg, ok := c.registrations[key]
	c.mu.RUnlock()

	if closed {
		return nil, ErrClosed
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotBound, key)
	}

	next := append(stack[:len(stack):len(stack)], key)
	deps := func(k Key) (any, error) { return c.resolve(k, next) }

	switch reg.binding.Scope {
	case Singleton:
		return c.resolveSingleton(reg, deps)
	case Unscoped:
		return reg.binding.Construct(deps)
	case RequestScoped:
		return nil, fmt.Errorf("%w: %s", ErrOutOfScope, key)
	default:
		return nil, fmt.Errorf("di: unknown scope for %s", key)
	}
}

func (c *container) resolveSingleton(reg *registration, deps func(Key) (any, error)) (any, error) {
	reg.mu.RLock()
	if reg.initialized {
		instance := reg.instance
		reg.mu.RUnlock()
		return instance, nil
	}
	reg.mu.RUnlock()

	reg.mu.Lock()
	defer reg.mu.Unlock()

	// Double-check pattern
	if reg.initialized {
		return reg.instance, nil
	}

	instance, err := reg.binding.Construct(deps)
	if err != nil {
		return nil, err
	}
	reg.instance = instance
	reg.initialized = true

	if !reg.binding.IsInstance() {
		c.mu.Lock()
		c.built = append(c.built, instance)
		c.mu.Unlock()
	}
	return instance, nil
}

// Invoke calls fn with injected parameters.
func (c *container) Invoke(fn any) (any, error) {
	return invoke(c, fn)
}

// Binding returns the binding registered for key.
func (c *container) Binding(key Key) (*Binding, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	reg, ok := c.registrations[key]
	if !ok {
		return nil, false
	}
	return reg.binding, true
}

// Bindings describes every binding in declaration order.
func (c *container) Bindings() []BindingInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]BindingInfo, 0, len(c.order))
	for _, key := range c.order {
		reg := c.registrations[key]
		reg.mu.RLock()
		result = append(result, BindingInfo{
			Key:         key,
			Scope:       reg.binding.Scope,
			Deferred:    reg.binding.Deferred,
			Initialized: reg.initialized,
			Source:      reg.binding.Source,
		})
		reg.mu.RUnlock()
	}
	return result
}

// Stage returns the stage the injector was created in.
func (c *container) Stage() Stage { return c.stage }

// Preload builds every singleton that has not been built yet.
func (c *container) Preload() error {
	for _, key := range c.order {
		if c.registrations[key].binding.Scope != Singleton {
			continue
		}
		if _, err := c.Resolve(key); err != nil {
			return err
		}
	}
	return nil
}

// Close closes built singletons that implement io.Closer, newest first.
func (c *container) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	built := c.built
	c.built = nil
	c.mu.Unlock()

	return closeAll(built)
}

func closeAll(instances []any) error {
	var errs []error
	for i := len(instances) - 1; i >= 0; i-- {
		if closer, ok := instances[i].(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
