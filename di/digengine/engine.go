// Package digengine is an alternate di.InjectorFactory backed by go.uber.org/dig.
//
// Singletons are provided to a dig container, which owns their construction
// and caching. Unscoped bindings are built on every resolution outside dig and
// request-scoped bindings are served through di.RequestScope, as with the
// default engine.
//
//	builder.SetInjectorFactory(digengine.New)
package digengine

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.uber.org/dig"

	"github.com/kbukum/injectkit/di"
	"github.com/kbukum/injectkit/logger"
)

// ErrNamedUnsupported is returned for bindings qualified with di.Named.
var ErrNamedUnsupported = errors.New("digengine: named bindings are not supported")

var errorType = reflect.TypeOf((*error)(nil)).Elem()

type engine struct {
	stage     di.Stage
	container *dig.Container
	index     map[di.Key]*di.Binding
	order     []di.Key

	// digMu serializes container invocations.
	digMu sync.Mutex

	mu     sync.Mutex
	values map[di.Key]any
	built  []any
	closed bool
}

var _ di.InjectorFactory = New

// New creates a dig-backed injector. Dependency cycles are rejected in every
// stage because dig requires an acyclic graph.
func New(stage di.Stage, modules []di.Module) (di.Injector, error) {
	start := time.Now()

	binder, err := di.Collect(modules)
	if err != nil {
		return nil, err
	}

	e := &engine{
		stage:     stage,
		container: dig.New(),
		index:     make(map[di.Key]*di.Binding),
		values:    make(map[di.Key]any),
	}
	if err := binder.Instance(di.Injector(e), di.As(di.TypeOf[di.Injector]())); err != nil {
		return nil, err
	}

	for _, b := range binder.Bindings() {
		if b.Key.Name != "" {
			return nil, fmt.Errorf("%w: %s", ErrNamedUnsupported, b.Key)
		}
		e.index[b.Key] = b
		e.order = append(e.order, b.Key)
	}

	if stage == di.StageTool {
		if err := di.Acyclic(e.index, e.order); err != nil {
			return nil, err
		}
	} else if err := di.Validate(e.index, e.order); err != nil {
		return nil, err
	}

	for _, key := range e.order {
		b := e.index[key]
		if b.Scope != di.Singleton {
			continue
		}
		if err := e.container.Provide(e.provider(b)); err != nil {
			return nil, fmt.Errorf("digengine: provide %s: %w", key, err)
		}
	}

	if stage == di.StageProduction {
		for _, key := range di.EagerKeys(e.index, e.order) {
			if _, err := e.Resolve(key); err != nil {
				return nil, err
			}
		}
	}

	logger.WithComponent("digengine").Debug("Injector created", map[string]interface{}{
		logger.FieldStage:    stage.String(),
		"bindings":           len(e.order),
		logger.FieldDuration: time.Since(start).Milliseconds(),
	})
	return e, nil
}

// provider wraps a singleton binding in a function dig can call. Every
// singleton reachable through the binding's unscoped dependencies becomes a
// parameter, so dig sees the whole singleton graph and the wrapper never calls
// back into the container.
func (e *engine) provider(b *di.Binding) any {
	keys := e.singletonDeps(b)
	in := make([]reflect.Type, len(keys))
	for i, k := range keys {
		in[i] = k.Type
	}

	fnType := reflect.FuncOf(in, []reflect.Type{b.Key.Type, errorType}, false)
	fn := reflect.MakeFunc(fnType, func(args []reflect.Value) []reflect.Value {
		supplied := make(map[di.Key]any, len(args))
		for i, arg := range args {
			supplied[keys[i]] = interfaceOf(arg)
		}

		instance, err := b.Construct(e.local(supplied))
		if err != nil {
			return []reflect.Value{reflect.Zero(b.Key.Type), reflect.ValueOf(&err).Elem()}
		}

		if !b.IsInstance() {
			e.mu.Lock()
			e.built = append(e.built, instance)
			e.mu.Unlock()
		}

		out := reflect.New(b.Key.Type).Elem()
		if instance != nil {
			out.Set(reflect.ValueOf(instance))
		}
		return []reflect.Value{out, reflect.Zero(errorType)}
	})
	return fn.Interface()
}

// singletonDeps lists the singletons b needs, directly or through unscoped
// bindings, in first-seen order.
func (e *engine) singletonDeps(b *di.Binding) []di.Key {
	var keys []di.Key
	seen := make(map[di.Key]bool)
	var walk func(deps []di.Key)
	walk = func(deps []di.Key) {
		for _, dep := range deps {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			d, ok := e.index[dep]
			if !ok {
				continue
			}
			switch d.Scope {
			case di.Singleton:
				keys = append(keys, dep)
			case di.Unscoped:
				walk(d.Deps)
			}
		}
	}
	walk(b.Deps)
	return keys
}

// local resolves dependencies inside a dig constructor call.
func (e *engine) local(supplied map[di.Key]any) func(di.Key) (any, error) {
	var resolve func(di.Key) (any, error)
	resolve = func(k di.Key) (any, error) {
		if v, ok := supplied[k]; ok {
			return v, nil
		}
		d, ok := e.index[k]
		if !ok {
			return nil, fmt.Errorf("%w: %s", di.ErrNotBound, k)
		}
		switch d.Scope {
		case di.Unscoped:
			return d.Construct(resolve)
		case di.RequestScoped:
			return nil, fmt.Errorf("%w: %s", di.ErrOutOfScope, k)
		default:
			return nil, fmt.Errorf("digengine: singleton %s not supplied", k)
		}
	}
	return resolve
}

// Resolve returns the value bound to key.
func (e *engine) Resolve(key di.Key) (any, error) {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return nil, di.ErrClosed
	}

	b, ok := e.index[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", di.ErrNotBound, key)
	}

	switch b.Scope {
	case di.Singleton:
		return e.fromDig(key)
	case di.Unscoped:
		return b.Construct(e.Resolve)
	case di.RequestScoped:
		return nil, fmt.Errorf("%w: %s", di.ErrOutOfScope, key)
	default:
		return nil, fmt.Errorf("digengine: unknown scope for %s", key)
	}
}

func (e *engine) fromDig(key di.Key) (any, error) {
	e.mu.Lock()
	if v, ok := e.values[key]; ok {
		e.mu.Unlock()
		return v, nil
	}
	e.mu.Unlock()

	e.digMu.Lock()
	defer e.digMu.Unlock()

	var result any
	fnType := reflect.FuncOf([]reflect.Type{key.Type}, nil, false)
	fn := reflect.MakeFunc(fnType, func(args []reflect.Value) []reflect.Value {
		result = interfaceOf(args[0])
		return nil
	})
	if err := e.container.Invoke(fn.Interface()); err != nil {
		return nil, fmt.Errorf("digengine: resolve %s: %w", key, dig.RootCause(err))
	}

	e.mu.Lock()
	e.values[key] = result
	e.mu.Unlock()
	return result, nil
}

// Invoke calls fn with injected parameters.
func (e *engine) Invoke(fn any) (any, error) {
	return di.Invoke(e, fn)
}

// Binding returns the binding registered for key.
func (e *engine) Binding(key di.Key) (*di.Binding, bool) {
	b, ok := e.index[key]
	return b, ok
}

// Bindings describes every binding in declaration order.
func (e *engine) Bindings() []di.BindingInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := make([]di.BindingInfo, 0, len(e.order))
	for _, key := range e.order {
		b := e.index[key]
		result = append(result, di.BindingInfo{
			Key:         key,
			Scope:       b.Scope,
			Deferred:    b.Deferred,
			Initialized: initialized(e.values, key),
			Source:      b.Source,
		})
	}
	return result
}

// Stage returns the stage the injector was created in.
func (e *engine) Stage() di.Stage { return e.stage }

// Preload builds every singleton dig has not built yet.
func (e *engine) Preload() error {
	for _, key := range e.order {
		if e.index[key].Scope != di.Singleton {
			continue
		}
		if _, err := e.Resolve(key); err != nil {
			return err
		}
	}
	return nil
}

// Close closes built singletons implementing io.Closer, newest first.
func (e *engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	built := e.built
	e.built = nil
	e.mu.Unlock()

	var errs []error
	for i := len(built) - 1; i >= 0; i-- {
		if c, ok := built[i].(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func initialized(values map[di.Key]any, key di.Key) bool {
	_, ok := values[key]
	return ok
}

func interfaceOf(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return nil
		}
	}
	return v.Interface()
}
