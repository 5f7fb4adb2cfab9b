package di

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// RequestScope caches request-scoped values for the lifetime of one request.
// Seeded values (the request itself, its ID) take precedence over bindings.
type RequestScope struct {
	injector Injector

	mu      sync.Mutex
	seeds   map[Key]any
	entries map[Key]*scopedEntry
	built   []any
	closed  bool
}

type scopedEntry struct {
	once     sync.Once
	instance any
	err      error
}

// NewRequestScope opens a scope over injector.
func NewRequestScope(injector Injector) *RequestScope {
	return &RequestScope{
		injector: injector,
		seeds:    make(map[Key]any),
		entries:  make(map[Key]*scopedEntry),
	}
}

// Seed makes value resolvable under key inside this scope.
func (s *RequestScope) Seed(key Key, value any) {
	s.mu.Lock()
	s.seeds[key] = value
	s.mu.Unlock()
}

// Injector returns the injector the scope was opened over.
func (s *RequestScope) Injector() Injector { return s.injector }

// Resolve returns the value for key as seen from this request.
func (s *RequestScope) Resolve(key Key) (any, error) {
	return s.resolve(key, nil)
}

// Invoke calls fn with parameters resolved inside this scope.
func (s *RequestScope) Invoke(fn any) (any, error) {
	return invoke(s, fn)
}

func (s *RequestScope) resolve(key Key, stack []Key) (any, error) {
	if slices.Contains(stack, key) {
		return nil, cycleError(key, stack)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: request scope", ErrClosed)
	}
	if v, ok := s.seeds[key]; ok {
		s.mu.Unlock()
		return v, nil
	}
	s.mu.Unlock()

	binding, ok := s.injector.Binding(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotBound, key)
	}

	next := append(stack[:len(stack):len(stack)], key)
	deps := func(k Key) (any, error) { return s.resolve(k, next) }

	switch binding.Scope {
	case RequestScoped:
		return s.scoped(binding, deps)
	case Unscoped:
		return binding.Construct(deps)
	default:
		return s.injector.Resolve(key)
	}
}

func (s *RequestScope) scoped(binding *Binding, deps func(Key) (any, error)) (any, error) {
	s.mu.Lock()
	entry, ok := s.entries[binding.Key]
	if !ok {
		entry = &scopedEntry{}
		s.entries[binding.Key] = entry
	}
	s.mu.Unlock()

	entry.once.Do(func() {
		entry.instance, entry.err = binding.Construct(deps)
		if entry.err == nil && entry.instance != nil {
			s.mu.Lock()
			s.built = append(s.built, entry.instance)
			s.mu.Unlock()
		}
	})
	return entry.instance, entry.err
}

// Close closes request-scoped values implementing io.Closer, newest first.
func (s *RequestScope) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	built := s.built
	s.built = nil
	s.mu.Unlock()

	return closeAll(built)
}

type scopeContextKey struct{}

// WithScope returns a context carrying s.
func WithScope(ctx context.Context, s *RequestScope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, s)
}

// ScopeFromContext returns the request scope stored in ctx.
func ScopeFromContext(ctx context.Context) (*RequestScope, bool) {
	s, ok := ctx.Value(scopeContextKey{}).(*RequestScope)
	return s, ok && s != nil
}
