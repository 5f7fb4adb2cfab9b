package di

import "errors"

var (
	// ErrNotBound is returned when no binding exists for a key.
	ErrNotBound = errors.New("di: no binding")
	// ErrDuplicateBinding is returned when a key is bound twice.
	ErrDuplicateBinding = errors.New("di: duplicate binding")
	// ErrCircularDependency is returned when bindings depend on each other in a cycle.
	ErrCircularDependency = errors.New("di: circular dependency")
	// ErrScopeWidening is returned when a singleton depends on a request-scoped binding.
	ErrScopeWidening = errors.New("di: singleton depends on request-scoped binding")
	// ErrOutOfScope is returned when a request-scoped binding is resolved outside a request scope.
	ErrOutOfScope = errors.New("di: resolved outside of a request scope")
	// ErrInvalidConstructor is returned for values that cannot act as constructors.
	ErrInvalidConstructor = errors.New("di: invalid constructor")
	// ErrClosed is returned when resolving from a closed injector.
	ErrClosed = errors.New("di: injector closed")
)
