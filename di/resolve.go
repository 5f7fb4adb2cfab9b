package di

import (
	"context"
	"fmt"
)

// Resolve resolves T with type safety, returns error on failure.
//
// Example:
//
//	store, err := di.Resolve[*Store](injector)
//	if err != nil {
//	    return fmt.Errorf("resolve store: %w", err)
//	}
func Resolve[T any](r Resolver) (T, error) {
	return resolveKey[T](r, KeyOf[T]())
}

// ResolveNamed resolves the binding of T qualified by name.
func ResolveNamed[T any](r Resolver, name string) (T, error) {
	return resolveKey[T](r, NamedKey[T](name))
}

// MustResolve resolves T, panics on error. Use it in composition roots
// where a missing dependency is a programming error.
func MustResolve[T any](r Resolver) T {
	v, err := Resolve[T](r)
	if err != nil {
		panic(err.Error())
	}
	return v
}

// TryResolve resolves T, returns zero value and false if it cannot.
// Use this when a dependency is optional.
//
// Example:
//
//	if cache, ok := di.TryResolve[*Cache](inj); ok {
//	    return cache.Get(ctx, key)
//	}
func TryResolve[T any](r Resolver) (T, bool) {
	v, err := Resolve[T](r)
	if err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

func resolveKey[T any](r Resolver, key Key) (T, error) {
	var zero T
	instance, err := r.Resolve(key)
	if err != nil {
		return zero, fmt.Errorf("di: failed to resolve %s: %w", key, err)
	}
	if instance == nil {
		return zero, nil
	}
	result, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("di: binding %s is %T, expected %s", key, instance, key.Type)
	}
	return result, nil
}

// ResolveIn resolves T from the request scope carried by ctx.
func ResolveIn[T any](ctx context.Context) (T, error) {
	s, ok := ScopeFromContext(ctx)
	if !ok {
		var zero T
		return zero, fmt.Errorf("di: resolve %s: %w", KeyOf[T](), ErrOutOfScope)
	}
	return Resolve[T](s)
}
