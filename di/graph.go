package di

import (
	"errors"
	"fmt"
	"strings"
)

type visitState int

const (
	unvisited visitState = iota
	visiting
	visited
)

// Validate checks a set of bindings for missing dependencies, cycles and
// singletons that capture request-scoped values. All problems found are
// joined into the returned error.
func Validate(index map[Key]*Binding, order []Key) error {
	var errs []error

	for _, key := range order {
		b := index[key]
		for _, dep := range b.Deps {
			if _, ok := index[dep]; !ok {
				errs = append(errs, fmt.Errorf("%w: %s (required by %s)", ErrNotBound, dep, key))
			}
		}
	}

	if err := Acyclic(index, order); err != nil {
		errs = append(errs, err)
	}

	// Widening is only meaningful on an acyclic graph.
	if len(errs) == 0 {
		requestBound := closure(index, order, func(b *Binding) bool { return b.Scope == RequestScoped })
		for _, key := range order {
			b := index[key]
			if b.Scope != Singleton {
				continue
			}
			for _, dep := range b.Deps {
				if requestBound[dep] {
					errs = append(errs, fmt.Errorf("%w: %s depends on %s", ErrScopeWidening, key, dep))
				}
			}
		}
	}

	return errors.Join(errs...)
}

// Acyclic returns the first dependency cycle found, wrapped in
// ErrCircularDependency, or nil.
func Acyclic(index map[Key]*Binding, order []Key) error {
	states := make(map[Key]visitState, len(index))
	for _, key := range order {
		if err := detectCycle(index, key, states, nil); err != nil {
			return err
		}
	}
	return nil
}

func detectCycle(index map[Key]*Binding, key Key, states map[Key]visitState, stack []Key) error {
	switch states[key] {
	case visiting:
		return cycleError(key, stack)
	case visited:
		return nil
	}
	b, ok := index[key]
	if !ok {
		return nil
	}

	states[key] = visiting
	stack = append(stack, key)
	for _, dep := range b.Deps {
		if err := detectCycle(index, dep, states, stack); err != nil {
			return err
		}
	}
	states[key] = visited
	return nil
}

func cycleError(key Key, stack []Key) error {
	start := 0
	for i, k := range stack {
		if k == key {
			start = i
			break
		}
	}
	parts := make([]string, 0, len(stack)-start+1)
	for _, k := range stack[start:] {
		parts = append(parts, k.String())
	}
	parts = append(parts, key.String())
	return fmt.Errorf("%w: %s", ErrCircularDependency, strings.Join(parts, " -> "))
}

// closure marks every key whose binding, or any transitive dependency,
// satisfies pred. The graph must be acyclic.
func closure(index map[Key]*Binding, order []Key, pred func(*Binding) bool) map[Key]bool {
	memo := make(map[Key]bool, len(index))
	seen := make(map[Key]bool, len(index))

	var walk func(Key) bool
	walk = func(key Key) bool {
		if seen[key] {
			return memo[key]
		}
		seen[key] = true
		b, ok := index[key]
		if !ok {
			return false
		}
		hit := pred(b)
		for _, dep := range b.Deps {
			if walk(dep) {
				hit = true
			}
		}
		memo[key] = hit
		return hit
	}

	for _, key := range order {
		walk(key)
	}
	return memo
}

// EagerKeys returns, in declaration order, the singletons a production
// injector builds up front: those that do not depend on a Deferred binding.
func EagerKeys(index map[Key]*Binding, order []Key) []Key {
	deferred := closure(index, order, func(b *Binding) bool { return b.Deferred })
	keys := make([]Key, 0, len(order))
	for _, key := range order {
		if index[key].Scope == Singleton && !deferred[key] {
			keys = append(keys, key)
		}
	}
	return keys
}
