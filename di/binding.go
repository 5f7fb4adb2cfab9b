package di

import (
	"fmt"
	"reflect"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Binding describes how the value for one key is produced.
type Binding struct {
	Key      Key
	Scope    Scope
	Deps     []Key
	Deferred bool
	// Source names the module that declared the binding.
	Source string

	fn       reflect.Value
	instance reflect.Value
}

// BindOption customizes a binding.
type BindOption func(*bindOptions)

type bindOptions struct {
	as       reflect.Type
	name     string
	scope    Scope
	deferred bool
}

// As binds the value under t instead of the constructor's result type.
// The result type must be assignable to t.
func As(t reflect.Type) BindOption {
	return func(o *bindOptions) { o.as = t }
}

// Named qualifies the binding key with a name.
func Named(name string) BindOption {
	return func(o *bindOptions) { o.name = name }
}

// InScope sets the binding scope. The default is Singleton.
func InScope(s Scope) BindOption {
	return func(o *bindOptions) { o.scope = s }
}

// Deferred marks a binding whose value only becomes available once the
// application runs. Production injectors do not eagerly build singletons
// that depend on it.
func Deferred() BindOption {
	return func(o *bindOptions) { o.deferred = true }
}

func applyOptions(opts []BindOption) bindOptions {
	var o bindOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// newConstructorBinding validates constructor and derives its key and dependencies.
func newConstructorBinding(constructor any, opts []BindOption) (*Binding, error) {
	if constructor == nil {
		return nil, fmt.Errorf("%w: nil", ErrInvalidConstructor)
	}
	fn := reflect.ValueOf(constructor)
	typ := fn.Type()
	if typ.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %s is not a function", ErrInvalidConstructor, typ)
	}
	if typ.IsVariadic() {
		return nil, fmt.Errorf("%w: %s is variadic", ErrInvalidConstructor, typ)
	}
	if typ.NumOut() == 0 || typ.NumOut() > 2 {
		return nil, fmt.Errorf("%w: %s must return (T) or (T, error)", ErrInvalidConstructor, typ)
	}
	if typ.NumOut() == 2 && typ.Out(1) != errorType {
		return nil, fmt.Errorf("%w: second result of %s must be error", ErrInvalidConstructor, typ)
	}

	o := applyOptions(opts)
	key, err := bindingKey(typ.Out(0), o)
	if err != nil {
		return nil, err
	}

	deps := make([]Key, typ.NumIn())
	for i := range deps {
		deps[i] = Key{Type: typ.In(i)}
	}

	return &Binding{
		Key:      key,
		Scope:    o.scope,
		Deps:     deps,
		Deferred: o.deferred,
		fn:       fn,
	}, nil
}

// newInstanceBinding binds a ready-made value as a singleton.
func newInstanceBinding(value any, opts []BindOption) (*Binding, error) {
	o := applyOptions(opts)
	if o.scope != Singleton {
		return nil, fmt.Errorf("%w: instances are always singletons", ErrInvalidConstructor)
	}

	v := reflect.ValueOf(value)
	var typ reflect.Type
	switch {
	case value != nil:
		typ = v.Type()
	case o.as != nil:
		typ = o.as
		v = reflect.Zero(typ)
	default:
		return nil, fmt.Errorf("%w: nil instance needs As(type)", ErrInvalidConstructor)
	}

	key, err := bindingKey(typ, o)
	if err != nil {
		return nil, err
	}
	return &Binding{
		Key:      key,
		Scope:    Singleton,
		Deferred: o.deferred,
		instance: v,
	}, nil
}

func bindingKey(out reflect.Type, o bindOptions) (Key, error) {
	t := out
	if o.as != nil {
		if !out.AssignableTo(o.as) {
			return Key{}, fmt.Errorf("%w: %s is not assignable to %s", ErrInvalidConstructor, out, o.as)
		}
		t = o.as
	}
	return Key{Type: t, Name: o.name}, nil
}

// IsInstance reports whether the binding holds a ready-made value.
func (b *Binding) IsInstance() bool {
	return !b.fn.IsValid()
}

// Construct builds the binding's value, resolving each dependency through resolve.
// Constructor errors are returned wrapped; they are never retried.
func (b *Binding) Construct(resolve func(Key) (any, error)) (any, error) {
	if b.IsInstance() {
		return valueInterface(b.instance), nil
	}

	args := make([]reflect.Value, len(b.Deps))
	for i, dep := range b.Deps {
		v, err := resolve(dep)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Key, err)
		}
		args[i] = argValue(v, dep.Type)
	}

	out := b.fn.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, fmt.Errorf("%s: constructor failed: %w", b.Key, out[1].Interface().(error))
	}
	return valueInterface(out[0]), nil
}

// argValue converts a resolved value into a call argument of type t.
func argValue(v any, t reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(t)
	}
	rv := reflect.ValueOf(v)
	if rv.Type() != t && rv.Type().ConvertibleTo(t) && !rv.Type().AssignableTo(t) {
		return rv.Convert(t)
	}
	return rv
}

func valueInterface(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return nil
		}
	}
	return v.Interface()
}
