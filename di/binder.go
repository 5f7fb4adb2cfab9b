package di

import (
	"fmt"
	"reflect"
)

// Module declares bindings.
type Module interface {
	Configure(b *Binder) error
}

// ModuleFunc adapts a function to Module.
type ModuleFunc func(b *Binder) error

// Configure calls f(b).
func (f ModuleFunc) Configure(b *Binder) error { return f(b) }

// Binder collects the bindings declared by modules.
type Binder struct {
	bindings []*Binding
	index    map[Key]*Binding
	source   string
}

// NewBinder returns an empty Binder.
func NewBinder() *Binder {
	return &Binder{index: make(map[Key]*Binding)}
}

// Provide binds a constructor. Its parameters are resolved by type and its
// first result is bound under the result type, or the type given with As.
func (b *Binder) Provide(constructor any, opts ...BindOption) error {
	binding, err := newConstructorBinding(constructor, opts)
	if err != nil {
		return err
	}
	return b.add(binding)
}

// Instance binds a ready-made value under its dynamic type, or the type given with As.
func (b *Binder) Instance(value any, opts ...BindOption) error {
	binding, err := newInstanceBinding(value, opts)
	if err != nil {
		return err
	}
	return b.add(binding)
}

// Install configures each module into this binder.
func (b *Binder) Install(modules ...Module) error {
	for _, m := range modules {
		if m == nil {
			return fmt.Errorf("di: nil module")
		}
		prev := b.source
		b.source = moduleName(m)
		err := m.Configure(b)
		b.source = prev
		if err != nil {
			return fmt.Errorf("configure %s: %w", moduleName(m), err)
		}
	}
	return nil
}

// Bindings returns the collected bindings in declaration order.
func (b *Binder) Bindings() []*Binding {
	out := make([]*Binding, len(b.bindings))
	copy(out, b.bindings)
	return out
}

func (b *Binder) add(binding *Binding) error {
	if existing, ok := b.index[binding.Key]; ok {
		return fmt.Errorf("%w: %s (already bound by %s)", ErrDuplicateBinding, binding.Key, existing.Source)
	}
	binding.Source = b.source
	b.bindings = append(b.bindings, binding)
	b.index[binding.Key] = binding
	return nil
}

// Bind binds constructor under T.
func Bind[T any](b *Binder, constructor any, opts ...BindOption) error {
	return b.Provide(constructor, append(opts, As(TypeOf[T]()))...)
}

// BindInstance binds v under T.
func BindInstance[T any](b *Binder, v T, opts ...BindOption) error {
	return b.Instance(v, append(opts, As(TypeOf[T]()))...)
}

// Collect installs modules into a fresh Binder.
func Collect(modules []Module) (*Binder, error) {
	b := NewBinder()
	if err := b.Install(modules...); err != nil {
		return nil, err
	}
	return b, nil
}

func moduleName(m Module) string {
	t := reflect.TypeOf(m)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
