package di

import (
	"fmt"
	"reflect"
)

// invoke calls fn with each parameter resolved from r.
func invoke(r Resolver, fn any) (any, error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: nil function", ErrInvalidConstructor)
	}
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func || t.IsVariadic() {
		return nil, fmt.Errorf("%w: cannot invoke %s", ErrInvalidConstructor, t)
	}

	args := make([]reflect.Value, t.NumIn())
	for i := range args {
		key := Key{Type: t.In(i)}
		dep, err := r.Resolve(key)
		if err != nil {
			return nil, fmt.Errorf("invoke %s: %w", t, err)
		}
		args[i] = argValue(dep, key.Type)
	}

	out := v.Call(args)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if t.Out(0) == errorType {
			if out[0].IsNil() {
				return nil, nil
			}
			return nil, out[0].Interface().(error)
		}
		return valueInterface(out[0]), nil
	case 2:
		if t.Out(1) != errorType {
			return nil, fmt.Errorf("%w: second result of %s must be error", ErrInvalidConstructor, t)
		}
		if !out[1].IsNil() {
			return nil, out[1].Interface().(error)
		}
		return valueInterface(out[0]), nil
	default:
		return nil, fmt.Errorf("%w: %s returns too many values", ErrInvalidConstructor, t)
	}
}

// Invoke calls fn with parameters resolved from r.
func Invoke(r Resolver, fn any) (any, error) {
	return invoke(r, fn)
}

// InjectFields sets every exported field of the struct target points to that
// carries an `inject` tag. The tag value, if any, names the binding.
//
//	type UsersResource struct {
//	    Store *Store   `inject:""`
//	    Cache Cache    `inject:"users"`
//	}
func InjectFields(r Resolver, target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("di: inject target must be a non-nil struct pointer, got %T", target)
	}
	sv := v.Elem()
	st := sv.Type()

	for i := 0; i < st.NumField(); i++ {
		field := st.Field(i)
		name, ok := field.Tag.Lookup("inject")
		if !ok {
			continue
		}
		if !field.IsExported() {
			return fmt.Errorf("di: %s.%s is tagged inject but unexported", st, field.Name)
		}
		key := Key{Type: field.Type, Name: name}
		dep, err := r.Resolve(key)
		if err != nil {
			return fmt.Errorf("inject %s.%s: %w", st, field.Name, err)
		}
		sv.Field(i).Set(argValue(dep, field.Type))
	}
	return nil
}
