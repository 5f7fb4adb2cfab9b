package di

import "reflect"

// Key identifies a binding: a type plus an optional name.
type Key struct {
	Type reflect.Type
	Name string
}

// KeyOf returns the unnamed key for T.
func KeyOf[T any]() Key {
	return Key{Type: TypeOf[T]()}
}

// NamedKey returns the key for T qualified by name.
func NamedKey[T any](name string) Key {
	return Key{Type: TypeOf[T](), Name: name}
}

// TypeOf returns the reflect.Type of T, including interface types.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// String renders the key as "type" or "type@name".
func (k Key) String() string {
	if k.Type == nil {
		return "<nil>"
	}
	if k.Name == "" {
		return k.Type.String()
	}
	return k.Type.String() + "@" + k.Name
}
