package autoconfig

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

type entry struct {
	constructor any
	result      reflect.Type
	pkg         string
}

var (
	mu       sync.Mutex
	registry []entry
)

// Register records constructor for discovery. Its first result type decides
// the package the entry belongs to and the key it is bound under.
// Register panics on anything that is not a function with a result, since
// it runs from init.
func Register(constructor any) {
	t := reflect.TypeOf(constructor)
	if t == nil || t.Kind() != reflect.Func || t.NumOut() == 0 {
		panic(fmt.Sprintf("autoconfig: Register needs a constructor function, got %T", constructor))
	}
	result := t.Out(0)

	mu.Lock()
	registry = append(registry, entry{constructor: constructor, result: result, pkg: packageOf(result)})
	mu.Unlock()
}

// packageOf returns the import path of t, looking through pointers.
func packageOf(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.PkgPath()
}

// inPackages reports whether pkg is one of bases or below one of them.
func inPackages(pkg string, bases []string) bool {
	for _, base := range bases {
		if pkg == base || strings.HasPrefix(pkg, base+"/") {
			return true
		}
	}
	return false
}

func scan(bases []string) []entry {
	mu.Lock()
	defer mu.Unlock()

	var matched []entry
	for _, e := range registry {
		if inPackages(e.pkg, bases) {
			matched = append(matched, e)
		}
	}
	return matched
}
