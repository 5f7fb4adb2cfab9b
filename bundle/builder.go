package bundle

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/kbukum/injectkit/autoconfig"
	"github.com/kbukum/injectkit/config"
	"github.com/kbukum/injectkit/di"
)

// ErrNoModules is returned when building a bundle without modules.
var ErrNoModules = errors.New("bundle: at least one module is required")

// Builder accumulates the parts of a Bundle. It performs no work until
// Build.
type Builder[C config.Configuration] struct {
	modules      []di.Module
	configClass  reflect.Type
	factory      di.InjectorFactory
	autoPackages []string
	autoEnabled  bool
	errs         []error
}

// NewBuilder creates a Builder for configuration type C.
func NewBuilder[C config.Configuration]() *Builder[C] {
	return &Builder[C]{factory: di.New}
}

// AddModule appends m. A nil module panics.
func (b *Builder[C]) AddModule(m di.Module) *Builder[C] {
	if m == nil {
		panic("bundle: AddModule called with a nil module")
	}
	b.modules = append(b.modules, m)
	return b
}

// SetConfigClass sets the type the configuration is bound under. C must be
// assignable to t. The last call wins.
func (b *Builder[C]) SetConfigClass(t reflect.Type) *Builder[C] {
	b.configClass = t
	return b
}

// SetInjectorFactory replaces the injector factory. A nil factory panics.
func (b *Builder[C]) SetInjectorFactory(f di.InjectorFactory) *Builder[C] {
	if f == nil {
		panic("bundle: SetInjectorFactory called with a nil factory")
	}
	b.factory = f
	return b
}

// EnableAutoConfig turns on discovery of components registered by the
// given packages. It may be called once, with at least one package.
func (b *Builder[C]) EnableAutoConfig(packages ...string) *Builder[C] {
	switch {
	case b.autoEnabled:
		b.errs = append(b.errs, errors.New("bundle: auto configuration already enabled"))
	case len(packages) == 0:
		b.errs = append(b.errs, autoconfig.ErrNoPackages)
	default:
		b.autoEnabled = true
		b.autoPackages = append([]string(nil), packages...)
	}
	return b
}

// Build creates a Bundle for the production stage.
func (b *Builder[C]) Build() (*Bundle[C], error) {
	return b.BuildWithStage(di.StageProduction)
}

// BuildWithStage creates a Bundle whose injector is created in stage.
func (b *Builder[C]) BuildWithStage(stage di.Stage) (*Bundle[C], error) {
	if err := errors.Join(b.errs...); err != nil {
		return nil, err
	}
	if len(b.modules) == 0 {
		return nil, ErrNoModules
	}

	class := b.configClass
	if class == nil {
		class = di.TypeOf[C]()
	} else if !di.TypeOf[C]().AssignableTo(class) {
		return nil, fmt.Errorf("bundle: configuration %s is not assignable to %s", di.TypeOf[C](), class)
	}

	var auto *autoconfig.AutoConfig
	if b.autoEnabled {
		var err error
		if auto, err = autoconfig.New(b.autoPackages...); err != nil {
			return nil, err
		}
	}

	return newBundle[C](append([]di.Module(nil), b.modules...), class, b.factory, stage, auto), nil
}
