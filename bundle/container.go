package bundle

import (
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/injectkit/di"
	apperrors "github.com/kbukum/injectkit/errors"
	"github.com/kbukum/injectkit/setup"
)

// ResourceContainer installs resources through the injector. Registered
// types that have a binding are resolved; other types are built with
// reflect.New and get their `inject` fields set.
type ResourceContainer struct {
	injector atomic.Pointer[injectorRef]
	config   atomic.Pointer[setup.ResourceConfig]
}

type injectorRef struct{ di.Injector }

// NewResourceContainer creates a container without an injector.
func NewResourceContainer() *ResourceContainer {
	return &ResourceContainer{}
}

// Configure binds the container itself.
func (c *ResourceContainer) Configure(b *di.Binder) error {
	return b.Instance(c)
}

func (c *ResourceContainer) setInjector(inj di.Injector) {
	c.injector.Store(&injectorRef{inj})
}

// Factory is a setup.ContainerFactory returning c for cfg.
func (c *ResourceContainer) Factory(cfg *setup.ResourceConfig) setup.Container {
	c.config.Store(cfg)
	return c
}

// Install builds every registered resource and provider and installs them
// on r.
func (c *ResourceContainer) Install(r gin.IRouter) error {
	cfg := c.config.Load()
	if cfg == nil {
		return fmt.Errorf("bundle: resource container has no resource config")
	}

	objects := cfg.Instances()
	for _, t := range cfg.Types() {
		obj, err := c.Build(t)
		if err != nil {
			return err
		}
		objects = append(objects, obj)
	}
	return setup.InstallResources(r, objects)
}

// Build returns the value for a resource type.
func (c *ResourceContainer) Build(t reflect.Type) (any, error) {
	ref := c.injector.Load()
	if ref == nil {
		return nil, fmt.Errorf("bundle: resource container has no injector")
	}
	inj := ref.Injector

	if t != nil {
		candidates := []reflect.Type{t}
		if t.Kind() == reflect.Struct {
			candidates = append(candidates, reflect.PointerTo(t))
		}
		for _, candidate := range candidates {
			key := di.Key{Type: candidate}
			if _, ok := inj.Binding(key); !ok {
				continue
			}
			v, err := inj.Resolve(key)
			if err != nil {
				return nil, apperrors.BindingFailed(key.String(), err)
			}
			return v, nil
		}
	}

	ptr, err := setup.NewInstance(t)
	if err != nil {
		return nil, err
	}
	obj := ptr.Interface()
	if err := di.InjectFields(inj, obj); err != nil {
		return nil, apperrors.BindingFailed(ptr.Type().String(), err)
	}
	return obj, nil
}
