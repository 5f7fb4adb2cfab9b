package autoconfig

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/kbukum/injectkit/component"
	"github.com/kbukum/injectkit/di"
	"github.com/kbukum/injectkit/logger"
	"github.com/kbukum/injectkit/setup"
)

// ErrNoPackages is returned by New without base packages.
var ErrNoPackages = errors.New("autoconfig: at least one package is required")

var (
	bundleType      = reflect.TypeOf((*setup.Bundle)(nil)).Elem()
	componentType   = reflect.TypeOf((*component.Component)(nil)).Elem()
	taskType        = reflect.TypeOf((*setup.Task)(nil)).Elem()
	healthCheckType = reflect.TypeOf((*setup.HealthCheck)(nil)).Elem()
	providerType    = reflect.TypeOf((*setup.Provider)(nil)).Elem()
	resourceType    = reflect.TypeOf((*setup.Resource)(nil)).Elem()
)

// AutoConfig binds and installs the registered components of a set of
// packages.
type AutoConfig struct {
	packages []string
	entries  []entry
	log      *logger.Logger
}

// New scans the registry for constructors in packages or their
// subpackages.
func New(packages ...string) (*AutoConfig, error) {
	var bases []string
	for _, p := range packages {
		if p = strings.TrimSuffix(strings.TrimSpace(p), "/"); p != "" {
			bases = append(bases, p)
		}
	}
	if len(bases) == 0 {
		return nil, ErrNoPackages
	}

	a := &AutoConfig{
		packages: bases,
		entries:  scan(bases),
		log:      logger.WithComponent("autoconfig"),
	}
	a.log.Debug("Packages scanned", map[string]interface{}{
		"packages": bases,
		"matches":  len(a.entries),
	})
	return a, nil
}

// Packages returns the base packages.
func (a *AutoConfig) Packages() []string {
	return append([]string(nil), a.packages...)
}

// Types returns the matched result types in registration order.
func (a *AutoConfig) Types() []reflect.Type {
	types := make([]reflect.Type, len(a.entries))
	for i, e := range a.entries {
		types[i] = e.result
	}
	return types
}

// Module binds every matched constructor as a singleton.
func (a *AutoConfig) Module() di.Module {
	return di.ModuleFunc(func(b *di.Binder) error {
		for _, e := range a.entries {
			if err := b.Provide(e.constructor); err != nil {
				return fmt.Errorf("autoconfig %s: %w", e.result, err)
			}
		}
		return nil
	})
}

// Initialize adds the discovered bundles to bs.
func (a *AutoConfig) Initialize(bs *setup.Bootstrap, inj di.Resolver) error {
	return a.each(inj, bundleType, func(v any, t reflect.Type) error {
		return bs.AddBundle(v.(setup.Bundle))
	})
}

// Run registers the discovered managed components, tasks, health checks,
// providers and resources with env, in that order. Resources are
// registered by type so the resource container resolves them.
func (a *AutoConfig) Run(env *setup.Environment, inj di.Resolver) error {
	steps := []struct {
		kind  string
		iface reflect.Type
		add   func(v any, t reflect.Type) error
	}{
		{"component", componentType, func(v any, _ reflect.Type) error {
			return env.Lifecycle().Register(v.(component.Component))
		}},
		{"task", taskType, func(v any, _ reflect.Type) error {
			return env.Admin().AddTask(v.(setup.Task))
		}},
		{"health check", healthCheckType, func(v any, t reflect.Type) error {
			return env.HealthChecks().Register(checkName(v, t), v.(setup.HealthCheck))
		}},
		{"provider", providerType, func(v any, _ reflect.Type) error {
			env.Resources().Register(v)
			return nil
		}},
	}

	for _, step := range steps {
		if err := a.each(inj, step.iface, step.add); err != nil {
			return fmt.Errorf("register %s: %w", step.kind, err)
		}
	}

	for _, e := range a.entries {
		if e.result.Implements(resourceType) && !e.result.Implements(providerType) {
			env.Resources().RegisterType(e.result)
		}
	}
	a.log.Info("Auto configuration applied", map[string]interface{}{
		"packages": a.packages,
		"entries":  len(a.entries),
	})
	return nil
}

// each resolves every matched entry implementing iface and passes it to fn.
func (a *AutoConfig) each(inj di.Resolver, iface reflect.Type, fn func(v any, t reflect.Type) error) error {
	for _, e := range a.entries {
		if !e.result.Implements(iface) {
			continue
		}
		v, err := inj.Resolve(di.Key{Type: e.result})
		if err != nil {
			return fmt.Errorf("resolve %s: %w", e.result, err)
		}
		if v == nil {
			return fmt.Errorf("%s: constructor returned nil", e.result)
		}
		if err := fn(v, e.result); err != nil {
			return err
		}
		a.log.Debug("Registered", map[string]interface{}{
			"type": e.result.String(),
			"as":   iface.String(),
		})
	}
	return nil
}

func checkName(v any, t reflect.Type) string {
	if named, ok := v.(interface{ Name() string }); ok && named.Name() != "" {
		return named.Name()
	}
	return t.String()
}
