package bundle

import (
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/kbukum/injectkit/config"
	"github.com/kbukum/injectkit/di"
	apperrors "github.com/kbukum/injectkit/errors"
	"github.com/kbukum/injectkit/setup"
)

var (
	// ErrNotReady is returned when the configuration or environment is
	// read before the bundle runs.
	ErrNotReady = apperrors.NotReady("application environment")
	// ErrAlreadySet is returned when environment data is set twice.
	ErrAlreadySet = errors.New("bundle: environment data already set")
)

// EnvironmentAware is implemented by modules that want the configuration
// and the environment once the application runs.
type EnvironmentAware[C config.Configuration] interface {
	SetEnvironmentData(cfg C, env *setup.Environment)
}

type environmentData[C config.Configuration] struct {
	cfg C
	env *setup.Environment
}

// EnvironmentModule binds the configuration and the environment. Both are
// published once, when the bundle runs.
type EnvironmentModule[C config.Configuration] struct {
	class reflect.Type
	data  atomic.Pointer[environmentData[C]]
}

// NewEnvironmentModule creates a module binding the configuration under
// class. A nil class binds it under C.
func NewEnvironmentModule[C config.Configuration](class reflect.Type) *EnvironmentModule[C] {
	if class == nil {
		class = di.TypeOf[C]()
	}
	return &EnvironmentModule[C]{class: class}
}

// Configure declares the configuration, service configuration and
// environment bindings. They are unscoped and deferred: each resolution
// reads the published data.
func (m *EnvironmentModule[C]) Configure(b *di.Binder) error {
	opts := []di.BindOption{di.InScope(di.Unscoped), di.Deferred()}

	if err := b.Provide(m.Configuration, append(opts, di.As(m.class))...); err != nil {
		return err
	}

	baseType := di.TypeOf[config.Configuration]()
	if m.class != baseType {
		err := b.Provide(func() (config.Configuration, error) {
			cfg, err := m.Configuration()
			if err != nil {
				return nil, err
			}
			return cfg, nil
		}, opts...)
		if err != nil {
			return err
		}
	}

	if m.class != di.TypeOf[*config.ServiceConfig]() {
		err := b.Provide(func() (*config.ServiceConfig, error) {
			cfg, err := m.Configuration()
			if err != nil {
				return nil, err
			}
			return cfg.GetServiceConfig(), nil
		}, opts...)
		if err != nil {
			return err
		}
	}

	return b.Provide(m.Environment, opts...)
}

// SetEnvironmentData publishes cfg and env. It succeeds once.
func (m *EnvironmentModule[C]) SetEnvironmentData(cfg C, env *setup.Environment) error {
	if env == nil {
		return fmt.Errorf("bundle: nil environment")
	}
	if !m.data.CompareAndSwap(nil, &environmentData[C]{cfg: cfg, env: env}) {
		return ErrAlreadySet
	}
	return nil
}

// Ready reports whether environment data has been published.
func (m *EnvironmentModule[C]) Ready() bool {
	return m.data.Load() != nil
}

// Configuration returns the published configuration.
func (m *EnvironmentModule[C]) Configuration() (C, error) {
	d := m.data.Load()
	if d == nil {
		var zero C
		return zero, ErrNotReady
	}
	return d.cfg, nil
}

// Environment returns the published environment.
func (m *EnvironmentModule[C]) Environment() (*setup.Environment, error) {
	d := m.data.Load()
	if d == nil {
		return nil, ErrNotReady
	}
	return d.env, nil
}
