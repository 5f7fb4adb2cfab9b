package bundle

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/kbukum/injectkit/autoconfig"
	"github.com/kbukum/injectkit/config"
	"github.com/kbukum/injectkit/di"
	"github.com/kbukum/injectkit/logger"
	"github.com/kbukum/injectkit/observability"
	"github.com/kbukum/injectkit/setup"
)

// RequestScopeFilterName is the name of the filter that opens request
// scopes.
const RequestScopeFilterName = "di-request-scope"

// Bundle creates the injector during Initialize and connects it to the
// environment during Run.
type Bundle[C config.Configuration] struct {
	modules []di.Module
	class   reflect.Type
	factory di.InjectorFactory
	stage   di.Stage
	auto    *autoconfig.AutoConfig
	log     *logger.Logger

	mu        sync.Mutex
	injector  di.Injector
	envModule *EnvironmentModule[C]
	container *ResourceContainer
	ran       bool
}

var _ setup.ConfiguredBundle[config.Configuration] = (*Bundle[config.Configuration])(nil)

func newBundle[C config.Configuration](modules []di.Module, class reflect.Type, factory di.InjectorFactory, stage di.Stage, auto *autoconfig.AutoConfig) *Bundle[C] {
	return &Bundle[C]{
		modules: modules,
		class:   class,
		factory: factory,
		stage:   stage,
		auto:    auto,
		log:     logger.WithComponent("bundle"),
	}
}

// Initialize creates the injector from the bundle modules plus the modules
// binding the resource container, the environment, the request values and
// the auto-configured components.
func (b *Bundle[C]) Initialize(bs *setup.Bootstrap) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.injector != nil {
		return errors.New("bundle: already initialized")
	}
	start := time.Now()

	container := NewResourceContainer()
	envModule := NewEnvironmentModule[C](b.class)

	modules := make([]di.Module, 0, len(b.modules)+4)
	modules = append(modules, b.modules...)
	modules = append(modules, container, envModule, RequestModule())
	if b.auto != nil {
		modules = append(modules, b.auto.Module())
	}

	injector, err := b.factory(b.stage, modules)
	if err != nil {
		return fmt.Errorf("create injector: %w", err)
	}
	container.setInjector(injector)

	b.injector = injector
	b.envModule = envModule
	b.container = container

	if b.auto != nil {
		if err := b.auto.Initialize(bs, injector); err != nil {
			return fmt.Errorf("auto configuration: %w", err)
		}
	}

	b.log.Info("Injector created", map[string]interface{}{
		logger.FieldStage:    b.stage.String(),
		"modules":            len(modules),
		"config_class":       b.class.String(),
		logger.FieldDuration: time.Since(start).Milliseconds(),
	})
	return nil
}

// Run publishes cfg and env, installs the resource container and the
// request-scope filter. In the production stage every remaining singleton
// is built before Run returns.
func (b *Bundle[C]) Run(cfg C, env *setup.Environment) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.injector == nil {
		return errors.New("bundle: Run called before Initialize")
	}
	if b.ran {
		return errors.New("bundle: already running")
	}

	env.Resources().Replace(b.container.Factory)

	metrics, err := observability.NewMetrics(env.Meter())
	if err != nil {
		b.log.Warn("Request metrics unavailable", map[string]interface{}{logger.FieldError: err.Error()})
		metrics = nil
	}
	pattern := env.ApplicationContext().ContextPath() + "*"
	filter := RequestScopeFilter(b.injector, env.Name(), metrics)
	if err := env.Filters().Add(RequestScopeFilterName, filter, pattern); err != nil {
		return err
	}

	if err := b.envModule.SetEnvironmentData(cfg, env); err != nil {
		return err
	}
	for _, m := range b.modules {
		if aware, ok := m.(EnvironmentAware[C]); ok {
			aware.SetEnvironmentData(cfg, env)
		}
	}
	b.ran = true

	if b.stage == di.StageProduction {
		if p, ok := b.injector.(di.Preloader); ok {
			if err := p.Preload(); err != nil {
				return fmt.Errorf("preload: %w", err)
			}
		}
	}

	if b.auto != nil {
		if err := b.auto.Run(env, b.injector); err != nil {
			return fmt.Errorf("auto configuration: %w", err)
		}
	}

	b.log.Debug("Bundle running", map[string]interface{}{"filter_pattern": pattern})
	return nil
}

// Injector returns the injector, or nil before Initialize.
func (b *Bundle[C]) Injector() di.Injector {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.injector
}

// Stage returns the stage the injector is created in.
func (b *Bundle[C]) Stage() di.Stage { return b.stage }

// Close closes the injector.
func (b *Bundle[C]) Close() error {
	inj := b.Injector()
	if inj == nil {
		return nil
	}
	return inj.Close()
}
