package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	"github.com/kbukum/injectkit/component"
	"github.com/kbukum/injectkit/config"
	"github.com/kbukum/injectkit/di"
	"github.com/kbukum/injectkit/logger"
	"github.com/kbukum/injectkit/observability"
	"github.com/kbukum/injectkit/server"
	"github.com/kbukum/injectkit/server/endpoint"
	"github.com/kbukum/injectkit/setup"
)

// RunFunc is the application's own run step, called after every bundle ran.
type RunFunc[C config.Configuration] func(ctx context.Context, cfg C, env *setup.Environment) error

// App is an application with uniform lifecycle management. The type
// parameter C is the configuration type; any struct embedding
// config.ServiceConfig satisfies config.Configuration through a pointer.
type App[C config.Configuration] struct {
	Name string

	bootstrap  *setup.Bootstrap
	configured []setup.ConfiguredBundle[C]
	onRun      []RunFunc[C]

	onStart []Hook
	onReady []Hook
	onStop  []Hook

	gracefulTimeout time.Duration
	customLogger    bool
	log             *logger.Logger
	summaryOut      io.Writer

	prepared  bool
	cfg       C
	env       *setup.Environment
	server    *server.Server
	telemetry *observability.Provider
	metrics   *observability.Metrics
	summary   *Summary
}

// New creates an application named name.
func New[C config.Configuration](name string, opts ...Option) *App[C] {
	o := newOptions(opts)

	a := &App[C]{
		Name:            name,
		gracefulTimeout: o.gracefulTimeout,
		log:             logger.GetGlobalLogger(),
		summaryOut:      o.summaryOut,
	}
	if o.logger != nil {
		a.log = o.logger
		a.customLogger = true
	}
	a.bootstrap = setup.NewBootstrap(name, a.log)
	return a
}

// Bootstrap returns the bootstrap bundles are initialized against.
func (a *App[C]) Bootstrap() *setup.Bootstrap { return a.bootstrap }

// AddBundle initializes b and runs it during Prepare.
func (a *App[C]) AddBundle(b setup.Bundle) error {
	return a.bootstrap.AddBundle(b)
}

// AddConfiguredBundle initializes b and runs it with the configuration
// during Prepare. Configured bundles run before plain bundles.
func (a *App[C]) AddConfiguredBundle(b setup.ConfiguredBundle[C]) error {
	if b == nil {
		return errors.New("bootstrap: nil bundle")
	}
	if err := b.Initialize(a.bootstrap); err != nil {
		return fmt.Errorf("initialize bundle %T: %w", b, err)
	}
	a.configured = append(a.configured, b)
	return nil
}

// OnRun registers the application's run step.
func (a *App[C]) OnRun(fn RunFunc[C]) {
	a.onRun = append(a.onRun, fn)
}

// Config returns the configuration after Prepare.
func (a *App[C]) Config() C { return a.cfg }

// Environment returns the environment after Prepare.
func (a *App[C]) Environment() *setup.Environment { return a.env }

// Server returns the HTTP server after Prepare.
func (a *App[C]) Server() *server.Server { return a.server }

// Logger returns the application logger.
func (a *App[C]) Logger() *logger.Logger { return a.log }

// Summary returns the startup summary after Prepare.
func (a *App[C]) Summary() *Summary { return a.summary }

// Handler returns the root HTTP handler after Prepare.
func (a *App[C]) Handler() http.Handler {
	if a.server == nil {
		return http.NotFoundHandler()
	}
	return a.server.Handler()
}

// Prepare applies defaults to cfg, validates it, sets up logging and
// telemetry, runs every bundle against a new Environment and mounts the
// resources. It does not bind the port.
func (a *App[C]) Prepare(ctx context.Context, cfg C) error {
	if a.prepared {
		return errors.New("bootstrap: already prepared")
	}
	start := time.Now()

	base := cfg.GetServiceConfig()
	if base.Name == "" {
		base.Name = a.Name
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	if !a.customLogger {
		logger.Init(base.Logging)
		a.log = logger.GetGlobalLogger()
	}

	telemetry, err := observability.Init(ctx, base.Telemetry, observability.ServiceInfo{
		Name:        base.Name,
		Version:     base.Version,
		Environment: base.Environment,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	a.telemetry = telemetry
	if a.metrics, err = observability.NewMetrics(telemetry.Meter()); err != nil {
		a.log.Warn("Startup metrics unavailable", logger.ErrorFields("prepare", err))
	}

	a.server = server.New(base.Server, a.log)
	a.server.ApplyMiddleware()

	a.env = setup.NewEnvironment(base.Name,
		setup.WithLogger(a.log),
		setup.WithMeter(telemetry.Meter()),
		setup.WithContextPath(base.Server.ContextPath),
	)
	a.cfg = cfg
	a.summary = NewSummary(base.Name, base.Version)

	if err := a.runBundles(ctx, cfg); err != nil {
		return err
	}
	if err := a.mount(); err != nil {
		return err
	}

	a.prepared = true
	a.log.Info("Application prepared", logger.DurationFields("prepare", time.Since(start)))
	return nil
}

// runBundles runs configured bundles, then plain bundles, then the OnRun
// steps.
func (a *App[C]) runBundles(ctx context.Context, cfg C) error {
	for _, b := range a.configured {
		if err := a.timed(ctx, fmt.Sprintf("%T", b), func() error { return b.Run(cfg, a.env) }); err != nil {
			return fmt.Errorf("run bundle %T: %w", b, err)
		}
		a.trackBindings(b)
	}
	for _, b := range a.bootstrap.Bundles() {
		if err := a.timed(ctx, fmt.Sprintf("%T", b), func() error { return b.Run(a.env) }); err != nil {
			return fmt.Errorf("run bundle %T: %w", b, err)
		}
	}
	for i, fn := range a.onRun {
		if err := a.timed(ctx, "on_run", func() error { return fn(ctx, cfg, a.env) }); err != nil {
			return fmt.Errorf("run step %d: %w", i, err)
		}
	}
	return nil
}

func (a *App[C]) timed(ctx context.Context, phase string, fn func() error) error {
	return observability.TracePhase(ctx, a.metrics, a.Name, phase, func(context.Context) error { return fn() })
}

// trackBindings records the bindings of bundles that expose an injector.
func (a *App[C]) trackBindings(b any) {
	withInjector, ok := b.(interface{ Injector() di.Injector })
	if !ok || withInjector.Injector() == nil {
		return
	}
	for _, info := range withInjector.Injector().Bindings() {
		a.summary.TrackBinding(info)
	}
}

// mount installs filters, resources and the admin endpoints on the server.
func (a *App[C]) mount() error {
	engine := a.server.GinEngine()
	engine.Use(a.env.Filters().Handlers()...)

	contextPath := a.env.ApplicationContext().ContextPath()
	if err := a.env.Resources().Container().Install(engine.Group(contextPath)); err != nil {
		return fmt.Errorf("install resources: %w", err)
	}

	a.server.AddStats(a.stats)
	a.server.RegisterDefaultEndpoints(
		endpoint.Service{Name: a.env.Name(), Version: a.cfg.GetServiceConfig().Version},
		a.env.Lifecycle().HealthAll,
		a.env.HealthChecks().RunAll,
	)
	a.server.RegisterTasks(a.env.Admin().Run)

	for _, t := range a.env.Admin().Tasks() {
		a.summary.TrackTask(t.Name())
	}
	return nil
}

// stats reports the hosted application on the admin metrics endpoint.
func (a *App[C]) stats(context.Context) map[string]any {
	return map[string]any{
		"components":    len(a.env.Lifecycle().All()),
		"health_checks": len(a.env.HealthChecks().Names()),
		"tasks":         len(a.env.Admin().Tasks()),
		"bindings":      len(a.summary.Bindings()),
	}
}

// ReadyCheck verifies that all managed components and health checks are healthy.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	if a.env == nil {
		return errors.New("bootstrap: not prepared")
	}
	results := append(a.env.Lifecycle().HealthAll(ctx), a.env.HealthChecks().RunAll(ctx)...)
	var unhealthy []string
	for _, h := range results {
		if h.Status != component.StatusHealthy {
			detail := h.Name + "=" + string(h.Status)
			if h.Message != "" {
				detail += "(" + h.Message + ")"
			}
			unhealthy = append(unhealthy, detail)
		}
	}
	if len(unhealthy) > 0 {
		return fmt.Errorf("unhealthy components: %v", unhealthy)
	}
	return nil
}

// Run executes the full application lifecycle for long-running services:
// Prepare → Start components → OnStart hooks → ReadyCheck → OnReady hooks →
// Block on signal → OnStop hooks → Graceful Shutdown.
func (a *App[C]) Run(ctx context.Context, cfg C) error {
	if err := a.Prepare(ctx, cfg); err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		_ = a.stop()
		return err
	}

	a.log.Info("Application ready, waiting for shutdown signal")
	a.WaitForSignal(ctx)

	return a.stop()
}

// RunTask executes a finite task with the full bootstrap lifecycle.
// Unlike Run, it does not block on shutdown signals: it runs task and shuts
// down when the task completes or the context is canceled (e.g. via
// SIGINT/SIGTERM).
func (a *App[C]) RunTask(ctx context.Context, cfg C, task func(ctx context.Context) error) error {
	if err := a.Prepare(ctx, cfg); err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		_ = a.stop()
		return err
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.log.Info("Received signal, canceling task", map[string]interface{}{
				"signal": sig.String(),
			})
			cancel()
		case <-taskCtx.Done():
		}
	}()

	taskErr := task(taskCtx)

	if stopErr := a.stop(); stopErr != nil && taskErr == nil {
		return stopErr
	}
	return taskErr
}

// RunWithConfig loads the configuration with config.Load and runs the
// application. C must be a pointer type.
func (a *App[C]) RunWithConfig(ctx context.Context, opts ...config.LoaderOption) error {
	cfg, err := a.LoadConfig(opts...)
	if err != nil {
		return err
	}
	return a.Run(ctx, cfg)
}

// LoadConfig allocates a C and fills it with config.Load.
func (a *App[C]) LoadConfig(opts ...config.LoaderOption) (C, error) {
	var zero C
	t := reflect.TypeOf((*C)(nil)).Elem()
	if t.Kind() != reflect.Pointer {
		return zero, fmt.Errorf("bootstrap: configuration type %s must be a pointer", t)
	}
	cfg := reflect.New(t.Elem()).Interface().(C)
	if err := config.Load(a.Name, cfg, opts...); err != nil {
		return zero, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Start starts the HTTP server and every managed component, then runs the
// OnStart hooks, the ready check and the OnReady hooks.
func (a *App[C]) Start(ctx context.Context) error {
	if !a.prepared {
		return errors.New("bootstrap: Start called before Prepare")
	}
	start := time.Now()

	a.log.Info("Starting application", map[string]interface{}{
		"name":    a.Name,
		"version": a.cfg.GetServiceConfig().Version,
	})

	if err := a.env.Lifecycle().Register(server.NewComponent(a.server)); err != nil {
		return err
	}
	if err := a.env.Lifecycle().StartAll(ctx); err != nil {
		return fmt.Errorf("failed to start components: %w", err)
	}
	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}

	if err := a.ReadyCheck(ctx); err != nil {
		a.log.Warn("Ready check reported issues", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
	}
	if err := runHooks(ctx, a.onReady); err != nil {
		return fmt.Errorf("onReady hook failed: %w", err)
	}

	a.summary.SetStartupDuration(time.Since(start))
	a.DisplaySummary(ctx)
	return nil
}

// DisplaySummary prints the startup summary.
func (a *App[C]) DisplaySummary(ctx context.Context) {
	if a.summary == nil {
		return
	}
	for _, c := range a.env.Lifecycle().All() {
		h := c.Health(ctx)
		a.summary.TrackComponent(c.Name(), string(h.Status), h.Status == component.StatusHealthy)
		if rp, ok := c.(component.RouteProvider); ok {
			for _, r := range rp.Routes() {
				a.summary.TrackRoute(r.Method, r.Path, r.Handler)
			}
		}
	}
	healths := append(a.env.Lifecycle().HealthAll(ctx), a.env.HealthChecks().RunAll(ctx)...)
	a.summary.Display(a.summaryOut, healths)
}

// WaitForSignal blocks until an OS interrupt/term signal or context cancellation.
func (a *App[C]) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.log.Info("Received shutdown signal, graceful shutdown starting", map[string]interface{}{
			"signal": sig.String(),
		})
		return sig
	case <-ctx.Done():
		a.log.Info("Context canceled, shutting down")
		return nil
	}
}

// Shutdown performs graceful shutdown. Use when managing your own lifecycle.
func (a *App[C]) Shutdown(ctx context.Context) error {
	return a.stop()
}

// stop gracefully shuts down hooks, components, bundles and telemetry
// within the graceful timeout.
func (a *App[C]) stop() error {
	a.log.Info("Shutting down application", map[string]interface{}{
		"timeout": a.gracefulTimeout.String(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var errs []error

	if err := drainHooks(ctx, a.onStop); err != nil {
		a.log.Error("OnStop hook error", logger.ErrorFields("shutdown", err))
		errs = append(errs, err)
	}

	if a.env != nil {
		if err := a.env.Lifecycle().StopAll(ctx); err != nil {
			a.log.Error("Shutdown completed with errors", logger.ErrorFields("shutdown", err))
			errs = append(errs, err)
		}
	}

	// Close injectors after the components that use them.
	for i := len(a.configured) - 1; i >= 0; i-- {
		if closer, ok := a.configured[i].(io.Closer); ok {
			if err := closer.Close(); err != nil {
				a.log.Error("Bundle close error", logger.ErrorFields("shutdown", err))
				errs = append(errs, err)
			}
		}
	}

	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.log.Error("Telemetry shutdown error", logger.ErrorFields("shutdown", err))
		errs = append(errs, err)
	}

	a.log.Info("Application shutdown complete")
	return errors.Join(errs...)
}
