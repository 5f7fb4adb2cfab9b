// Package bootstrap runs an injectkit application.
//
// An App loads the configuration, initializes bundles, runs them against
// a fresh Environment, mounts the registered resources on the HTTP server
// and manages the lifecycle until shutdown.
//
// # Quick Start
//
//	app := bootstrap.New[*AppConfig]("orders")
//	if err := app.AddConfiguredBundle(diBundle); err != nil {
//	    log.Fatal(err)
//	}
//	app.OnRun(func(ctx context.Context, cfg *AppConfig, env *setup.Environment) error {
//	    env.Resources().Register(&HealthResource{})
//	    return nil
//	})
//	if err := app.RunWithConfig(ctx, config.WithEnvPrefix("ORDERS")); err != nil {
//	    log.Fatal(err)
//	}
//
// Phases: Prepare (defaults, validation, logging, telemetry, bundle runs,
// resource mounting), Start (managed components, OnStart hooks), Ready
// (health check, OnReady hooks, summary), then shutdown on signal.
package bootstrap
