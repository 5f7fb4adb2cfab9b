// Package di is the dependency injection container behind injectkit bundles.
//
// Bindings are keyed by type (optionally qualified by a name) and declared in
// modules. Constructors receive their dependencies as parameters:
//
//	type StoreModule struct{ DSN string }
//
//	func (m StoreModule) Configure(b *di.Binder) error {
//	    return b.Provide(func(cfg *AppConfig) (*Store, error) {
//	        return OpenStore(cfg.DSN)
//	    })
//	}
//
//	inj, err := di.New(di.StageProduction, []di.Module{StoreModule{}})
//	store := di.MustResolve[*Store](inj)
//
// # Stages
//
// StageProduction validates the graph and builds every singleton up front,
// except those that depend on a Deferred binding. StageDevelopment validates
// and builds on demand. StageTool does neither.
//
// # Scopes
//
// Singleton bindings are built once per injector, Unscoped bindings on every
// resolution, and RequestScoped bindings once per RequestScope.
package di
