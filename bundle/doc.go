// Package bundle joins a DI injector to the application lifecycle.
//
// A Bundle is built once from modules and added to the application:
//
//	b, err := bundle.NewBuilder[*AppConfig]().
//	    AddModule(storeModule).
//	    EnableAutoConfig("example.com/orders/resources").
//	    Build()
//
// During Initialize it creates the injector. The configuration and the
// environment are bound from the start but only resolve once Run has
// published them; resolving them earlier fails with ErrNotReady.
// During Run it installs the injector-backed resource container and a
// request-scope filter, so resources are built through the injector and
// request-scoped bindings live for one request.
package bundle
