// Package autoconfig discovers components that packages register for
// themselves.
//
// A package registers constructors from init:
//
//	func init() {
//	    autoconfig.Register(NewUsersResource)
//	}
//
// An AutoConfig created for a set of base packages binds every constructor
// whose result type lives in one of them, then hands the built values to
// the environment: managed components, admin tasks, health checks,
// providers and resources. Bundles are added during initialization.
package autoconfig
