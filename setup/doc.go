// Package setup holds the objects an application is assembled from.
//
// A Bootstrap collects bundles before configuration is known; bundles are
// initialized as they are added. An Environment is created once the
// configuration is loaded and carries everything the run phase registers:
// resources and providers, request filters, health checks, managed
// components and admin tasks.
package setup
