// Package component defines lifecycle-managed objects and the registry that
// starts and stops them with the application.
//
// Components are registered on the environment's lifecycle, either directly
// or through auto-discovery, and are started in registration order once the
// application has been wired. They are stopped in reverse order on shutdown.
//
// # Interfaces
//
//   - Component: lifecycle (Start/Stop) plus health reporting
//   - Describable: startup summary descriptions
//   - RouteProvider: route listing for the startup summary
package component
