// Package version carries the build information of an injectkit
// application.
//
// Version, git commit, branch and build time are set at compile time via
// -ldflags and fall back to the VCS settings recorded by the Go toolchain:
//
//	go build -ldflags "-X github.com/kbukum/injectkit/version.Version=1.0.0"
//
// config.ServiceConfig uses Resolve to default an empty service version,
// and the admin info endpoint reports GetVersionInfo.
package version
