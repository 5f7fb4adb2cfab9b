// Package logger provides structured logging for injectkit applications
// using zerolog.
//
// Loggers carry a service tag and accept fields as plain maps, so call sites
// stay independent of the zerolog event API.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("bundle")
//	log.Info("injector created", logger.Fields("stage", "production"))
package logger
