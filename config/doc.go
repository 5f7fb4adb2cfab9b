// Package config provides the base configuration type for injectkit
// applications and a loader that fills it.
//
// Application configs embed ServiceConfig and so satisfy Configuration:
//
//	type AppConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Store StoreConfig    `yaml:"store" mapstructure:"store"`
//	}
//
//	var cfg AppConfig
//	err := config.Load("orders", &cfg, config.WithEnvPrefix("ORDERS"))
//
// Load reads config.yml (searched under cmd/<service>, config/ and the
// working directory), then a .env file, then environment variables, which
// override file values (ORDERS_SERVER_PORT sets server.port).
package config
