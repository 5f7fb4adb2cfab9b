package config

// Configuration is the base type of every application configuration. Any
// struct that embeds ServiceConfig (value embedding) satisfies it through
// promoted methods; override ApplyDefaults and Validate to extend them.
//
//	type AppConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Store StoreConfig    `yaml:"store" mapstructure:"store"`
//	}
type Configuration interface {
	GetServiceConfig() *ServiceConfig
	ApplyDefaults()
	Validate() error
}

var _ Configuration = (*ServiceConfig)(nil)
