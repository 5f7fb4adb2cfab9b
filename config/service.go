package config

import (
	"fmt"

	"github.com/kbukum/injectkit/logger"
	"github.com/kbukum/injectkit/observability"
	"github.com/kbukum/injectkit/server"
	"github.com/kbukum/injectkit/validation"
	"github.com/kbukum/injectkit/version"
)

// Environment names accepted by ServiceConfig.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// ServiceConfig contains the configuration every hosted application needs.
// Applications extend it by embedding it in their own config structs.
type ServiceConfig struct {
	Name        string               `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string               `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Version     string               `yaml:"version" mapstructure:"version"`
	Debug       bool                 `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config        `yaml:"logging" mapstructure:"logging"`
	Server      server.Config        `yaml:"server" mapstructure:"server"`
	Telemetry   observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// GetServiceConfig returns the base ServiceConfig.
// When embedded in a larger config struct, this method is promoted
// so the embedding struct automatically satisfies Configuration.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig {
	return c
}

// ApplyDefaults applies default values to the base configuration.
// Override this in embedding structs and call c.ServiceConfig.ApplyDefaults() first.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = EnvDevelopment
	}
	if c.Environment == EnvDevelopment {
		c.Debug = true
	}
	c.Version = version.Resolve(c.Version)
	// Propagate service name into logging so Init() uses the right tag.
	if c.Logging.ServiceName == "" && c.Name != "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
}

// Validate validates the base configuration fields.
// Override this in embedding structs and call c.ServiceConfig.Validate() first.
func (c *ServiceConfig) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("config.server: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("config.telemetry: %w", err)
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *ServiceConfig) IsProduction() bool {
	return c.Environment == EnvProduction
}
