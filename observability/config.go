package observability

import (
	"fmt"
	"time"
)

// Config is the telemetry section of the service configuration.
type Config struct {
	// Enabled turns on OTLP export. When false, global no-op providers are used.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	// Insecure allows plaintext connections to the collector.
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// SampleRate is the trace sampling rate (0.0 to 1.0).
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	// MetricsInterval is the metric export interval.
	MetricsInterval time.Duration `yaml:"metrics_interval" mapstructure:"metrics_interval"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.MetricsInterval == 0 {
		c.MetricsInterval = 15 * time.Second
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("telemetry.sample_rate must be between 0 and 1 (got: %v)", c.SampleRate)
	}
	if c.MetricsInterval < 0 {
		return fmt.Errorf("telemetry.metrics_interval must be non-negative (got: %s)", c.MetricsInterval)
	}
	return nil
}

// ServiceInfo identifies the service in exported telemetry.
type ServiceInfo struct {
	Name        string
	Version     string
	Environment string
}
