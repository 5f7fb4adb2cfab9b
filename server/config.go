package server

import (
	"fmt"
	"strings"

	"github.com/kbukum/injectkit/server/middleware"
)

// Config holds HTTP server configuration.
type Config struct {
	Host         string                `yaml:"host" mapstructure:"host"`
	Port         int                   `yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
	ReadTimeout  int                   `yaml:"read_timeout" mapstructure:"read_timeout"`   // seconds
	WriteTimeout int                   `yaml:"write_timeout" mapstructure:"write_timeout"` // seconds
	IdleTimeout  int                   `yaml:"idle_timeout" mapstructure:"idle_timeout"`   // seconds
	MaxBodySize  string                `yaml:"max_body_size" mapstructure:"max_body_size"` // e.g. "10MB"
	CORS         middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
	// ContextPath is the root under which application resources are mounted,
	// normalized to end in a slash ("/", "/api/").
	ContextPath string `yaml:"context_path" mapstructure:"context_path"`
	// AdminPath is the root of the health, info, metrics and task endpoints.
	AdminPath string `yaml:"admin_path" mapstructure:"admin_path"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "10MB"
	}
	c.ContextPath = normalizePath(c.ContextPath, "/")
	if c.ContextPath != "/" {
		c.ContextPath += "/"
	}
	c.AdminPath = normalizePath(c.AdminPath, "/admin")
	if c.CORS.Enabled() {
		if len(c.CORS.AllowedMethods) == 0 {
			c.CORS.AllowedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
		}
		if len(c.CORS.AllowedHeaders) == 0 {
			c.CORS.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
		}
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("server.read_timeout must be non-negative (got: %d)", c.ReadTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("server.write_timeout must be non-negative (got: %d)", c.WriteTimeout)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("server.idle_timeout must be non-negative (got: %d)", c.IdleTimeout)
	}
	if c.AdminPath == "/" {
		return fmt.Errorf("server.admin_path must not be the root path")
	}
	if c.ContextPath != "" && c.ContextPath != "/" && strings.HasPrefix(c.AdminPath+"/", c.ContextPath) {
		return fmt.Errorf("server.admin_path %s must not live under server.context_path %s", c.AdminPath, c.ContextPath)
	}
	return nil
}

// normalizePath returns p with a leading slash and without a trailing one,
// or def when p is empty. The root path stays "/".
func normalizePath(p, def string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		p = def
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	p = strings.TrimRight(p, "/")
	if p == "" {
		return "/"
	}
	return p
}
