package middleware

import (
	"net/http"
	"slices"
	"strings"
)

// CORSConfig holds CORS middleware configuration. CORS is off while
// AllowedOrigins is empty; "*" allows every origin.
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials" mapstructure:"allow_credentials"`
}

// Enabled reports whether any origin is allowed.
func (c *CORSConfig) Enabled() bool {
	return c != nil && len(c.AllowedOrigins) > 0
}

func (c *CORSConfig) allows(origin string) bool {
	return origin != "" && (slices.Contains(c.AllowedOrigins, "*") || slices.Contains(c.AllowedOrigins, origin))
}

// CORS returns middleware that sets the CORS headers for allowed origins
// and answers OPTIONS preflight requests itself.
func CORS(cfg *CORSConfig) Middleware {
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")
			if origin := r.Header.Get("Origin"); cfg.allows(origin) {
				h.Set("Access-Control-Allow-Origin", origin)
				if methods != "" {
					h.Set("Access-Control-Allow-Methods", methods)
				}
				if headers != "" {
					h.Set("Access-Control-Allow-Headers", headers)
				}
				if cfg.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
