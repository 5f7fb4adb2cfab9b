package setup

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

type filter struct {
	name     string
	handler  gin.HandlerFunc
	patterns []string
}

// FilterEnvironment holds request filters mapped to URL patterns.
//
// Patterns follow servlet mapping rules: "/*" matches every path,
// "/api/*" matches "/api" and everything below it, "*.json" matches by
// extension, anything else must match exactly.
type FilterEnvironment struct {
	mu      sync.Mutex
	filters []filter
}

// NewFilterEnvironment creates an empty FilterEnvironment.
func NewFilterEnvironment() *FilterEnvironment {
	return &FilterEnvironment{}
}

// Add registers handler under name for the given patterns. Without
// patterns the filter applies to every request.
func (f *FilterEnvironment) Add(name string, handler gin.HandlerFunc, patterns ...string) error {
	if name == "" {
		return fmt.Errorf("setup: filter name is required")
	}
	if handler == nil {
		return fmt.Errorf("setup: filter %s has no handler", name)
	}
	if len(patterns) == 0 {
		patterns = []string{"/*"}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.filters {
		if existing.name == name {
			return fmt.Errorf("setup: filter %s already registered", name)
		}
	}
	f.filters = append(f.filters, filter{name: name, handler: handler, patterns: patterns})
	return nil
}

// Names returns the filter names in registration order.
func (f *FilterEnvironment) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.filters))
	for i, flt := range f.filters {
		names[i] = flt.name
	}
	return names
}

// Handlers returns one gin middleware per filter, in registration order.
// Each runs only for request paths matching its patterns.
func (f *FilterEnvironment) Handlers() []gin.HandlerFunc {
	f.mu.Lock()
	defer f.mu.Unlock()

	handlers := make([]gin.HandlerFunc, len(f.filters))
	for i, flt := range f.filters {
		flt := flt
		handlers[i] = func(c *gin.Context) {
			if !MatchesAny(flt.patterns, c.Request.URL.Path) {
				c.Next()
				return
			}
			flt.handler(c)
		}
	}
	return handlers
}

// MatchesAny reports whether path matches one of patterns.
func MatchesAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if Matches(p, path) {
			return true
		}
	}
	return false
}

// Matches reports whether path matches a servlet-style pattern.
func Matches(pattern, path string) bool {
	switch {
	case pattern == "/*":
		return true
	case strings.HasSuffix(pattern, "/*"):
		prefix := strings.TrimSuffix(pattern, "/*")
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	case strings.HasPrefix(pattern, "*."):
		return strings.HasSuffix(path, pattern[1:])
	default:
		return path == pattern
	}
}
