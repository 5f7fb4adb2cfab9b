package middleware

import (
	"fmt"
	"net/http"
	"strings"
)

const defaultMaxBodySize = 10 * 1024 * 1024 // 10MB

// BodySizeLimit returns middleware that restricts the request body to the given
// size string (e.g. "10MB", "512KB", "1GB").
func BodySizeLimit(maxSize string) Middleware {
	size := ParseSize(maxSize, defaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, size)
			next.ServeHTTP(w, r)
		})
	}
}

// ParseSize converts "10MB", "512KB", "1GB" or a plain byte count into bytes.
// Unparseable input yields defaultBytes.
func ParseSize(s string, defaultBytes int64) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return defaultBytes
	}

	var multiplier int64 = 1
	for _, unit := range []struct {
		suffix string
		factor int64
	}{{"GB", 1 << 30}, {"MB", 1 << 20}, {"KB", 1 << 10}} {
		if strings.HasSuffix(s, unit.suffix) {
			multiplier = unit.factor
			s = strings.TrimSpace(strings.TrimSuffix(s, unit.suffix))
			break
		}
	}

	var val int64
	if _, err := fmt.Sscanf(s, "%d", &val); err != nil || val <= 0 {
		return defaultBytes
	}
	return val * multiplier
}
