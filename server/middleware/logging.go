package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/injectkit/logger"
)

const slowRequest = 500 * time.Millisecond

// RequestLogger returns middleware that logs every request with method,
// path, status, size and duration. Requests under any of skipPrefixes (the
// admin endpoints, typically) are served without logging.
func RequestLogger(log *logger.Logger, skipPrefixes ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipped(r.URL.Path, skipPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			elapsed := time.Since(start)

			fields := map[string]interface{}{
				"method":             r.Method,
				"path":               r.URL.Path,
				"status":             rec.status,
				"bytes":              rec.bytes,
				logger.FieldDuration: elapsed.Milliseconds(),
			}
			if id := r.Header.Get(HeaderRequestID); id != "" {
				fields[logger.FieldRequestID] = id
			}
			if elapsed > slowRequest {
				fields["slow"] = true
			}

			switch {
			case rec.status >= 500:
				log.Error("Request completed", fields)
			case rec.status >= 400:
				log.Warn("Request completed", fields)
			default:
				log.Debug("Request completed", fields)
			}
		})
	}
}

func skipped(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && (path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/")) {
			return true
		}
	}
	return false
}

// recorder captures the status and size of a response. Flush and Unwrap
// keep streaming and http.ResponseController working through it.
type recorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (r *recorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (r *recorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *recorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }
