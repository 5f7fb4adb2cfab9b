package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "github.com/kbukum/injectkit/errors"
	"github.com/kbukum/injectkit/logger"
)

// Recovery returns middleware that recovers from panics, logs the stack and
// answers with a JSON 500.
func Recovery(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error("Panic recovered", map[string]interface{}{
						logger.FieldError:     fmt.Sprintf("%v", err),
						"stack":               string(debug.Stack()),
						"path":                r.URL.Path,
						"method":              r.Method,
						logger.FieldRequestID: r.Header.Get(HeaderRequestID),
					})
					writeJSON(w, http.StatusInternalServerError, map[string]string{
						"error": "Internal server error",
						"code":  string(apperrors.ErrCodeInternal),
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
