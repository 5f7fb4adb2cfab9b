package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware wraps an http.Handler with additional behavior.
// It is the single middleware type of the server: it wraps the root handler,
// so it sees application resources and admin endpoints alike.
type Middleware func(http.Handler) http.Handler

// Chain composes multiple middleware. The first in the list is the outermost
// (runs first on a request, last on a response).
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// GinWrap adapts a standard Middleware for use in a Gin middleware chain.
// Use this when you need to apply a Middleware directly on the Gin engine
// instead of at the server handler level.
// Middleware that wraps http.ResponseWriter should be applied at the server
// level instead.
func GinWrap(mw Middleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			// Propagate any request modifications (e.g. added headers) back to Gin.
			c.Request = r
			c.Next()
		})
		mw(next).ServeHTTP(c.Writer, c.Request)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
