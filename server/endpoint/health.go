package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/injectkit/component"
)

// HealthChecker returns health status for a group of checks.
type HealthChecker func(ctx context.Context) []component.Health

// Health returns a handler that reports service health, aggregating every
// checker. Any unhealthy check turns the response into a 503.
func Health(serviceName string, checkers ...HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		components := make([]component.Health, 0)
		for _, check := range checkers {
			if check != nil {
				components = append(components, check(c.Request.Context())...)
			}
		}
		status := component.Overall(components)

		httpStatus := http.StatusOK
		if status == component.StatusUnhealthy {
			httpStatus = http.StatusServiceUnavailable
		}

		c.JSON(httpStatus, gin.H{
			"status":     status,
			"service":    serviceName,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": components,
		})
	}
}

// Ping returns a liveness handler that only confirms the process serves HTTP.
func Ping() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	}
}
