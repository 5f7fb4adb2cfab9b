package endpoint

import (
	"context"
	"maps"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// StatsFunc contributes application counters to the metrics endpoint.
type StatsFunc func(ctx context.Context) map[string]any

// Metrics returns a handler that reports runtime memory, goroutines and the
// merged application stats.
func Metrics(stats ...StatsFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		app := make(map[string]any)
		for _, fn := range stats {
			if fn != nil {
				maps.Copy(app, fn(c.Request.Context()))
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"runtime": gin.H{
				"goroutines":    runtime.NumGoroutine(),
				"heap_alloc_mb": m.HeapAlloc / 1024 / 1024,
				"sys_mb":        m.Sys / 1024 / 1024,
				"gc_runs":       m.NumGC,
			},
			"application": app,
		})
	}
}
