package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/injectkit/version"
)

var startTime = time.Now()

// Service identifies the service in the admin responses.
type Service struct {
	Name    string
	Version string
}

// Info returns a handler that reports the configured service version next
// to the build information of the binary.
func Info(svc Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":   svc.Name,
			"version":   version.Resolve(svc.Version),
			"build":     version.GetVersionInfo(),
			"uptime":    time.Since(startTime).Round(time.Second).String(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
