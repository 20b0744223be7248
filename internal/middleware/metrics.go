package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/aba-tracker-api/internal/service"
)

// unmatchedRoute labels requests that hit no registered route, so scans of
// random paths share one series.
const unmatchedRoute = "unmatched"

// Metrics observes every request under its route pattern, e.g. /behaviors/:id.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if metrics == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
