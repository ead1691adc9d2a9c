package middleware

import (
	"time"

	"github.com/Z3RO333/formularios/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// Metrics records request count and latency per route pattern. A nil
// recorder disables it.
func Metrics(m *telemetry.HTTPMetrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Observe(c.Request.Context(), c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
