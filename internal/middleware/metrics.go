package middleware

import (
	"strconv"

	"pawmart-be/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics records request latency by route pattern.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := metrics.StartTimer()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).
			Observe(timer.Seconds())
	}
}
