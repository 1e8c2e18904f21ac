package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/priceloka/backend/pkg/metrics"
)

// Metrics records request duration per route and status.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// Use the route template so path parameters don't explode the
		// label cardinality.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.RequestDuration.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
