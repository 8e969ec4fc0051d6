package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPRecorder receives one observation per finished request
type HTTPRecorder interface {
	ObserveHTTP(method, route, status string, elapsed time.Duration)
}

// HTTPMetrics records request counts and latency per route pattern.
// Unmatched routes are grouped under "unmatched" to bound label cardinality.
func HTTPMetrics(recorder HTTPRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		recorder.ObserveHTTP(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
