package middleware

import (
	"time"

	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// MetricsMiddleware records request latency per route. The route template is
// used rather than the raw path so parameterized routes like
// /v1/proposals/:index stay one series.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.LatencyBucket.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
}
