package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"pagetrail/api/metrics"
)

// RequestMetrics counts requests by matched route template and status.
func RequestMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
