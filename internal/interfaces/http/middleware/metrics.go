package middleware

import (
	"strconv"
	"time"

	"github.com/erp/importer/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// HTTPMetrics records request counts and latency by matched route.
// Unmatched paths are grouped under one label.
func HTTPMetrics(m *telemetry.ImportMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
