package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/churn-dashboard/internal/logger"
)

// RequestLogger logs one line per request. Probe endpoints log at debug.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		fields := map[string]interface{}{
			"status":     status,
			"method":     c.Request.Method,
			"path":       path,
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
		}
		if query != "" {
			fields["query"] = query
		}
		if traceID := GetTraceID(c); traceID != "" {
			fields["trace_id"] = traceID
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		entry := logger.WithFields(fields)

		switch {
		case status >= 500:
			entry.Error("server error")
		case status >= 400:
			entry.Warn("client error")
		case isProbe(path):
			entry.Debug("request completed")
		default:
			entry.Info("request completed")
		}
	}
}

func isProbe(path string) bool {
	switch path {
	case "/health", "/health/live", "/health/ready":
		return true
	}
	return false
}
