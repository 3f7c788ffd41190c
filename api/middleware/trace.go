package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/OldStager01/churn-dashboard/internal/logger"
)

const (
	TraceIDHeader = "X-Trace-ID"
	traceIDKey    = "trace_id"
)

// TraceID reuses the caller's trace id or generates one, and carries it in
// the request context so downstream logs and upstream calls share it.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}

		c.Set(traceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)
		c.Request = c.Request.WithContext(logger.WithTraceID(c.Request.Context(), traceID))

		c.Next()
	}
}

func GetTraceID(c *gin.Context) string {
	return c.GetString(traceIDKey)
}
