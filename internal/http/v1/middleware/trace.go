package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"masterdata/internal/core/actor"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

// Trace middleware adds request tracing context.
// Extracts or generates trace IDs for distributed tracing.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		traceID := c.GetHeader(HeaderTraceID)
		if traceID == "" {
			traceID = uuid.New().String()
		}

		ctx := actor.WithTrace(c.Request.Context(), &actor.Trace{
			TraceID:   traceID,
			RequestID: requestID,
		})
		c.Request = c.Request.WithContext(ctx)

		// Store in gin context for easy access
		c.Set("trace_id", traceID)
		c.Set("request_id", requestID)

		c.Header(HeaderRequestID, requestID)
		c.Header(HeaderTraceID, traceID)

		c.Next()
	}
}
