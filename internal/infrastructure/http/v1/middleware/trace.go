package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "gestcom/internal/core/context"
)

const (
	HeaderRequestID   = "X-Request-ID"
	HeaderTraceID     = "X-Trace-ID"
	HeaderTraceparent = "traceparent"
)

// Trace attaches correlation IDs to the request context and echoes them back.
// A W3C traceparent wins over X-Trace-ID.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := appctx.ParseTraceparent(c.GetHeader(HeaderTraceparent))
		if traceID == "" {
			traceID = c.GetHeader(HeaderTraceID)
		}

		trace := appctx.NewTraceContext(traceID, c.GetHeader(HeaderRequestID))
		c.Request = c.Request.WithContext(appctx.WithTrace(c.Request.Context(), trace))

		c.Header(HeaderRequestID, trace.RequestID)
		c.Header(HeaderTraceID, trace.TraceID)

		c.Next()
	}
}
