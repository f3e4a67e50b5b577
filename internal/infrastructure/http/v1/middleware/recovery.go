// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"gestcom/internal/core/apperror"
	appctx "gestcom/internal/core/context"
	"gestcom/pkg/logger"
)

// Recovery turns a panic into a 500 INTERNAL_ERROR response.
// It sits outside ErrorHandler, so it renders the body itself and fails any
// idempotency key the request holds. The stack is logged, never returned.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			ctx := c.Request.Context()
			logger.Error(ctx, "panic recovered", "error", rec, "stack", string(debug.Stack()))

			appErr := apperror.NewInternal(fmt.Errorf("panic: %v", rec)).
				WithDetail("request_id", appctx.GetRequestID(ctx))
			_ = c.Error(appErr)
			body := gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": appErr.Details,
			}

			// ErrorHandler was unwound with the panic; settle the key here so
			// a retry replays the 500 instead of waiting on a pending record.
			if key, store, ok := IdempotencyFromContext(c); ok {
				if ferr := store.FailKey(ctx, key, http.StatusInternalServerError, "application/json", body); ferr != nil {
					logger.Warn(ctx, "idempotency fail key", "key", key, "error", ferr)
				}
			}

			if !c.Writer.Written() {
				c.AbortWithStatusJSON(http.StatusInternalServerError, body)
				return
			}
			c.Abort()
		}()
		c.Next()
	}
}
