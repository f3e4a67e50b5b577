// Package handlers provides HTTP request handlers.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"gestcom/internal/core/apperror"
	"gestcom/internal/domain/documents"
	"gestcom/internal/infrastructure/http/v1/middleware"
	"gestcom/pkg/logger"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct {
	now func() time.Time
}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{now: time.Now}
}

// BindJSON binds the JSON request body. Typed field errors (e.g. a lossy
// quantity) keep their own code; anything else is VALIDATION_ERROR.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		if appErr, ok := apperror.AsAppError(err); ok {
			h.Error(c, appErr)
			return false
		}
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers err on the Gin context and aborts the request.
// The JSON response is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// Kind resolves the :kind path parameter ("invoice", "invoices" or a prefix such as "FAC").
func (h *BaseHandler) Kind(c *gin.Context) (documents.Kind, bool) {
	raw := strings.TrimSpace(c.Param("kind"))
	if kind, err := documents.ParseKind(raw); err == nil {
		return kind, true
	}
	for _, kind := range documents.Kinds() {
		if coll, err := kind.Collection(); err == nil && strings.EqualFold(coll, raw) {
			return kind, true
		}
	}
	if kind, err := documents.KindByPrefix(strings.ToUpper(raw)); err == nil {
		return kind, true
	}
	h.Error(c, apperror.NewUnknownDocumentType(raw))
	return "", false
}

// completeIdempotency records the response for replay under the request's idempotency key.
func (h *BaseHandler) completeIdempotency(c *gin.Context, statusCode int, response any) {
	if key, store, ok := middleware.IdempotencyFromContext(c); ok {
		if err := store.CompleteKey(c.Request.Context(), key, statusCode, "application/json", response); err != nil {
			logger.Warn(c.Request.Context(), "idempotency complete key", "key", key, "error", err)
		}
	}
}

// Created sends a 201 response.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	h.completeIdempotency(c, http.StatusCreated, data)
	c.JSON(http.StatusCreated, data)
}

// OK sends a 200 response.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	h.completeIdempotency(c, http.StatusOK, data)
	c.JSON(http.StatusOK, data)
}
