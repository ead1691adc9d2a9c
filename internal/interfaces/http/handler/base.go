// Package handler maps HTTP requests onto the application services.
package handler

import (
	"net/http"

	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/Z3RO333/formularios/internal/infrastructure/logger"
	"github.com/Z3RO333/formularios/internal/interfaces/http/dto"
	"github.com/Z3RO333/formularios/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func requestID(c *gin.Context) string {
	return logger.RequestID(c.Request.Context())
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with an explicit status and code
func (h *BaseHandler) Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponse(code, message, requestID(c)))
}

// HandleError maps err through the domain error table. Server side failures
// are logged with their cause since the client only sees a generic message.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	status, resp := dto.FromError(err, requestID(c))
	if status >= http.StatusInternalServerError {
		logger.L(c.Request.Context()).Error("request failed", zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, resp)
}

// bindJSON decodes the body into req, answering 400 with field details on
// failure
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.HandleError(c, middleware.ValidationErrors(err))
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON that accepts an empty body
func (h *BaseHandler) bindOptionalJSON(c *gin.Context, req any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return h.bindJSON(c, req)
}

// bindQuery decodes query parameters into req
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		h.HandleError(c, middleware.ValidationErrors(err))
		return false
	}
	return true
}

// pathID parses the :id path parameter
func (h *BaseHandler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.HandleError(c, shared.NewValidationError(shared.FieldError{Field: "id", Message: "Invalid UUID format"}))
		return uuid.Nil, false
	}
	return id, true
}

// actor returns the acting user. Routes that call it sit behind
// middleware.Identity, so a miss is a wiring bug.
func (h *BaseHandler) actor(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "X-User-ID header is required")
		return uuid.Nil, false
	}
	return id, true
}
