package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// Response is the uniform API envelope
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo carries a machine-readable error code with a human message
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BaseHandler provides the response helpers shared by all handlers
type BaseHandler struct {
	logger *zap.Logger
}

// NewBaseHandler creates a base handler
func NewBaseHandler(logger *zap.Logger) BaseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return BaseHandler{logger: logger}
}

// Success writes a 200 envelope with data
func (h *BaseHandler) Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// Created writes a 201 envelope with data
func (h *BaseHandler) Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// Error writes an error envelope with an explicit status
func (h *BaseHandler) Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, Response{Success: false, Error: &ErrorInfo{Code: code, Message: message}})
}

// HandleError maps domain errors to HTTP statuses and hides internals
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.Error(c, domainStatus(domainErr), domainErr.Code, domainErr.Message)
		return
	}

	h.logger.Error("unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
	h.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
}

// TenantID returns the tenant set by the tenant middleware
// Writes a 400 and returns false when it is missing
func (h *BaseHandler) TenantID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.TenantID(c)
	if !ok {
		h.Error(c, http.StatusBadRequest, "MISSING_TENANT", "Tenant identifier is required")
		return uuid.Nil, false
	}
	return id, true
}

func domainStatus(err *shared.DomainError) int {
	switch err.Code {
	case shared.ErrNotFound.Code:
		return http.StatusNotFound
	case shared.ErrAlreadyExists.Code:
		return http.StatusConflict
	case shared.ErrUnauthorized.Code:
		return http.StatusForbidden
	case shared.ErrUnsupportedProvider.Code:
		return http.StatusBadRequest
	case shared.ErrInvalidState.Code:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
