package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bundleflow/backend/internal/domain/splitting"
	"github.com/bundleflow/backend/internal/interfaces/http/dto"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(code, message))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleStoreError converts store port errors to HTTP responses.
// Failures reaching or reconciling with the store are upstream errors,
// not client errors.
func (h *BaseHandler) HandleStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, splitting.ErrStoreNotConfigured):
		h.ErrorWithCode(c, dto.ErrCodeNotConfigured, "Store credentials are not configured")
	case errors.Is(err, splitting.ErrOrderNotFound):
		h.ErrorWithCode(c, dto.ErrCodeNotFound, "Order not found on the store")
	case errors.Is(err, splitting.ErrStoreUnavailable):
		h.ErrorWithCode(c, dto.ErrCodeUpstreamUnavailable, "Store API is unreachable")
	case errors.Is(err, splitting.ErrStoreRequestFailed), errors.Is(err, splitting.ErrStoreInvalidResponse):
		h.ErrorWithCode(c, dto.ErrCodeUpstreamFailed, "Store API rejected the request")
	default:
		h.InternalError(c, "An unexpected error occurred")
	}
}
