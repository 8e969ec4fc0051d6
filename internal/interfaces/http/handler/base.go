package handler

import (
	"errors"
	"net/http"

	"github.com/erp/returns/internal/domain/shared"
	"github.com/erp/returns/internal/infrastructure/logger"
	"github.com/erp/returns/internal/interfaces/http/dto"
	"github.com/erp/returns/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// errNoIdentity means the auth middleware did not run for this route
var errNoIdentity = errors.New("store or actor missing from request context")

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func requestID(c *gin.Context) string {
	return logger.GetRequestID(c.Request.Context())
}

// identity returns the authenticated store and actor
func identity(c *gin.Context) (storeID, actorID uuid.UUID, err error) {
	storeID = middleware.GetStoreID(c)
	actorID = middleware.GetActorID(c)
	if storeID == uuid.Nil || actorID == uuid.Nil {
		return uuid.Nil, uuid.Nil, errNoIdentity
	}
	return storeID, actorID, nil
}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a 200 response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize, totalPages int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize, totalPages))
}

// Created sends a 201 response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Unauthorized sends a 401 response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(dto.ErrCodeUnauthorized, message, requestID(c)))
}

// Forbidden sends a 403 response
func (h *BaseHandler) Forbidden(c *gin.Context, message string) {
	c.JSON(http.StatusForbidden, dto.NewErrorResponse(dto.ErrCodeForbidden, message, requestID(c)))
}

// BindError sends a 400 response describing the binding failure
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// HandleError converts an error to the response envelope. Domain errors keep
// their code and reasons; anything else is logged and answered with 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	if de, ok := shared.AsDomainError(err); ok {
		c.JSON(dto.GetHTTPStatus(de.Code), dto.NewErrorResponse(de.Code, de.Message, requestID(c), de.Reasons...))
		return
	}

	logger.GetGinLogger(c).Error("unhandled error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
		dto.ErrCodeInternal, "An unexpected error occurred", requestID(c)))
}
