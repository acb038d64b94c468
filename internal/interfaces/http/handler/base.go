// Package handler holds the gin handlers of the guarda API.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/joaopxt/ze-do-bip-backend/internal/domain/shared"
	"github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/logger"
	"github.com/joaopxt/ze-do-bip-backend/internal/interfaces/http/dto"
	"github.com/joaopxt/ze-do-bip-backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct {
	region string
	now    func() time.Time
}

func newBaseHandler(region string) BaseHandler {
	return BaseHandler{region: region, now: time.Now}
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// SuccessWithStore sends a success response carrying the store metadata
// block the scanner clients display.
func (h *BaseHandler) SuccessWithStore(c *gin.Context, data any, store string) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMetadata(data, dto.NewStoreMetadata(store, h.region, h.now())))
}

// HandleError renders err with the status its kind maps to. Server side
// failures are logged with the request logger; the client only sees the
// generic message.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	status, info := dto.ErrorFor(err)
	if status >= http.StatusInternalServerError {
		logger.GetGinLogger(c).Error("request failed",
			zap.String("code", info.Code),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.JSON(status, dto.Response{Success: false, Error: &info})
}

// bindJSON binds the body into req, answering 400 on failure
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// pathID parses a positive integer path parameter
func (h *BaseHandler) pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		h.HandleError(c, shared.ErrInvalidInput.WithMessage(name+" inválido"))
		return 0, false
	}
	return id, true
}
