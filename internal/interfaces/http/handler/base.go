package handler

import (
	"errors"
	"net/http"

	"github.com/erp/importer/internal/domain/bulk"
	"github.com/erp/importer/internal/domain/shared"
	"github.com/erp/importer/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Failure details shown to the user
const (
	DetailInternal    = "Erro interno do servidor."
	DetailNotFound    = "Recurso não encontrado."
	DetailUnavailable = "Servidor em manutenção. Tente novamente em instantes."
	DetailUnknownFile = "Arquivo não encontrado. Envie a planilha novamente."
	DetailWrongModule = "O arquivo enviado pertence a outro módulo."
	DetailNoFile      = "Nenhum arquivo enviado."
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader(logger.RequestIDHeader)
}

// Fail sends the failure body the import client understands
func (h *BaseHandler) Fail(c *gin.Context, statusCode int, detail string) {
	c.JSON(statusCode, bulk.NewFailureResponse(detail))
}

// BadRequest sends a 400 failure
func (h *BaseHandler) BadRequest(c *gin.Context, detail string) {
	h.Fail(c, http.StatusBadRequest, detail)
}

// InternalError sends a 500 failure
func (h *BaseHandler) InternalError(c *gin.Context) {
	h.Fail(c, http.StatusInternalServerError, DetailInternal)
}

// HandleError converts domain errors to failure responses and logs the rest
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			h.Fail(c, http.StatusNotFound, DetailNotFound)
		case errors.Is(err, bulk.ErrJobNotRunning):
			h.Fail(c, http.StatusConflict, domainErr.Message)
		default:
			h.BadRequest(c, domainErr.Message)
		}
		return
	}

	logger.GetGinLogger(c).Error("Request failed", zap.Error(err))
	_ = c.Error(err)
	h.InternalError(c)
}
