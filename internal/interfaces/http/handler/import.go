package handler

import (
	"errors"
	"net/http"

	importapp "github.com/erp/importer/internal/application/import"
	"github.com/erp/importer/internal/domain/bulk"
	"github.com/erp/importer/internal/domain/shared"
	"github.com/erp/importer/internal/infrastructure/logger"
	"github.com/erp/importer/internal/infrastructure/telemetry"
	"github.com/erp/importer/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ImportHandler starts import jobs for previewed uploads
type ImportHandler struct {
	BaseHandler
	jobs    *importapp.JobService
	uploads *UploadRegistry
	metrics *telemetry.ImportMetrics
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(jobs *importapp.JobService, uploads *UploadRegistry, metrics *telemetry.ImportMetrics) *ImportHandler {
	return &ImportHandler{
		jobs:    jobs,
		uploads: uploads,
		metrics: metrics,
	}
}

// Import starts the job for a confirmed preview. The answer always carries
// success, and detail when it is false.
func (h *ImportHandler) Import(c *gin.Context) {
	var req bulk.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.RecordImportRequest(string(req.ModuleType), telemetry.OutcomeInvalid)
		h.BadRequest(c, middleware.ValidationDetail(err))
		return
	}

	ctx, log := logger.WithModuleType(c.Request.Context(), logger.GetGinLogger(c), string(req.ModuleType))
	moduleLabel := string(req.ModuleType)

	upload, ok := h.uploads.Get(req.FilePath)
	if !ok {
		h.metrics.RecordImportRequest(moduleLabel, telemetry.OutcomeUnknown)
		log.Info("Import requested for unknown file", zap.String("file_path", req.FilePath))
		h.BadRequest(c, DetailUnknownFile)
		return
	}
	if upload.ModuleType != req.ModuleType {
		h.metrics.RecordImportRequest(moduleLabel, telemetry.OutcomeInvalid)
		h.BadRequest(c, DetailWrongModule)
		return
	}

	job, err := h.jobs.Submit(ctx, req.ModuleType, req.FilePath, upload.OriginalName, upload.TotalRows)
	if err != nil {
		h.metrics.RecordImportRequest(moduleLabel, telemetry.OutcomeError)
		var domainErr *shared.DomainError
		switch {
		case errors.Is(err, importapp.ErrShuttingDown):
			h.Fail(c, http.StatusServiceUnavailable, DetailUnavailable)
		case errors.As(err, &domainErr):
			h.HandleError(c, err)
		default:
			log.Error("Failed to start import job", zap.Error(err))
			h.InternalError(c)
		}
		return
	}

	h.metrics.RecordImportRequest(moduleLabel, telemetry.OutcomeStarted)
	c.JSON(http.StatusOK, bulk.NewSuccessResponse(job.ID.String()))
}
