package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erp/importer/internal/domain/bulk"
	"github.com/erp/importer/internal/infrastructure/csvimport"
	"github.com/erp/importer/internal/infrastructure/logger"
	"github.com/erp/importer/internal/infrastructure/storage"
	"github.com/erp/importer/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Upload results recorded in metrics
const (
	uploadAccepted = "accepted"
	uploadRejected = "rejected"
)

// UploadHandler receives spreadsheets and answers with their preview
type UploadHandler struct {
	BaseHandler
	storage   *storage.LocalFileStorage
	extractor *csvimport.Extractor
	uploads   *UploadRegistry
	metrics   *telemetry.ImportMetrics
	pages     *Pages
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(
	store *storage.LocalFileStorage,
	extractor *csvimport.Extractor,
	uploads *UploadRegistry,
	metrics *telemetry.ImportMetrics,
	pages *Pages,
) *UploadHandler {
	return &UploadHandler{
		storage:   store,
		extractor: extractor,
		uploads:   uploads,
		metrics:   metrics,
		pages:     pages,
	}
}

// Form renders the upload page
func (h *UploadHandler) Form(c *gin.Context) {
	h.pages.Render(c, http.StatusOK, "upload", uploadPage{
		Title:   "Importar planilha",
		Modules: bulk.ModuleTypes,
	})
}

// Upload stores the spreadsheet and extracts its preview
func (h *UploadHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.GetGinLogger(c)

	rawModule := c.PostForm("module_type")
	moduleType, err := bulk.ParseModuleType(rawModule)
	if err != nil {
		h.reject(c, rawModule, http.StatusBadRequest, "Tipo de módulo inválido: "+rawModule)
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.reject(c, rawModule, http.StatusRequestEntityTooLarge, "Arquivo excede o tamanho máximo permitido.")
			return
		}
		h.reject(c, rawModule, http.StatusBadRequest, DetailNoFile)
		return
	}

	src, err := fh.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	stored, err := h.storage.Save(ctx, fh.Filename, src)
	_ = src.Close()
	if errors.Is(err, storage.ErrFileTooLarge) {
		h.reject(c, rawModule, http.StatusRequestEntityTooLarge, "Arquivo excede o tamanho máximo permitido.")
		return
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	rc, err := h.storage.Open(ctx, stored.Handle)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	preview, err := h.extractor.Extract(moduleType, rc, stored.Handle)
	_ = rc.Close()
	if err != nil {
		if delErr := h.storage.Delete(ctx, stored.Handle); delErr != nil {
			log.Warn("Failed to remove rejected upload", zap.Error(delErr))
		}
		log.Info("Spreadsheet rejected", zap.String("file", fh.Filename), zap.Error(err))
		h.reject(c, rawModule, http.StatusBadRequest, extractionDetail(err))
		return
	}

	h.uploads.Put(Upload{
		Handle:       stored.Handle,
		ModuleType:   moduleType,
		OriginalName: stored.OriginalName,
		TotalRows:    preview.Total,
		UploadedAt:   stored.StoredAt,
	})
	h.metrics.RecordUpload(string(moduleType), uploadAccepted, preview.Total)

	fields := []zap.Field{
		zap.String("handle", stored.Handle),
		zap.String("module_type", string(moduleType)),
		zap.Int("total_rows", preview.Total),
	}
	if n := preview.Errors.TotalCount(); n > 0 {
		fields = append(fields, zap.Int("row_errors", n), zap.String("first_errors", preview.Errors.String()))
	}
	log.Info("Spreadsheet previewed", fields...)

	c.JSON(http.StatusOK, preview.Payload)
}

func (h *UploadHandler) reject(c *gin.Context, moduleType string, status int, detail string) {
	h.metrics.RecordUpload(moduleType, uploadRejected, 0)
	h.Fail(c, status, detail)
}

func extractionDetail(err error) string {
	switch {
	case errors.Is(err, csvimport.ErrEmptyFile):
		return "O arquivo está vazio."
	case errors.Is(err, csvimport.ErrInvalidEncoding):
		return "O arquivo deve estar codificado em UTF-8."
	case errors.Is(err, csvimport.ErrMissingHeader):
		return "A planilha não possui linha de cabeçalho."
	case errors.Is(err, csvimport.ErrNoDataRows):
		return "A planilha não possui linhas de dados."
	}
	var missing *csvimport.MissingColumnsError
	if errors.As(err, &missing) {
		return "Colunas obrigatórias ausentes na planilha: " + strings.Join(missing.Columns, ", ")
	}
	return "Não foi possível ler a planilha: " + err.Error()
}
