package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	importapp "github.com/erp/importer/internal/application/import"
	"github.com/erp/importer/internal/domain/bulk"
	"github.com/erp/importer/internal/domain/shared"
	"github.com/erp/importer/internal/infrastructure/csvimport"
	"github.com/erp/importer/internal/infrastructure/format"
	"github.com/erp/importer/internal/infrastructure/logger"
	"github.com/erp/importer/internal/infrastructure/persistence"
	"github.com/erp/importer/internal/infrastructure/storage"
	"github.com/erp/importer/internal/infrastructure/telemetry"
	"github.com/erp/importer/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

const historyPath = "/importador/importacoes/"

// testEnv wires the handlers over real in-memory and temp-dir dependencies.
// Jobs stay running until release is closed.
type testEnv struct {
	store   *storage.LocalFileStorage
	uploads *UploadRegistry
	jobs    *importapp.JobService
	metrics *telemetry.ImportMetrics
	release chan struct{}
	engine  *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := storage.NewLocalFileStorage(t.TempDir(), storage.WithMaxSize(1<<20))
	require.NoError(t, err)

	release := make(chan struct{})
	runner := importapp.RunnerFunc(func(ctx context.Context, _ *bulk.ImportJob) error {
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	jobs := importapp.NewJobService(persistence.NewMemoryImportJobRepository(), runner, nil)
	metrics := telemetry.NewImportMetrics(jobs.Running)
	uploads := NewUploadRegistry()
	pages := NewPages(Nav{UploadPath: "/importador/api/upload/", HistoryPath: historyPath})

	env := &testEnv{
		store:   store,
		uploads: uploads,
		jobs:    jobs,
		metrics: metrics,
		release: release,
	}

	uploadHandler := NewUploadHandler(store, csvimport.NewExtractor(format.Default(), 5), uploads, metrics, pages)
	importHandler := NewImportHandler(jobs, uploads, metrics)
	historyHandler := NewHistoryHandler(jobs, format.Default(), pages, historyPath)

	r := gin.New()
	r.Use(logger.RequestID())
	r.GET("/importador/api/upload/", uploadHandler.Form)
	r.POST("/importador/api/upload/", uploadHandler.Upload)
	r.POST("/importador/api/import/", importHandler.Import)
	r.GET(historyPath, historyHandler.List)
	r.GET(historyPath+":id/", historyHandler.Detail)
	r.POST(historyPath+":id/cancelar/", historyHandler.Cancel)
	env.engine = r

	t.Cleanup(func() {
		select {
		case <-release:
		default:
			close(release)
		}
		_ = jobs.Shutdown(context.Background())
	})
	return env
}

func (e *testEnv) finishJobs() {
	close(e.release)
	e.jobs.Wait()
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func uploadRequest(t *testing.T, moduleType, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if moduleType != "" {
		require.NoError(t, mw.WriteField("module_type", moduleType))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/importador/api/upload/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) *bulk.ImportResponse {
	t.Helper()
	resp, err := bulk.DecodeImportResponse(w.Body.Bytes())
	require.NoError(t, err)
	return resp
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*gin.Context)
		expected string
	}{
		{
			name:     "from context",
			setup:    func(c *gin.Context) { c.Set("request_id", "ctx-id") },
			expected: "ctx-id",
		},
		{
			name:     "from header",
			setup:    func(c *gin.Context) { c.Request.Header.Set(logger.RequestIDHeader, "hdr-id") },
			expected: "hdr-id",
		},
		{
			name:     "context wins over header",
			setup: func(c *gin.Context) {
				c.Set("request_id", "ctx-id")
				c.Request.Header.Set(logger.RequestIDHeader, "hdr-id")
			},
			expected: "ctx-id",
		},
		{
			name:     "absent",
			setup:    func(*gin.Context) {},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(c)
			assert.Equal(t, tt.expected, getRequestID(c))
		})
	}
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, DetailNotFound},
		{"job not running", bulk.ErrJobNotRunning, http.StatusConflict, "Import job is not running"},
		{"domain error", shared.NewDomainError("BAD", "bad thing"), http.StatusBadRequest, "bad thing"},
		{"unexpected error", errors.New("disk on fire"), http.StatusInternalServerError, DetailInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h := &BaseHandler{}
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.detail, body["detail"])
		})
	}
}

func TestBaseHandler_HandleError_Nil(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h := &BaseHandler{}
	h.HandleError(c, nil)

	assert.Zero(t, w.Body.Len())
}

func TestUploadRegistry(t *testing.T) {
	r := NewUploadRegistry()
	assert.Zero(t, r.Len())

	r.Put(Upload{Handle: "a.csv", ModuleType: bulk.ModuleCustomers, TotalRows: 3})
	r.Put(Upload{Handle: "a.csv", ModuleType: bulk.ModuleContracts, TotalRows: 4})

	u, ok := r.Get("a.csv")
	require.True(t, ok)
	assert.Equal(t, bulk.ModuleContracts, u.ModuleType)
	assert.Equal(t, 1, r.Len())

	_, ok = r.Get("b.csv")
	assert.False(t, ok)
}
