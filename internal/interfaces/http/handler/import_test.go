package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/importer/internal/domain/bulk"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func importRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/importador/api/import/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestImportHandler_Import_Started(t *testing.T) {
	env := newTestEnv(t)
	env.uploads.Put(Upload{Handle: "abc.csv", ModuleType: bulk.ModuleCustomers, OriginalName: "clientes.csv", TotalRows: 7})

	w := env.do(importRequest(`{"module_type":"clientes","file_path":"abc.csv"}`))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.DetailText())

	id, err := uuid.Parse(resp.JobID)
	require.NoError(t, err)
	job, err := env.jobs.GetJob(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, bulk.ModuleCustomers, job.ModuleType)
	assert.Equal(t, "abc.csv", job.FilePath)
	assert.Equal(t, "clientes.csv", job.OriginalFilename)
	assert.Equal(t, 7, job.TotalRows)
	assert.True(t, job.IsRunning())
	assert.Equal(t, 1, env.jobs.Running())
}

func TestImportHandler_Import_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		detail string
	}{
		{
			name:   "unknown file",
			body:   `{"module_type":"clientes","file_path":"missing.csv"}`,
			detail: DetailUnknownFile,
		},
		{
			name:   "module mismatch",
			body:   `{"module_type":"contratos","file_path":"abc.csv"}`,
			detail: DetailWrongModule,
		},
		{
			name:   "missing file path",
			body:   `{"module_type":"clientes"}`,
			detail: "file_path: campo obrigatório",
		},
		{
			name:   "malformed json",
			body:   `{"module_type":`,
			detail: "Requisição inválida.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.uploads.Put(Upload{Handle: "abc.csv", ModuleType: bulk.ModuleCustomers})

			w := env.do(importRequest(tt.body))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.detail, resp.DetailText())
			assert.Zero(t, env.jobs.Running())
		})
	}
}

func TestImportHandler_Import_ShuttingDown(t *testing.T) {
	env := newTestEnv(t)
	env.uploads.Put(Upload{Handle: "abc.csv", ModuleType: bulk.ModuleContracts})
	require.NoError(t, env.jobs.Shutdown(context.Background()))

	w := env.do(importRequest(`{"module_type":"contratos","file_path":"abc.csv"}`))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, DetailUnavailable, resp.DetailText())
}
