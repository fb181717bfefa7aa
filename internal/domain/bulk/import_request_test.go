package bulk

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportRequest_JSON(t *testing.T) {
	req := NewImportRequest(ModuleContracts, "uploads/2024/contratos.xlsx")

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"module_type": "contratos", "file_path": "uploads/2024/contratos.xlsx"}`, string(data))
}

func TestImportRequest_Validate(t *testing.T) {
	assert.NoError(t, NewImportRequest(ModuleCustomers, "f1").Validate())
	assert.Error(t, NewImportRequest(ModuleType("produtos"), "f1").Validate())
	assert.Error(t, NewImportRequest(ModuleCustomers, "").Validate())
}

func TestDecodeImportResponse(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		resp, err := DecodeImportResponse([]byte(`{"success": true, "job_id": "42"}`))
		require.NoError(t, err)

		assert.True(t, resp.Success)
		assert.Equal(t, "42", resp.JobID)
		assert.Empty(t, resp.DetailText())
	})

	t.Run("failure with string detail", func(t *testing.T) {
		resp, err := DecodeImportResponse([]byte(`{"success": false, "detail": "duplicate file"}`))
		require.NoError(t, err)

		assert.False(t, resp.Success)
		assert.Equal(t, "duplicate file", resp.DetailText())
	})

	t.Run("failure with structured detail", func(t *testing.T) {
		resp, err := DecodeImportResponse([]byte(`{"success": false, "detail": {"file_path": ["required"]}}`))
		require.NoError(t, err)

		assert.Equal(t, `{"file_path": ["required"]}`, resp.DetailText())
	})

	t.Run("missing success is a rejection", func(t *testing.T) {
		resp, err := DecodeImportResponse([]byte(`{"detail": "CSRF Failed"}`))
		require.NoError(t, err)

		assert.False(t, resp.Success)
	})

	for _, body := range []string{"", "null", "[]", "<html>Server Error</html>", `{"success": "yes"}`} {
		t.Run("malformed "+body, func(t *testing.T) {
			_, err := DecodeImportResponse([]byte(body))
			assert.True(t, errors.Is(err, ErrMalformedResponse))
		})
	}
}

func TestNewFailureResponse(t *testing.T) {
	resp := NewFailureResponse(`arquivo "x" não encontrado`)

	assert.False(t, resp.Success)
	assert.Equal(t, `arquivo "x" não encontrado`, resp.DetailText())
}
