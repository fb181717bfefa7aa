package bulk

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/erp/importer/internal/domain/shared"
)

// ErrMalformedResponse is returned when the import endpoint answers with
// something other than a JSON object
var ErrMalformedResponse = errors.New("malformed import response")

// ImportRequest asks the backend to start the import job for a previewed file
type ImportRequest struct {
	ModuleType ModuleType `json:"module_type" binding:"required,oneof=clientes contratos" validate:"required,oneof=clientes contratos"`
	FilePath   string     `json:"file_path" binding:"required" validate:"required"`
}

// NewImportRequest builds a request. filePath is used exactly as received.
func NewImportRequest(moduleType ModuleType, filePath string) ImportRequest {
	return ImportRequest{
		ModuleType: moduleType,
		FilePath:   filePath,
	}
}

// Validate checks the request against its field rules
func (r ImportRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return shared.NewDomainError("INVALID_IMPORT_REQUEST", fmt.Sprintf("Invalid import request: %v", err))
	}
	return nil
}

// ImportResponse is the backend's answer to an ImportRequest. Only Success
// drives the client; the HTTP status code is not consulted.
type ImportResponse struct {
	Success bool            `json:"success"`
	Detail  json.RawMessage `json:"detail,omitempty"`
	JobID   string          `json:"job_id,omitempty"`
}

// DetailText returns the backend-authored detail as display text. String
// details are returned as-is; any other JSON value is returned as its source.
func (r *ImportResponse) DetailText() string {
	if len(r.Detail) == 0 || string(r.Detail) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Detail, &s); err == nil {
		return s
	}
	return string(r.Detail)
}

// DecodeImportResponse parses an import endpoint body
func DecodeImportResponse(data []byte) (*ImportResponse, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrMalformedResponse
	}
	var resp ImportResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &resp, nil
}

// NewSuccessResponse builds a response for a started job
func NewSuccessResponse(jobID string) ImportResponse {
	return ImportResponse{Success: true, JobID: jobID}
}

// NewFailureResponse builds a response carrying a plain-text detail
func NewFailureResponse(detail string) ImportResponse {
	raw, _ := json.Marshal(detail)
	return ImportResponse{Success: false, Detail: raw}
}
