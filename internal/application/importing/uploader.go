package importing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/erp/importer/internal/domain/bulk"
	"github.com/erp/importer/internal/infrastructure/browser"
	"github.com/erp/importer/internal/infrastructure/client"
	"github.com/erp/importer/internal/infrastructure/logger"
	"github.com/erp/importer/internal/infrastructure/session"
)

// ErrUploadRejected is returned when the backend refuses a spreadsheet
var ErrUploadRejected = errors.New("upload rejected")

// FileTransport uploads files and loads pages
type FileTransport interface {
	PostFile(ctx context.Context, path, fieldName, filePath string, fields, headers map[string]string) (*client.Response, error)
	Get(ctx context.Context, path string, queryParams map[string]string) (*client.Response, error)
}

// Uploader sends a spreadsheet to the extraction endpoint and returns the
// preview payload it produces
type Uploader struct {
	transport  FileTransport
	cookies    browser.CookieStore
	uploadPath string
	csrfCookie string
	csrfHeader string
	logger     *zap.Logger
}

// NewUploader creates an uploader
func NewUploader(transport FileTransport, cookies browser.CookieStore, uploadPath string, cfg Config, log *zap.Logger) *Uploader {
	return &Uploader{
		transport:  transport,
		cookies:    cookies,
		uploadPath: uploadPath,
		csrfCookie: cfg.CSRFCookie,
		csrfHeader: cfg.CSRFHeader,
		logger:     logger.Named(log, "upload"),
	}
}

// Upload posts the file at path for moduleType and returns the raw preview
// payload. When no CSRF cookie is known yet, the upload page is loaded
// first so the backend can set one.
func (u *Uploader) Upload(ctx context.Context, moduleType bulk.ModuleType, path string) ([]byte, error) {
	if !moduleType.IsValid() {
		return nil, fmt.Errorf("upload %s: %w", path, bulk.ErrInvalidModuleType(string(moduleType)))
	}

	token, ok := session.Token(u.cookies, u.csrfCookie)
	if !ok {
		if _, err := u.transport.Get(ctx, u.uploadPath, nil); err != nil {
			return nil, fmt.Errorf("priming session: %w", err)
		}
		token, ok = session.Token(u.cookies, u.csrfCookie)
	}
	headers := map[string]string{}
	if ok {
		headers[u.csrfHeader] = token
	}

	resp, err := u.transport.PostFile(ctx, u.uploadPath, "file", path,
		map[string]string{"module_type": string(moduleType)}, headers)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", path, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var body struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(resp.Body, &body) == nil && body.Detail != "" {
			return nil, fmt.Errorf("%w: %s", ErrUploadRejected, body.Detail)
		}
		return nil, fmt.Errorf("%w: status %d", ErrUploadRejected, resp.StatusCode)
	}

	u.logger.Info("spreadsheet uploaded",
		zap.String("module_type", string(moduleType)),
		zap.String("file", path),
		zap.Int("bytes", len(resp.Body)),
	)
	return resp.Body, nil
}
