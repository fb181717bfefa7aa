// Package importing starts backend import jobs for previewed files: it asks
// the user to confirm, sends the CSRF-protected start request, and either
// moves the page to the import history or tells the user what went wrong.
package importing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/erp/importer/internal/domain/bulk"
	"github.com/erp/importer/internal/infrastructure/browser"
	"github.com/erp/importer/internal/infrastructure/client"
	"github.com/erp/importer/internal/infrastructure/config"
	"github.com/erp/importer/internal/infrastructure/logger"
	"github.com/erp/importer/internal/infrastructure/session"
)

// User-facing messages
const (
	MsgStarted        = "Importação iniciada com sucesso! Redirecionando para o histórico..."
	MsgRejected       = "Erro na importação"
	MsgTransportError = "Erro ao conectar com o servidor"
	MsgInvalid        = "Importação não enviada"
)

// ConfirmPrompt returns the question asked before importing m
func ConfirmPrompt(m bulk.ModuleType) string {
	return fmt.Sprintf("Deseja realmente importar estes %s para o sistema?", m.Noun())
}

// Transport sends JSON requests to the backend
type Transport interface {
	PostJSON(ctx context.Context, path string, body any, headers map[string]string) (*client.Response, error)
}

// Outcome is how an import attempt ended
type Outcome int

const (
	// Declined means the user answered no; nothing was sent
	Declined Outcome = iota
	// Started means the backend accepted the request and the page moved on
	Started
	// Rejected means the backend answered success=false
	Rejected
	// TransportFailed means no usable answer came back
	TransportFailed
	// Invalid means the request failed local checks; nothing was sent
	Invalid
)

func (o Outcome) String() string {
	switch o {
	case Declined:
		return "declined"
	case Started:
		return "started"
	case Rejected:
		return "rejected"
	case TransportFailed:
		return "transport_failed"
	case Invalid:
		return "invalid"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Result describes one attempt. Err is set for TransportFailed and Invalid,
// and for Started when the navigation afterwards failed.
type Result struct {
	Outcome Outcome
	Detail  string
	JobID   string
	Err     error
}

// Config holds the fixed paths and CSRF names the trigger uses
type Config struct {
	ImportPath  string
	HistoryPath string
	CSRFCookie  string
	CSRFHeader  string
}

// ConfigFrom extracts the trigger settings from the application config
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		ImportPath:  cfg.Endpoints.ImportPath,
		HistoryPath: cfg.Endpoints.HistoryPath,
		CSRFCookie:  cfg.CSRF.CookieName,
		CSRFHeader:  cfg.CSRF.HeaderName,
	}
}

// Page is the part of the browser environment the trigger touches
type Page struct {
	Cookies   browser.CookieStore
	Prompter  browser.Prompter
	Notifier  browser.Notifier
	Navigator browser.Navigator
}

// Trigger starts import jobs. It holds no per-attempt state, so concurrent
// calls each send their own request; callers guard the triggering control
// with format.WithBusy to keep one request in flight.
type Trigger struct {
	transport Transport
	page      Page
	cfg       Config
	logger    *zap.Logger
}

// NewTrigger creates a trigger
func NewTrigger(transport Transport, page Page, cfg Config, log *zap.Logger) *Trigger {
	return &Trigger{
		transport: transport,
		page:      page,
		cfg:       cfg,
		logger:    logger.Named(log, "importing"),
	}
}

// ConfirmAndImport asks the user to confirm and, if they agree, starts the
// import. Declining sends nothing.
func (t *Trigger) ConfirmAndImport(ctx context.Context, moduleType bulk.ModuleType, filePath string) Result {
	if !t.page.Prompter.Confirm(ctx, ConfirmPrompt(moduleType)) {
		t.logger.Debug("import declined", zap.String("module_type", string(moduleType)))
		return Result{Outcome: Declined}
	}
	return t.StartImport(ctx, moduleType, filePath)
}

// StartImport sends the start request for filePath and reports the result
// to the user. Only the decoded success flag is consulted, never the HTTP
// status. Nothing is retried.
func (t *Trigger) StartImport(ctx context.Context, moduleType bulk.ModuleType, filePath string) Result {
	ctx, log := logger.WithModuleType(ctx, t.logger, string(moduleType))

	req := bulk.NewImportRequest(moduleType, filePath)
	if err := req.Validate(); err != nil {
		log.Warn("import request invalid", zap.Error(err))
		t.page.Notifier.Alert(ctx, MsgInvalid+": "+err.Error())
		return Result{Outcome: Invalid, Detail: err.Error(), Err: err}
	}

	headers := map[string]string{}
	if token, ok := session.Token(t.page.Cookies, t.cfg.CSRFCookie); ok {
		headers[t.cfg.CSRFHeader] = token
	} else {
		log.Warn("csrf cookie not found, sending without token", zap.String("cookie", t.cfg.CSRFCookie))
	}

	resp, err := t.transport.PostJSON(ctx, t.cfg.ImportPath, req, headers)
	if err != nil {
		return t.transportFailure(ctx, log, err)
	}

	decoded, err := bulk.DecodeImportResponse(resp.Body)
	if err != nil {
		log.Warn("unreadable import response", zap.Int("status", resp.StatusCode))
		return t.transportFailure(ctx, log, err)
	}

	if !decoded.Success {
		return t.reject(ctx, log, decoded.DetailText())
	}

	log.Info("import started", zap.String("job_id", decoded.JobID), zap.String("file_path", filePath))
	t.page.Notifier.Alert(ctx, MsgStarted)
	result := Result{Outcome: Started, JobID: decoded.JobID}
	if err := t.page.Navigator.Navigate(ctx, t.cfg.HistoryPath); err != nil {
		log.Warn("navigation to history failed", zap.Error(err))
		result.Err = err
	}
	return result
}

func (t *Trigger) reject(ctx context.Context, log *zap.Logger, detail string) Result {
	log.Warn("import rejected", zap.String("detail", detail))
	msg := MsgRejected
	if detail != "" {
		msg += ": " + detail
	}
	t.page.Notifier.Alert(ctx, msg)
	return Result{Outcome: Rejected, Detail: detail}
}

func (t *Trigger) transportFailure(ctx context.Context, log *zap.Logger, err error) Result {
	log.Warn("import request failed", zap.Error(err))
	t.page.Notifier.Alert(ctx, MsgTransportError+": "+err.Error())
	return Result{Outcome: TransportFailed, Err: err}
}
