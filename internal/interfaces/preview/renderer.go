// Package preview renders extracted preview payloads as confirmation
// dialogs and wires their buttons to the import trigger.
package preview

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/erp/importer/internal/application/importing"
	"github.com/erp/importer/internal/domain/bulk"
	"github.com/erp/importer/internal/infrastructure/browser"
	"github.com/erp/importer/internal/infrastructure/format"
	"github.com/erp/importer/internal/infrastructure/logger"
)

// Importer runs the confirm-then-import flow for a file
type Importer interface {
	ConfirmAndImport(ctx context.Context, moduleType bulk.ModuleType, filePath string) importing.Result
}

// Renderer puts preview dialogs into a document. At most one dialog per
// module type exists in the document; rendering again replaces it.
type Renderer struct {
	formatter *format.Formatter
	doc       browser.Document
	importer  Importer
	logger    *zap.Logger

	mu   sync.Mutex
	open map[bulk.ModuleType]*Dialog
}

// NewRenderer creates a renderer
func NewRenderer(f *format.Formatter, doc browser.Document, importer Importer, log *zap.Logger) *Renderer {
	if f == nil {
		f = format.Default()
	}
	return &Renderer{
		formatter: f,
		doc:       doc,
		importer:  importer,
		logger:    logger.Named(log, "preview"),
		open:      make(map[bulk.ModuleType]*Dialog),
	}
}

// RenderPreview decodes a raw payload for kind and renders it. A payload
// that fails validation renders nothing and returns an error for which
// bulk.IsValidationError is true.
func (r *Renderer) RenderPreview(kind bulk.ModuleType, raw []byte) (*Dialog, error) {
	switch kind {
	case bulk.ModuleCustomers:
		p, err := bulk.DecodeCustomerPayload(raw)
		if err != nil {
			return nil, err
		}
		return r.RenderCustomers(p)
	case bulk.ModuleContracts:
		p, err := bulk.DecodeContractPayload(raw)
		if err != nil {
			return nil, err
		}
		return r.RenderContracts(p)
	}
	return nil, bulk.ErrInvalidModuleType(string(kind))
}

// RenderCustomers shows the customer preview dialog
func (r *Renderer) RenderCustomers(p *bulk.CustomerPayload) (*Dialog, error) {
	return r.render(bulk.ModuleCustomers, customerLayout, "customers", p.Total, customerRows(p.Preview), p.FilePath)
}

// RenderContracts shows the contract preview dialog
func (r *Renderer) RenderContracts(p *bulk.ContractPayload) (*Dialog, error) {
	return r.render(bulk.ModuleContracts, contractLayout, "contracts", p.Total, contractRows(r.formatter, p.Preview), p.FilePath)
}

func (r *Renderer) render(kind bulk.ModuleType, l layout, tmpl string, total int, rows any, filePath string) (*Dialog, error) {
	var body strings.Builder
	if err := dialogTemplates.ExecuteTemplate(&body, tmpl, dialogData{Layout: l, Total: total, Rows: rows}); err != nil {
		return nil, fmt.Errorf("render %s preview: %w", kind, err)
	}

	id := kind.DialogID()
	root := browser.NewElement("div", id, "modal", "fade")
	root.SetAttr("tabindex", "-1")
	root.SetAttr("role", "dialog")
	root.SetAttr("data-module-type", string(kind))

	frame := browser.NewElement("div", "", "modal-dialog", "modal-xl")
	content := browser.NewElement("div", "", "modal-content", "border-0", "shadow")
	content.SetContent(body.String())

	footer := browser.NewElement("div", "", "modal-footer", "bg-light")
	dismiss := browser.NewElement("button", id+"Dismiss", "btn", "btn-outline-secondary")
	dismiss.SetAttr("type", "button")
	dismiss.SetAttr("data-bs-dismiss", "modal")
	dismiss.SetAttr("data-action", "dismiss")
	dismiss.SetContent(html.EscapeString(l.DismissLabel))

	confirm := browser.NewElement("button", id+"Confirm", "btn", l.ConfirmClass, "px-4")
	confirm.SetAttr("type", "button")
	confirm.SetAttr("data-action", "confirm")
	confirm.SetAttr("data-module-type", string(kind))
	confirm.SetAttr("data-file-path", filePath)
	confirm.SetContent(`<i class="bi bi-check-circle me-2"></i> ` + html.EscapeString(l.ConfirmLabel))

	footer.AppendChild(dismiss)
	footer.AppendChild(confirm)
	content.AppendChild(footer)
	frame.AppendChild(content)
	root.AppendChild(frame)

	d := &Dialog{
		kind:      kind,
		filePath:  filePath,
		busyLabel: l.BusyLabel,
		doc:       r.doc,
		root:      root,
		confirm:   confirm,
		dismiss:   dismiss,
		importer:  r.importer,
		logger:    r.logger,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if prev := r.open[kind]; prev != nil {
		prev.markClosed()
	}
	r.doc.Remove(id)
	r.doc.Append(root)
	if err := r.doc.ShowModal(id); err != nil {
		r.doc.Remove(id)
		delete(r.open, kind)
		return nil, fmt.Errorf("show %s preview: %w", kind, err)
	}
	r.open[kind] = d

	r.logger.Debug("preview shown",
		zap.String("module_type", string(kind)),
		zap.Int("total", total),
		zap.Int("rows", rowCount(rows)),
	)
	return d, nil
}

// Open returns the dialog currently shown for kind, if any
func (r *Renderer) Open(kind bulk.ModuleType) *Dialog {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.open[kind]
	if d == nil || d.Closed() {
		return nil
	}
	return d
}

func rowCount(rows any) int {
	switch v := rows.(type) {
	case []customerRow:
		return len(v)
	case []contractRow:
		return len(v)
	}
	return 0
}
