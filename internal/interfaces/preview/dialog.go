package preview

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/erp/importer/internal/application/importing"
	"github.com/erp/importer/internal/domain/bulk"
	"github.com/erp/importer/internal/infrastructure/browser"
	"github.com/erp/importer/internal/infrastructure/format"
)

// ErrDialogClosed is returned by actions on a dismissed, completed or
// replaced dialog
var ErrDialogClosed = errors.New("preview dialog is closed")

// Dialog is one rendered preview, bound to the file it previews. It lives
// for a single user decision.
type Dialog struct {
	kind      bulk.ModuleType
	filePath  string
	busyLabel string
	doc       browser.Document
	root      *browser.Element
	confirm   *browser.Element
	dismiss   *browser.Element
	importer  Importer
	logger    *zap.Logger

	mu     sync.Mutex
	closed bool
}

// ID returns the dialog element id
func (d *Dialog) ID() string {
	return d.root.ID()
}

// Kind returns the module type the dialog previews
func (d *Dialog) Kind() bulk.ModuleType {
	return d.kind
}

// FilePath returns the file handle the confirm action sends
func (d *Dialog) FilePath() string {
	return d.filePath
}

// Element returns the dialog root element
func (d *Dialog) Element() *browser.Element {
	return d.root
}

// ConfirmButton returns the confirm control
func (d *Dialog) ConfirmButton() *browser.Element {
	return d.confirm
}

// Confirm runs the import flow with the confirm button held busy. A second
// Confirm while one is in flight fails with format.ErrControlBusy and sends
// nothing. The dialog closes only when the import started; after a decline
// or a failure it stays open so the user can try again.
func (d *Dialog) Confirm(ctx context.Context) (importing.Result, error) {
	if d.Closed() {
		return importing.Result{}, ErrDialogClosed
	}

	var result importing.Result
	err := format.WithBusy(d.confirm, d.busyLabel, func() error {
		result = d.importer.ConfirmAndImport(ctx, d.kind, d.filePath)
		return nil
	})
	if err != nil {
		d.logger.Debug("confirm ignored", zap.String("dialog", d.ID()), zap.Error(err))
		return importing.Result{}, err
	}

	if result.Outcome == importing.Started {
		d.close()
	}
	return result, nil
}

// Dismiss closes the dialog without any other effect
func (d *Dialog) Dismiss() error {
	if d.Closed() {
		return ErrDialogClosed
	}
	d.close()
	return nil
}

// Closed reports whether the dialog no longer accepts actions
func (d *Dialog) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Dialog) markClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.closed = true
	return true
}

// close hides the dialog, unless a newer dialog with the same id has
// already taken its place
func (d *Dialog) close() {
	if !d.markClosed() {
		return
	}
	if d.doc.GetElementByID(d.ID()) == d.root {
		_ = d.doc.HideModal(d.ID())
	}
}
