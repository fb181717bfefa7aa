package browser

import (
	"errors"
	"fmt"
	"html"
	"io"
	"sync"
)

// ErrElementNotFound is returned when an operation names an id that is not
// in the document
var ErrElementNotFound = errors.New("element not found")

// Document is where dialogs live
type Document interface {
	// GetElementByID returns the first element with id, or nil
	GetElementByID(id string) *Element
	// Append adds el to the end of the body
	Append(el *Element)
	// Remove detaches every top-level element with id and reports whether
	// any was found
	Remove(id string) bool
	// ShowModal displays the element with id as a modal dialog
	ShowModal(id string) error
	// HideModal closes the modal with id and removes its element from the
	// document. Hiding it in place is not enough: a closed dialog is
	// discarded, and GetElementByID(id) returns nil afterwards.
	HideModal(id string) error
	// HasClass reports whether any element carries class
	HasClass(class string) bool
}

// MemoryDocument is an in-memory Document. It is safe for concurrent use.
type MemoryDocument struct {
	mu    sync.RWMutex
	title string
	lang  string
	body  []*Element
	modal string
}

// NewMemoryDocument creates an empty document
func NewMemoryDocument(title, lang string) *MemoryDocument {
	return &MemoryDocument{title: title, lang: lang}
}

// GetElementByID implements Document
func (d *MemoryDocument) GetElementByID(id string) *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, el := range d.body {
		if found := el.Find(id); found != nil {
			return found
		}
	}
	return nil
}

// Append implements Document
func (d *MemoryDocument) Append(el *Element) {
	d.mu.Lock()
	d.body = append(d.body, el)
	d.mu.Unlock()
}

// Remove implements Document
func (d *MemoryDocument) Remove(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	removed := false
	kept := d.body[:0]
	for _, el := range d.body {
		if el.ID() == id {
			removed = true
			continue
		}
		kept = append(kept, el)
	}
	// clear the tail so removed elements can be collected
	for i := len(kept); i < len(d.body); i++ {
		d.body[i] = nil
	}
	d.body = kept
	if removed && d.modal == id {
		d.modal = ""
	}
	return removed
}

// ShowModal implements Document
func (d *MemoryDocument) ShowModal(id string) error {
	el := d.GetElementByID(id)
	if el == nil {
		return fmt.Errorf("show modal %q: %w", id, ErrElementNotFound)
	}
	el.AddClass("show")
	el.SetAttr("aria-modal", "true")
	d.mu.Lock()
	d.modal = id
	d.mu.Unlock()
	return nil
}

// HideModal implements Document
func (d *MemoryDocument) HideModal(id string) error {
	if !d.Remove(id) {
		return fmt.Errorf("hide modal %q: %w", id, ErrElementNotFound)
	}
	return nil
}

// HasClass implements Document
func (d *MemoryDocument) HasClass(class string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, el := range d.body {
		if el.ContainsClass(class) {
			return true
		}
	}
	return false
}

// ActiveModal returns the id of the displayed modal, if any
func (d *MemoryDocument) ActiveModal() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.modal
}

// Count returns how many top-level elements have id
func (d *MemoryDocument) Count(id string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := 0
	for _, el := range d.body {
		if el.ID() == id {
			n++
		}
	}
	return n
}

// Len returns the number of top-level elements
func (d *MemoryDocument) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.body)
}

// Render writes the document as a standalone HTML page
func (d *MemoryDocument) Render(w io.Writer) error {
	d.mu.RLock()
	body := make([]*Element, len(d.body))
	copy(body, d.body)
	title, lang := d.title, d.lang
	d.mu.RUnlock()

	head := `<!DOCTYPE html>
<html lang="` + html.EscapeString(lang) + `">
<head>
<meta charset="utf-8">
<title>` + html.EscapeString(title) + `</title>
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css">
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap-icons@1.11.3/font/bootstrap-icons.min.css">
<style>.modal.show{display:block;background:rgba(0,0,0,.5)}</style>
</head>
<body>
`
	if _, err := io.WriteString(w, head); err != nil {
		return err
	}
	for _, el := range body {
		if err := el.Render(w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</body>\n</html>\n")
	return err
}
