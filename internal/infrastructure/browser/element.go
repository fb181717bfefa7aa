// Package browser models the page environment the import client runs in:
// a document holding dialogs, the cookie store, navigation, timers and the
// blocking prompt/alert dialogs. Every capability is an interface so the
// client can run against in-memory fakes, a terminal, or a remote page.
package browser

import (
	"html"
	"io"
	"sort"
	"strings"
	"sync"
)

// Element is a node in a Document. Content is trusted markup produced by
// the client itself; callers must escape untrusted text before setting it.
type Element struct {
	mu       sync.RWMutex
	tag      string
	id       string
	classes  []string
	attrs    map[string]string
	content  string
	disabled bool
	children []*Element
}

// NewElement creates an element with the given tag, id and classes
func NewElement(tag, id string, classes ...string) *Element {
	if tag == "" {
		tag = "div"
	}
	return &Element{
		tag:     tag,
		id:      id,
		classes: classes,
		attrs:   make(map[string]string),
	}
}

// ID returns the element id
func (e *Element) ID() string {
	return e.id
}

// HasClass reports whether the element itself carries class
func (e *Element) HasClass(class string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, c := range e.classes {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass adds class if not already present
func (e *Element) AddClass(class string) {
	if e.HasClass(class) {
		return
	}
	e.mu.Lock()
	e.classes = append(e.classes, class)
	e.mu.Unlock()
}

// RemoveClass removes class if present
func (e *Element) RemoveClass(class string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	kept := e.classes[:0]
	for _, c := range e.classes {
		if c != class {
			kept = append(kept, c)
		}
	}
	e.classes = kept
}

// SetAttr sets an attribute. Values are escaped when rendered.
func (e *Element) SetAttr(name, value string) {
	e.mu.Lock()
	e.attrs[name] = value
	e.mu.Unlock()
}

// Attr returns an attribute value
func (e *Element) Attr(name string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.attrs[name]
	return v, ok
}

// Content returns the inner markup
func (e *Element) Content() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.content
}

// SetContent replaces the inner markup
func (e *Element) SetContent(markup string) {
	e.mu.Lock()
	e.content = markup
	e.mu.Unlock()
}

// Disabled reports whether the element is disabled
func (e *Element) Disabled() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.disabled
}

// SetDisabled sets the disabled state
func (e *Element) SetDisabled(disabled bool) {
	e.mu.Lock()
	e.disabled = disabled
	e.mu.Unlock()
}

// Swap replaces the content and disables the element in one step. It
// reports false and changes nothing if the element is already disabled.
func (e *Element) Swap(content string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disabled {
		return "", false
	}
	previous := e.content
	e.content = content
	e.disabled = true
	return previous, true
}

// Restore sets the content and re-enables the element
func (e *Element) Restore(content string) {
	e.mu.Lock()
	e.content = content
	e.disabled = false
	e.mu.Unlock()
}

// AppendChild adds child after the element's content and existing children
func (e *Element) AppendChild(child *Element) {
	e.mu.Lock()
	e.children = append(e.children, child)
	e.mu.Unlock()
}

// Children returns a snapshot of the child list
func (e *Element) Children() []*Element {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Element, len(e.children))
	copy(out, e.children)
	return out
}

// Find returns the first element in this subtree with the given id
func (e *Element) Find(id string) *Element {
	if e.id == id {
		return e
	}
	for _, c := range e.Children() {
		if found := c.Find(id); found != nil {
			return found
		}
	}
	return nil
}

// FindByAttr returns the first element in this subtree whose attribute name
// equals value
func (e *Element) FindByAttr(name, value string) *Element {
	if v, ok := e.Attr(name); ok && v == value {
		return e
	}
	for _, c := range e.Children() {
		if found := c.FindByAttr(name, value); found != nil {
			return found
		}
	}
	return nil
}

// ContainsClass reports whether this element or any descendant carries class
func (e *Element) ContainsClass(class string) bool {
	if e.HasClass(class) {
		return true
	}
	for _, c := range e.Children() {
		if c.ContainsClass(class) {
			return true
		}
	}
	return false
}

// Render writes the element's outer markup to w
func (e *Element) Render(w io.Writer) error {
	e.mu.RLock()
	var sb strings.Builder
	sb.WriteString("<" + e.tag)
	if e.id != "" {
		sb.WriteString(` id="` + html.EscapeString(e.id) + `"`)
	}
	if len(e.classes) > 0 {
		sb.WriteString(` class="` + html.EscapeString(strings.Join(e.classes, " ")) + `"`)
	}
	names := make([]string, 0, len(e.attrs))
	for name := range e.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sb.WriteString(" " + name + `="` + html.EscapeString(e.attrs[name]) + `"`)
	}
	if e.disabled {
		sb.WriteString(" disabled")
	}
	sb.WriteString(">")
	sb.WriteString(e.content)
	children := make([]*Element, len(e.children))
	copy(children, e.children)
	tag := e.tag
	e.mu.RUnlock()

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return err
	}
	for _, c := range children {
		if err := c.Render(w); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</"+tag+">")
	return err
}

// OuterHTML returns the rendered markup as a string
func (e *Element) OuterHTML() string {
	var sb strings.Builder
	_ = e.Render(&sb)
	return sb.String()
}
