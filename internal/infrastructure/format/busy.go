package format

import (
	"errors"
	"html"
	"sync"
)

// ErrControlBusy is returned when a control is already showing a busy state
var ErrControlBusy = errors.New("control is busy")

// DefaultBusyLabel is shown next to the spinner when no label is given
const DefaultBusyLabel = "Carregando..."

const spinnerMarkup = `<span class="spinner-border spinner-border-sm"></span> `

// Control is a UI element whose content can be swapped out while an
// operation it triggered is in flight
type Control interface {
	// Swap replaces the content and disables the control, returning the
	// previous content. It reports false and changes nothing if the control
	// is already disabled.
	Swap(content string) (previous string, ok bool)
	// Restore sets the content and re-enables the control
	Restore(content string)
}

// Busy is an acquired busy state. Hide must be called exactly once to
// restore the control; extra calls are no-ops.
type Busy struct {
	control  Control
	original string
	once     sync.Once
}

// ShowBusy stores the control's content, replaces it with a spinner and
// label, and disables it
func ShowBusy(c Control, label string) (*Busy, error) {
	if label == "" {
		label = DefaultBusyLabel
	}
	previous, ok := c.Swap(spinnerMarkup + html.EscapeString(label))
	if !ok {
		return nil, ErrControlBusy
	}
	return &Busy{control: c, original: previous}, nil
}

// Hide restores the exact prior content and re-enables the control
func (b *Busy) Hide() {
	b.once.Do(func() {
		b.control.Restore(b.original)
	})
}

// HideBusy releases b. A nil b is ignored.
func HideBusy(b *Busy) {
	if b != nil {
		b.Hide()
	}
}

// WithBusy runs fn with c in the busy state. The control is restored on
// every exit path, including a panic in fn.
func WithBusy(c Control, label string, fn func() error) error {
	b, err := ShowBusy(c, label)
	if err != nil {
		return err
	}
	defer b.Hide()
	return fn()
}
