package overlay

import (
	"errors"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

var ErrNoCanvas = errors.New("query view is not in a window")

// QueryView is the single-line input hosted by the overlay.
type QueryView struct {
	widget.Entry

	window   fyne.Window
	onEscape func()
}

// NewQueryView creates the input for win. onEscape runs when Escape is typed.
func NewQueryView(win fyne.Window, onEscape func()) *QueryView {
	q := &QueryView{window: win, onEscape: onEscape}
	q.ExtendBaseWidget(q)
	q.SetPlaceHolder("Search")
	return q
}

// TypedKey intercepts Escape; everything else goes to the entry.
func (q *QueryView) TypedKey(ev *fyne.KeyEvent) {
	if ev.Name == fyne.KeyEscape && q.onEscape != nil {
		q.onEscape()
		return
	}
	q.Entry.TypedKey(ev)
}

// FocusInput gives the entry keyboard focus within its window.
func (q *QueryView) FocusInput() error {
	if q.window == nil || q.window.Canvas() == nil {
		return ErrNoCanvas
	}
	q.window.Canvas().Focus(q)
	return nil
}

// SelectAll selects the whole query text.
func (q *QueryView) SelectAll() error {
	q.TypedShortcut(&fyne.ShortcutSelectAll{})
	return nil
}
