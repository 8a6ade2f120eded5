package overlay

import (
	"fyne.io/fyne/v2"

	"spotlight/internal/panel"
)

// NativePanel returns a factory that converts win into the process panel.
// win must already have been shown once.
func NativePanel(win fyne.Window, native panel.Native) PanelFactory {
	return func() (Panel, error) {
		handle, err := panel.HandleOf(win)
		if err != nil {
			return nil, err
		}
		p, err := panel.Acquire(handle, native, fyne.Do)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}
