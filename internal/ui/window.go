// Package ui builds the overlay window, the tray menu and the settings window.
package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"

	"spotlight/internal/overlay"
	"spotlight/internal/theme"
)

const windowTitle = "Spotlight"

var (
	colorBg     = color.RGBA{32, 33, 35, 240}
	colorBorder = color.RGBA{55, 57, 61, 255}
)

// WindowOptions size the overlay window.
type WindowOptions struct {
	Width      int
	BaseHeight int
	Padding    theme.Padding
	// OnEscape runs when Escape is typed into the query.
	OnEscape func()
}

// OverlayWindow is the borderless window hosting the query input.
type OverlayWindow struct {
	window fyne.Window
	query  *overlay.QueryView
}

// NewOverlayWindow builds the window but does not show it. Drivers that
// support splash windows get one without decorations.
func NewOverlayWindow(app fyne.App, opts WindowOptions) *OverlayWindow {
	var win fyne.Window
	if desk, ok := app.Driver().(desktop.Driver); ok {
		win = desk.CreateSplashWindow()
		win.SetTitle(windowTitle)
	} else {
		win = app.NewWindow(windowTitle)
	}
	win.SetPadded(false)
	win.SetFixedSize(true)

	o := &OverlayWindow{window: win}
	o.query = overlay.NewQueryView(win, opts.OnEscape)

	bg := canvas.NewRectangle(colorBg)
	bg.StrokeColor = colorBorder
	bg.StrokeWidth = 1
	bg.CornerRadius = 10

	top := canvas.NewRectangle(color.Transparent)
	top.SetMinSize(fyne.NewSize(0, float32(opts.Padding.Top)))
	bottom := canvas.NewRectangle(color.Transparent)
	bottom.SetMinSize(fyne.NewSize(0, float32(opts.Padding.Bottom)))

	body := container.New(layout.NewBorderLayout(top, bottom, nil, nil), top, bottom, o.query)
	win.SetContent(container.NewStack(bg, container.NewPadded(body)))
	win.Resize(fyne.NewSize(float32(opts.Width), float32(opts.Padding.WindowHeight(opts.BaseHeight))))
	return o
}

// Window returns the underlying fyne window.
func (o *OverlayWindow) Window() fyne.Window {
	return o.window
}

// Query returns the input view.
func (o *OverlayWindow) Query() *overlay.QueryView {
	return o.query
}
