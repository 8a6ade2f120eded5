package ui

import (
	"errors"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"spotlight/internal/assets"
	"spotlight/internal/channel"
)

var ErrTrayUnsupported = errors.New("system tray not supported on this platform")

// TrayManager handles the system tray icon and menu
type TrayManager struct {
	app        fyne.App
	menu       *fyne.Menu
	statusItem *fyne.MenuItem

	onShow     func()
	onHide     func()
	onSettings func()
	onQuit     func()
}

// NewTrayManager creates a new tray manager
func NewTrayManager(app fyne.App) *TrayManager {
	return &TrayManager{app: app}
}

// SetCallbacks sets the callback functions for tray actions. They run on the
// GUI thread.
func (t *TrayManager) SetCallbacks(onShow, onHide, onSettings, onQuit func()) {
	t.onShow = onShow
	t.onHide = onHide
	t.onSettings = onSettings
	t.onQuit = onQuit
}

// Menu builds the tray menu on first use.
func (t *TrayManager) Menu() *fyne.Menu {
	if t.menu != nil {
		return t.menu
	}
	t.statusItem = fyne.NewMenuItem(statusLabel(channel.Disconnected), nil)
	t.statusItem.Disabled = true

	t.menu = fyne.NewMenu("Spotlight",
		fyne.NewMenuItem("Show", func() { call(t.onShow) }),
		fyne.NewMenuItem("Hide", func() { call(t.onHide) }),
		fyne.NewMenuItemSeparator(),
		t.statusItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Settings...", func() { call(t.onSettings) }),
		fyne.NewMenuItem("Quit", func() { call(t.onQuit) }),
	)
	return t.menu
}

// Setup installs the menu and icon in the system tray.
func (t *TrayManager) Setup() error {
	desk, ok := t.app.(desktop.App)
	if !ok {
		return ErrTrayUnsupported
	}
	desk.SetSystemTrayMenu(t.Menu())
	desk.SetSystemTrayIcon(assets.TrayIcon())
	return nil
}

// SetChannelState updates the status item. Call on the GUI thread.
func (t *TrayManager) SetChannelState(s channel.State) {
	if t.statusItem == nil {
		return
	}
	label := statusLabel(s)
	if t.statusItem.Label == label {
		return
	}
	t.statusItem.Label = label
	t.menu.Refresh()
}

func statusLabel(s channel.State) string {
	if s == channel.Disconnected {
		return "Server: disconnected"
	}
	return "Server: connected"
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
