// Package panel wraps the overlay's native window as a floating,
// non-activating panel. There is at most one panel per process.
package panel

import (
	"errors"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver"

	"spotlight/internal/geometry"
	"spotlight/internal/platform"
)

var (
	ErrNoHandle       = errors.New("window has no native handle")
	ErrAlreadyCreated = errors.New("panel already created for another window")
)

// Native is the subset of platform.PlatformFeatures a panel drives.
type Native interface {
	ConvertToPanel(handle platform.WindowHandle) error
	SetFloatingLevel(handle platform.WindowHandle) error
	SetCrossSpaceBehavior(handle platform.WindowHandle) error
	AllowNonActivatingKey(handle platform.WindowHandle) error
	OrderFrontAndFocus(handle platform.WindowHandle) error
	OrderOut(handle platform.WindowHandle) error
	IsOnScreen(handle platform.WindowHandle) (bool, error)
	WatchResignKey(handle platform.WindowHandle, fn func()) error
	MoveWindowTo(handle platform.WindowHandle, x, y float64) error
	GetWindowRect(handle platform.WindowHandle) (geometry.Rect, error)
}

// Panel is the converted overlay window. Behavioural methods must be called
// on the GUI thread.
type Panel struct {
	handle platform.WindowHandle
	native Native
	post   func(func())

	mu          sync.Mutex
	onFocusLost func()
	watching    bool
}

// CreateFrom converts the window behind handle into a panel in place. post
// moves focus-lost notifications onto the GUI thread; nil runs them inline.
func CreateFrom(handle platform.WindowHandle, native Native, post func(func())) (*Panel, error) {
	if handle == 0 {
		return nil, ErrNoHandle
	}
	if post == nil {
		post = func(fn func()) { fn() }
	}
	if err := native.ConvertToPanel(handle); err != nil {
		return nil, fmt.Errorf("convert window to panel: %w", err)
	}
	p := &Panel{handle: handle, native: native, post: post}
	p.onFocusLost = p.hideOnFocusLost
	return p, nil
}

// HandleOf returns the native handle behind a fyne window. The window must
// have been shown at least once so the driver has created it.
func HandleOf(win fyne.Window) (platform.WindowHandle, error) {
	nw, ok := win.(driver.NativeWindow)
	if !ok {
		return 0, ErrNoHandle
	}
	var handle uintptr
	nw.RunNative(func(context any) {
		switch ctx := context.(type) {
		case driver.MacWindowContext:
			handle = ctx.NSWindow
		case *driver.MacWindowContext:
			handle = ctx.NSWindow
		case driver.X11WindowContext:
			handle = ctx.WindowHandle
		case *driver.X11WindowContext:
			handle = ctx.WindowHandle
		case driver.WindowsWindowContext:
			handle = ctx.HWND
		case *driver.WindowsWindowContext:
			handle = ctx.HWND
		}
	})
	if handle == 0 {
		return 0, ErrNoHandle
	}
	return platform.WindowHandle(handle), nil
}

// Handle returns the native window handle.
func (p *Panel) Handle() platform.WindowHandle {
	return p.handle
}

// SetFloatingLevel raises the stacking level above the menu bar.
func (p *Panel) SetFloatingLevel() error {
	return p.native.SetFloatingLevel(p.handle)
}

// SetCrossSpaceBehavior lets the panel follow desktop switches and float over
// full-screen apps.
func (p *Panel) SetCrossSpaceBehavior() error {
	return p.native.SetCrossSpaceBehavior(p.handle)
}

// AllowNonActivatingKeyStatus makes the panel focusable without activating
// the application.
func (p *Panel) AllowNonActivatingKeyStatus() error {
	return p.native.AllowNonActivatingKey(p.handle)
}

// Show orders the panel front, makes it key and gives input focus to its
// content.
func (p *Panel) Show() error {
	return p.native.OrderFrontAndFocus(p.handle)
}

// Hide orders the panel out. The window is kept.
func (p *Panel) Hide() error {
	return p.native.OrderOut(p.handle)
}

func (p *Panel) IsVisible() (bool, error) {
	return p.native.IsOnScreen(p.handle)
}

// MoveTo places the panel's top-left corner at origin.
func (p *Panel) MoveTo(origin geometry.Point) error {
	return p.native.MoveWindowTo(p.handle, origin.X, origin.Y)
}

// Frame returns the panel's current bounds.
func (p *Panel) Frame() (geometry.Rect, error) {
	return p.native.GetWindowRect(p.handle)
}

// OnFocusLost replaces the handler run when the panel resigns key status.
// A nil handler restores the default, which hides the panel.
func (p *Panel) OnFocusLost(handler func()) error {
	p.mu.Lock()
	if handler == nil {
		handler = p.hideOnFocusLost
	}
	p.onFocusLost = handler
	watching := p.watching
	p.mu.Unlock()
	if watching {
		return nil
	}

	if err := p.native.WatchResignKey(p.handle, p.resignedKey); err != nil {
		return fmt.Errorf("watch focus: %w", err)
	}
	p.mu.Lock()
	p.watching = true
	p.mu.Unlock()
	return nil
}

// resignedKey may be called from any thread.
func (p *Panel) resignedKey() {
	p.mu.Lock()
	handler := p.onFocusLost
	p.mu.Unlock()
	p.post(handler)
}

func (p *Panel) hideOnFocusLost() {
	_ = p.Hide()
}

var (
	slotMu sync.Mutex
	slot   *Panel
)

// Acquire returns the process panel, creating it from handle on the first
// call. Later calls with the same handle return the same panel; a different
// handle is an error.
func Acquire(handle platform.WindowHandle, native Native, post func(func())) (*Panel, error) {
	slotMu.Lock()
	defer slotMu.Unlock()
	if slot != nil {
		if slot.handle != handle {
			return nil, ErrAlreadyCreated
		}
		return slot, nil
	}
	p, err := CreateFrom(handle, native, post)
	if err != nil {
		return nil, err
	}
	slot = p
	return p, nil
}

// Current returns the process panel, or nil before Acquire succeeds.
func Current() *Panel {
	slotMu.Lock()
	defer slotMu.Unlock()
	return slot
}

// HideCurrent orders the process panel out, if one exists.
func HideCurrent() error {
	p := Current()
	if p == nil {
		return nil
	}
	return p.Hide()
}
