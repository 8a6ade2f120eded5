package platform

import (
	"errors"

	"spotlight/internal/geometry"
)

// WindowHandle represents a platform-specific window handle
// (NSWindow pointer, X11 window id or HWND).
type WindowHandle uintptr

// ErrUnsupported is returned for capabilities the current platform cannot provide.
var ErrUnsupported = errors.New("not supported on this platform")

// ErrNoWindow is returned when an operation is given a zero handle.
var ErrNoWindow = errors.New("no native window")

// PlatformFeatures defines the native panel behaviour and screen queries.
// Each platform (Windows, Linux, macOS) must implement this interface.
// Window methods must be called from the GUI thread.
type PlatformFeatures interface {
	// Panel conversion, applied once per window
	ConvertToPanel(handle WindowHandle) error
	SetFloatingLevel(handle WindowHandle) error
	SetCrossSpaceBehavior(handle WindowHandle) error
	AllowNonActivatingKey(handle WindowHandle) error

	// Presentation
	OrderFrontAndFocus(handle WindowHandle) error
	OrderOut(handle WindowHandle) error
	IsOnScreen(handle WindowHandle) (bool, error)
	// WatchResignKey calls fn whenever the window loses key status. fn may run
	// on any thread. Returns ErrUnsupported when the platform has no such signal.
	WatchResignKey(handle WindowHandle, fn func()) error

	// Window geometry, logical units with a top-left origin
	MoveWindowTo(handle WindowHandle, x, y float64) error
	GetWindowRect(handle WindowHandle) (geometry.Rect, error)

	// Screen info
	PointerLocation() (geometry.Point, error)
	Screens() ([]geometry.Screen, error)

	// Application
	SetAccessoryPolicy() error
}
