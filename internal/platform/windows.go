//go:build windows

package platform

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"spotlight/internal/geometry"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	shcore                  = windows.NewLazySystemDLL("shcore.dll")
	procSetWindowPos        = user32.NewProc("SetWindowPos")
	procGetWindowRect       = user32.NewProc("GetWindowRect")
	procGetWindowLong       = user32.NewProc("GetWindowLongW")
	procSetWindowLong       = user32.NewProc("SetWindowLongW")
	procShowWindow          = user32.NewProc("ShowWindow")
	procSetForegroundWindow = user32.NewProc("SetForegroundWindow")
	procSetFocus            = user32.NewProc("SetFocus")
	procGetCursorPos        = user32.NewProc("GetCursorPos")
	procEnumDisplayMonitors = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfo      = user32.NewProc("GetMonitorInfoW")
	procMonitorFromPoint    = user32.NewProc("MonitorFromPoint")
	procMonitorFromWindow   = user32.NewProc("MonitorFromWindow")
	procSetWinEventHook     = user32.NewProc("SetWinEventHook")
	procGetDpiForMonitor    = shcore.NewProc("GetDpiForMonitor")
)

// Windows constants
const (
	HWND_TOPMOST   = ^uintptr(0) // -1
	SWP_NOMOVE     = 0x0002
	SWP_NOSIZE     = 0x0001
	SWP_NOZORDER   = 0x0004
	SWP_NOACTIVATE = 0x0010

	WS_EX_TOOLWINDOW = 0x00000080
	WS_EX_APPWINDOW  = 0x00040000

	SW_HIDE   = 0
	SW_SHOWNA = 8

	MONITOR_DEFAULTTONEAREST = 2
	MDT_EFFECTIVE_DPI        = 0

	EVENT_SYSTEM_FOREGROUND = 0x0003
	WINEVENT_OUTOFCONTEXT   = 0x0000

	baseDPI = 96
)

// gwlExStyle is GWL_EXSTYLE (-20) as uintptr, computed at runtime to avoid overflow
var gwlExStyle = negativeToUintptr(-20)

func negativeToUintptr(v int32) uintptr {
	return uintptr(uint32(v))
}

// MONITORINFOEX structure for GetMonitorInfoW
type monitorInfoEx struct {
	CbSize    uint32
	RcMonitor windows.Rect
	RcWork    windows.Rect
	DwFlags   uint32
	SzDevice  [32]uint16
}

type point struct {
	X, Y int32
}

// WindowsFeatures implements PlatformFeatures for Windows.
//
// Win32 works in physical pixels under per-monitor DPI awareness; values are
// divided by the monitor's scale on the way out and multiplied on the way in.
type WindowsFeatures struct {
	mu      sync.Mutex
	watched map[windows.HWND]func()
	hook    uintptr
}

// NewWindowsFeatures creates a new Windows platform features instance
func NewWindowsFeatures() *WindowsFeatures {
	return &WindowsFeatures{watched: make(map[windows.HWND]func())}
}

func hwnd(handle WindowHandle) (windows.HWND, error) {
	if handle == 0 {
		return 0, ErrNoWindow
	}
	return windows.HWND(handle), nil
}

func monitorScale(monitor uintptr) float64 {
	if monitor == 0 || procGetDpiForMonitor.Find() != nil {
		return 1
	}
	var dpiX, dpiY uint32
	ret, _, _ := procGetDpiForMonitor.Call(monitor, MDT_EFFECTIVE_DPI,
		uintptr(unsafe.Pointer(&dpiX)), uintptr(unsafe.Pointer(&dpiY)))
	if ret != 0 || dpiX == 0 {
		return 1
	}
	return float64(dpiX) / baseDPI
}

// ConvertToPanel turns the window into a tool window, which keeps it off the
// taskbar and out of Alt+Tab.
func (w *WindowsFeatures) ConvertToPanel(handle WindowHandle) error {
	h, err := hwnd(handle)
	if err != nil {
		return err
	}
	exStyle, _, _ := procGetWindowLong.Call(uintptr(h), gwlExStyle)
	newStyle := (exStyle | WS_EX_TOOLWINDOW) &^ WS_EX_APPWINDOW
	procSetWindowLong.Call(uintptr(h), gwlExStyle, newStyle)
	return nil
}

// SetFloatingLevel sets the window to always be on top
func (w *WindowsFeatures) SetFloatingLevel(handle WindowHandle) error {
	h, err := hwnd(handle)
	if err != nil {
		return err
	}
	ret, _, callErr := procSetWindowPos.Call(uintptr(h), HWND_TOPMOST, 0, 0, 0, 0,
		SWP_NOMOVE|SWP_NOSIZE|SWP_NOACTIVATE)
	if ret == 0 {
		return fmt.Errorf("SetWindowPos failed: %w", callErr)
	}
	return nil
}

// SetCrossSpaceBehavior has no public Win32 equivalent; virtual desktop
// pinning is shell-private.
func (w *WindowsFeatures) SetCrossSpaceBehavior(handle WindowHandle) error {
	return ErrUnsupported
}

// AllowNonActivatingKey needs nothing extra: tool windows can take focus.
func (w *WindowsFeatures) AllowNonActivatingKey(handle WindowHandle) error {
	_, err := hwnd(handle)
	return err
}

func (w *WindowsFeatures) OrderFrontAndFocus(handle WindowHandle) error {
	h, err := hwnd(handle)
	if err != nil {
		return err
	}
	procShowWindow.Call(uintptr(h), SW_SHOWNA)
	procSetWindowPos.Call(uintptr(h), HWND_TOPMOST, 0, 0, 0, 0, SWP_NOMOVE|SWP_NOSIZE)
	if ret, _, callErr := procSetForegroundWindow.Call(uintptr(h)); ret == 0 {
		return fmt.Errorf("SetForegroundWindow failed: %w", callErr)
	}
	procSetFocus.Call(uintptr(h))
	return nil
}

func (w *WindowsFeatures) OrderOut(handle WindowHandle) error {
	h, err := hwnd(handle)
	if err != nil {
		return err
	}
	procShowWindow.Call(uintptr(h), SW_HIDE)
	return nil
}

func (w *WindowsFeatures) IsOnScreen(handle WindowHandle) (bool, error) {
	h, err := hwnd(handle)
	if err != nil {
		return false, err
	}
	return windows.IsWindowVisible(h), nil
}

// WatchResignKey hooks foreground changes; any foreground window other than
// ours counts as focus lost. The hook must be installed from the GUI thread,
// whose message loop delivers the callback.
func (w *WindowsFeatures) WatchResignKey(handle WindowHandle, fn func()) error {
	h, err := hwnd(handle)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.watched[h] = fn
	if w.hook != 0 {
		return nil
	}
	cb := windows.NewCallback(func(hook, event, fg, idObject, idChild, thread, ts uintptr) uintptr {
		w.foregroundChanged(windows.HWND(fg))
		return 0
	})
	hook, _, callErr := procSetWinEventHook.Call(EVENT_SYSTEM_FOREGROUND, EVENT_SYSTEM_FOREGROUND,
		0, cb, 0, 0, WINEVENT_OUTOFCONTEXT)
	if hook == 0 {
		return fmt.Errorf("SetWinEventHook failed: %w", callErr)
	}
	w.hook = hook
	return nil
}

func (w *WindowsFeatures) foregroundChanged(fg windows.HWND) {
	w.mu.Lock()
	var lost []func()
	for h, fn := range w.watched {
		if h != fg {
			lost = append(lost, fn)
		}
	}
	w.mu.Unlock()
	for _, fn := range lost {
		fn()
	}
}

// MoveWindowTo moves the window's top-left corner to a logical position on
// whichever monitor contains it.
func (w *WindowsFeatures) MoveWindowTo(handle WindowHandle, x, y float64) error {
	h, err := hwnd(handle)
	if err != nil {
		return err
	}
	scale := 1.0
	if screens, err := w.Screens(); err == nil {
		for _, s := range screens {
			if s.Frame.Contains(geometry.Point{X: x, Y: y}) {
				scale = s.ScaleFactor
				break
			}
		}
	}
	ret, _, callErr := procSetWindowPos.Call(uintptr(h), 0,
		uintptr(int32(x*scale)), uintptr(int32(y*scale)), 0, 0,
		SWP_NOSIZE|SWP_NOZORDER|SWP_NOACTIVATE)
	if ret == 0 {
		return fmt.Errorf("SetWindowPos failed: %w", callErr)
	}
	return nil
}

// GetWindowRect returns the window position and size
func (w *WindowsFeatures) GetWindowRect(handle WindowHandle) (geometry.Rect, error) {
	h, err := hwnd(handle)
	if err != nil {
		return geometry.Rect{}, err
	}
	var rect windows.Rect
	ret, _, callErr := procGetWindowRect.Call(uintptr(h), uintptr(unsafe.Pointer(&rect)))
	if ret == 0 {
		return geometry.Rect{}, fmt.Errorf("GetWindowRect failed: %w", callErr)
	}
	monitor, _, _ := procMonitorFromWindow.Call(uintptr(h), MONITOR_DEFAULTTONEAREST)
	return toLogical(rect, monitorScale(monitor)), nil
}

func (w *WindowsFeatures) PointerLocation() (geometry.Point, error) {
	var pt point
	if ret, _, callErr := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt))); ret == 0 {
		return geometry.Point{}, fmt.Errorf("GetCursorPos failed: %w", callErr)
	}
	packed := uintptr(uint32(pt.X)) | uintptr(uint32(pt.Y))<<32
	monitor, _, _ := procMonitorFromPoint.Call(packed, MONITOR_DEFAULTTONEAREST)
	scale := monitorScale(monitor)
	return geometry.Point{X: float64(pt.X) / scale, Y: float64(pt.Y) / scale}, nil
}

// NewCallback slots are never freed, so the enumeration callback is created
// once and collects into a package-level slice.
var (
	enumMu       sync.Mutex
	enumScreens  []geometry.Screen
	enumCallback = windows.NewCallback(enumMonitor)
)

func enumMonitor(monitor, hdc, clip, data uintptr) uintptr {
	info := monitorInfoEx{CbSize: uint32(unsafe.Sizeof(monitorInfoEx{}))}
	if ret, _, _ := procGetMonitorInfo.Call(monitor, uintptr(unsafe.Pointer(&info))); ret == 0 {
		return 1
	}
	scale := monitorScale(monitor)
	enumScreens = append(enumScreens, geometry.Screen{
		Name:        windows.UTF16ToString(info.SzDevice[:]),
		Frame:       toLogical(info.RcMonitor, scale),
		ScaleFactor: scale,
	})
	return 1
}

// Screens enumerates display monitors.
func (w *WindowsFeatures) Screens() ([]geometry.Screen, error) {
	enumMu.Lock()
	defer enumMu.Unlock()
	enumScreens = nil
	if ret, _, callErr := procEnumDisplayMonitors.Call(0, 0, enumCallback, 0); ret == 0 {
		return nil, fmt.Errorf("EnumDisplayMonitors failed: %w", callErr)
	}
	if len(enumScreens) == 0 {
		return nil, geometry.ErrNoScreens
	}
	return append([]geometry.Screen(nil), enumScreens...), nil
}

func toLogical(r windows.Rect, scale float64) geometry.Rect {
	return geometry.Rect{
		Origin: geometry.Point{X: float64(r.Left) / scale, Y: float64(r.Top) / scale},
		Size: geometry.Size{
			Width:  float64(r.Right-r.Left) / scale,
			Height: float64(r.Bottom-r.Top) / scale,
		},
	}
}

// SetAccessoryPolicy is a no-op; the tool window style already keeps the app
// off the taskbar.
func (w *WindowsFeatures) SetAccessoryPolicy() error {
	return nil
}

// Global instance
var Features PlatformFeatures = NewWindowsFeatures()
