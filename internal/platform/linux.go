//go:build linux

package platform

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xwindow"

	"spotlight/internal/geometry"
)

// allDesktops is the _NET_WM_DESKTOP value meaning "on every desktop".
const allDesktops = 0xFFFFFFFF

// LinuxFeatures implements PlatformFeatures for X11 through EWMH hints.
//
// Window managers drop _NET_WM_STATE when a window is withdrawn, so the panel
// states are remembered per window and written again before every map.
type LinuxFeatures struct {
	mu      sync.Mutex
	xu      *xgbutil.XUtil
	connErr error
	once    sync.Once
	states  map[xproto.Window][]string
	looping bool
}

// NewLinuxFeatures creates a new Linux platform features instance.
// The X connection is opened on first use.
func NewLinuxFeatures() *LinuxFeatures {
	return &LinuxFeatures{states: make(map[xproto.Window][]string)}
}

func (l *LinuxFeatures) conn() (*xgbutil.XUtil, error) {
	l.once.Do(func() {
		xu, err := xgbutil.NewConn()
		if err != nil {
			l.connErr = fmt.Errorf("connect to X server: %w", err)
			return
		}
		if err := randr.Init(xu.Conn()); err != nil {
			l.connErr = fmt.Errorf("randr init failed: %w", err)
			xu.Conn().Close()
			return
		}
		l.xu = xu
	})
	return l.xu, l.connErr
}

func window(handle WindowHandle) (xproto.Window, error) {
	if handle == 0 {
		return 0, ErrNoWindow
	}
	return xproto.Window(handle), nil
}

func (l *LinuxFeatures) addState(win xproto.Window, names ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	existing := l.states[win]
	for _, name := range names {
		found := false
		for _, s := range existing {
			if s == name {
				found = true
				break
			}
		}
		if !found {
			existing = append(existing, name)
		}
	}
	l.states[win] = existing
}

func (l *LinuxFeatures) stateFor(win xproto.Window) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.states[win]...)
}

// applyState writes the remembered states as the window's pre-map state and,
// for an already mapped window, asks the window manager to add each one.
func (l *LinuxFeatures) applyState(xu *xgbutil.XUtil, win xproto.Window) error {
	states := l.stateFor(win)
	if len(states) == 0 {
		return nil
	}
	if err := ewmh.WmStateSet(xu, win, states); err != nil {
		return fmt.Errorf("set _NET_WM_STATE: %w", err)
	}
	mapped, err := l.mapped(xu, win)
	if err != nil || !mapped {
		return err
	}
	for _, s := range states {
		if err := ewmh.WmStateReq(xu, win, ewmh.StateAdd, s); err != nil {
			return fmt.Errorf("request %s: %w", s, err)
		}
	}
	return nil
}

func (l *LinuxFeatures) mapped(xu *xgbutil.XUtil, win xproto.Window) (bool, error) {
	attrs, err := xproto.GetWindowAttributes(xu.Conn(), win).Reply()
	if err != nil {
		return false, fmt.Errorf("get window attributes: %w", err)
	}
	return attrs.MapState == xproto.MapStateViewable, nil
}

// ConvertToPanel marks the window as a utility window kept off the taskbar
// and pager.
func (l *LinuxFeatures) ConvertToPanel(handle WindowHandle) error {
	win, err := window(handle)
	if err != nil {
		return err
	}
	xu, err := l.conn()
	if err != nil {
		return err
	}
	if err := ewmh.WmWindowTypeSet(xu, win, []string{"_NET_WM_WINDOW_TYPE_UTILITY"}); err != nil {
		return fmt.Errorf("set window type: %w", err)
	}
	l.addState(win, "_NET_WM_STATE_SKIP_TASKBAR", "_NET_WM_STATE_SKIP_PAGER")
	return l.applyState(xu, win)
}

// SetFloatingLevel keeps the window above normal and full-screen windows.
func (l *LinuxFeatures) SetFloatingLevel(handle WindowHandle) error {
	win, err := window(handle)
	if err != nil {
		return err
	}
	xu, err := l.conn()
	if err != nil {
		return err
	}
	l.addState(win, "_NET_WM_STATE_ABOVE")
	return l.applyState(xu, win)
}

// SetCrossSpaceBehavior places the window on every virtual desktop.
func (l *LinuxFeatures) SetCrossSpaceBehavior(handle WindowHandle) error {
	win, err := window(handle)
	if err != nil {
		return err
	}
	xu, err := l.conn()
	if err != nil {
		return err
	}
	if err := ewmh.WmDesktopSet(xu, win, allDesktops); err != nil {
		return fmt.Errorf("set _NET_WM_DESKTOP: %w", err)
	}
	l.addState(win, "_NET_WM_STATE_STICKY")
	return l.applyState(xu, win)
}

// AllowNonActivatingKey sets the ICCCM input hint so the window manager will
// hand keyboard focus to the utility window.
func (l *LinuxFeatures) AllowNonActivatingKey(handle WindowHandle) error {
	win, err := window(handle)
	if err != nil {
		return err
	}
	xu, err := l.conn()
	if err != nil {
		return err
	}
	hints, err := icccm.WmHintsGet(xu, win)
	if err != nil {
		hints = &icccm.Hints{}
	}
	hints.Flags |= icccm.HintInput
	hints.Input = 1
	if err := icccm.WmHintsSet(xu, win, hints); err != nil {
		return fmt.Errorf("set WM_HINTS: %w", err)
	}
	return nil
}

// OrderFrontAndFocus raises the window and asks the window manager to make it
// the active window.
func (l *LinuxFeatures) OrderFrontAndFocus(handle WindowHandle) error {
	win, err := window(handle)
	if err != nil {
		return err
	}
	xu, err := l.conn()
	if err != nil {
		return err
	}
	if err := l.applyState(xu, win); err != nil {
		return err
	}
	xproto.MapWindow(xu.Conn(), win)
	if err := ewmh.RestackWindow(xu, win); err != nil {
		return fmt.Errorf("restack: %w", err)
	}
	if err := ewmh.ActiveWindowReq(xu, win); err != nil {
		return fmt.Errorf("activate: %w", err)
	}
	return nil
}

// OrderOut unmaps the window without destroying it.
func (l *LinuxFeatures) OrderOut(handle WindowHandle) error {
	win, err := window(handle)
	if err != nil {
		return err
	}
	xu, err := l.conn()
	if err != nil {
		return err
	}
	if err := xproto.UnmapWindowChecked(xu.Conn(), win).Check(); err != nil {
		return fmt.Errorf("unmap: %w", err)
	}
	return nil
}

// IsOnScreen reports whether the window is mapped and viewable.
func (l *LinuxFeatures) IsOnScreen(handle WindowHandle) (bool, error) {
	win, err := window(handle)
	if err != nil {
		return false, err
	}
	xu, err := l.conn()
	if err != nil {
		return false, err
	}
	return l.mapped(xu, win)
}

// WatchResignKey listens for FocusOut on the window. Focus moving to a child
// window or being grabbed by a keyboard shortcut does not count.
func (l *LinuxFeatures) WatchResignKey(handle WindowHandle, fn func()) error {
	win, err := window(handle)
	if err != nil {
		return err
	}
	xu, err := l.conn()
	if err != nil {
		return err
	}
	if err := xwindow.New(xu, win).Listen(xproto.EventMaskFocusChange); err != nil {
		return fmt.Errorf("listen for focus changes: %w", err)
	}
	xevent.FocusOutFun(func(_ *xgbutil.XUtil, ev xevent.FocusOutEvent) {
		if ev.Mode != xproto.NotifyModeNormal || ev.Detail == xproto.NotifyDetailInferior {
			return
		}
		fn()
	}).Connect(xu, win)

	l.mu.Lock()
	start := !l.looping
	l.looping = true
	l.mu.Unlock()
	if start {
		go xevent.Main(xu)
	}
	return nil
}

// MoveWindowTo moves the window's top-left corner. X11 has no scaling, so
// logical units are pixels.
func (l *LinuxFeatures) MoveWindowTo(handle WindowHandle, x, y float64) error {
	win, err := window(handle)
	if err != nil {
		return err
	}
	xu, err := l.conn()
	if err != nil {
		return err
	}
	xwindow.New(xu, win).Move(int(x), int(y))
	return nil
}

// GetWindowRect returns the window's position in root coordinates and size.
func (l *LinuxFeatures) GetWindowRect(handle WindowHandle) (geometry.Rect, error) {
	win, err := window(handle)
	if err != nil {
		return geometry.Rect{}, err
	}
	xu, err := l.conn()
	if err != nil {
		return geometry.Rect{}, err
	}
	geom, err := xproto.GetGeometry(xu.Conn(), xproto.Drawable(win)).Reply()
	if err != nil {
		return geometry.Rect{}, fmt.Errorf("get geometry: %w", err)
	}
	translate, err := xproto.TranslateCoordinates(xu.Conn(), win, xu.RootWin(), 0, 0).Reply()
	if err != nil {
		return geometry.Rect{}, fmt.Errorf("translate coordinates: %w", err)
	}
	return geometry.Rect{
		Origin: geometry.Point{X: float64(translate.DstX), Y: float64(translate.DstY)},
		Size:   geometry.Size{Width: float64(geom.Width), Height: float64(geom.Height)},
	}, nil
}

// PointerLocation returns the pointer position relative to the root window.
func (l *LinuxFeatures) PointerLocation() (geometry.Point, error) {
	xu, err := l.conn()
	if err != nil {
		return geometry.Point{}, err
	}
	pointer, err := xproto.QueryPointer(xu.Conn(), xu.RootWin()).Reply()
	if err != nil {
		return geometry.Point{}, fmt.Errorf("query pointer: %w", err)
	}
	return geometry.Point{X: float64(pointer.RootX), Y: float64(pointer.RootY)}, nil
}

// Screens enumerates active RandR outputs.
func (l *LinuxFeatures) Screens() ([]geometry.Screen, error) {
	xu, err := l.conn()
	if err != nil {
		return nil, err
	}
	resources, err := randr.GetScreenResources(xu.Conn(), xu.RootWin()).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var screens []geometry.Screen
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(xu.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		// Skip disabled CRTCs
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Monitor%d", i)
		if out, err := randr.GetOutputInfo(xu.Conn(), info.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(out.Name)
		}

		screens = append(screens, geometry.Screen{
			Name: name,
			Frame: geometry.Rect{
				Origin: geometry.Point{X: float64(info.X), Y: float64(info.Y)},
				Size:   geometry.Size{Width: float64(info.Width), Height: float64(info.Height)},
			},
			ScaleFactor: 1,
		})
	}
	if len(screens) == 0 {
		return nil, geometry.ErrNoScreens
	}
	return screens, nil
}

// SetAccessoryPolicy is a no-op; the utility window type already keeps the
// overlay out of the taskbar.
func (l *LinuxFeatures) SetAccessoryPolicy() error {
	return nil
}

// Close stops the event loop and disconnects from the X server.
func (l *LinuxFeatures) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.xu == nil {
		return nil
	}
	if l.looping {
		xevent.Quit(l.xu)
	}
	l.xu.Conn().Close()
	l.xu = nil
	return nil
}

// Global instance
var Features PlatformFeatures = NewLinuxFeatures()
