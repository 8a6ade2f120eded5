//go:build darwin

package platform

/*
#cgo CFLAGS: -x objective-c -fmodules -fobjc-arc
#cgo LDFLAGS: -framework Cocoa

#import <Cocoa/Cocoa.h>
#import <objc/runtime.h>
#include <stdint.h>
#include <string.h>

// Go callback
void spotlightPanelDidResignKey(uintptr_t handle);

typedef struct {
    double x, y, w, h, scale;
    char name[128];
} SpotlightScreen;

static NSWindow *windowFor(uintptr_t handle) {
    return (__bridge NSWindow *)(void *)handle;
}

// Height of the screen holding the menu bar; Cocoa's global space has its
// origin at that screen's bottom-left corner.
static CGFloat primaryHeight(void) {
    NSArray<NSScreen *> *screens = [NSScreen screens];
    if (screens.count == 0) return 0;
    return screens[0].frame.size.height;
}

static BOOL yesImp(id self, SEL _cmd) { return YES; }

static Class panelClass(void) {
    static Class cls = nil;
    static dispatch_once_t once;
    dispatch_once(&once, ^{
        cls = objc_allocateClassPair([NSPanel class], "SpotlightPanel", 0);
        const char *types = method_getTypeEncoding(
            class_getInstanceMethod([NSWindow class], @selector(canBecomeKeyWindow)));
        class_addMethod(cls, @selector(canBecomeKeyWindow), (IMP)yesImp, types);
        objc_registerClassPair(cls);
    });
    return cls;
}

static int convertToPanel(uintptr_t handle) {
    NSWindow *w = windowFor(handle);
    if (w == nil) return -1;
    if ([w isKindOfClass:panelClass()]) return 0;
    object_setClass(w, panelClass());
    return 0;
}

static int setFloatingLevel(uintptr_t handle) {
    NSWindow *w = windowFor(handle);
    if (w == nil) return -1;
    [w setLevel:NSMainMenuWindowLevel + 1];
    return 0;
}

static int setCrossSpaceBehavior(uintptr_t handle) {
    NSWindow *w = windowFor(handle);
    if (w == nil) return -1;
    [w setCollectionBehavior:NSWindowCollectionBehaviorTransient |
                             NSWindowCollectionBehaviorMoveToActiveSpace |
                             NSWindowCollectionBehaviorFullScreenAuxiliary];
    return 0;
}

static int allowNonActivatingKey(uintptr_t handle) {
    NSWindow *w = windowFor(handle);
    if (w == nil) return -1;
    if (![w isKindOfClass:[NSPanel class]]) return -2;
    [w setStyleMask:[w styleMask] | NSWindowStyleMaskNonactivatingPanel];
    [(NSPanel *)w setFloatingPanel:YES];
    [(NSPanel *)w setBecomesKeyOnlyIfNeeded:NO];
    [w setHidesOnDeactivate:NO];
    return 0;
}

static int orderFrontAndFocus(uintptr_t handle) {
    NSWindow *w = windowFor(handle);
    if (w == nil) return -1;
    [w orderFrontRegardless];
    [w makeKeyWindow];
    if (![w makeFirstResponder:[w contentView]]) return -3;
    return 0;
}

static int orderOut(uintptr_t handle) {
    NSWindow *w = windowFor(handle);
    if (w == nil) return -1;
    [w orderOut:nil];
    return 0;
}

static int isVisible(uintptr_t handle) {
    NSWindow *w = windowFor(handle);
    if (w == nil) return -1;
    return [w isVisible] ? 1 : 0;
}

static int watchResignKey(uintptr_t handle) {
    NSWindow *w = windowFor(handle);
    if (w == nil) return -1;
    [[NSNotificationCenter defaultCenter]
        addObserverForName:NSWindowDidResignKeyNotification
                    object:w
                     queue:nil
                usingBlock:^(NSNotification *note) {
                    spotlightPanelDidResignKey(handle);
                }];
    return 0;
}

static int moveTopLeft(uintptr_t handle, double x, double y) {
    NSWindow *w = windowFor(handle);
    if (w == nil) return -1;
    [w setFrameTopLeftPoint:NSMakePoint(x, primaryHeight() - y)];
    return 0;
}

static int windowRect(uintptr_t handle, double *x, double *y, double *width, double *height) {
    NSWindow *w = windowFor(handle);
    if (w == nil) return -1;
    NSRect f = [w frame];
    *x = f.origin.x;
    *y = primaryHeight() - (f.origin.y + f.size.height);
    *width = f.size.width;
    *height = f.size.height;
    return 0;
}

static void pointerLocation(double *x, double *y) {
    NSPoint p = [NSEvent mouseLocation];
    *x = p.x;
    *y = primaryHeight() - p.y;
}

static int screens(SpotlightScreen *out, int max) {
    NSArray<NSScreen *> *all = [NSScreen screens];
    CGFloat top = primaryHeight();
    int n = 0;
    for (NSScreen *s in all) {
        if (n >= max) break;
        NSRect f = s.frame;
        out[n].x = f.origin.x;
        out[n].y = top - (f.origin.y + f.size.height);
        out[n].w = f.size.width;
        out[n].h = f.size.height;
        out[n].scale = s.backingScaleFactor;
        out[n].name[0] = 0;
        if (@available(macOS 10.15, *)) {
            const char *name = [s.localizedName UTF8String];
            if (name != NULL) {
                strncpy(out[n].name, name, sizeof(out[n].name) - 1);
                out[n].name[sizeof(out[n].name) - 1] = 0;
            }
        }
        n++;
    }
    return n;
}

static void setAccessoryPolicy(void) {
    [NSApp setActivationPolicy:NSApplicationActivationPolicyAccessory];
}
*/
import "C"

import (
	"errors"
	"fmt"
	"sync"

	"spotlight/internal/geometry"
)

const maxScreens = 16

var errNotPanel = errors.New("window is not a panel")

// DarwinFeatures implements PlatformFeatures for macOS through AppKit.
type DarwinFeatures struct{}

// NewDarwinFeatures creates a new macOS platform features instance
func NewDarwinFeatures() *DarwinFeatures {
	return &DarwinFeatures{}
}

func check(op string, rc C.int) error {
	switch rc {
	case 0:
		return nil
	case -1:
		return fmt.Errorf("%s: %w", op, ErrNoWindow)
	case -2:
		return fmt.Errorf("%s: %w", op, errNotPanel)
	default:
		return fmt.Errorf("%s failed (%d)", op, int(rc))
	}
}

// ConvertToPanel swaps the window's class for an NSPanel subclass that may
// become key.
func (d *DarwinFeatures) ConvertToPanel(handle WindowHandle) error {
	return check("convert to panel", C.convertToPanel(C.uintptr_t(handle)))
}

// SetFloatingLevel puts the window one level above the main menu.
func (d *DarwinFeatures) SetFloatingLevel(handle WindowHandle) error {
	return check("set level", C.setFloatingLevel(C.uintptr_t(handle)))
}

// SetCrossSpaceBehavior makes the panel transient, follow the active space and
// show over full-screen apps.
func (d *DarwinFeatures) SetCrossSpaceBehavior(handle WindowHandle) error {
	return check("set collection behavior", C.setCrossSpaceBehavior(C.uintptr_t(handle)))
}

// AllowNonActivatingKey adds the non-activating style mask. The panel class
// installed by ConvertToPanel keeps it focusable.
func (d *DarwinFeatures) AllowNonActivatingKey(handle WindowHandle) error {
	return check("set style mask", C.allowNonActivatingKey(C.uintptr_t(handle)))
}

func (d *DarwinFeatures) OrderFrontAndFocus(handle WindowHandle) error {
	return check("order front", C.orderFrontAndFocus(C.uintptr_t(handle)))
}

func (d *DarwinFeatures) OrderOut(handle WindowHandle) error {
	return check("order out", C.orderOut(C.uintptr_t(handle)))
}

func (d *DarwinFeatures) IsOnScreen(handle WindowHandle) (bool, error) {
	rc := C.isVisible(C.uintptr_t(handle))
	if rc < 0 {
		return false, check("is visible", rc)
	}
	return rc == 1, nil
}

var (
	resignMu       sync.Mutex
	resignHandlers = map[WindowHandle]func(){}
)

// WatchResignKey observes NSWindowDidResignKeyNotification for the window.
func (d *DarwinFeatures) WatchResignKey(handle WindowHandle, fn func()) error {
	resignMu.Lock()
	_, registered := resignHandlers[handle]
	resignHandlers[handle] = fn
	resignMu.Unlock()
	if registered {
		return nil
	}
	return check("observe resign key", C.watchResignKey(C.uintptr_t(handle)))
}

//export spotlightPanelDidResignKey
func spotlightPanelDidResignKey(handle C.uintptr_t) {
	resignMu.Lock()
	fn := resignHandlers[WindowHandle(handle)]
	resignMu.Unlock()
	if fn != nil {
		fn()
	}
}

func (d *DarwinFeatures) MoveWindowTo(handle WindowHandle, x, y float64) error {
	return check("move", C.moveTopLeft(C.uintptr_t(handle), C.double(x), C.double(y)))
}

func (d *DarwinFeatures) GetWindowRect(handle WindowHandle) (geometry.Rect, error) {
	var x, y, w, h C.double
	if err := check("window frame", C.windowRect(C.uintptr_t(handle), &x, &y, &w, &h)); err != nil {
		return geometry.Rect{}, err
	}
	return geometry.Rect{
		Origin: geometry.Point{X: float64(x), Y: float64(y)},
		Size:   geometry.Size{Width: float64(w), Height: float64(h)},
	}, nil
}

func (d *DarwinFeatures) PointerLocation() (geometry.Point, error) {
	var x, y C.double
	C.pointerLocation(&x, &y)
	return geometry.Point{X: float64(x), Y: float64(y)}, nil
}

// Screens lists NSScreen frames converted to a top-left origin.
func (d *DarwinFeatures) Screens() ([]geometry.Screen, error) {
	var buf [maxScreens]C.SpotlightScreen
	n := int(C.screens(&buf[0], C.int(maxScreens)))
	if n == 0 {
		return nil, geometry.ErrNoScreens
	}
	out := make([]geometry.Screen, 0, n)
	for _, s := range buf[:n] {
		out = append(out, geometry.Screen{
			Name: C.GoString(&s.name[0]),
			Frame: geometry.Rect{
				Origin: geometry.Point{X: float64(s.x), Y: float64(s.y)},
				Size:   geometry.Size{Width: float64(s.w), Height: float64(s.h)},
			},
			ScaleFactor: float64(s.scale),
		})
	}
	return out, nil
}

// SetAccessoryPolicy hides the Dock icon and menu bar of the app.
func (d *DarwinFeatures) SetAccessoryPolicy() error {
	C.setAccessoryPolicy()
	return nil
}

// Global instance
var Features PlatformFeatures = NewDarwinFeatures()
