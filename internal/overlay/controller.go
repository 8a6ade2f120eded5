// Package overlay owns the overlay window's visibility and focus.
package overlay

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"spotlight/internal/command"
	"spotlight/internal/config"
	"spotlight/internal/geometry"
	"spotlight/internal/platform"
)

var ErrNotInitialized = errors.New("overlay not initialized")

// Visibility is the controller's view of the window.
type Visibility int

const (
	Hidden Visibility = iota
	Visible
)

func (v Visibility) String() string {
	if v == Visible {
		return "visible"
	}
	return "hidden"
}

// Panel is the native window the controller drives.
type Panel interface {
	SetFloatingLevel() error
	SetCrossSpaceBehavior() error
	AllowNonActivatingKeyStatus() error
	OnFocusLost(handler func()) error
	Show() error
	Hide() error
	IsVisible() (bool, error)
	MoveTo(origin geometry.Point) error
	Frame() (geometry.Rect, error)
}

// Content is the view hosted in the panel.
type Content interface {
	FocusInput() error
	SelectAll() error
}

// MonitorLocator finds the display under the pointer.
type MonitorLocator interface {
	MonitorUnderCursor() (geometry.Monitor, bool, error)
}

// PanelFactory converts the overlay window into a panel.
type PanelFactory func() (Panel, error)

// Options configure a Controller.
type Options struct {
	Content   Content
	Monitors  MonitorLocator
	Placement string // config.PlacementCenter or config.PlacementLiteral
	// KeepOnFocusLoss disables hiding when the panel resigns key status.
	KeepOnFocusLoss bool
	Logger          *zap.Logger
}

// Controller is the overlay state machine. All methods except Visibility
// must be called on the GUI thread.
type Controller struct {
	opts   Options
	logger *zap.Logger

	initOnce sync.Once
	initErr  error

	mu         sync.RWMutex
	panel      Panel
	visibility Visibility
}

// NewController creates a controller in the Hidden state.
func NewController(opts Options) *Controller {
	if opts.Placement == "" {
		opts.Placement = config.PlacementCenter
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{opts: opts, logger: logger}
}

// Initialize converts the window and applies the panel behaviour. Only the
// first call does any work; later calls return its result.
func (c *Controller) Initialize(create PanelFactory) error {
	c.initOnce.Do(func() {
		c.initErr = c.initialize(create)
	})
	return c.initErr
}

func (c *Controller) initialize(create PanelFactory) error {
	p, err := create()
	if err != nil {
		return err
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"set floating level", p.SetFloatingLevel},
		{"set cross-space behavior", p.SetCrossSpaceBehavior},
		{"allow non-activating key", p.AllowNonActivatingKeyStatus},
	}
	if !c.opts.KeepOnFocusLoss {
		steps = append(steps, struct {
			name string
			fn   func() error
		}{"watch focus loss", func() error { return p.OnFocusLost(c.focusLost) }})
	}
	for _, step := range steps {
		err := step.fn()
		switch {
		case err == nil:
		case errors.Is(err, platform.ErrUnsupported):
			c.logger.Warn("panel capability unavailable", zap.String("step", step.name))
		default:
			return err
		}
	}

	c.mu.Lock()
	c.panel = p
	c.visibility = Hidden
	c.mu.Unlock()
	c.logger.Info("panel initialized")
	return nil
}

// Visibility returns the current state. Safe from any goroutine.
func (c *Controller) Visibility() Visibility {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.visibility
}

func (c *Controller) setVisibility(v Visibility) {
	c.mu.Lock()
	c.visibility = v
	c.mu.Unlock()
}

func (c *Controller) currentPanel() Panel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.panel
}

// Toggle hides a visible overlay and shows a hidden one. The window's
// on-screen state wins over the recorded one when it can be queried.
func (c *Controller) Toggle(payload command.Payload) {
	if p := c.currentPanel(); p != nil {
		c.sync(p)
	}
	if c.Visibility() == Visible {
		c.Hide()
		return
	}
	c.Show(payload)
}

// Show brings the overlay up with input focus, even when it is already
// visible. Each step is attempted regardless of earlier failures.
func (c *Controller) Show(payload command.Payload) {
	p := c.currentPanel()
	if p == nil {
		c.logger.Warn("show ignored", zap.Error(ErrNotInitialized))
		return
	}

	if err := p.Show(); err != nil {
		c.logger.Warn("show panel failed", zap.Error(err))
	} else {
		c.setVisibility(Visible)
	}
	c.sync(p)
	if c.opts.Content != nil {
		if err := c.opts.Content.FocusInput(); err != nil {
			c.logger.Warn("focus input failed", zap.Error(err))
		}
	}

	if pos := payload.Position; pos != nil && pos.Origin == command.OriginCursorMonitor {
		if err := c.position(p, pos); err != nil {
			c.logger.Warn("position panel failed", zap.Error(err))
		}
	}

	if payload.SelectAll && c.opts.Content != nil {
		if err := c.opts.Content.SelectAll(); err != nil {
			c.logger.Warn("select all failed", zap.Error(err))
		}
	}
}

func (c *Controller) position(p Panel, pos *command.Position) error {
	if c.opts.Placement == config.PlacementLiteral {
		return p.MoveTo(geometry.Point{X: pos.X, Y: pos.Y})
	}
	if c.opts.Monitors == nil {
		return nil
	}

	mon, ok, err := c.opts.Monitors.MonitorUnderCursor()
	if err != nil {
		return err
	}
	if !ok {
		c.logger.Debug("no monitor under cursor, keeping position")
		return nil
	}
	frame, err := p.Frame()
	if err != nil {
		return err
	}
	origin := geometry.Center(mon, frame.Size)
	c.logger.Debug("centering on monitor",
		zap.String("monitor", mon.Name),
		zap.Float64("x", origin.X),
		zap.Float64("y", origin.Y))
	return p.MoveTo(origin)
}

// Hide orders the overlay out. Failures are logged and otherwise ignored; a
// window that stays on screen is still recorded as Visible.
func (c *Controller) Hide() {
	p := c.currentPanel()
	if p == nil {
		c.logger.Warn("hide ignored", zap.Error(ErrNotInitialized))
		return
	}
	if err := p.Hide(); err != nil {
		c.logger.Warn("hide panel failed", zap.Error(err))
	}
	c.setVisibility(Hidden)
	c.sync(p)
}

// sync records whether the window is actually on screen. A failed query
// keeps the recorded state.
func (c *Controller) sync(p Panel) {
	onScreen, err := p.IsVisible()
	if err != nil {
		c.logger.Debug("query visibility failed", zap.Error(err))
		return
	}
	if onScreen {
		c.setVisibility(Visible)
	} else {
		c.setVisibility(Hidden)
	}
}

func (c *Controller) focusLost() {
	c.logger.Debug("focus lost")
	c.Hide()
}
