package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"go.uber.org/zap"

	"spotlight/internal/assets"
	"spotlight/internal/channel"
	"spotlight/internal/command"
	"spotlight/internal/config"
	"spotlight/internal/geometry"
	"spotlight/internal/logging"
	"spotlight/internal/overlay"
	"spotlight/internal/panel"
	"spotlight/internal/platform"
	"spotlight/internal/store"
	"spotlight/internal/theme"
	"spotlight/internal/ui"
	"spotlight/internal/watchdog"
)

// Options come from the command line and override the config file.
type Options struct {
	Port      int    // 0 keeps the configured port
	ParentPID int    // 0 disables the watchdog
	Host      string // empty keeps the configured host
	Debug     bool
	ConfigDir string
}

// App is the main application
type App struct {
	opts    Options
	config  *config.Config // saved settings plus command line overrides
	saved   *config.Config // what the settings window edits
	logger  *zap.Logger
	fyneApp fyne.App

	// UI components
	window     *ui.OverlayWindow
	tray       *ui.TrayManager
	settings   *ui.SettingsDialog
	controller *overlay.Controller
	dispatcher *command.Dispatcher

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	initErr error
}

// Run starts the application and blocks until it quits.
func Run(opts Options) error {
	if opts.ConfigDir != "" {
		config.SetDir(opts.ConfigDir)
	}
	saved := config.Get()
	reset := saved.Sanitize()
	cfg := effectiveConfig(saved, opts)

	logger, err := newLogger(cfg, opts.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync()
	if err := config.LoadErr(); err != nil {
		logger.Warn("config file ignored, using defaults", zap.Error(err))
	}
	for _, field := range reset {
		logger.Warn("invalid config value reset to default", zap.String("field", field))
	}
	logger.Info("starting",
		zap.String("server", cfg.ServerURL()),
		zap.Int("parent_pid", opts.ParentPID))

	a := &App{opts: opts, config: cfg, saved: saved, logger: logger}
	a.ctx, a.cancel = context.WithCancel(context.Background())
	defer a.cancel()

	padding := a.resolvePadding()

	// Initialize Fyne app
	a.fyneApp = app.NewWithID("com.spotlight.ui")
	a.fyneApp.SetIcon(assets.AppIcon())

	a.initUI(padding)

	lifecycle := a.fyneApp.Lifecycle()
	lifecycle.SetOnStarted(a.started)
	lifecycle.SetOnStopped(a.cancel)

	// Run the app (blocking)
	a.fyneApp.Run()

	a.shutdown()

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.initErr
}

// effectiveConfig applies the command line overrides to a copy of saved, so
// they never reach config.yaml through the settings window.
func effectiveConfig(saved *config.Config, opts Options) *config.Config {
	cfg := *saved
	if opts.Host != "" {
		cfg.ServerHost = opts.Host
	}
	if opts.Port > 0 {
		cfg.ServerPort = opts.Port
	}
	return &cfg
}

func newLogger(cfg *config.Config, debug bool) (*zap.Logger, error) {
	dir, err := config.LogDir()
	if err != nil {
		return nil, fmt.Errorf("log dir: %w", err)
	}
	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	return logging.New(logging.Options{Dir: dir, Level: level, Console: debug})
}

// resolvePadding asks the server for the theme paddings, falling back to the
// cache and then the config.
func (a *App) resolvePadding() theme.Padding {
	fallback := theme.Padding{Top: a.config.FallbackPaddingTop, Bottom: a.config.FallbackPaddingBottom}
	log := a.logger.Named("theme")

	var cache theme.Cache
	if dir, err := config.Dir(); err != nil {
		log.Warn("theme cache unavailable", zap.Error(err))
	} else if st, err := store.Open(dir); err != nil {
		log.Warn("theme cache unavailable", zap.Error(err))
	} else {
		defer st.Close()
		cache = st
	}

	client, err := theme.NewClient(a.config.ThemeURL())
	if err != nil {
		log.Warn("theme client unavailable", zap.Error(err))
		return fallback
	}
	server := fmt.Sprintf("%s:%d", a.config.ServerHost, a.config.ServerPort)
	padding, source := theme.Resolve(a.ctx, client, cache, server, fallback, log)
	log.Info("theme resolved",
		zap.String("source", string(source)),
		zap.Int("padding_top", padding.Top),
		zap.Int("padding_bottom", padding.Bottom))
	return padding
}

// initUI builds the window, controller and tray. Nothing is shown yet.
func (a *App) initUI(padding theme.Padding) {
	a.window = ui.NewOverlayWindow(a.fyneApp, ui.WindowOptions{
		Width:      a.config.WindowWidth,
		BaseHeight: a.config.BaseHeight,
		Padding:    padding,
		OnEscape:   func() { a.controller.Hide() },
	})

	a.controller = overlay.NewController(overlay.Options{
		Content:         a.window.Query(),
		Monitors:        geometry.NewResolver(platform.Features),
		Placement:       a.config.MouseScreenPlacement,
		KeepOnFocusLoss: !a.config.HideOnFocusLost,
		Logger:          a.logger.Named("overlay"),
	})
	a.dispatcher = command.NewDispatcher(a.controller, fyne.Do, a.logger.Named("command"))

	a.settings = ui.NewSettingsDialog(a.fyneApp, a.saved)
	a.settings.SetOnSave(func() {
		a.logger.Info("settings saved")
	})

	if a.config.ShowTray {
		a.tray = ui.NewTrayManager(a.fyneApp)
		a.tray.SetCallbacks(
			func() { a.controller.Show(command.Payload{}) },
			a.controller.Hide,
			a.settings.Show,
			a.quit,
		)
		if err := a.tray.Setup(); err != nil {
			a.logger.Warn("system tray setup failed", zap.Error(err))
			a.tray = nil
		}
	}
}

// started runs on the GUI thread once the driver is up. The window is shown
// once so the native window exists, converted, then ordered out.
func (a *App) started() {
	a.window.Window().Show()

	err := a.controller.Initialize(overlay.NativePanel(a.window.Window(), platform.Features))
	if err != nil {
		a.logger.Error("panel initialization failed", zap.Error(err))
		a.mu.Lock()
		a.initErr = fmt.Errorf("initialize panel: %w", err)
		a.mu.Unlock()
		a.fyneApp.Quit()
		return
	}
	a.controller.Hide()

	if err := platform.Features.SetAccessoryPolicy(); err != nil && !errors.Is(err, platform.ErrUnsupported) {
		a.logger.Warn("set accessory policy failed", zap.Error(err))
	}

	a.startChannel()
	a.startWatchdog()
}

func (a *App) startChannel() {
	ch := channel.New(channel.Options{
		Endpoint: a.config.ServerURL(),
		Dialer:   channel.WebsocketDialer{HandshakeTimeout: a.config.HandshakeTimeout},
		Backoff:  a.config.ReconnectBackoff,
		OnState: func(s channel.State) {
			if a.tray == nil {
				return
			}
			fyne.Do(func() { a.tray.SetChannelState(s) })
		},
		Logger: a.logger.Named("channel"),
	})

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		_ = ch.Run(a.ctx, a.dispatcher.Dispatch)
	}()
}

func (a *App) startWatchdog() {
	if a.opts.ParentPID <= 0 {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		watchdog.Watch(a.ctx, watchdog.Options{
			PID:      a.opts.ParentPID,
			Interval: a.config.ParentPollInterval,
			Logger:   a.logger.Named("watchdog"),
		}, func() {
			fyne.Do(a.quit)
		})
	}()
}

// quit shuts down the application. The panel is ordered out first so it does
// not linger on screen while the driver tears down.
func (a *App) quit() {
	a.cancel()
	if err := panel.HideCurrent(); err != nil {
		a.logger.Debug("hide panel on quit", zap.Error(err))
	}
	a.fyneApp.Quit()
}

// shutdown cancels background work and waits for it to stop.
func (a *App) shutdown() {
	a.logger.Info("shutting down")
	a.cancel()
	a.wg.Wait()
	if closer, ok := platform.Features.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.logger.Debug("close display connection", zap.Error(err))
		}
	}
	a.logger.Info("shutdown complete")
}
