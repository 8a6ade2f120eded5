package ui

import (
	"fmt"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"spotlight/internal/config"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// SettingsForm is the editable subset of the config, as entered by the user.
type SettingsForm struct {
	Host            string
	Port            string
	Placement       string
	HideOnFocusLost bool
	LogLevel        string
}

// FormFrom copies the editable fields out of cfg.
func FormFrom(cfg *config.Config) SettingsForm {
	return SettingsForm{
		Host:            cfg.ServerHost,
		Port:            strconv.Itoa(cfg.ServerPort),
		Placement:       cfg.MouseScreenPlacement,
		HideOnFocusLost: cfg.HideOnFocusLost,
		LogLevel:        cfg.LogLevel,
	}
}

// Apply validates the form against a copy of cfg and only writes cfg back
// when the result is valid.
func (f SettingsForm) Apply(cfg *config.Config) error {
	port, err := strconv.Atoi(strings.TrimSpace(f.Port))
	if err != nil {
		return fmt.Errorf("%w: port %q is not a number", config.ErrInvalidConfig, f.Port)
	}
	next := *cfg
	next.ServerHost = strings.TrimSpace(f.Host)
	next.ServerPort = port
	next.MouseScreenPlacement = f.Placement
	next.HideOnFocusLost = f.HideOnFocusLost
	next.LogLevel = f.LogLevel
	if err := next.Validate(); err != nil {
		return err
	}
	*cfg = next
	return nil
}

// SettingsDialog manages the settings window
type SettingsDialog struct {
	app    fyne.App
	config *config.Config
	onSave func()
	window fyne.Window
}

// NewSettingsDialog creates a new settings dialog
func NewSettingsDialog(app fyne.App, cfg *config.Config) *SettingsDialog {
	return &SettingsDialog{app: app, config: cfg}
}

// SetOnSave sets the callback run after the config was written.
func (s *SettingsDialog) SetOnSave(onSave func()) {
	s.onSave = onSave
}

// Show displays the settings window, reusing an open one.
func (s *SettingsDialog) Show() {
	if s.window != nil {
		s.window.RequestFocus()
		return
	}
	window := s.app.NewWindow("Spotlight Settings")
	window.Resize(fyne.NewSize(360, 320))
	window.SetOnClosed(func() { s.window = nil })
	s.window = window

	form := FormFrom(s.config)

	// --- Server ---
	serverLabel := widget.NewLabel("Server")
	serverLabel.TextStyle = fyne.TextStyle{Bold: true}
	hostEntry := widget.NewEntry()
	hostEntry.SetText(form.Host)
	portEntry := widget.NewEntry()
	portEntry.SetText(form.Port)

	serverSection := container.NewVBox(
		serverLabel,
		container.NewGridWithColumns(2, widget.NewLabel("Host"), hostEntry),
		container.NewGridWithColumns(2, widget.NewLabel("Port"), portEntry),
	)

	// --- Behavior ---
	behaviorLabel := widget.NewLabel("Behavior")
	behaviorLabel.TextStyle = fyne.TextStyle{Bold: true}
	placement := widget.NewSelect([]string{config.PlacementCenter, config.PlacementLiteral}, nil)
	placement.SetSelected(form.Placement)
	hideCheck := widget.NewCheck("Hide when focus is lost", nil)
	hideCheck.SetChecked(form.HideOnFocusLost)
	level := widget.NewSelect(logLevels, nil)
	level.SetSelected(form.LogLevel)

	behaviorSection := container.NewVBox(
		behaviorLabel,
		container.NewGridWithColumns(2, widget.NewLabel("Mouse screen"), placement),
		hideCheck,
		container.NewGridWithColumns(2, widget.NewLabel("Log level"), level),
		widget.NewLabel("Changes apply after restart."),
	)

	// --- Buttons ---
	saveBtn := widget.NewButton("Save", func() {
		edited := SettingsForm{
			Host:            hostEntry.Text,
			Port:            portEntry.Text,
			Placement:       placement.Selected,
			HideOnFocusLost: hideCheck.Checked,
			LogLevel:        level.Selected,
		}
		if err := edited.Apply(s.config); err != nil {
			dialog.ShowError(err, window)
			return
		}
		if err := s.config.Save(); err != nil {
			dialog.ShowError(err, window)
			return
		}
		if s.onSave != nil {
			s.onSave()
		}
		dialog.ShowInformation("Saved", "Settings saved", window)
	})
	saveBtn.Importance = widget.HighImportance

	closeBtn := widget.NewButton("Close", func() {
		window.Close()
	})

	buttons := container.NewHBox(layout.NewSpacer(), saveBtn, closeBtn, layout.NewSpacer())

	content := container.NewVBox(
		serverSection,
		widget.NewSeparator(),
		behaviorSection,
		widget.NewSeparator(),
		buttons,
	)
	window.SetContent(container.NewPadded(content))
	window.Show()
}
