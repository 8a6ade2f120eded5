package command

import (
	"go.uber.org/zap"
)

// Controller receives decoded commands. Its methods run on the GUI thread.
type Controller interface {
	Toggle(Payload)
	Show(Payload)
}

// Dispatcher turns raw channel messages into controller calls.
type Dispatcher struct {
	controller Controller
	post       func(func())
	logger     *zap.Logger
}

// NewDispatcher creates a dispatcher. post must run queued functions on the
// GUI thread in the order they were posted (fyne.Do does); nil calls the
// controller inline.
func NewDispatcher(controller Controller, post func(func()), logger *zap.Logger) *Dispatcher {
	if post == nil {
		post = func(fn func()) { fn() }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{controller: controller, post: post, logger: logger}
}

// Dispatch decodes raw and hands the matching controller call to the GUI
// thread. Malformed and unrecognised messages are dropped.
func (d *Dispatcher) Dispatch(raw string) {
	cmd, err := Parse(raw)
	if err != nil {
		d.logger.Debug("dropping malformed message", zap.Int("bytes", len(raw)), zap.Error(err))
		return
	}

	switch cmd.Kind {
	case ToggleApp:
		d.logger.Debug("dispatch", zap.Stringer("command", cmd.Kind))
		d.post(func() { d.controller.Toggle(cmd.Payload) })
	case ShowApp:
		d.logger.Debug("dispatch", zap.Stringer("command", cmd.Kind))
		d.post(func() { d.controller.Show(cmd.Payload) })
	default:
		d.logger.Debug("ignoring message", zap.String("method", cmd.Method))
	}
}
