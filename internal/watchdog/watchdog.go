// Package watchdog exits the overlay when the process that launched it dies.
package watchdog

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is how often the parent is polled.
const DefaultInterval = 3 * time.Second

// Options configure Watch.
type Options struct {
	PID      int
	Interval time.Duration
	// Alive reports whether pid still runs. Defaults to ProcessAlive.
	Alive  func(pid int) bool
	Logger *zap.Logger
}

// Watch polls opts.PID until it is gone, then calls onExit once and returns.
// It returns early without calling onExit when ctx is cancelled. A PID of zero
// or less disables the watch.
func Watch(ctx context.Context, opts Options, onExit func()) {
	if opts.PID <= 0 {
		return
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Alive == nil {
		opts.Alive = ProcessAlive
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for {
		if !opts.Alive(opts.PID) {
			logger.Info("parent process exited", zap.Int("pid", opts.PID))
			onExit()
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
