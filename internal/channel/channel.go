// Package channel keeps a websocket connection to the command server open for
// the life of the process and hands every text frame to a callback.
package channel

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// DefaultBackoff is the wait between a failed connect or read and the next
// attempt.
const DefaultBackoff = time.Second

// State of the connection.
type State int

const (
	Disconnected State = iota
	Connected
	Reading
)

func (s State) String() string {
	switch s {
	case Connected:
		return "connected"
	case Reading:
		return "reading"
	default:
		return "disconnected"
	}
}

// Conn is an open websocket connection.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Dialer opens connections.
type Dialer interface {
	DialContext(ctx context.Context, url string) (Conn, error)
}

// WebsocketDialer dials with gorilla/websocket.
type WebsocketDialer struct {
	HandshakeTimeout time.Duration
}

func (d WebsocketDialer) DialContext(ctx context.Context, url string) (Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Options configure a Channel.
type Options struct {
	Endpoint string
	Dialer   Dialer        // defaults to WebsocketDialer
	Backoff  time.Duration // defaults to DefaultBackoff
	// Sleep waits between attempts; it returns early with ctx's error.
	Sleep   func(ctx context.Context, d time.Duration) error
	OnState func(State)
	Logger  *zap.Logger
}

// Channel is the reconnecting reader.
type Channel struct {
	opts   Options
	logger *zap.Logger

	mu    sync.RWMutex
	state State
}

// New creates a channel in the Disconnected state.
func New(opts Options) *Channel {
	if opts.Dialer == nil {
		opts.Dialer = WebsocketDialer{HandshakeTimeout: 5 * time.Second}
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Channel{
		opts:   opts,
		logger: logger.With(zap.String("endpoint", opts.Endpoint)),
	}
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	changed := c.state != s
	c.state = s
	c.mu.Unlock()
	if !changed {
		return
	}
	c.logger.Info("channel state", zap.Stringer("state", s))
	if c.opts.OnState != nil {
		c.opts.OnState(s)
	}
}

// Run connects and reads until ctx is cancelled, calling onMessage for each
// text frame in arrival order. Any connect or read failure is followed by
// one backoff interval and a fresh attempt. It returns ctx's error.
func (c *Channel) Run(ctx context.Context, onMessage func(string)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := c.opts.Dialer.DialContext(ctx, c.opts.Endpoint)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Info("connect failed", zap.Error(err))
			if err := c.opts.Sleep(ctx, c.opts.Backoff); err != nil {
				return err
			}
			continue
		}

		c.setState(Connected)
		err = c.read(ctx, conn, onMessage)
		c.setState(Disconnected)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Info("connection lost", zap.Error(err))
		if err := c.opts.Sleep(ctx, c.opts.Backoff); err != nil {
			return err
		}
	}
}

func (c *Channel) read(ctx context.Context, conn Conn, onMessage func(string)) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	for first := true; ; first = false {
		messageType, p, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if first {
			c.setState(Reading)
		}
		if messageType != websocket.TextMessage {
			continue
		}
		onMessage(string(p))
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
