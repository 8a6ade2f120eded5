package channel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type frame struct {
	kind int
	data string
}

// fakeConn serves frames until they run out, then blocks until closed.
type fakeConn struct {
	frames chan frame
	closed chan struct{}
	once   sync.Once
}

func newFakeConn(frames ...frame) *fakeConn {
	ch := make(chan frame, len(frames))
	for _, f := range frames {
		ch <- f
	}
	return &fakeConn{frames: ch, closed: make(chan struct{})}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case f := <-c.frames:
		return f.kind, []byte(f.data), nil
	case <-c.closed:
		return 0, nil, errors.New("use of closed connection")
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

type fakeDialer struct {
	mu       sync.Mutex
	failures int
	attempts int
	conns    []*fakeConn
}

func (d *fakeDialer) DialContext(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attempts++
	if d.attempts <= d.failures {
		return nil, errors.New("connection refused")
	}
	if len(d.conns) == 0 {
		return newFakeConn(), nil
	}
	conn := d.conns[0]
	d.conns = d.conns[1:]
	return conn, nil
}

func (d *fakeDialer) Attempts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attempts
}

type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.sleeps = append(s.sleeps, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sleeps)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "disconnected", Disconnected.String())
	assert.Equal(t, "connected", Connected.String())
	assert.Equal(t, "reading", Reading.String())
}

func TestRunRetriesUntilConnected(t *testing.T) {
	const failures = 3
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dialer := &fakeDialer{failures: failures, conns: []*fakeConn{newFakeConn(frame{websocket.TextMessage, "hello"})}}
	sleeper := &sleepRecorder{}
	reading := make(chan struct{})
	var states []State
	var mu sync.Mutex

	ch := New(Options{
		Endpoint: "ws://localhost:1/ws",
		Dialer:   dialer,
		Sleep:    sleeper.Sleep,
		OnState: func(s State) {
			mu.Lock()
			states = append(states, s)
			mu.Unlock()
			if s == Reading {
				close(reading)
			}
		},
		Logger: zaptest.NewLogger(t),
	})
	assert.Equal(t, Disconnected, ch.State())

	done := make(chan error, 1)
	go func() { done <- ch.Run(ctx, func(string) {}) }()

	select {
	case <-reading:
	case <-time.After(5 * time.Second):
		t.Fatal("channel never started reading")
	}

	assert.Equal(t, failures+1, dialer.Attempts())
	assert.Equal(t, failures, sleeper.Count())
	sleeper.mu.Lock()
	for _, d := range sleeper.sleeps {
		assert.Equal(t, DefaultBackoff, d)
	}
	sleeper.mu.Unlock()
	assert.Equal(t, Reading, ch.State())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{Connected, Reading, Disconnected}, states)
}

func TestRunStaysConnectedUntilFirstRead(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn := newFakeConn()
	connected := make(chan struct{})
	var mu sync.Mutex
	var states []State
	ch := New(Options{
		Dialer: &fakeDialer{conns: []*fakeConn{conn}},
		Sleep:  func(ctx context.Context, d time.Duration) error { <-ctx.Done(); return ctx.Err() },
		OnState: func(s State) {
			mu.Lock()
			states = append(states, s)
			mu.Unlock()
			if s == Connected {
				close(connected)
			}
		},
	})
	done := make(chan error, 1)
	go func() { done <- ch.Run(ctx, func(string) {}) }()

	<-connected
	assert.Never(t, func() bool { return ch.State() == Reading }, 50*time.Millisecond, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return ch.State() == Disconnected }, 5*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{Connected, Disconnected}, states)
}

func TestRunDeliversTextFramesInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn := newFakeConn(
		frame{websocket.TextMessage, `{"Method":"ShowApp"}`},
		frame{websocket.BinaryMessage, "\x01\x02"},
		frame{websocket.TextMessage, `{"Method":"ToggleApp"}`},
		frame{websocket.TextMessage, `third`},
	)
	ch := New(Options{Dialer: &fakeDialer{conns: []*fakeConn{conn}}, Sleep: (&sleepRecorder{}).Sleep})

	got := make(chan string, 10)
	go ch.Run(ctx, func(msg string) { got <- msg })

	var messages []string
	for len(messages) < 3 {
		select {
		case m := <-got:
			messages = append(messages, m)
		case <-time.After(5 * time.Second):
			t.Fatalf("received only %v", messages)
		}
	}
	assert.Equal(t, []string{`{"Method":"ShowApp"}`, `{"Method":"ToggleApp"}`, `third`}, messages)
}

func TestRunBacksOffAfterReadFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := newFakeConn(frame{websocket.TextMessage, "one"})
	second := newFakeConn(frame{websocket.TextMessage, "two"})
	dialer := &fakeDialer{conns: []*fakeConn{first, second}}
	sleeper := &sleepRecorder{}

	got := make(chan string, 10)
	ch := New(Options{Dialer: dialer, Sleep: sleeper.Sleep})
	go ch.Run(ctx, func(msg string) { got <- msg })

	require.Equal(t, "one", <-got)
	first.Close()
	require.Equal(t, "two", <-got)

	assert.Equal(t, 2, dialer.Attempts())
	assert.Equal(t, 1, sleeper.Count())
}

func TestRunStopsWhenCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	dialer := &fakeDialer{failures: 1000}

	ch := New(Options{Dialer: dialer, Backoff: time.Hour})
	done := make(chan error, 1)
	go func() { done <- ch.Run(ctx, func(string) {}) }()

	require.Eventually(t, func() bool { return dialer.Attempts() >= 1 }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 1, dialer.Attempts())
}

func TestRunAgainstWebsocketServer(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var connections atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		n := connections.Add(1)
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"Method":"ToggleApp"}`))
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte{0xff})
		if n == 1 {
			// drop the first client to force a reconnect
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"Method":"ShowApp"}`))
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ch := New(Options{
		Endpoint: endpoint,
		Dialer:   WebsocketDialer{HandshakeTimeout: time.Second},
		Backoff:  10 * time.Millisecond,
		Logger:   zaptest.NewLogger(t),
	})

	got := make(chan string, 10)
	done := make(chan error, 1)
	go func() { done <- ch.Run(ctx, func(msg string) { got <- msg }) }()

	var messages []string
	for len(messages) < 3 {
		select {
		case m := <-got:
			messages = append(messages, m)
		case <-time.After(5 * time.Second):
			t.Fatalf("received only %v", messages)
		}
	}
	assert.Equal(t, []string{`{"Method":"ToggleApp"}`, `{"Method":"ToggleApp"}`, `{"Method":"ShowApp"}`}, messages)
	assert.Equal(t, int32(2), connections.Load())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
