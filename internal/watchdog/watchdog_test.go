package watchdog

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProcessAliveSelf(t *testing.T) {
	assert.True(t, ProcessAlive(os.Getpid()))
}

func TestWatchCallsOnExitWhenParentGone(t *testing.T) {
	var polls atomic.Int32
	alive := func(int) bool { return polls.Add(1) < 3 }

	exited := make(chan struct{})
	go Watch(context.Background(), Options{PID: 42, Interval: time.Millisecond, Alive: alive}, func() { close(exited) })

	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatal("onExit not called")
	}
	assert.Equal(t, int32(3), polls.Load())
}

func TestWatchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	called := false
	done := make(chan struct{})
	go func() {
		Watch(ctx, Options{PID: 42, Interval: time.Hour, Alive: func(int) bool { return true }}, func() { called = true })
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return")
	}
	assert.False(t, called)
}

func TestWatchDisabledWithoutPID(t *testing.T) {
	called := false
	Watch(context.Background(), Options{PID: 0, Alive: func(int) bool { return false }}, func() { called = true })
	assert.False(t, called)
}
