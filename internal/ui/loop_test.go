package ui_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/nabilfaruk/portfolio/internal/ui"
	"github.com/nabilfaruk/portfolio/internal/ui/headless"
)

func TestEventLoopRunsTimersOnLoop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	loop := ui.NewEventLoop()
	defer loop.Close()

	fired := make(chan struct{})
	loop.AfterFunc(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
}

func TestEventLoopAsyncContinuation(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	loop := ui.NewEventLoop()
	defer loop.Close()

	result := make(chan int, 1)
	loop.Async(func() func() {
		v := 42
		return func() { result <- v }
	})

	select {
	case v := <-result:
		assert.Equal(t, 42, v)
	case <-time.After(2 * time.Second):
		t.Fatal("continuation never ran")
	}
}

func TestEventLoopCloseCancelsTimers(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	loop := ui.NewEventLoop()
	var fired atomic.Bool
	timer := loop.AfterFunc(50*time.Millisecond, func() { fired.Store(true) })
	loop.AfterFunc(time.Hour, func() { fired.Store(true) })

	loop.Close()
	loop.Close()

	assert.False(t, timer.Stop(), "timer already stopped by Close")
	time.Sleep(100 * time.Millisecond)
	assert.False(t, fired.Load())
	assert.False(t, loop.Post(func() {}))
	assert.False(t, loop.Do(func() {}))
}

func TestControllerOnEventLoopTearsDownCleanly(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	doc, err := headless.ParseString(page)
	require.NoError(t, err)
	rt := headless.NewRuntime(doc)
	loop := ui.NewEventLoop()

	deps := rt.Deps(&fakeContact{ack: ui.ContactAck{Success: true}}, nil)
	deps.Scheduler = loop

	var ctrl *ui.Controller
	require.True(t, loop.Do(func() {
		ctrl, err = ui.Bind(context.Background(), deps)
	}))
	require.NoError(t, err)

	require.True(t, loop.Do(func() {
		ctrl.Notify("bye", ui.NotifySuccess)
		ctrl.Close()
	}))
	loop.Close()

	// the typing effect was cut off before its first character
	assert.Equal(t, "", doc.Query(".hero-subtitle").Text())
}
