package scheduler

import (
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickerEvery(t *testing.T) {
	sched := NewTicker(slog.Default())

	var ticks atomic.Int64
	fired := make(chan struct{}, 16)
	h := sched.Every(5*time.Millisecond, func() {
		ticks.Add(1)
		fired <- struct{}{}
	})

	for i := 0; i < 3; i++ {
		select {
		case <-fired:
		case <-time.After(time.Second):
			t.Fatal("tick did not fire")
		}
	}
	h.Stop()

	require.GreaterOrEqual(t, ticks.Load(), int64(3))
}

func TestTickerStopHaltsTicks(t *testing.T) {
	sched := NewTicker(slog.Default())

	var ticks atomic.Int64
	h := sched.Every(2*time.Millisecond, func() {
		ticks.Add(1)
	})

	time.Sleep(20 * time.Millisecond)
	h.Stop()
	after := ticks.Load()

	// no tick is observable once Stop has returned
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, ticks.Load())
}

func TestTickerStopFromOwnTick(t *testing.T) {
	sched := NewTicker(slog.Default())

	var ticks atomic.Int64
	ready := make(chan Handle, 1)
	returned := make(chan struct{})
	h := sched.Every(2*time.Millisecond, func() {
		ticks.Add(1)
		handle := <-ready
		handle.Stop()
		close(returned)
	})
	ready <- h

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop called from its own tick did not return")
	}

	// the timer dies once the self-stopping tick returns
	after := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, ticks.Load())

	h.Stop() // a later external stop stays safe
}

func TestTickerStopIdempotent(t *testing.T) {
	sched := NewTicker(slog.Default())
	h := sched.Every(time.Millisecond, func() {})

	h.Stop()
	h.Stop() // second stop must not panic or block
}

func TestTickerRecoversPanic(t *testing.T) {
	sched := NewTicker(slog.Default())

	var ticks atomic.Int64
	fired := make(chan struct{}, 16)
	h := sched.Every(2*time.Millisecond, func() {
		if ticks.Add(1) == 1 {
			panic("first tick explodes")
		}
		fired <- struct{}{}
	})
	defer h.Stop()

	// the timer continues after a panicking tick
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not survive tick panic")
	}
}

func TestFakeFire(t *testing.T) {
	sched := NewFake()

	var a, b int
	ha := sched.Every(time.Second, func() { a++ })
	sched.Every(2*time.Second, func() { b++ })

	assert.Equal(t, 2, sched.Active())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sched.Periods())

	sched.Fire()
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)

	ha.Stop()
	sched.Fire()
	assert.Equal(t, 1, a, "stopped handle must not fire")
	assert.Equal(t, 2, b)
	assert.Equal(t, 1, sched.Active())
}
