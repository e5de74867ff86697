// Package scheduler provides the periodic-scheduler capability injected
// into services. A Scheduler registers a recurring callback and returns a
// Handle to cancel it. The production implementation runs one goroutine
// per handle so ticks for a given service are never re-entrant; the Fake
// implementation drives ticks manually for deterministic tests.
package scheduler

import (
	"bytes"
	"log/slog"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Handle cancels a recurring callback. Stop is idempotent. Called from
// outside the tick, it waits for an in-flight tick to complete, so no
// tick is observable after it returns. Called from inside the tick body
// itself it returns immediately and the timer dies as soon as the tick
// returns; a tick cancelling its own handle must not wait on itself.
type Handle interface {
	Stop()
}

// Scheduler registers recurring callbacks
type Scheduler interface {
	// Every invokes fn once per period until the returned handle is
	// stopped. The first invocation happens one period after the call.
	Every(period time.Duration, fn func()) Handle
}

// Ticker is the production Scheduler backed by time.Ticker
type Ticker struct {
	logger *slog.Logger
}

// NewTicker creates a ticker-backed scheduler
func NewTicker(logger *slog.Logger) *Ticker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ticker{logger: logger}
}

// Every implements Scheduler
func (t *Ticker) Every(period time.Duration, fn func()) Handle {
	h := &tickerHandle{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(h.done)
		h.loop.Store(goroutineID())
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			// a tick that stopped its own handle must not be followed by
			// another tick, even when the next interval already elapsed
			select {
			case <-h.stop:
				return
			default:
			}
			select {
			case <-h.stop:
				return
			case <-ticker.C:
				t.fire(fn)
			}
		}
	}()

	return h
}

// fire runs one tick. A panic inside the tick is logged and the timer
// continues on its next scheduled tick.
func (t *Ticker) fire(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			t.logger.Error("tick panicked", "panic", r, "stack", string(buf[:n]))
		}
	}()
	fn()
}

type tickerHandle struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once

	// identity of the loop goroutine, so Stop can recognize being
	// called from inside the tick it would otherwise wait on
	loop atomic.Int64
}

// Stop cancels the recurring callback and waits for the loop goroutine
// to exit, so no tick is observable after Stop returns. A tick stopping
// its own handle skips the wait: the loop goroutine is the one running
// the tick, and it exits as soon as the tick returns.
func (h *tickerHandle) Stop() {
	h.once.Do(func() {
		close(h.stop)
	})
	if h.loop.Load() == goroutineID() {
		return
	}
	<-h.done
}

// goroutineID parses the calling goroutine's id from its stack header
// ("goroutine 12 [running]: ..."). The runtime offers no direct access.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return -1
	}
	id, err := strconv.ParseInt(string(fields[1]), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
