package scheduler

import (
	"sync"
	"time"
)

// Fake is a deterministic Scheduler for tests. Ticks never fire on their
// own; the test drives them with Fire. Handles registered through Every
// are tracked so tests can assert on active periods and residual timers.
type Fake struct {
	mu      sync.Mutex
	handles []*fakeHandle
}

// NewFake creates a fake scheduler
func NewFake() *Fake {
	return &Fake{}
}

// Every implements Scheduler
func (f *Fake) Every(period time.Duration, fn func()) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()

	h := &fakeHandle{period: period, fn: fn}
	f.handles = append(f.handles, h)
	return h
}

// Fire synchronously runs one tick on every active handle
func (f *Fake) Fire() {
	for _, h := range f.active() {
		h.fn()
	}
}

// Active returns the number of handles not yet stopped
func (f *Fake) Active() int {
	return len(f.active())
}

// Periods returns the periods of all active handles, in registration order
func (f *Fake) Periods() []time.Duration {
	var periods []time.Duration
	for _, h := range f.active() {
		periods = append(periods, h.period)
	}
	return periods
}

func (f *Fake) active() []*fakeHandle {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*fakeHandle
	for _, h := range f.handles {
		if !h.stopped() {
			out = append(out, h)
		}
	}
	return out
}

type fakeHandle struct {
	period time.Duration
	fn     func()

	mu   sync.Mutex
	dead bool
}

func (h *fakeHandle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dead = true
}

func (h *fakeHandle) stopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dead
}
