// Package debounce provides a single-shot trailing-edge debouncer: only the
// most recently scheduled function runs, after a quiescence window with no
// further calls.
package debounce

import (
	"sync"
	"time"
)

// Debouncer schedules at most one pending function at a time. Scheduling a
// new function cancels the previous pending one.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// New returns a Debouncer with the given quiescence window.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Schedule arranges for fn to run after the quiescence window elapses with no
// further Schedule or Cancel calls. fn runs on a timer goroutine.
func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Cancel drops any pending function without running it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
