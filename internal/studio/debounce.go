package studio

import (
	"sync"
	"time"
)

// debouncer is a single-slot scheduler: scheduling a new task cancels any
// pending one, so at most one deferred call is ever outstanding. This is the
// only cancellation mechanism the studio has; in-flight work is never
// interrupted once the timer fires.
type debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay}
}

// schedule arranges fn to run after the quiet period, replacing any pending
// task.
func (d *debouncer) schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// cancel drops any pending task.
func (d *debouncer) cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *debouncer) setDelay(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delay = delay
}
