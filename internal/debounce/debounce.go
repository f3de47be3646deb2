// Package debounce delays a callback until a burst of triggers went quiet.
package debounce

import (
	"sync"
	"time"
)

// afterFunc is replaced in tests to fire timers by hand.
var afterFunc = time.AfterFunc

// Debouncer runs fn once per burst, delay after the last Trigger of the
// burst. A burst is a run of triggers less than delay apart.
type Debouncer struct {
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	pending *time.Timer
	// burst identifies the latest Trigger; timers of older ones are stale.
	burst uint64
}

func New(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger extends the current burst, or starts a new one.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	burst := d.burst
	d.pending = afterFunc(d.delay, func() { d.expire(burst) })
}

// Stop drops the pending call, if any.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

func (d *Debouncer) cancelLocked() {
	d.burst++
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}

func (d *Debouncer) expire(burst uint64) {
	d.mu.Lock()
	current := burst == d.burst && d.pending != nil
	if current {
		d.pending = nil
	}
	d.mu.Unlock()
	if current {
		d.fn()
	}
}
