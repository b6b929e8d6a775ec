package store

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period applied to conversation saves so
// rapid successive stage completions coalesce into one write.
const DefaultDebounce = time.Second

// Debouncer runs fn once a quiet period has elapsed since the last
// Trigger. It has an explicit lifecycle: Trigger is ignored before Start
// and after Stop, and Stop flushes any pending run synchronously so
// teardown is deterministic.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func()
	timer   *time.Timer
	pending bool
	running bool
}

// NewDebouncer creates a stopped debouncer. A non-positive delay falls
// back to DefaultDebounce.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay, fn: fn}
}

// Start enables the debouncer.
func (d *Debouncer) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = true
}

// Trigger schedules a run after the quiet period, resetting the clock if
// one is already scheduled.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}
	d.pending = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

// Flush runs fn immediately if a run is pending.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	run := d.pending
	d.pending = false
	d.mu.Unlock()

	if run {
		d.fn()
	}
}

// Stop disables the debouncer, flushing any pending run first.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.running = false
	d.mu.Unlock()
	d.Flush()
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.fn()
}
