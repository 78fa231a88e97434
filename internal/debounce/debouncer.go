package debounce

import (
	"sync"
	"time"
)

// Timer is the subset of *time.Timer a Debouncer needs.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. The zero Debouncer uses the wall clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(d *Debouncer) {
		d.clock = c
	}
}

// Debouncer calls fn with the most recent value once delay has passed
// without a new Trigger. fn runs on the timer's goroutine.
type Debouncer struct {
	mu     sync.Mutex
	delay  time.Duration
	clock  Clock
	fn     func(string)
	timer  Timer
	gen    uint64
	latest string
}

// New creates a Debouncer.
func New(delay time.Duration, fn func(string), opts ...Option) *Debouncer {
	d := &Debouncer{
		delay: delay,
		clock: wallClock{},
		fn:    fn,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Trigger records value as the latest input and restarts the quiet period.
func (d *Debouncer) Trigger(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.latest = value
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
}

// A timer whose Stop lost the race against expiry still checks its
// generation here, so only the live timer ever calls fn.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	value := d.latest
	d.mu.Unlock()

	d.fn(value)
}

// Stop cancels the armed timer without calling fn.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// Pending reports whether a call to fn is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
