// Package runlooptest provides a manual clock, host timer and foreground
// queue for driving runloop based code deterministically in tests.
package runlooptest

import (
	"sync"
	"time"

	"github.com/alexballas/ximagegrid/runloop"
)

// Clock is a manually advanced runloop.Clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock stopped at an arbitrary fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current manual time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Queue stands in for the UI goroutine: Post appends, Drain runs.
type Queue struct {
	mu      sync.Mutex
	pending []func()
}

// Post queues fn. Safe from any goroutine.
func (q *Queue) Post(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
}

// Len returns the number of queued functions.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Drain runs queued functions, including ones queued while draining, until
// the queue is empty. It returns how many ran.
func (q *Queue) Drain() int {
	n := 0
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return n
		}
		fn := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()
		fn()
		n++
	}
}

// WaitLen polls until at least n functions are queued or timeout passes.
// It reports whether the length was reached.
func (q *Queue) WaitLen(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if q.Len() >= n {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}

// Timer is a runloop.Timer that only fires from Fire or Advance.
type Timer struct {
	clock    *Clock
	fire     func()
	active   bool
	deadline time.Time
	starts   int
}

// Factory returns a timer constructor for runloop.NewAdapter. Every timer it
// builds is recorded in *timers when timers is non-nil.
func Factory(clock *Clock, timers *[]*Timer) func(fire func()) runloop.Timer {
	return func(fire func()) runloop.Timer {
		t := &Timer{clock: clock, fire: fire}
		if timers != nil {
			*timers = append(*timers, t)
		}
		return t
	}
}

// Start arms the timer for d from the clock's current time.
func (t *Timer) Start(d time.Duration) {
	t.active = true
	t.deadline = t.clock.Now().Add(d)
	t.starts++
}

// Stop disarms the timer.
func (t *Timer) Stop() { t.active = false }

// Active reports whether the timer is armed.
func (t *Timer) Active() bool { return t.active }

// Remaining returns time until expiry.
func (t *Timer) Remaining() time.Duration {
	if !t.active {
		return 0
	}
	d := t.deadline.Sub(t.clock.Now())
	if d < 0 {
		return 0
	}
	return d
}

// Deadline returns the armed expiry time.
func (t *Timer) Deadline() time.Time { return t.deadline }

// Starts returns how many times the timer was armed.
func (t *Timer) Starts() int { return t.starts }

// FireIfDue fires the timer when it is armed and its deadline has passed.
func (t *Timer) FireIfDue() bool {
	if !t.active || t.clock.Now().Before(t.deadline) {
		return false
	}
	t.active = false
	t.fire()
	return true
}

// Harness ties a clock, a foreground queue and one adapter timer together.
type Harness struct {
	Clock  *Clock
	Queue  *Queue
	timers []*Timer
}

// NewHarness returns an empty harness.
func NewHarness() *Harness {
	return &Harness{Clock: NewClock(), Queue: &Queue{}}
}

// TimerFactory builds timers bound to the harness clock.
func (h *Harness) TimerFactory() func(fire func()) runloop.Timer {
	return Factory(h.Clock, &h.timers)
}

// Timers returns every timer built so far.
func (h *Harness) Timers() []*Timer { return h.timers }

// Settle drains the queue and fires due timers until nothing changes.
func (h *Harness) Settle() {
	for {
		progressed := h.Queue.Drain() > 0
		for _, t := range h.timers {
			if t.FireIfDue() {
				progressed = true
			}
		}
		if !progressed {
			return
		}
	}
}

// Advance moves the clock by d in steps of step, settling after each step.
func (h *Harness) Advance(d, step time.Duration) {
	if step <= 0 {
		step = d
	}
	for elapsed := time.Duration(0); elapsed < d; {
		s := step
		if d-elapsed < s {
			s = d - elapsed
		}
		h.Clock.Advance(s)
		elapsed += s
		h.Settle()
	}
	h.Settle()
}
