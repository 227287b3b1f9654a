package runloop

import "time"

// AfterFuncTimer is a Timer backed by time.AfterFunc. Expiry is delivered to
// the owning goroutine through post, and a fire belonging to a Start that has
// since been stopped or restarted is ignored.
type AfterFuncTimer struct {
	post     func(func())
	fire     func()
	clock    Clock
	t        *time.Timer
	seq      uint64
	active   bool
	deadline time.Time
}

// NewAfterFuncTimer returns a stopped timer that calls fire on the owning
// goroutine when it expires.
func NewAfterFuncTimer(post func(func()), fire func()) *AfterFuncTimer {
	return &AfterFuncTimer{post: post, fire: fire, clock: SystemClock{}}
}

// Start (re)arms the timer to expire after d.
func (t *AfterFuncTimer) Start(d time.Duration) {
	t.Stop()
	t.seq++
	seq := t.seq
	t.active = true
	t.deadline = t.clock.Now().Add(d)
	t.t = time.AfterFunc(d, func() {
		t.post(func() {
			if seq != t.seq || !t.active {
				return
			}
			t.active = false
			t.fire()
		})
	})
}

// Stop disarms the timer.
func (t *AfterFuncTimer) Stop() {
	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
	t.active = false
}

// Active reports whether the timer is armed.
func (t *AfterFuncTimer) Active() bool { return t.active }

// Remaining returns the time left before expiry, or zero when stopped.
func (t *AfterFuncTimer) Remaining() time.Duration {
	if !t.active {
		return 0
	}
	d := t.deadline.Sub(t.clock.Now())
	if d < 0 {
		return 0
	}
	return d
}
