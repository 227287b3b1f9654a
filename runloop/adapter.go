package runloop

import "time"

// Timer is a single-shot host timer. All methods are called on the goroutine
// that owns the Adapter using it.
type Timer interface {
	Start(d time.Duration)
	Stop()
	Active() bool
	Remaining() time.Duration
}

// Adapter runs a Loop's due items inside a host event loop using exactly one
// host timer. Wakeup requests may come from any goroutine; they are posted to
// the owning goroutine before the timer is touched.
type Adapter struct {
	loop   *Loop
	post   func(func())
	timer  Timer
	closed bool
}

// NewAdapter binds loop to a host timer built by newTimer. post must run the
// given function on the owning (UI) goroutine, e.g. fyne.Do.
func NewAdapter(loop *Loop, post func(func()), newTimer func(fire func()) Timer) *Adapter {
	a := &Adapter{loop: loop, post: post}
	a.timer = newTimer(a.fire)
	loop.SetNotifyEarlierWakeup(a.wakeup)
	return a
}

func (a *Adapter) wakeup(when time.Time) {
	a.post(func() {
		a.arm(when)
	})
}

func (a *Adapter) arm(when time.Time) {
	if a.closed {
		return
	}
	d := ceilMillis(when.Sub(a.loop.Now()))
	if !a.timer.Active() || d < a.timer.Remaining() {
		a.timer.Start(d)
	}
}

func (a *Adapter) fire() {
	if a.closed {
		return
	}
	for {
		when, ok := a.loop.Peek()
		if !ok || when.After(a.loop.Now()) {
			break
		}
		a.loop.Dispatch()
		if a.closed {
			return
		}
	}
	if when, ok := a.loop.Peek(); ok {
		a.timer.Start(ceilMillis(when.Sub(a.loop.Now())))
	}
}

// Close detaches the adapter from its loop and stops the timer. Pending
// items stay queued but will not be dispatched by this adapter.
func (a *Adapter) Close() {
	a.closed = true
	a.loop.SetNotifyEarlierWakeup(nil)
	a.timer.Stop()
}

// ceilMillis rounds d up to whole milliseconds, never below zero.
func ceilMillis(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	ms := d.Truncate(time.Millisecond)
	if ms < d {
		ms += time.Millisecond
	}
	return ms
}
