package grid

import (
	"time"

	"github.com/alexballas/ximagegrid/runloop"
)

// Trigger names the event that asked for a reload.
type Trigger int

const (
	TriggerScroll Trigger = iota
	TriggerResize
	TriggerReset
	TriggerColumns
)

func (t Trigger) String() string {
	switch t {
	case TriggerScroll:
		return "scroll"
	case TriggerResize:
		return "resize"
	case TriggerReset:
		return "reset"
	case TriggerColumns:
		return "columns"
	}
	return "unknown"
}

// TriggerDebouncer coalesces bursts of triggers into one reload after a
// quiet period. Every trigger first calls cancel so in-flight work of the
// previous generation stops counting, then restarts the quiet period; reload
// runs once the period passes without another trigger.
type TriggerDebouncer struct {
	loop    *runloop.Loop
	quiet   time.Duration
	cancel  func(Trigger)
	reload  func()
	pending *runloop.Item
}

// NewTriggerDebouncer schedules on loop. cancel runs synchronously on every
// trigger and reload once per settled burst.
func NewTriggerDebouncer(loop *runloop.Loop, quiet time.Duration, cancel func(Trigger), reload func()) *TriggerDebouncer {
	return &TriggerDebouncer{loop: loop, quiet: quiet, cancel: cancel, reload: reload}
}

// Trigger records an event and (re)starts the quiet period.
func (d *TriggerDebouncer) Trigger(t Trigger) {
	if d.cancel != nil {
		d.cancel(t)
	}
	d.pending.Cancel()
	var item *runloop.Item
	item = d.loop.ScheduleAfter(d.quiet, func() {
		if d.pending != item {
			return
		}
		d.pending = nil
		d.reload()
	})
	d.pending = item
}

// Pending reports whether a reload is waiting for the quiet period to end.
func (d *TriggerDebouncer) Pending() bool {
	return d.pending != nil
}

// Stop drops a waiting reload.
func (d *TriggerDebouncer) Stop() {
	d.pending.Cancel()
	d.pending = nil
}
