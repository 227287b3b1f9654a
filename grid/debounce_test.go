package grid

import (
	"testing"
	"time"

	"github.com/alexballas/ximagegrid/runloop"
	"github.com/alexballas/ximagegrid/runloop/runlooptest"
)

func newTestLoop(t *testing.T) (*runlooptest.Harness, *runloop.Loop) {
	t.Helper()
	h := runlooptest.NewHarness()
	loop := runloop.New(h.Clock)
	a := runloop.NewAdapter(loop, h.Queue.Post, h.TimerFactory())
	t.Cleanup(a.Close)
	return h, loop
}

func TestTriggerDebouncer_CoalescesBurst(t *testing.T) {
	h, loop := newTestLoop(t)

	var cancels []Trigger
	reloads := 0
	d := NewTriggerDebouncer(loop, 250*time.Millisecond,
		func(tr Trigger) { cancels = append(cancels, tr) },
		func() { reloads++ })

	for i := range 5 {
		d.Trigger(TriggerScroll)
		h.Settle()
		if i < 4 {
			h.Advance(20*time.Millisecond, time.Millisecond)
		}
	}

	if len(cancels) != 5 {
		t.Fatalf("every trigger should cancel, got %d", len(cancels))
	}
	if reloads != 0 {
		t.Fatalf("reload ran during the burst")
	}

	h.Advance(249*time.Millisecond, time.Millisecond)
	if reloads != 0 {
		t.Fatal("reload ran before the quiet period ended")
	}
	h.Advance(time.Millisecond, time.Millisecond)
	if reloads != 1 {
		t.Fatalf("expected exactly one reload, got %d", reloads)
	}
	if d.Pending() {
		t.Error("nothing should be pending after the reload")
	}

	h.Advance(time.Second, 10*time.Millisecond)
	if reloads != 1 {
		t.Fatalf("reload repeated without a trigger, got %d", reloads)
	}
}

func TestTriggerDebouncer_Stop(t *testing.T) {
	h, loop := newTestLoop(t)

	reloads := 0
	d := NewTriggerDebouncer(loop, 250*time.Millisecond, nil, func() { reloads++ })
	d.Trigger(TriggerResize)
	h.Settle()
	d.Stop()
	h.Advance(time.Second, 50*time.Millisecond)

	if reloads != 0 {
		t.Fatal("stopped debouncer reloaded")
	}
}
