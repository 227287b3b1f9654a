package grid

import (
	"image"
	"testing"
	"time"
)

func TestRedrawCoordinator_BatchesRows(t *testing.T) {
	h, loop := newTestLoop(t)

	geom := Geometry{Columns: 2, Width: 200, Height: 200, Count: 10}
	var repaints []image.Rectangle
	r := NewRedrawCoordinator(loop, 250*time.Millisecond,
		func() Geometry { return geom },
		func(rect image.Rectangle) { repaints = append(repaints, rect) })

	r.Add(0)
	r.Add(1)
	h.Settle()
	h.Advance(100*time.Millisecond, 10*time.Millisecond)
	r.Add(3)
	r.Add(3)
	h.Settle()

	if r.Pending() != 3 {
		t.Fatalf("expected 3 dirty rows, got %d", r.Pending())
	}

	h.Advance(149*time.Millisecond, time.Millisecond)
	if len(repaints) != 0 {
		t.Fatal("flushed before the batch window closed")
	}
	h.Advance(time.Millisecond, time.Millisecond)
	if len(repaints) != 1 {
		t.Fatalf("expected one repaint, got %d", len(repaints))
	}
	if want := image.Rect(0, 0, 200, 200); repaints[0] != want {
		t.Errorf("expected union %v, got %v", want, repaints[0])
	}

	// Row 9 is below the viewport: the batch flushes without a repaint.
	r.Add(9)
	h.Settle()
	h.Advance(250*time.Millisecond, 10*time.Millisecond)
	if r.Flushes() != 2 {
		t.Fatalf("expected 2 flushes, got %d", r.Flushes())
	}
	if len(repaints) != 1 {
		t.Errorf("off-screen rows should not repaint, got %v", repaints)
	}
}

func TestRedrawCoordinator_Reset(t *testing.T) {
	h, loop := newTestLoop(t)

	geom := Geometry{Columns: 2, Width: 200, Height: 200, Count: 10}
	repaints := 0
	r := NewRedrawCoordinator(loop, 250*time.Millisecond,
		func() Geometry { return geom },
		func(image.Rectangle) { repaints++ })

	r.Add(0)
	h.Settle()
	r.Reset()
	h.Advance(time.Second, 50*time.Millisecond)

	if repaints != 0 || r.Pending() != 0 {
		t.Fatalf("reset batch still repainted (%d) or kept rows (%d)", repaints, r.Pending())
	}
}
