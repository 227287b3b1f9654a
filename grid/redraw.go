package grid

import (
	"image"
	"time"

	"github.com/alexballas/ximagegrid/runloop"
)

// RedrawCoordinator batches rows whose images just arrived and turns them into
// one repaint of their union rectangle. The batch window opens on the first
// row after an idle period and closes once.
type RedrawCoordinator struct {
	loop     *runloop.Loop
	window   time.Duration
	geometry func() Geometry
	repaint  func(image.Rectangle)

	dirty   map[int]struct{}
	pending *runloop.Item
	flushes int
}

// NewRedrawCoordinator batches over window. geometry supplies the layout at
// flush time and repaint receives the dirty rectangle.
func NewRedrawCoordinator(loop *runloop.Loop, window time.Duration, geometry func() Geometry, repaint func(image.Rectangle)) *RedrawCoordinator {
	return &RedrawCoordinator{
		loop:     loop,
		window:   window,
		geometry: geometry,
		repaint:  repaint,
		dirty:    make(map[int]struct{}),
	}
}

// Add marks row as needing a repaint.
func (c *RedrawCoordinator) Add(row int) {
	c.dirty[row] = struct{}{}
	if c.pending == nil {
		c.pending = c.loop.ScheduleAfter(c.window, c.flush)
	}
}

// Pending returns the number of rows waiting for the next flush.
func (c *RedrawCoordinator) Pending() int {
	return len(c.dirty)
}

// Flushes returns how many batches have been flushed.
func (c *RedrawCoordinator) Flushes() int {
	return c.flushes
}

// Reset forgets the dirty rows and any scheduled flush.
func (c *RedrawCoordinator) Reset() {
	clear(c.dirty)
	c.pending.Cancel()
	c.pending = nil
}

// Stop is Reset under the name used at teardown.
func (c *RedrawCoordinator) Stop() {
	c.Reset()
}

func (c *RedrawCoordinator) flush() {
	c.pending = nil
	if len(c.dirty) == 0 {
		return
	}
	c.flushes++

	g := c.geometry()
	var dirty image.Rectangle
	for row := range c.dirty {
		dirty = dirty.Union(g.Rect(row))
	}
	clear(c.dirty)

	if dirty.Overlaps(g.Viewport()) {
		c.repaint(dirty)
	}
}
