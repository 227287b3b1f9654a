package grid

import (
	"fmt"
	"image"
	"testing"
	"time"

	"github.com/alexballas/ximagegrid/runloop/runlooptest"
)

func newTestController(t *testing.T, list *fakeList, dec Decoder) (*Controller, *fakeHost, *runlooptest.Harness) {
	t.Helper()
	h := runlooptest.NewHarness()
	host := &fakeHost{queue: h.Queue}
	cfg := DefaultConfig()
	cfg.Columns = 4
	cfg.Workers = 2
	c := NewController(list, host,
		WithConfig(cfg),
		WithClock(h.Clock),
		WithTimerFactory(h.TimerFactory()),
		WithDecoder(dec))
	t.Cleanup(c.Close)
	return c, host, h
}

// waitFor settles the harness until cond holds. Decodes run on real
// goroutines, so results trickle in while the virtual clock stands still.
func waitFor(t *testing.T, h *runlooptest.Harness, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for {
		h.Settle()
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("condition not met before timeout")
		}
		time.Sleep(time.Millisecond)
	}
}

func cachedRows(c *Controller, list *fakeList, r Range) bool {
	for row := r.Begin; row < r.End; row++ {
		if !c.Cache().Contains(list.IdentifierAt(row)) {
			return false
		}
	}
	return true
}

func TestController_LoadsVisibleRows(t *testing.T) {
	list := newFakeList(100)
	dec := newFakeDecoder()
	c, host, h := newTestController(t, list, dec)

	c.Resized(image.Pt(400, 300))

	if host.scroll.Max != 2200 {
		t.Errorf("expected scroll max 2200, got %+v", host.scroll)
	}
	if got := c.Cache().Capacity(); got != 48 {
		t.Errorf("expected cache capacity 48, got %d", got)
	}

	tiles := c.Paint(c.Geometry().Viewport())
	if len(tiles) != 12 {
		t.Fatalf("expected 12 tiles, got %d", len(tiles))
	}
	for _, tile := range tiles {
		if tile.State != TileLoading {
			t.Fatalf("row %d should be loading before the debounce expires", tile.Row)
		}
	}

	h.Advance(249*time.Millisecond, 10*time.Millisecond)
	if dec.total() != 0 {
		t.Fatal("decoding started before the quiet period ended")
	}
	h.Advance(time.Millisecond, time.Millisecond)
	waitFor(t, h, func() bool { return cachedRows(c, list, Range{0, 12}) })

	if dec.total() != 12 {
		t.Errorf("expected 12 decodes, got %d", dec.total())
	}
	for _, tile := range c.Paint(c.Geometry().Viewport()) {
		if tile.State != TileReady || tile.Image == nil {
			t.Errorf("row %d not ready after loading", tile.Row)
		}
	}

	h.Advance(250*time.Millisecond, 10*time.Millisecond)
	if len(host.repaints) != 1 {
		t.Fatalf("expected one batched repaint, got %v", host.repaints)
	}
	if want := image.Rect(0, 0, 400, 300); host.repaints[0] != want {
		t.Errorf("expected repaint of %v, got %v", want, host.repaints[0])
	}
}

func TestController_ScrollSupersedesLoad(t *testing.T) {
	list := newFakeList(100)
	dec := newFakeDecoder()
	release := make(chan struct{})
	dec.block[list.IdentifierAt(0)] = release
	c, _, h := newTestController(t, list, dec)

	c.Resized(image.Pt(400, 300))
	h.Advance(250*time.Millisecond, 10*time.Millisecond)
	dec.waitStarted(t, list.IdentifierAt(0))

	before := c.Generation()
	if y := c.Scrolled(250); y != 250 {
		t.Fatalf("expected offset 250, got %d", y)
	}
	if c.Generation() <= before {
		t.Fatal("scrolling should invalidate the running load at once")
	}
	close(release)

	h.Advance(250*time.Millisecond, 10*time.Millisecond)
	waitFor(t, h, func() bool {
		return cachedRows(c, list, Range{8, 24}) && c.Stats().Stale >= 1
	})

	if c.Cache().Contains(list.IdentifierAt(0)) {
		t.Error("image from the superseded load reached the cache")
	}
}

func TestController_FailedTiles(t *testing.T) {
	list := newFakeList(8)
	dec := newFakeDecoder()
	dec.fail[list.IdentifierAt(1)] = true
	c, _, h := newTestController(t, list, dec)

	c.Resized(image.Pt(400, 300))
	h.Advance(250*time.Millisecond, 10*time.Millisecond)
	waitFor(t, h, func() bool { return c.Stats().Completed+c.Stats().Failed == 8 })

	for _, tile := range c.Paint(c.Geometry().Viewport()) {
		want := TileReady
		if tile.Row == 1 {
			want = TileFailed
		}
		if tile.State != want {
			t.Errorf("row %d: expected state %d, got %d", tile.Row, want, tile.State)
		}
	}
}

func TestController_SetColumnCountIsIdempotent(t *testing.T) {
	list := newFakeList(100)
	c, host, h := newTestController(t, list, newFakeDecoder())

	c.Resized(image.Pt(400, 300))
	h.Advance(250*time.Millisecond, 10*time.Millisecond)
	waitFor(t, h, func() bool { return cachedRows(c, list, Range{0, 12}) })

	c.SetColumnCount(2)
	firstGeom := c.Geometry()
	firstRange := firstGeom.VisibleRange(firstGeom.Viewport())
	firstRepaint := host.repaints[len(host.repaints)-1]
	firstGen := c.Generation()
	if c.Cache().Len() != 0 {
		t.Fatalf("column change should empty the cache, %d left", c.Cache().Len())
	}

	c.SetColumnCount(2)
	secondGeom := c.Geometry()
	if secondGeom != firstGeom {
		t.Errorf("geometry changed: %+v then %+v", firstGeom, secondGeom)
	}
	if r := secondGeom.VisibleRange(secondGeom.Viewport()); r != firstRange {
		t.Errorf("visible range changed: %+v then %+v", firstRange, r)
	}
	if last := host.repaints[len(host.repaints)-1]; last != firstRepaint {
		t.Errorf("repaint changed: %v then %v", firstRepaint, last)
	}
	if c.Generation() <= firstGen {
		t.Error("every column change should start a new generation")
	}
	if c.ColumnCount() != 2 {
		t.Errorf("expected 2 columns, got %d", c.ColumnCount())
	}
}

func TestController_ListReset(t *testing.T) {
	list := newFakeList(100)
	c, host, h := newTestController(t, list, newFakeDecoder())

	c.Resized(image.Pt(400, 300))
	c.Scrolled(1000)
	h.Advance(250*time.Millisecond, 10*time.Millisecond)
	waitFor(t, h, func() bool { return c.Cache().Len() > 0 })

	ids := make([]string, 3)
	for i := range ids {
		ids[i] = fmt.Sprintf("other-%d.jpg", i)
	}
	list.replace(ids)

	if c.Cache().Len() != 0 {
		t.Fatal("reset should drop cached images")
	}
	if g := c.Geometry(); g.Count != 3 || g.Offset.Y != 0 {
		t.Errorf("expected 3 items at offset 0, got %+v", g)
	}
	if host.scroll.Max != 0 {
		t.Errorf("expected no scrolling for 3 items, got %+v", host.scroll)
	}

	h.Advance(250*time.Millisecond, 10*time.Millisecond)
	waitFor(t, h, func() bool { return cachedRows(c, list, Range{0, 3}) })
}

func TestController_ScrollTo(t *testing.T) {
	c, _, _ := newTestController(t, newFakeList(100), newFakeDecoder())
	c.Resized(image.Pt(400, 300))

	if y := c.ScrollTo(20); y != 300 {
		t.Fatalf("expected offset 300, got %d", y)
	}
	if c.Geometry().Offset.Y != 300 {
		t.Errorf("offset not applied: %+v", c.Geometry())
	}
	if row := c.MoveCursor(20, MoveDown); row != 24 {
		t.Errorf("expected row 24, got %d", row)
	}
}

func TestController_CloseStopsLoading(t *testing.T) {
	dec := newFakeDecoder()
	c, _, h := newTestController(t, newFakeList(20), dec)

	c.Resized(image.Pt(400, 300))
	c.Close()
	h.Advance(time.Second, 50*time.Millisecond)

	if dec.total() != 0 {
		t.Fatalf("decoded %d images after Close", dec.total())
	}
	if c.Cache().Len() != 0 {
		t.Error("cache should be empty after Close")
	}
}
