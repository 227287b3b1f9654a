// Package grid keeps a scrollable grid of images responsive over large
// directories: only the rows in view are decoded, results of superseded
// scroll positions are discarded, and decoded images live in a bounded LRU
// cache sized from the viewport.
//
// All exported methods of Controller must be called on the UI goroutine.
// Decoding runs on worker goroutines and reaches back through Host.Post.
package grid

import (
	"image"

	"go.uber.org/zap"

	"github.com/alexballas/ximagegrid/runloop"
)

// List is the ordered sequence of item identifiers behind the grid.
type List interface {
	Count() int
	IdentifierAt(row int) string
}

// ResetNotifier is implemented by lists that can be replaced wholesale,
// for example when the directory changes.
type ResetNotifier interface {
	OnReset(fn func())
}

// Host is the view the controller drives.
type Host interface {
	// Post runs fn on the UI goroutine. It must be safe to call from any
	// goroutine and must not block.
	Post(fn func())
	// Repaint asks for the given viewport rectangle to be redrawn.
	Repaint(r image.Rectangle)
	// SetScrollRange updates the vertical scrollbar.
	SetScrollRange(r ScrollRange)
}

// TileState is what a tile shows.
type TileState int

const (
	TileLoading TileState = iota
	TileReady
	TileFailed
)

// Tile is one row to paint.
type Tile struct {
	Row   int
	ID    string
	Rect  image.Rectangle
	State TileState
	Image *DecodedImage
}

type options struct {
	cfg      Config
	log      *zap.Logger
	decoder  Decoder
	clock    runloop.Clock
	newTimer func(fire func()) runloop.Timer
}

// Option configures a Controller.
type Option func(*options)

// WithConfig sets the tuning constants.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithDecoder replaces the default file decoder.
func WithDecoder(d Decoder) Option {
	return func(o *options) { o.decoder = d }
}

// WithClock sets the clock of the internal run loop.
func WithClock(c runloop.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithTimerFactory sets how the run loop's host timer is built.
func WithTimerFactory(fn func(fire func()) runloop.Timer) Option {
	return func(o *options) { o.newTimer = fn }
}

// Controller owns the cache, the load pipeline, both debounce stages and the
// run loop that times them, for one grid view.
type Controller struct {
	cfg  Config
	log  *zap.Logger
	list List
	host Host

	geom      Geometry
	cache     *ImageCache
	pipeline  *LoadPipeline
	debouncer *TriggerDebouncer
	redraw    *RedrawCoordinator
	loop      *runloop.Loop
	adapter   *runloop.Adapter
	closed    bool
}

// NewController builds a controller for list drawn by host. Nothing is loaded
// until the first Resized call gives the viewport a size.
func NewController(list List, host Host, opts ...Option) *Controller {
	o := options{
		cfg:   DefaultConfig(),
		log:   zap.NewNop(),
		clock: runloop.SystemClock{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.cfg.Validate(); err != nil {
		o.log.Warn("invalid grid config, using defaults for bad fields", zap.Error(err))
		o.cfg = o.cfg.withDefaults()
	}
	if o.decoder == nil {
		o.decoder = MultiDecoder{Image: ImageDecoder{MaxSize: o.cfg.ThumbnailSize}}
	}
	if o.newTimer == nil {
		o.newTimer = func(fire func()) runloop.Timer {
			return runloop.NewAfterFuncTimer(host.Post, fire)
		}
	}

	c := &Controller{
		cfg:  o.cfg,
		log:  o.log,
		list: list,
		host: host,
		geom: Geometry{Columns: o.cfg.Columns, Count: list.Count()},
	}
	c.loop = runloop.New(o.clock)
	c.adapter = runloop.NewAdapter(c.loop, host.Post, o.newTimer)

	c.cache = NewImageCache(1)
	c.cache.SetLogger(c.log)
	c.cache.OnEvict(func(key string) {
		c.log.Debug("image evicted", zap.String("id", key))
	})

	c.pipeline = newLoadPipeline(list, c.cache, o.decoder, o.cfg.Workers, host.Post, c.log)
	c.redraw = NewRedrawCoordinator(c.loop, o.cfg.RedrawBatch, c.Geometry, host.Repaint)
	c.pipeline.onLoaded = c.redraw.Add
	c.debouncer = NewTriggerDebouncer(c.loop, o.cfg.Debounce, c.cancelLoad, c.reload)

	if n, ok := list.(ResetNotifier); ok {
		n.OnReset(c.Reset)
	}
	c.layoutChanged()
	return c
}

// Geometry returns the current layout.
func (c *Controller) Geometry() Geometry {
	return c.geom
}

// Cache exposes the image cache for inspection.
func (c *Controller) Cache() *ImageCache {
	return c.cache
}

// Stats returns the load pipeline counters.
func (c *Controller) Stats() PipelineStats {
	return c.pipeline.Stats()
}

// Generation returns the current load generation.
func (c *Controller) Generation() uint64 {
	return c.pipeline.Generation()
}

// ColumnCount returns the number of tiles per layout row.
func (c *Controller) ColumnCount() int {
	return c.geom.Columns
}

// SetColumnCount changes the layout and fully resets the grid: the cache is
// emptied, in-flight loads are abandoned and a new load is scheduled.
func (c *Controller) SetColumnCount(n int) {
	if !invariant(c.log, n >= 1, "column count must be positive", zap.Int("columns", n)) {
		n = 1
	}
	c.log.Debug("column count changed", zap.Int("columns", n))
	c.geom.Columns = n
	c.resetWith(TriggerColumns)
}

// Resized records a new viewport size and schedules a load.
func (c *Controller) Resized(size image.Point) {
	if c.closed {
		return
	}
	c.geom.Width = max(size.X, 0)
	c.geom.Height = max(size.Y, 0)
	c.layoutChanged()
	c.debouncer.Trigger(TriggerResize)
}

// Scrolled moves the viewport to vertical offset y and schedules a load.
// It returns the offset actually applied after clamping to the scroll range.
func (c *Controller) Scrolled(y int) int {
	if c.closed {
		return c.geom.Offset.Y
	}
	y = c.geom.ClampOffset(y)
	if y == c.geom.Offset.Y {
		return y
	}
	c.geom.Offset.Y = y
	c.debouncer.Trigger(TriggerScroll)
	return y
}

// ScrollTo scrolls the least amount needed to show row entirely.
func (c *Controller) ScrollTo(row int) int {
	return c.Scrolled(c.geom.ScrollTo(row))
}

// MoveCursor returns the row reached from row by action.
func (c *Controller) MoveCursor(row int, action CursorAction) int {
	return c.geom.Move(row, action)
}

// Reset drops every decoded image and failure marker and reloads the view.
// Lists implementing ResetNotifier call it automatically.
func (c *Controller) Reset() {
	c.resetWith(TriggerReset)
}

func (c *Controller) resetWith(t Trigger) {
	if c.closed {
		return
	}
	c.cache.Clear()
	c.pipeline.ClearFailures()
	c.redraw.Reset()
	c.layoutChanged()
	c.debouncer.Trigger(t)
	c.host.Repaint(c.geom.Viewport())
}

// layoutChanged refreshes everything derived from geometry and item count.
func (c *Controller) layoutChanged() {
	c.geom.Count = c.list.Count()
	c.geom.Offset.Y = c.geom.ClampOffset(c.geom.Offset.Y)
	c.cache.SetCapacity(max(c.geom.VisibleTileCount()*c.cfg.CacheMultiplier, 1))
	c.host.SetScrollRange(c.geom.ScrollRange())
}

// Paint returns the tiles intersecting rect with their current state. A tile
// without a cached image is loading unless its decode failed.
func (c *Controller) Paint(rect image.Rectangle) []Tile {
	r := c.geom.VisibleRange(rect)
	tiles := make([]Tile, 0, r.Len())
	for row := r.Begin; row < r.End; row++ {
		tileRect := c.geom.Rect(row)
		if tileRect.Empty() || tileRect.Max.Y < 0 || tileRect.Min.Y > c.geom.Height {
			continue
		}
		id := c.list.IdentifierAt(row)
		tile := Tile{Row: row, ID: id, Rect: tileRect}
		if img, ok := c.cache.Get(id); ok {
			tile.State = TileReady
			tile.Image = img
		} else if c.pipeline.Failed(id) {
			tile.State = TileFailed
		}
		tiles = append(tiles, tile)
	}
	return tiles
}

// RowsIn returns the rows whose tiles intersect rect.
func (c *Controller) RowsIn(rect image.Rectangle) []int {
	r := c.geom.VisibleRange(rect)
	rows := make([]int, 0, r.Len())
	for row := r.Begin; row < r.End; row++ {
		if c.geom.Rect(row).Overlaps(rect) {
			rows = append(rows, row)
		}
	}
	return rows
}

func (c *Controller) cancelLoad(t Trigger) {
	c.log.Debug("load trigger", zap.Stringer("trigger", t))
	c.pipeline.Cancel()
}

func (c *Controller) reload() {
	c.geom.Count = c.list.Count()
	c.pipeline.Start(c.geom.VisibleRange(c.geom.Viewport()))
}

// Close abandons all outstanding work and releases the cached images. The
// controller must not be used afterwards.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.pipeline.Close()
	c.debouncer.Stop()
	c.redraw.Stop()
	c.adapter.Close()
	c.cache.Clear()
}
