// Package gridview is the Fyne front end of package grid: a scrollable,
// selectable image grid over a folder, plus the small widgets an image
// browser window is built from.
package gridview

import (
	"image"
	"slices"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/alexballas/ximagegrid/grid"
)

const (
	columnsKey    = "ximagegrid:columns"
	showHiddenKey = "ximagegrid:show_hidden"

	scrollIndicatorWidth = 4
)

var cursorKeys = map[fyne.KeyName]grid.CursorAction{
	fyne.KeyHome:     grid.MoveHome,
	fyne.KeyEnd:      grid.MoveEnd,
	fyne.KeyPageUp:   grid.MovePageUp,
	fyne.KeyPageDown: grid.MovePageDown,
	fyne.KeyLeft:     grid.MoveLeft,
	fyne.KeyRight:    grid.MoveRight,
	fyne.KeyUp:       grid.MoveUp,
	fyne.KeyDown:     grid.MoveDown,
}

type settings struct {
	post     func(func())
	log      *zap.Logger
	gridOpts []grid.Option
}

// Option configures an ImageGrid.
type Option func(*settings)

// WithPost replaces fyne.Do as the way work reaches the UI goroutine.
func WithPost(post func(func())) Option {
	return func(s *settings) { s.post = post }
}

// WithGridOptions passes options through to the grid controller.
func WithGridOptions(opts ...grid.Option) Option {
	return func(s *settings) { s.gridOpts = append(s.gridOpts, opts...) }
}

// WithLogger sets the logger used by the widget and its controller.
func WithLogger(log *zap.Logger) Option {
	return func(s *settings) {
		if log != nil {
			s.log = log
		}
	}
}

// ImageGrid shows the images of a Folder as square tiles, a configurable
// number per row. Only the tiles in view are decoded.
type ImageGrid struct {
	widget.BaseWidget

	// OnActivated is called for a double tapped tile or Enter on the cursor.
	OnActivated func(row int, uri fyne.URI)
	// OnSelectionChanged is called with the selected rows in order.
	OnSelectionChanged func(rows []int)

	folder *Folder
	ctrl   *grid.Controller
	post   func(func())
	log    *zap.Logger

	background *fyne.Container
	tiles      *fyne.Container
	pool       []*tileView
	byRow      map[int]*tileView
	indicator  *canvas.Rectangle
	overlay    *bandOverlay
	zoom       *columnZoom
	scroll     grid.ScrollRange

	selected  map[int]bool
	dragBase  map[int]bool
	anchor    int
	current   int
	dragging  bool
	dragEnded time.Time
	focused   bool
}

// NewImageGrid returns a grid over folder. The column count starts from the
// stored preference when there is one.
func NewImageGrid(folder *Folder, opts ...Option) *ImageGrid {
	s := settings{post: fyne.Do, log: zap.NewNop()}
	for _, opt := range opts {
		opt(&s)
	}

	g := &ImageGrid{
		folder:     folder,
		post:       s.post,
		log:        s.log,
		background: container.NewStack(),
		tiles:      container.NewWithoutLayout(),
		byRow:      make(map[int]*tileView),
		indicator:  canvas.NewRectangle(theme.Color(theme.ColorNameScrollBar)),
		selected:   make(map[int]bool),
	}
	g.indicator.CornerRadius = scrollIndicatorWidth / 2
	g.indicator.Hide()
	g.overlay = newBandOverlay(g.onBandChanged, g.onBandEnd)
	g.zoom = newColumnZoom(g.onZoomStep)

	if app := fyne.CurrentApp(); app != nil {
		if err := folder.SetShowHidden(app.Preferences().Bool(showHiddenKey)); err != nil {
			s.log.Warn("failed to relist folder", zap.Error(err))
		}
	}
	folder.OnReset(g.onFolderReset)
	gridOpts := append([]grid.Option{grid.WithLogger(s.log)}, s.gridOpts...)
	g.ctrl = grid.NewController(folder, gridHost{g}, gridOpts...)
	if n := storedColumns(); n > 0 && n != g.ctrl.ColumnCount() {
		g.ctrl.SetColumnCount(clampColumns(n))
	}
	g.updateBackground()

	g.ExtendBaseWidget(g)
	return g
}

func storedColumns() int {
	app := fyne.CurrentApp()
	if app == nil {
		return 0
	}
	return app.Preferences().IntWithFallback(columnsKey, 0)
}

// gridHost adapts the widget to grid.Host. The controller calls into it
// while it is still being built, before ImageGrid.ctrl is set.
type gridHost struct {
	g *ImageGrid
}

func (h gridHost) Post(fn func()) {
	h.g.post(fn)
}

func (h gridHost) Repaint(r image.Rectangle) {
	h.g.repaint(r)
}

func (h gridHost) SetScrollRange(r grid.ScrollRange) {
	h.g.scroll = r
	h.g.updateIndicator()
}

// Controller returns the controller driving the grid.
func (g *ImageGrid) Controller() *grid.Controller {
	return g.ctrl
}

// ColumnCount returns the number of tiles per row.
func (g *ImageGrid) ColumnCount() int {
	return g.ctrl.ColumnCount()
}

// SetColumnCount changes the number of tiles per row, within 1 to 12, and
// remembers it for the next start.
func (g *ImageGrid) SetColumnCount(n int) {
	n = clampColumns(n)
	if n == g.ctrl.ColumnCount() {
		return
	}
	g.ctrl.SetColumnCount(n)
	if app := fyne.CurrentApp(); app != nil {
		app.Preferences().SetInt(columnsKey, n)
	}
	if g.current >= 0 {
		g.ctrl.ScrollTo(g.current)
	}
	g.layoutTiles()
}

// SetShowHidden lists dot files too and remembers the choice.
func (g *ImageGrid) SetShowHidden(show bool) error {
	if app := fyne.CurrentApp(); app != nil {
		app.Preferences().SetBool(showHiddenKey, show)
	}
	return g.folder.SetShowHidden(show)
}

// Selected returns the selected files in row order.
func (g *ImageGrid) Selected() []fyne.URI {
	rows := g.SelectedRows()
	uris := make([]fyne.URI, 0, len(rows))
	for _, row := range rows {
		if u := g.folder.URIAt(row); u != nil {
			uris = append(uris, u)
		}
	}
	return uris
}

// SelectedRows returns the selected rows in order.
func (g *ImageGrid) SelectedRows() []int {
	rows := make([]int, 0, len(g.selected))
	for row := range g.selected {
		rows = append(rows, row)
	}
	slices.Sort(rows)
	return rows
}

// Current returns the keyboard cursor row, or -1 for an empty folder.
func (g *ImageGrid) Current() int {
	if g.folder.Count() == 0 {
		return -1
	}
	return g.current
}

// Close stops all loading. The grid must not be used afterwards.
func (g *ImageGrid) Close() {
	g.ctrl.Close()
}

func (g *ImageGrid) CreateRenderer() fyne.WidgetRenderer {
	return &imageGridRenderer{g: g}
}

// Scrolled moves the view by the wheel delta.
func (g *ImageGrid) Scrolled(e *fyne.ScrollEvent) {
	y := g.ctrl.Geometry().Offset.Y - int(e.Scrolled.DY)
	g.scrollTo(y)
}

func (g *ImageGrid) scrollTo(y int) {
	before := g.ctrl.Geometry().Offset.Y
	if g.ctrl.Scrolled(y) == before {
		return
	}
	g.layoutTiles()
}

func (g *ImageGrid) FocusGained() {
	g.focused = true
	g.layoutTiles()
}

func (g *ImageGrid) FocusLost() {
	g.focused = false
	g.layoutTiles()
}

func (g *ImageGrid) TypedRune(rune) {}

func (g *ImageGrid) TypedKey(e *fyne.KeyEvent) {
	if g.folder.Count() == 0 {
		return
	}

	switch e.Name {
	case fyne.KeyReturn, fyne.KeyEnter:
		g.activate(g.current)
		return
	case fyne.KeySpace:
		g.toggle(g.current)
		g.layoutTiles()
		return
	}

	action, ok := cursorKeys[e.Name]
	if !ok {
		return
	}
	row := g.ctrl.MoveCursor(g.current, action)
	if row < 0 {
		return
	}
	if modifiers()&fyne.KeyModifierShift != 0 {
		g.current = row
		g.extendTo(row)
	} else {
		g.selectOnly(row)
	}
	g.ctrl.ScrollTo(row)
	g.layoutTiles()
}

func (g *ImageGrid) Tapped(e *fyne.PointEvent) {
	g.requestFocus()
}

func (g *ImageGrid) DoubleTapped(e *fyne.PointEvent) {
	if row, ok := g.rowAt(e.Position); ok {
		g.activate(row)
	}
}

func (g *ImageGrid) MouseDown(*desktop.MouseEvent) {}

func (g *ImageGrid) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	// A drag ends with a mouse up of its own.
	if g.dragging || time.Since(g.dragEnded) < 100*time.Millisecond {
		return
	}

	row, ok := g.rowAt(e.Position)
	if !ok {
		if e.Modifier&(fyne.KeyModifierControl|fyne.KeyModifierShift) == 0 {
			g.clearSelection()
			g.layoutTiles()
		}
		return
	}

	switch {
	case e.Modifier&fyne.KeyModifierControl != 0:
		g.current = row
		g.anchor = row
		g.toggle(row)
	case e.Modifier&fyne.KeyModifierShift != 0:
		g.current = row
		g.extendTo(row)
	default:
		g.selectOnly(row)
	}
	g.layoutTiles()
}

func (g *ImageGrid) rowAt(pos fyne.Position) (int, bool) {
	return g.ctrl.Geometry().RowAt(image.Pt(int(pos.X), int(pos.Y)))
}

func (g *ImageGrid) requestFocus() {
	app := fyne.CurrentApp()
	if app == nil {
		return
	}
	if c := app.Driver().CanvasForObject(g); c != nil {
		c.Focus(g)
	}
}

func (g *ImageGrid) activate(row int) {
	if row < 0 || row >= g.folder.Count() || g.OnActivated == nil {
		return
	}
	g.log.Debug("tile activated", zap.Int("row", row))
	g.OnActivated(row, g.folder.URIAt(row))
}

func (g *ImageGrid) selectOnly(row int) {
	clear(g.selected)
	g.selected[row] = true
	g.current = row
	g.anchor = row
	g.selectionChanged()
}

func (g *ImageGrid) toggle(row int) {
	if g.selected[row] {
		delete(g.selected, row)
	} else {
		g.selected[row] = true
	}
	g.selectionChanged()
}

// extendTo selects every row between the anchor and row.
func (g *ImageGrid) extendTo(row int) {
	lo, hi := min(g.anchor, row), max(g.anchor, row)
	clear(g.selected)
	for r := lo; r <= hi; r++ {
		g.selected[r] = true
	}
	g.selectionChanged()
}

func (g *ImageGrid) clearSelection() {
	if len(g.selected) == 0 {
		return
	}
	clear(g.selected)
	g.selectionChanged()
}

func (g *ImageGrid) selectionChanged() {
	if g.OnSelectionChanged != nil {
		g.OnSelectionChanged(g.SelectedRows())
	}
}

func (g *ImageGrid) onBandChanged(band image.Rectangle) {
	if !g.dragging {
		g.dragging = true
		g.dragBase = nil
		if modifiers()&fyne.KeyModifierControl != 0 {
			g.dragBase = make(map[int]bool, len(g.selected))
			for row := range g.selected {
				g.dragBase[row] = true
			}
		}
	}

	rows := g.ctrl.RowsIn(band)

	next := make(map[int]bool, len(rows)+len(g.dragBase))
	for row := range g.dragBase {
		next[row] = true
	}
	for _, row := range rows {
		next[row] = true
	}
	if sameSelection(g.selected, next) {
		return
	}
	g.selected = next
	if len(rows) > 0 {
		g.current = rows[len(rows)-1]
		g.anchor = rows[0]
	}
	g.selectionChanged()
	g.layoutTiles()
}

func (g *ImageGrid) onBandEnd() {
	g.dragging = false
	g.dragBase = nil
	g.dragEnded = time.Now()
}

func sameSelection(a, b map[int]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for row := range a {
		if !b[row] {
			return false
		}
	}
	return true
}

func (g *ImageGrid) onZoomStep(steps int) {
	// Scrolling up zooms in, which means fewer columns.
	g.SetColumnCount(g.ctrl.ColumnCount() - steps)
}

func (g *ImageGrid) onFolderReset() {
	clear(g.selected)
	g.current = 0
	g.anchor = 0
	g.selectionChanged()
	g.updateBackground()
}

func (g *ImageGrid) updateBackground() {
	if bg := g.folder.Background(); bg != nil {
		g.background.Objects = []fyne.CanvasObject{bg}
	} else {
		g.background.Objects = nil
	}
	g.background.Refresh()
}

// layoutTiles binds a pooled view to every tile in the viewport.
func (g *ImageGrid) layoutTiles() {
	if g.ctrl == nil {
		return
	}
	tiles := g.ctrl.Paint(g.ctrl.Geometry().Viewport())
	for len(g.pool) < len(tiles) {
		v := newTileView()
		g.pool = append(g.pool, v)
		g.tiles.Objects = append(g.tiles.Objects, v.objects()...)
	}

	clear(g.byRow)
	for i, v := range g.pool {
		if i >= len(tiles) {
			v.hide()
			continue
		}
		g.bind(v, tiles[i])
	}
	g.tiles.Refresh()
	g.updateIndicator()
}

// repaint redraws the views of the tiles inside r.
func (g *ImageGrid) repaint(r image.Rectangle) {
	if g.ctrl == nil {
		return
	}
	if g.ctrl.Geometry().Viewport().In(r) {
		g.layoutTiles()
		return
	}
	for _, tile := range g.ctrl.Paint(r) {
		v, ok := g.byRow[tile.Row]
		if !ok {
			g.layoutTiles()
			return
		}
		g.bind(v, tile)
	}
}

func (g *ImageGrid) bind(v *tileView, tile grid.Tile) {
	g.byRow[tile.Row] = v
	v.update(tile, g.selected[tile.Row], g.focused && tile.Row == g.current)
}

func (g *ImageGrid) updateIndicator() {
	if g.ctrl == nil || g.scroll.Max <= 0 {
		g.indicator.Hide()
		return
	}
	view := g.ctrl.Geometry()
	total := float32(g.scroll.Max + view.Height)
	h := float32(view.Height) * float32(view.Height) / total
	y := float32(view.Offset.Y) * float32(view.Height) / total
	g.indicator.Move(fyne.NewPos(float32(view.Width-scrollIndicatorWidth), y))
	g.indicator.Resize(fyne.NewSize(scrollIndicatorWidth, max(h, theme.Padding()*2)))
	g.indicator.Show()
	g.indicator.Refresh()
}

func modifiers() fyne.KeyModifier {
	app := fyne.CurrentApp()
	if app == nil {
		return 0
	}
	if d, ok := app.Driver().(desktop.Driver); ok {
		return d.CurrentKeyModifiers()
	}
	return 0
}

var (
	_ fyne.Widget         = (*ImageGrid)(nil)
	_ fyne.Scrollable     = (*ImageGrid)(nil)
	_ fyne.Focusable      = (*ImageGrid)(nil)
	_ fyne.Tappable       = (*ImageGrid)(nil)
	_ fyne.DoubleTappable = (*ImageGrid)(nil)
	_ desktop.Mouseable   = (*ImageGrid)(nil)
)

type imageGridRenderer struct {
	g *ImageGrid
}

func (r *imageGridRenderer) Layout(size fyne.Size) {
	g := r.g
	g.background.Resize(size)
	g.tiles.Resize(size)
	g.overlay.Resize(size)
	g.zoom.Resize(size)
	g.ctrl.Resized(image.Pt(int(size.Width), int(size.Height)))
	g.layoutTiles()
}

func (r *imageGridRenderer) MinSize() fyne.Size {
	s := theme.IconInlineSize() * 4
	return fyne.NewSize(s, s)
}

func (r *imageGridRenderer) Refresh() {
	r.g.indicator.FillColor = theme.Color(theme.ColorNameScrollBar)
	r.g.layoutTiles()
	r.g.background.Refresh()
}

func (r *imageGridRenderer) Objects() []fyne.CanvasObject {
	g := r.g
	return []fyne.CanvasObject{g.background, g.tiles, g.indicator, g.overlay, g.zoom}
}

func (r *imageGridRenderer) Destroy() {}
