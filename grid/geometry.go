package grid

import "image"

// Range is a half-open interval of rows [Begin, End).
type Range struct {
	Begin, End int
}

// Len returns the number of rows in the range.
func (r Range) Len() int {
	if r.End <= r.Begin {
		return 0
	}
	return r.End - r.Begin
}

// Contains reports whether row lies inside the range.
func (r Range) Contains(row int) bool {
	return row >= r.Begin && row < r.End
}

// ScrollRange describes the vertical scrollbar derived from the layout.
type ScrollRange struct {
	Max        int
	PageStep   int
	SingleStep int
}

// CursorAction is a keyboard cursor movement.
type CursorAction int

const (
	MoveHome CursorAction = iota
	MoveEnd
	MovePageUp
	MovePageDown
	MovePrevious
	MoveNext
	MoveLeft
	MoveRight
	MoveUp
	MoveDown
)

// Geometry maps between rows, tile rectangles and viewport points. It is a
// value type; every method is O(1) and side-effect free.
//
// Items are laid out left to right, Columns per layout row. Tiles are
// Width/Columns wide and never taller than the viewport. Offset is the
// scroll position of the viewport inside the content.
type Geometry struct {
	Columns int
	Width   int
	Height  int
	Count   int
	Offset  image.Point
}

func (g Geometry) columns() int {
	if g.Columns < 1 {
		return 1
	}
	return g.Columns
}

// TileSize returns the width and height of one tile.
func (g Geometry) TileSize() (int, int) {
	w := g.Width / g.columns()
	if w < 0 {
		w = 0
	}
	h := min(w, g.Height)
	if h < 0 {
		h = 0
	}
	return w, h
}

// Viewport returns the viewport rectangle in viewport coordinates.
func (g Geometry) Viewport() image.Rectangle {
	return image.Rect(0, 0, g.Width, g.Height)
}

// Rect returns the tile rectangle of row in viewport coordinates.
func (g Geometry) Rect(row int) image.Rectangle {
	cols := g.columns()
	w, h := g.TileSize()
	r := row / cols
	c := row % cols
	x := c*w - g.Offset.X
	y := r*h - g.Offset.Y
	return image.Rect(x, y, x+w, y+h)
}

// RowAt returns the row whose tile contains pt, given in viewport
// coordinates. It reports false outside the tiles or outside [0, Count).
func (g Geometry) RowAt(pt image.Point) (int, bool) {
	w, h := g.TileSize()
	if w <= 0 || h <= 0 {
		return 0, false
	}
	p := pt.Add(g.Offset)
	if p.X < 0 || p.Y < 0 {
		return 0, false
	}
	cols := g.columns()
	c := p.X / w
	if c >= cols {
		return 0, false
	}
	i := (p.Y/h)*cols + c
	if i < 0 || i >= g.Count {
		return 0, false
	}
	return i, true
}

// VisibleRange returns the rows whose tiles intersect rect. Begin comes from
// the top-left corner and End from the bottom-right one; corners outside the
// tiles clamp to the nearest row so the result always lies within [0, Count).
// A top-left corner past the last item gives an empty range rather than
// falling back to row 0, so a viewport below the last row loads nothing.
func (g Geometry) VisibleRange(rect image.Rectangle) Range {
	rect = rect.Canon()
	w, h := g.TileSize()
	if rect.Empty() || g.Count <= 0 || w <= 0 || h <= 0 {
		return Range{}
	}
	begin := g.clampedIndex(rect.Min)
	end := g.clampedIndex(rect.Max.Sub(image.Pt(1, 1))) + 1
	begin = clamp(begin, 0, g.Count)
	end = clamp(end, begin, g.Count)
	return Range{Begin: begin, End: end}
}

func (g Geometry) clampedIndex(pt image.Point) int {
	w, h := g.TileSize()
	cols := g.columns()
	p := pt.Add(g.Offset)
	p.X = clamp(p.X, 0, cols*w-1)
	if p.Y < 0 {
		p.Y = 0
	}
	return (p.Y/h)*cols + p.X/w
}

// VisibleTileCount returns an upper bound of how many tiles can be on screen
// at once, counting partially visible rows at both edges.
func (g Geometry) VisibleTileCount() int {
	_, h := g.TileSize()
	if h <= 0 {
		return 0
	}
	rows := (g.Height+h-1)/h + 1
	return rows * g.columns()
}

// ScrollRange returns the vertical scroll bounds and steps for the layout.
func (g Geometry) ScrollRange() ScrollRange {
	_, h := g.TileSize()
	if h <= 0 {
		return ScrollRange{}
	}
	cols := g.columns()
	rows := (g.Count + cols - 1) / cols
	limit := rows*h - g.Height
	if limit < 0 {
		limit = 0
	}
	return ScrollRange{
		Max:        limit,
		PageStep:   g.Height / h * h,
		SingleStep: h / 2,
	}
}

// ClampOffset limits a vertical offset to the scroll range.
func (g Geometry) ClampOffset(y int) int {
	return clamp(y, 0, g.ScrollRange().Max)
}

// ScrollTo returns the vertical offset that brings row fully into view,
// moving as little as possible.
func (g Geometry) ScrollTo(row int) int {
	rect := g.Rect(row)
	y := g.Offset.Y
	switch {
	case rect.Min.Y < 0:
		y += rect.Min.Y
	case rect.Max.Y > g.Height:
		y += min(rect.Max.Y-g.Height, rect.Min.Y)
	}
	return g.ClampOffset(y)
}

// Move returns the row the cursor lands on after action, starting at row.
func (g Geometry) Move(row int, action CursorAction) int {
	if g.Count <= 0 {
		return -1
	}
	cols := g.columns()
	w, h := g.TileSize()
	page := 0
	if w > 0 && h > 0 {
		page = (g.Width / w) * (g.Height / h)
	}

	offset := 0
	switch action {
	case MoveHome:
		offset = -row
	case MoveEnd:
		offset = max(g.Count-row-1, 0)
	case MovePageDown:
		offset = page
	case MovePageUp:
		offset = -page
	case MovePrevious, MoveLeft:
		offset = -1
	case MoveNext, MoveRight:
		offset = 1
	case MoveUp:
		if row+1 > cols {
			offset = -cols
		}
	case MoveDown:
		if row+cols < g.Count {
			offset = cols
		}
	}
	return clamp(row+offset, 0, g.Count-1)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
