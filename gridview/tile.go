package gridview

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/lang"
	"fyne.io/fyne/v2/theme"

	"github.com/alexballas/ximagegrid/grid"
)

const tileInset = 2

// tileView is the set of canvas objects drawing one grid tile. Views are
// pooled by ImageGrid and rebound to whichever row scrolls into place.
type tileView struct {
	image   *canvas.Image
	icon    *canvas.Image
	label   *canvas.Text
	outline *canvas.Rectangle

	row int
}

func newTileView() *tileView {
	v := &tileView{
		image:   &canvas.Image{FillMode: canvas.ImageFillStretch, ScaleMode: canvas.ImageScaleSmooth},
		icon:    canvas.NewImageFromResource(theme.BrokenImageIcon()),
		label:   canvas.NewText(lang.L("Loading..."), theme.Color(theme.ColorNamePlaceHolder)),
		outline: canvas.NewRectangle(color.Transparent),
		row:     -1,
	}
	v.icon.FillMode = canvas.ImageFillContain
	v.label.Alignment = fyne.TextAlignCenter
	v.label.TextSize = theme.CaptionTextSize()
	v.outline.StrokeWidth = 2
	v.hide()
	return v
}

func (v *tileView) objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{v.image, v.icon, v.label, v.outline}
}

func (v *tileView) hide() {
	v.row = -1
	v.image.Hide()
	v.icon.Hide()
	v.label.Hide()
	v.outline.Hide()
}

// update binds the view to tile and redraws it.
func (v *tileView) update(tile grid.Tile, selected, current bool) {
	v.row = tile.Row
	r := tile.Rect

	switch tile.State {
	case grid.TileReady:
		v.icon.Hide()
		v.label.Hide()
		fit := fitRect(r, tile.Image.Width(), tile.Image.Height())
		v.image.Image = tile.Image.Pixels
		placeRect(v.image, fit)
		v.image.Show()
		v.image.Refresh()
	case grid.TileFailed:
		v.image.Hide()
		v.label.Hide()
		placeRect(v.icon, r.Inset(r.Dx()/4))
		v.icon.Show()
		v.icon.Refresh()
	default:
		v.image.Hide()
		v.icon.Hide()
		v.label.Move(fyne.NewPos(float32(r.Min.X), float32(r.Min.Y)))
		v.label.Resize(fyne.NewSize(float32(r.Dx()), float32(r.Dy())))
		v.label.Show()
		v.label.Refresh()
	}

	switch {
	case selected:
		v.outline.StrokeColor = theme.Color(theme.ColorNamePrimary)
	case current:
		v.outline.StrokeColor = theme.Color(theme.ColorNameFocus)
	default:
		v.outline.Hide()
		return
	}
	placeRect(v.outline, r.Inset(1))
	v.outline.Show()
	v.outline.Refresh()
}

func placeRect(o fyne.CanvasObject, r image.Rectangle) {
	o.Move(fyne.NewPos(float32(r.Min.X), float32(r.Min.Y)))
	o.Resize(fyne.NewSize(float32(r.Dx()), float32(r.Dy())))
}

// fitRect returns the largest rectangle with the aspect ratio of a w x h
// image that fits centred inside r less the tile inset.
func fitRect(r image.Rectangle, w, h int) image.Rectangle {
	inner := r.Inset(tileInset)
	if w <= 0 || h <= 0 || inner.Empty() {
		return inner
	}

	scale := min(float64(inner.Dx())/float64(w), float64(inner.Dy())/float64(h))
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	x := inner.Min.X + (inner.Dx()-dw)/2
	y := inner.Min.Y + (inner.Dy()-dh)/2
	return image.Rect(x, y, x+dw, y+dh)
}
