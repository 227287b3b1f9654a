package gridview

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// bandOverlay draws the rubber band while the pointer is dragged over the
// grid. The band is reported in viewport pixels, both edges included.
type bandOverlay struct {
	widget.BaseWidget

	band *canvas.Rectangle

	origin   fyne.Position
	pointer  fyne.Position
	dragging bool

	onChanged func(band image.Rectangle)
	onEnd     func()
}

func newBandOverlay(onChanged func(band image.Rectangle), onEnd func()) *bandOverlay {
	o := &bandOverlay{
		band:      canvas.NewRectangle(color.Transparent),
		onChanged: onChanged,
		onEnd:     onEnd,
	}
	o.band.StrokeWidth = 2
	o.applyTheme()
	o.band.Hide()
	o.ExtendBaseWidget(o)
	return o
}

func (o *bandOverlay) applyTheme() {
	o.band.StrokeColor = theme.Color(theme.ColorNamePrimary)
	r, g, b, _ := theme.Color(theme.ColorNameFocus).RGBA()
	o.band.FillColor = color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 64}
}

func (o *bandOverlay) CreateRenderer() fyne.WidgetRenderer {
	return &bandOverlayRenderer{o: o}
}

func (o *bandOverlay) Dragged(e *fyne.DragEvent) {
	if !o.dragging {
		o.dragging = true
		o.origin = e.Position.Subtract(e.Dragged)
		o.band.Show()
	}
	o.pointer = e.Position

	tl := fyne.NewPos(min(o.origin.X, o.pointer.X), min(o.origin.Y, o.pointer.Y))
	br := fyne.NewPos(max(o.origin.X, o.pointer.X), max(o.origin.Y, o.pointer.Y))
	o.band.Move(tl)
	o.band.Resize(fyne.NewSize(br.X-tl.X, br.Y-tl.Y))
	o.band.Refresh()

	if o.onChanged != nil {
		o.onChanged(image.Rect(int(tl.X), int(tl.Y), int(br.X)+1, int(br.Y)+1))
	}
}

func (o *bandOverlay) DragEnd() {
	if !o.dragging {
		return
	}
	o.dragging = false
	o.band.Hide()

	if o.onEnd != nil {
		o.onEnd()
	}
}

var _ fyne.Draggable = (*bandOverlay)(nil)

type bandOverlayRenderer struct {
	o *bandOverlay
}

func (r *bandOverlayRenderer) Layout(fyne.Size) {}

func (r *bandOverlayRenderer) MinSize() fyne.Size {
	return fyne.NewSize(0, 0)
}

func (r *bandOverlayRenderer) Refresh() {
	r.o.applyTheme()
	r.o.band.Refresh()
}

func (r *bandOverlayRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.o.band}
}

func (r *bandOverlayRenderer) Destroy() {}
