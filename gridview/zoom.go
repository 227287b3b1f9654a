package gridview

import (
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

const (
	minColumns = 1
	maxColumns = 12

	// wheelNotch is the scroll delta of one mouse wheel click.
	wheelNotch = float32(40)
)

func clampColumns(n int) int {
	return min(max(n, minColumns), maxColumns)
}

// zoomHeld reports whether ctrl, or cmd on macOS, is down.
func zoomHeld() bool {
	a := fyne.CurrentApp()
	if a == nil {
		return false
	}
	d, ok := a.Driver().(desktop.Driver)
	if !ok {
		return false
	}
	return d.CurrentKeyModifiers()&(fyne.KeyModifierControl|fyne.KeyModifierShortcutDefault) != 0
}

// notchCounter turns a stream of wheel or touchpad deltas into whole notches,
// carrying the remainder to the next event.
type notchCounter struct {
	rest float32
}

func (n *notchCounter) add(dy float32) int {
	if math.IsNaN(float64(dy)) || math.IsInf(float64(dy), 0) {
		return 0
	}
	n.rest += dy
	steps := int(n.rest / wheelNotch)
	n.rest -= float32(steps) * wheelNotch
	return steps
}

// columnZoom sits above the tiles and catches scroll events only while the
// zoom modifier is held; plain scrolling falls through to the grid.
type columnZoom struct {
	widget.BaseWidget

	onStep  func(steps int)
	notches notchCounter
}

func newColumnZoom(onStep func(steps int)) *columnZoom {
	z := &columnZoom{onStep: onStep}
	z.ExtendBaseWidget(z)
	return z
}

func (z *columnZoom) Visible() bool {
	return z.BaseWidget.Visible() && zoomHeld()
}

func (z *columnZoom) Scrolled(e *fyne.ScrollEvent) {
	steps := z.notches.add(e.Scrolled.DY)
	if steps != 0 && z.onStep != nil {
		z.onStep(steps)
	}
}

func (z *columnZoom) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewWithoutLayout())
}

var _ fyne.Scrollable = (*columnZoom)(nil)
