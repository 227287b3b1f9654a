package gridview

import (
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

// Breadcrumb shows the current location as one button per path segment.
type Breadcrumb struct {
	onSelect func(dir fyne.ListableURI)
	content  *fyne.Container
	scroll   *container.Scroll
}

// NewBreadcrumb calls onSelect with the segment's directory when a button
// is tapped.
func NewBreadcrumb(onSelect func(dir fyne.ListableURI)) *Breadcrumb {
	b := &Breadcrumb{
		onSelect: onSelect,
		content:  container.NewHBox(),
	}
	b.scroll = container.NewHScroll(container.NewPadded(b.content))
	return b
}

// Object returns the widget to place in a window.
func (b *Breadcrumb) Object() fyne.CanvasObject {
	return b.scroll
}

// Update rebuilds the segments for dir, root first.
func (b *Breadcrumb) Update(dir fyne.ListableURI) {
	var segments []fyne.CanvasObject
	for current := dir; current != nil; {
		target := current
		name := current.Name()
		if name == "" {
			name = current.Path()
		}
		segments = append(segments, widget.NewButton(name, func() {
			if b.onSelect != nil {
				b.onSelect(target)
			}
		}))

		parent, err := storage.Parent(current)
		if err != nil || parent == nil || parent.String() == current.String() {
			break
		}
		current = nil
		if l, err := storage.ListerForURI(cleanDir(parent)); err == nil {
			current = l
		}
	}

	b.content.Objects = b.content.Objects[:0]
	for i := len(segments) - 1; i >= 0; i-- {
		b.content.Objects = append(b.content.Objects, segments[i])
	}
	b.content.Refresh()
}

// cleanDir drops the trailing separator storage.Parent leaves on file
// folders, so every lister of a directory carries the same URI.
func cleanDir(u fyne.URI) fyne.URI {
	if u.Scheme() != "file" {
		return u
	}
	return storage.NewFileURI(filepath.Clean(u.Path()))
}

func sameDir(a, b fyne.URI) bool {
	if a == nil || b == nil {
		return a == b
	}
	return cleanDir(a).String() == cleanDir(b).String()
}
