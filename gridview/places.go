package gridview

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/lang"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/FyshOS/fancyfs"
)

type place struct {
	name string
	icon fyne.Resource
	loc  fyne.ListableURI
}

// Places is a side list of well-known folders. Selecting one calls
// OnSelected with its location.
type Places struct {
	OnSelected func(dir fyne.ListableURI)

	list  *widget.List
	items []place
}

// NewPlaces builds the list from the user's home, the XDG media folders and
// the filesystem roots.
func NewPlaces(onSelected func(dir fyne.ListableURI)) *Places {
	p := &Places{OnSelected: onSelected}
	p.items = loadPlaces()

	p.list = widget.NewList(
		func() int { return len(p.items) },
		func() fyne.CanvasObject {
			return container.NewHBox(
				widget.NewIcon(theme.FolderIcon()),
				widget.NewLabel(lang.L("Template")),
			)
		},
		func(id widget.ListItemID, o fyne.CanvasObject) {
			if id >= len(p.items) {
				return
			}
			item := p.items[id]
			box := o.(*fyne.Container)
			box.Objects[0].(*widget.Icon).SetResource(item.icon)
			box.Objects[1].(*widget.Label).SetText(lang.L(item.name))
		},
	)
	p.list.OnSelected = func(id widget.ListItemID) {
		if id < len(p.items) && p.OnSelected != nil {
			p.OnSelected(p.items[id].loc)
		}
	}
	return p
}

// Object returns the widget to place in a window.
func (p *Places) Object() fyne.CanvasObject {
	return p.list
}

// Sync highlights dir if it is one of the places, and clears the highlight
// otherwise.
func (p *Places) Sync(dir fyne.ListableURI) {
	i := p.indexOf(dir)
	if i < 0 {
		p.list.UnselectAll()
		return
	}
	onSelected := p.OnSelected
	p.OnSelected = nil
	p.list.Select(i)
	p.OnSelected = onSelected
}

func (p *Places) indexOf(dir fyne.URI) int {
	if dir == nil {
		return -1
	}
	for i, item := range p.items {
		if item.loc != nil && sameDir(item.loc, dir) {
			return i
		}
	}
	return -1
}

func loadPlaces() []place {
	var items []place

	homeDir, _ := os.UserHomeDir()
	homeURI := storage.NewFileURI(homeDir)
	if l, err := storage.ListerForURI(homeURI); err == nil {
		items = append(items, place{name: "Home", icon: folderIcon(homeURI, theme.HomeIcon()), loc: l})
	}

	order := []string{"Pictures", "Desktop", "Documents", "Downloads", "Videos"}
	if runtime.GOOS == "darwin" {
		order = []string{"Pictures", "Desktop", "Documents", "Downloads", "Movies"}
	}
	for _, name := range order {
		uri, err := favoriteLocation(homeURI, name)
		if err != nil {
			continue
		}
		if l, err := storage.ListerForURI(uri); err == nil {
			items = append(items, place{name: name, icon: folderIcon(uri, theme.FolderIcon()), loc: l})
		}
	}

	return append(items, rootPlaces()...)
}

func folderIcon(uri fyne.URI, fallback fyne.Resource) fyne.Resource {
	if details, err := fancyfs.DetailsForFolder(uri); err == nil && details != nil && details.BackgroundResource != nil {
		return details.BackgroundResource
	}
	return fallback
}

func favoriteLocation(homeURI fyne.URI, name string) (fyne.URI, error) {
	if runtime.GOOS != "linux" && runtime.GOOS != "openbsd" && runtime.GOOS != "freebsd" && runtime.GOOS != "netbsd" {
		return storage.Child(homeURI, name)
	}

	const cmdName = "xdg-user-dir"
	if _, err := exec.LookPath(cmdName); err != nil {
		return storage.Child(homeURI, name)
	}

	loc, err := exec.Command(cmdName, strings.ToUpper(name)).Output()
	if err != nil {
		return storage.Child(homeURI, name)
	}

	locURI := storage.NewFileURI(filepath.Clean(strings.TrimSpace(string(loc))))
	// xdg-user-dir answers with the home directory for unset entries.
	if locURI.String() == homeURI.String() {
		childPath := filepath.Join(homeURI.Path(), name)
		if resolved, err := filepath.EvalSymlinks(childPath); err == nil {
			return storage.NewFileURI(resolved), nil
		}
		return storage.NewFileURI(childPath), nil
	}
	return locURI, nil
}
