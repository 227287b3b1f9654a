package gridview

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/storage"
	"github.com/FyshOS/fancyfs"

	"github.com/alexballas/ximagegrid/grid"
)

// Folder is the list behind an ImageGrid: the image files of one directory,
// sorted by name. Changing the location or the filters replaces the whole
// list and notifies every OnReset subscriber.
type Folder struct {
	dir        fyne.ListableURI
	items      []fyne.URI
	showHidden bool
	video      bool
	onReset    []func()
}

// NewFolder returns an empty folder.
func NewFolder() *Folder {
	return &Folder{}
}

// SetLocation lists dir and replaces the contents. On error the previous
// contents are kept.
func (f *Folder) SetLocation(dir fyne.ListableURI) error {
	if dir == nil {
		return fmt.Errorf("set location: nil directory")
	}
	items, err := f.scan(dir)
	if err != nil {
		return fmt.Errorf("list %s: %w", dir, err)
	}
	f.dir = dir
	f.items = items
	f.notify()
	return nil
}

// Refresh lists the current location again.
func (f *Folder) Refresh() error {
	if f.dir == nil {
		return nil
	}
	return f.SetLocation(f.dir)
}

func (f *Folder) scan(dir fyne.ListableURI) ([]fyne.URI, error) {
	files, err := dir.List()
	if err != nil {
		return nil, err
	}

	var items []fyne.URI
	for _, file := range files {
		if !f.showHidden && isHidden(file) {
			continue
		}
		if isDir, _ := storage.CanList(file); isDir {
			continue
		}
		ext := file.Extension()
		if grid.IsSupportedImage(ext) || (f.video && grid.IsSupportedVideo(ext)) {
			items = append(items, file)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i].Name()) < strings.ToLower(items[j].Name())
	})
	return items, nil
}

func (f *Folder) notify() {
	for _, fn := range f.onReset {
		fn()
	}
}

// Location returns the listed directory, or nil before the first SetLocation.
func (f *Folder) Location() fyne.ListableURI {
	return f.dir
}

// Count returns the number of listed images.
func (f *Folder) Count() int {
	return len(f.items)
}

// IdentifierAt returns the decoder identifier of row: the file path for
// local files, the URI string otherwise.
func (f *Folder) IdentifierAt(row int) string {
	u := f.items[row]
	if u.Scheme() == "file" {
		return u.Path()
	}
	return u.String()
}

// URIAt returns the URI of row.
func (f *Folder) URIAt(row int) fyne.URI {
	if row < 0 || row >= len(f.items) {
		return nil
	}
	return f.items[row]
}

// OnReset registers fn to run after every content replacement.
func (f *Folder) OnReset(fn func()) {
	f.onReset = append(f.onReset, fn)
}

// SetShowHidden toggles dot files and relists.
func (f *Folder) SetShowHidden(show bool) error {
	if f.showHidden == show {
		return nil
	}
	f.showHidden = show
	return f.Refresh()
}

// ShowHidden reports whether dot files are listed.
func (f *Folder) ShowHidden() bool {
	return f.showHidden
}

// SetIncludeVideo toggles video files and relists.
func (f *Folder) SetIncludeVideo(include bool) error {
	if f.video == include {
		return nil
	}
	f.video = include
	return f.Refresh()
}

// Background returns the folder's custom decoration, if it has one.
func (f *Folder) Background() fyne.CanvasObject {
	if f.dir == nil {
		return nil
	}
	details, err := fancyfs.DetailsForFolder(f.dir)
	if err != nil || details == nil {
		return nil
	}
	if details.BackgroundURI != nil {
		img := canvas.NewImageFromFile(details.BackgroundURI.Path())
		img.FillMode = details.BackgroundFill
		return img
	}
	if details.BackgroundResource != nil {
		img := canvas.NewImageFromResource(details.BackgroundResource)
		img.FillMode = canvas.ImageFillContain
		return img
	}
	return nil
}

func isHidden(file fyne.URI) bool {
	if file.Scheme() != "file" {
		return false
	}
	name := filepath.Base(file.Path())
	return name == "" || name[0] == '.'
}

// StartingDir returns the user's pictures or home directory, falling back
// to the filesystem root.
func StartingDir() fyne.ListableURI {
	if home, err := os.UserHomeDir(); err == nil {
		homeURI := storage.NewFileURI(home)
		if pics, err := favoriteLocation(homeURI, "Pictures"); err == nil {
			if lister, err := storage.ListerForURI(pics); err == nil {
				return lister
			}
		}
		if lister, err := storage.ListerForURI(homeURI); err == nil {
			return lister
		}
	}
	lister, _ := storage.ListerForURI(storage.NewFileURI("/"))
	return lister
}
