//go:build !windows

package gridview

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
)

func rootPlaces() []place {
	lister, err := storage.ListerForURI(storage.NewFileURI("/"))
	if err != nil {
		fyne.LogError("could not create lister for /", err)
		return nil
	}
	return []place{{name: "Computer", icon: theme.ComputerIcon(), loc: lister}}
}
