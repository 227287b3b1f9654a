//go:build windows

package gridview

import (
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"golang.org/x/sys/windows"
)

// rootPlaces lists one entry per mounted drive letter.
func rootPlaces() []place {
	mask, err := windows.GetLogicalDrives()
	if err != nil {
		fyne.LogError("Error calling GetLogicalDrives", err)
		return nil
	}

	var places []place
	for i := range 26 {
		if mask&1 == 1 {
			drive := string('A'+rune(i)) + ":"
			if l, err := storage.ListerForURI(storage.NewFileURI(drive + string(os.PathSeparator))); err == nil {
				places = append(places, place{name: drive, icon: theme.StorageIcon(), loc: l})
			}
		}
		mask >>= 1
	}
	return places
}
