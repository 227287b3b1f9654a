//go:build !flatpak || windows || android || ios || wasm || js

package gridview

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
)

// ChooseFolder shows a folder dialog over parent. callback runs on the UI
// goroutine with nil, nil when the user cancels.
func ChooseFolder(parent fyne.Window, start fyne.ListableURI, callback func(fyne.ListableURI, error)) {
	d := dialog.NewFolderOpen(callback, parent)
	if start != nil {
		d.SetLocation(start)
	}
	d.Show()
}
