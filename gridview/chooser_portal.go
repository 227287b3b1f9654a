//go:build flatpak && !windows && !android && !ios && !wasm && !js

package gridview

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver"
	"fyne.io/fyne/v2/lang"
	"fyne.io/fyne/v2/storage"

	"github.com/rymdport/portal"
	"github.com/rymdport/portal/filechooser"
)

// ChooseFolder asks the desktop portal for a directory. callback runs on the
// UI goroutine with nil, nil when the user cancels.
func ChooseFolder(parent fyne.Window, start fyne.ListableURI, callback func(fyne.ListableURI, error)) {
	options := &filechooser.OpenFileOptions{
		AcceptLabel: lang.L("Open"),
		Directory:   true,
	}
	if start != nil {
		options.CurrentFolder = start.Path()
	}
	windowHandle := windowHandleForPortal(parent)

	go func() {
		uris, err := filechooser.OpenFile(windowHandle, lang.L("Open")+" "+lang.L("Folder"), options)
		if err != nil || len(uris) == 0 {
			fyne.Do(func() { callback(nil, err) })
			return
		}

		var dir fyne.ListableURI
		uri, err := storage.ParseURI(uris[0])
		if err == nil {
			dir, err = storage.ListerForURI(uri)
		}
		fyne.Do(func() { callback(dir, err) })
	}()
}

func windowHandleForPortal(window fyne.Window) string {
	native, ok := window.(driver.NativeWindow)
	if !ok {
		return ""
	}

	windowHandle := ""
	native.RunNative(func(context any) {
		if x11, ok := context.(driver.X11WindowContext); ok {
			windowHandle = portal.FormatX11WindowHandle(x11.WindowHandle)
		}
	})
	return windowHandle
}
