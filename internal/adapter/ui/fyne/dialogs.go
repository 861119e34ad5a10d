package fyne

import (
	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
)

// showFileOpen asks for one file and passes its path to onPick.
func showFileOpen(window fyneapp.Window, onPick func(path string), onError func(title, message string)) {
	dialog.ShowFileOpen(func(reader fyneapp.URIReadCloser, err error) {
		if err != nil {
			onError("Open File", err.Error())
			return
		}
		if reader == nil {
			return // cancelled
		}
		defer reader.Close()
		onPick(reader.URI().Path())
	}, window)
}

// showFolderOpen asks for a folder and passes its path to onPick.
func showFolderOpen(window fyneapp.Window, onPick func(path string), onError func(title, message string)) {
	dialog.ShowFolderOpen(func(uri fyneapp.ListableURI, err error) {
		if err != nil {
			onError("Open Folder", err.Error())
			return
		}
		if uri == nil {
			return // cancelled
		}
		onPick(uri.Path())
	}, window)
}
