package ui

import (
	"context"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"

	"github.com/ytget/yt-mp3/internal/download"
	"github.com/ytget/yt-mp3/internal/platform"
)

// SaveDialog asks for the MP3 location with Fyne's file save dialog. Only
// the chosen directory is used; the extractor names the file itself.
type SaveDialog struct {
	window fyne.Window
}

// NewSaveDialog creates a save dialog bound to window
func NewSaveDialog(window fyne.Window) *SaveDialog {
	return &SaveDialog{window: window}
}

type saveChoice struct {
	dir string
	err error
}

// ChooseDirectory shows the dialog on the UI goroutine and blocks until the
// user answers or ctx is done. It must not be called from the UI goroutine.
func (d *SaveDialog) ChooseDirectory(ctx context.Context, defaultDir, title string) (string, error) {
	choices := make(chan saveChoice, 1)
	var dlg *dialog.FileDialog

	fyne.Do(func() {
		dlg = dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
			choices <- chooseFromWriter(writer, err)
		}, d.window)
		dlg.SetFileName(title + platform.MP3Extension)
		if location, err := storage.ListerForURI(storage.NewFileURI(defaultDir)); err == nil {
			dlg.SetLocation(location)
		}
		dlg.Show()
	})

	select {
	case c := <-choices:
		return c.dir, c.err
	case <-ctx.Done():
		fyne.Do(func() {
			if dlg != nil {
				dlg.Hide()
			}
		})
		return "", ctx.Err()
	}
}

// chooseFromWriter turns the dialog callback into a directory. The dialog
// creates an empty file at the chosen path; it is removed so the extractor
// can write the real one.
func chooseFromWriter(writer fyne.URIWriteCloser, err error) saveChoice {
	if err != nil {
		return saveChoice{err: err}
	}
	if writer == nil {
		return saveChoice{err: download.ErrCanceled}
	}

	path := writer.URI().Path()
	_ = writer.Close()
	if info, statErr := os.Stat(path); statErr == nil && info.Size() == 0 {
		_ = os.Remove(path)
	}
	return saveChoice{dir: filepath.Dir(path)}
}
