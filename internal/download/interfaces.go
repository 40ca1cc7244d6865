package download

import (
	"context"
	"errors"

	"github.com/ytget/yt-mp3/internal/model"
)

// ErrCanceled is returned by a SaveDialog when the user dismisses it.
var ErrCanceled = errors.New("save dialog canceled")

// Downloader defines the interface for the download service.
type Downloader interface {
	SetUpdateCallback(func(model.DownloadTask))
	DownloadMP3(ctx context.Context, url string) model.Result
}

// Provisioner makes sure a tool exists locally and returns its path.
type Provisioner interface {
	Ensure(ctx context.Context, spec model.ToolSpec) (string, error)
}

// DirectoryProvider supplies the directory the save dialog starts in.
type DirectoryProvider interface {
	DefaultDirectory() (string, error)
}

// SaveDialog asks the user where to save the MP3. It receives the starting
// directory and the sanitized title, and returns the chosen directory, or
// ErrCanceled if the user dismissed it.
type SaveDialog interface {
	ChooseDirectory(ctx context.Context, defaultDir, title string) (string, error)
}
