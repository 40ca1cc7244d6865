package ui

import (
	"context"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"golang.org/x/exp/slog"

	"github.com/ytget/yt-mp3/internal/config"
	"github.com/ytget/yt-mp3/internal/download"
	"github.com/ytget/yt-mp3/internal/model"
	"github.com/ytget/yt-mp3/internal/platform"
)

// RootUI represents the main window
type RootUI struct {
	window       fyne.Window
	downloadSvc  download.Downloader
	settings     *config.Settings
	localization *Localization
	logger       *slog.Logger

	heading     *widget.Label
	urlEntry    *widget.Entry
	downloadBtn *widget.Button
	statusLabel *widget.Label
	detailLabel *widget.Label
	progressBar *widget.ProgressBar

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc

	// revealFile is platform.OpenFileInManager, swapped in tests
	revealFile func(path string) error
}

// NewRootUI creates and initializes the main UI
func NewRootUI(window fyne.Window, settings *config.Settings, downloadSvc download.Downloader, logger *slog.Logger) *RootUI {
	if logger == nil {
		logger = slog.Default()
	}

	localization := NewLocalization()
	localization.SetLanguage(settings.GetLanguage())

	ui := &RootUI{
		window:       window,
		downloadSvc:  downloadSvc,
		settings:     settings,
		localization: localization,
		logger:       logger,
		revealFile:   platform.OpenFileInManager,
	}

	window.SetTitle(localization.GetText(KeyAppTitle))

	ui.downloadSvc.SetUpdateCallback(ui.onTaskUpdate)

	ui.setupUI()
	return ui
}

// setupUI creates and arranges all UI components
func (ui *RootUI) setupUI() {
	ui.heading = widget.NewLabel(ui.localization.GetText(KeyHeading))
	ui.heading.TextStyle = fyne.TextStyle{Bold: true}
	ui.heading.Alignment = fyne.TextAlignCenter

	ui.urlEntry = widget.NewEntry()
	ui.urlEntry.SetPlaceHolder(ui.localization.GetText(KeyEnterURL))
	ui.urlEntry.OnSubmitted = func(string) {
		ui.onDownloadClick()
	}

	ui.downloadBtn = widget.NewButton(ui.localization.GetText(KeyDownload), ui.onDownloadClick)
	ui.downloadBtn.Importance = widget.HighImportance

	settingsBtn := widget.NewButton(IconSettings, ui.onShowSettings)
	settingsBtn.Importance = widget.LowImportance

	urlRow := container.NewBorder(nil, nil, settingsBtn, ui.downloadBtn, ui.urlEntry)

	ui.statusLabel = widget.NewLabel(ui.localization.GetText(KeyStatusNone))
	ui.statusLabel.Wrapping = fyne.TextWrapWord
	ui.detailLabel = widget.NewLabel("")
	ui.detailLabel.Wrapping = fyne.TextWrapWord
	ui.detailLabel.TextStyle = fyne.TextStyle{Italic: true}

	ui.progressBar = widget.NewProgressBar()
	ui.progressBar.Hide()

	ui.window.SetContent(container.NewVBox(
		ui.heading,
		urlRow,
		ui.progressBar,
		ui.statusLabel,
		ui.detailLabel,
	))
}

// onDownloadClick starts a download, or cancels the running one
func (ui *RootUI) onDownloadClick() {
	ui.mu.Lock()
	if ui.running {
		cancel := ui.cancel
		ui.mu.Unlock()
		ui.logger.Info("download canceled by user")
		cancel()
		return
	}

	urlText := strings.TrimSpace(ui.urlEntry.Text)
	if urlText == "" {
		ui.mu.Unlock()
		ui.setStatus(KeyStatusInvalidURL, "")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	ui.running = true
	ui.cancel = cancel
	ui.mu.Unlock()

	ui.downloadBtn.SetText(ui.localization.GetText(KeyCancel))
	ui.progressBar.SetValue(0)
	ui.progressBar.Show()
	ui.setStatus(KeyStatusProcessing, "")

	go func() {
		defer cancel()
		result := ui.downloadSvc.DownloadMP3(ctx, urlText)
		fyne.Do(func() { ui.onResult(result) })
	}()
}

// onTaskUpdate receives task snapshots from the download goroutine
func (ui *RootUI) onTaskUpdate(task model.DownloadTask) {
	fyne.Do(func() {
		if key := StageKey(task.Status); key != "" {
			ui.statusLabel.SetText(ui.localization.GetText(key))
		}
		if task.Status == model.TaskStatusDownloading || task.Status == model.TaskStatusCompleted {
			ui.progressBar.SetValue(task.Progress)
		}
		if task.Title != "" && task.Status.IsActive() {
			ui.detailLabel.SetText(task.GetDisplayTitle())
		}
	})
}

// onResult resets the controls and shows the outcome. Runs on the UI goroutine.
func (ui *RootUI) onResult(result model.Result) {
	ui.mu.Lock()
	ui.running = false
	ui.cancel = nil
	ui.mu.Unlock()

	ui.downloadBtn.SetText(ui.localization.GetText(KeyDownload))
	ui.progressBar.Hide()

	switch {
	case result.OK():
		ui.setStatus(KeyStatusCompleted, result.OutputPath)
		ui.settings.SetDownloadDirectory(result.Dir)
		if ui.settings.GetAutoRevealOnComplete() {
			ui.onRevealFile(result.OutputPath)
		}
	case result.Outcome == model.OutcomeCanceled:
		ui.setStatus(KeyStatusCanceled, "")
	default:
		ui.setStatus(StatusKey(result), result.String())
	}
}

func (ui *RootUI) onRevealFile(path string) {
	if err := ui.revealFile(path); err != nil {
		ui.logger.Warn("failed to reveal file", slog.String("path", path), slog.Any("error", err))
		ui.detailLabel.SetText(ui.localization.GetText(KeyErrorOpeningFile) + ": " + err.Error())
	}
}

func (ui *RootUI) setStatus(key, detail string) {
	ui.statusLabel.SetText(ui.localization.GetText(key))
	ui.detailLabel.SetText(detail)
}

// onShowSettings opens the settings dialog
func (ui *RootUI) onShowSettings() {
	NewSettingsDialog(ui.settings, ui.localization, ui.window, ui.refreshUITexts).Show()
}

// refreshUITexts updates all UI texts with current language
func (ui *RootUI) refreshUITexts() {
	ui.localization.SetLanguage(ui.settings.GetLanguage())

	ui.window.SetTitle(ui.localization.GetText(KeyAppTitle))
	ui.heading.SetText(ui.localization.GetText(KeyHeading))
	ui.urlEntry.SetPlaceHolder(ui.localization.GetText(KeyEnterURL))

	ui.mu.Lock()
	running := ui.running
	ui.mu.Unlock()
	if running {
		ui.downloadBtn.SetText(ui.localization.GetText(KeyCancel))
	} else {
		ui.downloadBtn.SetText(ui.localization.GetText(KeyDownload))
	}
}

// StatusKey maps a finished operation to its status message key
func StatusKey(result model.Result) string {
	switch {
	case result.OK():
		return KeyStatusCompleted
	case result.Outcome == model.OutcomeCanceled:
		return KeyStatusCanceled
	case result.ErrorKind() == model.ErrorInvalidInput:
		return KeyStatusInvalidURL
	}
	return KeyStatusUnknown
}

// StageKey maps an in-flight stage to its status message key, "" for
// stages without a dedicated message
func StageKey(status model.TaskStatus) string {
	switch status {
	case model.TaskStatusProvisioning:
		return KeyStatusProvisioning
	case model.TaskStatusFetchingTitle:
		return KeyStatusFetchingTitle
	case model.TaskStatusChoosingLocation:
		return KeyStatusChoosingLocation
	case model.TaskStatusDownloading:
		return KeyStatusProcessing
	}
	return ""
}
