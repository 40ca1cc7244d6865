package main

import (
	"fmt"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/joho/godotenv"
	"golang.org/x/exp/slog"

	"github.com/ytget/yt-mp3/internal/config"
	"github.com/ytget/yt-mp3/internal/download"
	"github.com/ytget/yt-mp3/internal/provision"
	"github.com/ytget/yt-mp3/internal/runner"
	"github.com/ytget/yt-mp3/internal/transcode"
	"github.com/ytget/yt-mp3/internal/ui"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppID   = "com.ytget.yt-mp3"
	AppName = "YT MP3"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Debug("no .env file loaded", slog.Any("error", envErr))
	}
	logger.Info("starting", slog.String("app", AppName), slog.String("version", version))

	myApp := app.NewWithID(AppID)
	myApp.Settings().SetTheme(ui.NewAppTheme())

	settings := config.NewSettings(myApp)
	cfg = settings.Overlay(cfg)

	binDir, err := cfg.ResolveBinDir()
	if err != nil {
		logger.Error("cannot determine tools directory", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Debug("tools directory", slog.String("path", binDir))

	myWindow := myApp.NewWindow(fmt.Sprintf("%s v%s", AppName, version))
	myWindow.Resize(fyne.NewSize(ui.WindowWidth, ui.WindowHeight))

	r := runner.New()
	var prober transcode.Prober
	if cfg.ProbeFFmpeg {
		prober = transcode.NewService(r, logger)
	}

	downloadSvc := download.NewService(
		provision.New(binDir, nil, logger),
		r,
		settings,
		ui.NewSaveDialog(myWindow),
		download.Options{
			Extractor:  cfg.ExtractorSpec(),
			Transcoder: cfg.TranscoderSpec(),
			Prober:     prober,
			Logger:     logger,
		},
	)

	ui.NewRootUI(myWindow, settings, downloadSvc, logger)

	myWindow.ShowAndRun()
}
