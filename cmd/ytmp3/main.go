// Command ytmp3 downloads the audio of a YouTube video as an MP3 without a
// GUI. The save location comes from -dir instead of a dialog.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/exp/slog"

	"github.com/ytget/yt-mp3/internal/config"
	"github.com/ytget/yt-mp3/internal/download"
	"github.com/ytget/yt-mp3/internal/model"
	"github.com/ytget/yt-mp3/internal/platform"
	"github.com/ytget/yt-mp3/internal/provision"
	"github.com/ytget/yt-mp3/internal/runner"
	"github.com/ytget/yt-mp3/internal/transcode"
)

// Exit codes
const (
	ExitOK       = 0
	ExitError    = 1
	ExitCanceled = 2
)

func main() {
	// A missing .env is fine; the environment may be set directly
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ytmp3", flag.ContinueOnError)
	fs.SetOutput(stderr)
	url := fs.String("url", "", "YouTube video URL")
	dir := fs.String("dir", "", "Directory to save the MP3 into (default: $YTMP3_DOWNLOAD_DIR or ~/Downloads)")
	binDir := fs.String("bin-dir", "", "Directory for yt-dlp and ffmpeg (default: next to this executable)")
	noProbe := fs.Bool("no-probe", false, "Skip the ffmpeg -version check")
	verbose := fs.Bool("v", false, "Verbose logging")
	if err := fs.Parse(args); err != nil {
		return ExitError
	}

	if *url == "" {
		fmt.Fprintln(stderr, "Usage: ytmp3 -url <video-url> [-dir <path>] [-bin-dir <path>] [-no-probe] [-v]")
		fmt.Fprintln(stderr, "\nExample:")
		fmt.Fprintln(stderr, "  ytmp3 -url https://www.youtube.com/watch?v=dQw4w9WgXcQ -dir ~/Music")
		return ExitError
	}

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
		return ExitError
	}
	if *dir != "" {
		cfg.DownloadDir = *dir
	}
	if *binDir != "" {
		cfg.BinDir = *binDir
	}
	if *noProbe {
		cfg.ProbeFFmpeg = false
	}
	if *verbose {
		cfg.LogLevel = slog.LevelDebug
	}

	logger := cfg.NewLogger(stderr)

	tools, err := cfg.ResolveBinDir()
	if err != nil {
		logger.Error("cannot determine tools directory", slog.Any("error", err))
		return ExitError
	}

	r := runner.New()
	var prober transcode.Prober
	if cfg.ProbeFFmpeg {
		prober = transcode.NewService(r, logger)
	}

	svc := download.NewService(
		provision.New(tools, nil, logger),
		r,
		cfg,
		directoryDialog{},
		download.Options{
			Extractor:  cfg.ExtractorSpec(),
			Transcoder: cfg.TranscoderSpec(),
			Prober:     prober,
			Logger:     logger,
		},
	)
	svc.SetUpdateCallback(progressPrinter(stderr))

	result := svc.DownloadMP3(ctx, *url)
	if result.OK() {
		fmt.Fprintln(stdout, result.OutputPath)
	} else {
		fmt.Fprintln(stderr, result.String())
	}
	return exitCode(result)
}

// directoryDialog accepts the starting directory without asking
type directoryDialog struct{}

func (directoryDialog) ChooseDirectory(ctx context.Context, defaultDir, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if defaultDir == "" {
		return "", errors.New("no output directory")
	}
	if err := platform.CreateDirectoryIfNotExists(defaultDir); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return defaultDir, nil
}

// progressPrinter reports stage changes and whole-percent progress
func progressPrinter(w io.Writer) func(model.DownloadTask) {
	var (
		lastStatus  model.TaskStatus
		lastPercent = -1
	)
	return func(task model.DownloadTask) {
		if task.Status != lastStatus {
			lastStatus = task.Status
			if task.Status.IsActive() {
				fmt.Fprintf(w, "%s...\n", task.Status)
			}
		}
		if task.Status == model.TaskStatusDownloading && task.Percent != lastPercent {
			lastPercent = task.Percent
			fmt.Fprintf(w, "\r%s %s", task.GetPercentString(), task.GetDisplayTitle())
			if task.Percent == 100 {
				fmt.Fprintln(w)
			}
		}
	}
}

func exitCode(result model.Result) int {
	switch result.Outcome {
	case model.OutcomeOK:
		return ExitOK
	case model.OutcomeCanceled:
		return ExitCanceled
	}
	return ExitError
}
