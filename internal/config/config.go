// Package config holds the app configuration: plain values read from the
// environment, and user preferences persisted through Fyne.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/exp/slog"

	"github.com/ytget/yt-mp3/internal/model"
	"github.com/ytget/yt-mp3/internal/platform"
)

// Environment variables
const (
	EnvBinDir      = "YTMP3_BIN_DIR"
	EnvYtDlpURL    = "YTMP3_YTDLP_URL"
	EnvFFmpegURL   = "YTMP3_FFMPEG_URL"
	EnvDownloadDir = "YTMP3_DOWNLOAD_DIR"
	EnvProbeFFmpeg = "YTMP3_PROBE_FFMPEG"
	EnvLogLevel    = "YTMP3_LOG_LEVEL"
)

// Tool names and download locations
const (
	ExtractorName    = "yt-dlp"
	TranscoderName   = "ffmpeg"
	DefaultYtDlpURL  = "https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp"
	DefaultFFmpegURL = "https://evermeet.cx/ffmpeg/ffmpeg-118896-g9f0970ee35.zip"
)

// Config is the process configuration shared by the desktop app and the CLI
type Config struct {
	BinDir      string // where tools are installed; empty means beside the executable
	YtDlpURL    string
	FFmpegURL   string
	DownloadDir string // default save directory; empty means the user's Downloads
	ProbeFFmpeg bool   // run `ffmpeg -version` before trusting the transcoder
	LogLevel    slog.Level
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		YtDlpURL:    DefaultYtDlpURL,
		FFmpegURL:   DefaultFFmpegURL,
		ProbeFFmpeg: true,
		LogLevel:    slog.LevelInfo,
	}
}

// FromEnv returns Default overridden by the YTMP3_* environment variables.
// Empty variables are ignored.
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvBinDir); ok {
		cfg.BinDir = v
	}
	if v, ok := get(EnvYtDlpURL); ok {
		cfg.YtDlpURL = v
	}
	if v, ok := get(EnvFFmpegURL); ok {
		cfg.FFmpegURL = v
	}
	if v, ok := get(EnvDownloadDir); ok {
		cfg.DownloadDir = v
	}
	if v, ok := get(EnvProbeFFmpeg); ok {
		probe, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", EnvProbeFFmpeg, v, err)
		}
		cfg.ProbeFFmpeg = probe
	}
	if v, ok := get(EnvLogLevel); ok {
		level, err := ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = level
	}

	return cfg, nil
}

// ParseLevel maps debug, info, warn or error (any case) to a slog level
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// ExtractorSpec describes the yt-dlp download
func (c Config) ExtractorSpec() model.ToolSpec {
	return model.ToolSpec{
		Name:         ExtractorName,
		Distribution: model.DistributionRaw,
		URL:          c.YtDlpURL,
	}
}

// TranscoderSpec describes the ffmpeg download
func (c Config) TranscoderSpec() model.ToolSpec {
	return model.ToolSpec{
		Name:         TranscoderName,
		Distribution: model.DistributionZip,
		URL:          c.FFmpegURL,
		Optional:     true,
	}
}

// ResolveBinDir returns BinDir, or the running executable's directory when
// it is not set.
func (c Config) ResolveBinDir() (string, error) {
	if c.BinDir != "" {
		return c.BinDir, nil
	}
	return platform.ExecutableDir()
}

// NewLogger builds the text logger both hosts use
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}

// DefaultDirectory implements the download service's DirectoryProvider for
// hosts without preferences.
func (c Config) DefaultDirectory() (string, error) {
	if c.DownloadDir != "" {
		return c.DownloadDir, nil
	}
	return platform.GetHomeDownloadsDir()
}
