package config

import (
	"testing"

	"golang.org/x/exp/slog"

	"github.com/ytget/yt-mp3/internal/model"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{EnvBinDir, EnvYtDlpURL, EnvFFmpegURL, EnvDownloadDir, EnvProbeFFmpeg, EnvLogLevel} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
	if !cfg.ProbeFFmpeg {
		t.Error("Probe should be enabled by default")
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := fromLookup(lookupFrom(map[string]string{
		EnvBinDir:      "/opt/bin",
		EnvYtDlpURL:    "http://mirror/yt-dlp",
		EnvFFmpegURL:   "http://mirror/ffmpeg.zip",
		EnvDownloadDir: " /home/u/Music ",
		EnvProbeFFmpeg: "false",
		EnvLogLevel:    "DEBUG",
	}))
	if err != nil {
		t.Fatalf("fromLookup failed: %v", err)
	}

	want := Config{
		BinDir:      "/opt/bin",
		YtDlpURL:    "http://mirror/yt-dlp",
		FFmpegURL:   "http://mirror/ffmpeg.zip",
		DownloadDir: "/home/u/Music",
		ProbeFFmpeg: false,
		LogLevel:    slog.LevelDebug,
	}
	if cfg != want {
		t.Errorf("Expected %+v, got %+v", want, cfg)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"probe flag", map[string]string{EnvProbeFFmpeg: "sometimes"}},
		{"log level", map[string]string{EnvLogLevel: "verbose"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := fromLookup(lookupFrom(tt.env)); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"Info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
	}

	for _, test := range tests {
		level, err := ParseLevel(test.input)
		if err != nil {
			t.Errorf("ParseLevel(%q) failed: %v", test.input, err)
			continue
		}
		if level != test.expected {
			t.Errorf("ParseLevel(%q) = %v, expected %v", test.input, level, test.expected)
		}
	}
}

func TestToolSpecs(t *testing.T) {
	cfg := Default()

	ytdlp := cfg.ExtractorSpec()
	if ytdlp.Name != "yt-dlp" || ytdlp.Distribution != model.DistributionRaw || ytdlp.URL != DefaultYtDlpURL || ytdlp.Optional {
		t.Errorf("Unexpected extractor spec: %+v", ytdlp)
	}

	ffmpeg := cfg.TranscoderSpec()
	if ffmpeg.Name != "ffmpeg" || ffmpeg.Distribution != model.DistributionZip || ffmpeg.URL != DefaultFFmpegURL || !ffmpeg.Optional {
		t.Errorf("Unexpected transcoder spec: %+v", ffmpeg)
	}
}

func TestResolveBinDir(t *testing.T) {
	cfg := Default()
	cfg.BinDir = "/opt/bin"
	if dir, err := cfg.ResolveBinDir(); err != nil || dir != "/opt/bin" {
		t.Errorf("Expected /opt/bin, got %s (%v)", dir, err)
	}

	cfg.BinDir = ""
	dir, err := cfg.ResolveBinDir()
	if err != nil {
		t.Fatalf("ResolveBinDir failed: %v", err)
	}
	if dir == "" {
		t.Error("Expected executable directory")
	}
}

func TestConfigDefaultDirectory(t *testing.T) {
	cfg := Default()
	cfg.DownloadDir = "/srv/audio"
	if dir, err := cfg.DefaultDirectory(); err != nil || dir != "/srv/audio" {
		t.Errorf("Expected /srv/audio, got %s (%v)", dir, err)
	}
}
