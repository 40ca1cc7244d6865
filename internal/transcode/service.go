// Package transcode checks that a provisioned ffmpeg binary actually runs
// before the extractor is told to use it.
package transcode

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slog"

	"github.com/ytget/yt-mp3/internal/runner"
)

// FFmpeg constants for the version probe
const (
	FFmpegCommand     = "ffmpeg"
	FFmpegVersionFlag = "-version"
	VersionPrefix     = "ffmpeg version "
)

// ErrUnrecognizedOutput means the binary ran but did not identify as ffmpeg
var ErrUnrecognizedOutput = errors.New("unrecognized -version output")

// Service probes ffmpeg through a Runner
type Service struct {
	runner runner.Runner
	logger *slog.Logger
}

// NewService creates a new probe service
func NewService(r runner.Runner, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{runner: r, logger: logger}
}

// Probe runs `ffmpeg -version` and returns the reported version string.
func (s *Service) Probe(ctx context.Context, ffmpegPath string) (string, error) {
	out, err := s.runner.Run(ctx, runner.Command{
		Path: ffmpegPath,
		Args: []string{FFmpegVersionFlag},
	})
	if err != nil {
		return "", fmt.Errorf("ffmpeg probe failed: %w", err)
	}

	if !out.Success() {
		stderr := strings.TrimSpace(string(out.Stderr))
		if stderr == "" {
			return "", fmt.Errorf("ffmpeg probe exited with status %d", out.ExitCode)
		}
		return "", fmt.Errorf("ffmpeg probe exited with status %d: %s", out.ExitCode, stderr)
	}

	version := ParseVersion(out.Stdout)
	if version == "" {
		return "", fmt.Errorf("ffmpeg probe: %w", ErrUnrecognizedOutput)
	}

	s.logger.Debug("probe ok", slog.String("tool", FFmpegCommand), slog.String("path", ffmpegPath), slog.String("version", version))
	return version, nil
}

// ParseVersion extracts the version token from `ffmpeg -version` output,
// e.g. "6.0" from "ffmpeg version 6.0 Copyright ...". It returns "" if no
// version line is present.
func ParseVersion(out []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, VersionPrefix) {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(line, VersionPrefix))
		if len(fields) > 0 {
			return fields[0]
		}
	}
	return ""
}
