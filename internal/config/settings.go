package config

import (
	"fyne.io/fyne/v2"

	"github.com/ytget/yt-mp3/internal/platform"
)

// Settings keys for Fyne preferences
const (
	KeyDownloadDir        = "download_directory"
	KeyLanguage           = "app_language"
	KeyAutoRevealComplete = "auto_reveal_on_complete"
	KeyBinDir             = "bin_directory"
)

// Default values
const (
	DefaultLanguage           = "system"
	DefaultAutoRevealComplete = true
)

// Settings manages user preferences of the desktop app
type Settings struct {
	app fyne.App
}

// NewSettings creates a new settings manager
func NewSettings(app fyne.App) *Settings {
	return &Settings{app: app}
}

// GetDownloadDirectory returns the last directory the user saved into, or
// the user's Downloads directory
func (s *Settings) GetDownloadDirectory() string {
	dir := s.app.Preferences().String(KeyDownloadDir)
	if dir == "" {
		return platform.DefaultDownloadsDir()
	}
	return dir
}

// SetDownloadDirectory remembers dir as the next starting directory
func (s *Settings) SetDownloadDirectory(dir string) {
	s.app.Preferences().SetString(KeyDownloadDir, dir)
}

// DefaultDirectory implements the download service's DirectoryProvider
func (s *Settings) DefaultDirectory() (string, error) {
	if dir := s.app.Preferences().String(KeyDownloadDir); dir != "" {
		return dir, nil
	}
	return platform.GetHomeDownloadsDir()
}

// GetLanguage returns the configured language
func (s *Settings) GetLanguage() string {
	lang := s.app.Preferences().String(KeyLanguage)
	if lang == "" {
		s.SetLanguage(DefaultLanguage)
		return DefaultLanguage
	}
	return lang
}

// SetLanguage sets the application language
func (s *Settings) SetLanguage(lang string) {
	s.app.Preferences().SetString(KeyLanguage, lang)
}

// GetLanguageOptions returns available language options
func (s *Settings) GetLanguageOptions() map[string]string {
	return map[string]string{
		"system": "System Default",
		"en":     "English",
		"ko":     "한국어",
	}
}

// GetAutoRevealOnComplete returns whether to reveal the MP3 in the file
// manager once it is written
func (s *Settings) GetAutoRevealOnComplete() bool {
	return s.app.Preferences().BoolWithFallback(KeyAutoRevealComplete, DefaultAutoRevealComplete)
}

// SetAutoRevealOnComplete sets whether to auto-reveal completed downloads
func (s *Settings) SetAutoRevealOnComplete(autoReveal bool) {
	s.app.Preferences().SetBool(KeyAutoRevealComplete, autoReveal)
}

// GetBinDirectory returns the tool directory override, "" if unset
func (s *Settings) GetBinDirectory() string {
	return s.app.Preferences().String(KeyBinDir)
}

// SetBinDirectory sets the tool directory override
func (s *Settings) SetBinDirectory(dir string) {
	s.app.Preferences().SetString(KeyBinDir, dir)
}

// Overlay fills fields of cfg the environment left unset from preferences.
// A download directory set in the environment seeds the preference when the
// user has not saved anywhere yet.
func (s *Settings) Overlay(cfg Config) Config {
	if cfg.BinDir == "" {
		cfg.BinDir = s.GetBinDirectory()
	}

	remembered := s.app.Preferences().String(KeyDownloadDir)
	switch {
	case remembered != "":
		cfg.DownloadDir = remembered
	case cfg.DownloadDir != "":
		s.SetDownloadDirectory(cfg.DownloadDir)
	}
	return cfg
}
