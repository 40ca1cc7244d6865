package platform

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/quick"
)

func TestCreateDirectoryIfNotExists(t *testing.T) {
	tempDir := t.TempDir()
	testDir := filepath.Join(tempDir, "test_dir")

	if _, err := os.Stat(testDir); !os.IsNotExist(err) {
		t.Fatalf("Test directory already exists: %s", testDir)
	}

	if err := CreateDirectoryIfNotExists(testDir); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	if _, err := os.Stat(testDir); os.IsNotExist(err) {
		t.Fatalf("Directory was not created: %s", testDir)
	}

	// Second call should not fail
	if err := CreateDirectoryIfNotExists(testDir); err != nil {
		t.Fatalf("Failed to handle existing directory: %v", err)
	}
}

func TestGetHomeDownloadsDir(t *testing.T) {
	downloadsDir, err := GetHomeDownloadsDir()
	if err != nil {
		t.Fatalf("Failed to get downloads directory: %v", err)
	}

	if filepath.Base(downloadsDir) != "Downloads" {
		t.Errorf("Expected directory to end with 'Downloads', got: %s", downloadsDir)
	}
}

func TestDefaultDownloadsDir(t *testing.T) {
	if dir := DefaultDownloadsDir(); dir == "" {
		t.Fatal("Default downloads directory is empty")
	}
}

func TestExecutableDir(t *testing.T) {
	tempDir := t.TempDir()
	old := executableFunc
	executableFunc = func() (string, error) {
		return filepath.Join(tempDir, "yt-mp3"), nil
	}
	defer func() { executableFunc = old }()

	dir, err := ExecutableDir()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if dir != tempDir {
		t.Errorf("Expected %s, got %s", tempDir, dir)
	}
}

func TestExecutableDir_Error(t *testing.T) {
	old := executableFunc
	executableFunc = func() (string, error) {
		return "", errors.New("no exe")
	}
	defer func() { executableFunc = old }()

	if _, err := ExecutableDir(); err == nil {
		t.Error("Expected error when executable cannot be located")
	}
}

func TestOpenFileInManager_NonExistentFile(t *testing.T) {
	tempDir := t.TempDir()
	nonExistentFile := filepath.Join(tempDir, "nonexistent.mp3")

	err := OpenFileInManager(nonExistentFile)
	if err == nil {
		t.Fatal("Expected error for non-existent file, got nil")
	}

	if !strings.Contains(err.Error(), "file does not exist:") {
		t.Errorf("Error message should contain 'file does not exist:', got: %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		title    string
		expected string
	}{
		{"My Song: Live!", "My Song Live"},
		{"already_safe-name 123", "already_safe-name 123"},
		{"a/b\\c", "abc"},
		{"Ünïcödé ✓ title", "ncd  title"},
		{"..//..", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := SanitizeFilename(tt.title); got != tt.expected {
				t.Errorf("SanitizeFilename(%q) = %q, expected %q", tt.title, got, tt.expected)
			}
		})
	}
}

func TestSanitizeFilename_Idempotent(t *testing.T) {
	f := func(s string) bool {
		once := SanitizeFilename(s)
		return SanitizeFilename(once) == once
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestSanitizeFilename_OnlyAllowedCharacters(t *testing.T) {
	f := func(s string) bool {
		for _, r := range SanitizeFilename(s) {
			if !isSafeFilenameRune(r) {
				return false
			}
		}
		return true
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}

	for _, r := range SanitizeFilename("azAZ09 -_") {
		if !strings.ContainsRune("azAZ09 -_", r) {
			t.Errorf("unexpected rune %q", r)
		}
	}
}

func TestOutputFileName(t *testing.T) {
	tests := []struct {
		title    string
		expected string
	}{
		{"My Song: Live!", "My Song Live"},
		{"!!!", FallbackFileName},
		{"   ", FallbackFileName},
		{"", FallbackFileName},
	}

	for _, tt := range tests {
		if got := OutputFileName(tt.title); got != tt.expected {
			t.Errorf("OutputFileName(%q) = %q, expected %q", tt.title, got, tt.expected)
		}
	}
}
