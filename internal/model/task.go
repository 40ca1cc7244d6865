package model

import (
	"fmt"
	"strings"
	"time"
)

// DownloadTask is a snapshot of a single MP3 download operation. The download
// service publishes copies of it to observers after every stage change.
type DownloadTask struct {
	ID         string
	URL        string
	Status     TaskStatus
	Progress   float64   // 0.0 to 1.0
	Percent    int       // 0 to 100
	Title      string    // raw video title as reported by the extractor
	OutputPath string    // path of the produced .mp3
	LastError  string    // last error message if any
	StartedAt  time.Time // when the operation started
	FinishedAt time.Time // when the operation finished
}

// SetPercent updates Percent and Progress together, clamping to [0, 100].
func (dt *DownloadTask) SetPercent(percent float64) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	dt.Percent = int(percent)
	dt.Progress = percent / 100.0
}

// GetPercentString returns percent formatted for a label, or "—" before the
// extraction started
func (dt *DownloadTask) GetPercentString() string {
	if dt.Status != TaskStatusDownloading && dt.Status != TaskStatusCompleted {
		return "—"
	}
	return fmt.Sprintf("%d%%", dt.Percent)
}

// GetDisplayTitle returns title, filename, or URL in order of preference
func (dt *DownloadTask) GetDisplayTitle() string {
	if dt.Title != "" && !strings.HasPrefix(dt.Title, "http") {
		return dt.Title
	}

	if dt.OutputPath != "" {
		// Support both / and \ separators
		parts := strings.FieldsFunc(dt.OutputPath, func(r rune) bool {
			return r == '/' || r == '\\'
		})
		if len(parts) > 0 {
			filename := parts[len(parts)-1]
			if idx := strings.LastIndex(filename, "."); idx > 0 {
				filename = filename[:idx]
			}
			return filename
		}
	}

	return dt.URL
}
