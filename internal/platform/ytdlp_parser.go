package platform

import (
	"regexp"
	"strconv"
	"strings"
)

// yt-dlp command-line flags used by the app
const (
	YtDlpPrintFlag          = "--print"
	YtDlpTitleField         = "title"
	YtDlpExtractAudioFlag   = "-x"
	YtDlpAudioFormatFlag    = "--audio-format"
	YtDlpFFmpegLocationFlag = "--ffmpeg-location"
	YtDlpNewlineFlag        = "--newline"
	YtDlpOutputFlag         = "-o"
	AudioFormatMP3          = "mp3"
	MP3Extension            = ".mp3"
)

// progressLine matches "[download]  42.3% of ~ 3.51MiB at 1.2MiB/s ETA 00:02"
var progressLine = regexp.MustCompile(`^\[download\]\s+(\d{1,3}(?:\.\d+)?)%`)

// ParseTitle extracts the video title from the stdout of "yt-dlp --print title".
// yt-dlp prints one line per URL; the first non-empty line wins.
func ParseTitle(stdout []byte) string {
	for _, line := range strings.Split(string(stdout), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// ParseProgressLine returns the download percentage reported by a yt-dlp
// "[download]" progress line
func ParseProgressLine(line string) (float64, bool) {
	m := progressLine.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return 0, false
	}
	percent, err := strconv.ParseFloat(m[1], 64)
	if err != nil || percent > 100 {
		return 0, false
	}
	return percent, true
}

// TitleArgs builds the arguments for a metadata-only title query
func TitleArgs(url string) []string {
	return []string{YtDlpPrintFlag, YtDlpTitleField, url}
}

// ExtractAudioArgs builds the arguments for extracting url as MP3 into
// outputPath. ffmpegPath is omitted when empty.
func ExtractAudioArgs(url, outputPath, ffmpegPath string) []string {
	args := []string{YtDlpExtractAudioFlag, YtDlpAudioFormatFlag, AudioFormatMP3}
	if ffmpegPath != "" {
		args = append(args, YtDlpFFmpegLocationFlag, ffmpegPath)
	}
	return append(args, YtDlpNewlineFlag, YtDlpOutputFlag, outputPath, url)
}
