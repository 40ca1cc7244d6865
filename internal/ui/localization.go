package ui

import (
	"strings"

	"fyne.io/fyne/v2/lang"
)

// Localization manages UI text translations
type Localization struct {
	currentLanguage string
	texts           map[string]map[string]string
}

// Text keys for localization
const (
	KeyAppTitle          = "app_title"
	KeyHeading           = "heading"
	KeyEnterURL          = "enter_url"
	KeyDownload          = "download"
	KeyCancel            = "cancel"
	KeySettings          = "settings"
	KeyLanguage          = "language"
	KeyDownloadDirectory = "download_directory"
	KeyBinDirectory      = "bin_directory"
	KeyAutoReveal        = "auto_reveal"
	KeySave              = "save"
	KeyBrowse            = "browse"
	KeySettingsSaved     = "settings_saved"
	KeyErrorOpeningFile  = "error_opening_file"

	KeyStatusNone             = "status_none"
	KeyStatusProcessing       = "status_processing"
	KeyStatusProvisioning     = "status_provisioning"
	KeyStatusFetchingTitle    = "status_fetching_title"
	KeyStatusChoosingLocation = "status_choosing_location"
	KeyStatusCompleted        = "status_completed"
	KeyStatusCanceled         = "status_canceled"
	KeyStatusInvalidURL       = "status_invalid_url"
	KeyStatusUnknown          = "status_unknown"
)

// NewLocalization creates a new localization manager
func NewLocalization() *Localization {
	l := &Localization{
		currentLanguage: LangEnglish,
		texts:           make(map[string]map[string]string),
	}

	l.initializeTexts()
	return l
}

// SetLanguage sets the current language. "system" follows the OS locale.
func (l *Localization) SetLanguage(code string) {
	if code == LangSystem {
		code = systemLanguage()
	}

	if _, exists := l.texts[code]; exists {
		l.currentLanguage = code
	}
}

func systemLanguage() string {
	locale := strings.ToLower(string(lang.SystemLocale()))
	if strings.HasPrefix(locale, LangKorean) {
		return LangKorean
	}
	return LangEnglish
}

// GetText returns localized text for the given key
func (l *Localization) GetText(key string) string {
	if texts, exists := l.texts[l.currentLanguage]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	// Fallback to English
	if texts, exists := l.texts[LangEnglish]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	return key
}

// GetCurrentLanguage returns the current language code
func (l *Localization) GetCurrentLanguage() string {
	return l.currentLanguage
}

// GetAvailableLanguages returns map of available languages with their display names
func (l *Localization) GetAvailableLanguages() map[string]string {
	return map[string]string{
		LangEnglish: "English",
		LangKorean:  "한국어",
	}
}

func (l *Localization) initializeTexts() {
	l.texts[LangEnglish] = map[string]string{
		KeyAppTitle:          "YT MP3",
		KeyHeading:           "Get the mp3 file from the Youtube URL",
		KeyEnterURL:          "Copy & Paste the Youtube URL...",
		KeyDownload:          "Download",
		KeyCancel:            "Cancel",
		KeySettings:          "Settings",
		KeyLanguage:          "Language",
		KeyDownloadDirectory: "Download Directory",
		KeyBinDirectory:      "Tools Directory",
		KeyAutoReveal:        "Reveal the file when finished",
		KeySave:              "Save",
		KeyBrowse:            "Browse",
		KeySettingsSaved:     "Settings saved successfully!",
		KeyErrorOpeningFile:  "Error opening file",

		KeyStatusNone:             "...",
		KeyStatusProcessing:       "📁 Extracting the audio from the YouTube clip...",
		KeyStatusProvisioning:     "🔧 Preparing yt-dlp and ffmpeg...",
		KeyStatusFetchingTitle:    "🔎 Looking up the video title...",
		KeyStatusChoosingLocation: "💾 Choose where to save the MP3.",
		KeyStatusCompleted:        "✅ Download completed.",
		KeyStatusCanceled:         "🥺 Canceled. No worries, press the button again to retry.",
		KeyStatusInvalidURL:       "❓ Please check the YouTube video URL.",
		KeyStatusUnknown:          "❌ An unexpected error occurred.",
	}

	l.texts[LangKorean] = map[string]string{
		KeyAppTitle:          "YT MP3",
		KeyHeading:           "유튜브 URL에서 mp3 파일 받기",
		KeyEnterURL:          "유튜브 URL을 복사해서 붙여 넣으세요...",
		KeyDownload:          "다운로드",
		KeyCancel:            "취소",
		KeySettings:          "설정",
		KeyLanguage:          "언어",
		KeyDownloadDirectory: "다운로드 폴더",
		KeyBinDirectory:      "도구 폴더",
		KeyAutoReveal:        "완료되면 파일 위치 열기",
		KeySave:              "저장",
		KeyBrowse:            "찾아보기",
		KeySettingsSaved:     "설정이 저장되었습니다!",
		KeyErrorOpeningFile:  "파일을 여는 중 오류가 발생했습니다",

		KeyStatusNone:             "...",
		KeyStatusProcessing:       "📁 지금 열심히 유튜브 클립에서 오디오를 추출하고 있습니다...",
		KeyStatusProvisioning:     "🔧 yt-dlp와 ffmpeg를 준비하고 있습니다...",
		KeyStatusFetchingTitle:    "🔎 영상 제목을 가져오고 있습니다...",
		KeyStatusChoosingLocation: "💾 MP3를 저장할 위치를 선택해 주세요.",
		KeyStatusCompleted:        "✅ 다운로드가 완료되었습니다.",
		KeyStatusCanceled:         "🥺 앗, 취소하셨네요! 괜찮아요. 다시 버튼을 누르고 진행하시면 됩니다.",
		KeyStatusInvalidURL:       "❓ 유튜브 영상의 URL을 다시 확인해 주세요.",
		KeyStatusUnknown:          "❌ 예기치 못한 에러가 발생하였습니다.",
	}
}
