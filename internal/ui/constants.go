package ui

// Icons (emojis/symbols)
const (
	IconSettings = "⚙"
	IconFolder   = "📁"
)

// Window sizing
const (
	WindowWidth  float32 = 560
	WindowHeight float32 = 260

	SettingsDialogWidth  float32 = 480
	SettingsDialogHeight float32 = 320
)

// Language codes
const (
	LangSystem  = "system"
	LangEnglish = "en"
	LangKorean  = "ko"
)
