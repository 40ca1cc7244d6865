package platform

// Package platform contains OS/platform integration and external tooling glue:
// filesystem helpers, filename sanitizing, yt-dlp output parsing, and OS
// open/reveal.
