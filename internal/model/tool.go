package model

import "runtime"

// Distribution describes how a tool is published upstream
type Distribution string

const (
	// DistributionRaw is a single executable downloaded as-is
	DistributionRaw Distribution = "raw"

	// DistributionZip is a zip archive that contains the executable
	DistributionZip Distribution = "zip"
)

// ToolSpec describes an external executable the app provisions on first use
type ToolSpec struct {
	Name         string       // executable name without platform suffix, e.g. "yt-dlp"
	Distribution Distribution // raw file or zip archive
	URL          string       // where to fetch the file or archive from
	Optional     bool         // caller tolerates the tool being unavailable
}

// FileName returns the on-disk executable name for the current platform
func (ts ToolSpec) FileName() string {
	if runtime.GOOS == "windows" {
		return ts.Name + ".exe"
	}
	return ts.Name
}
