package transcode

import "context"

// Prober defines the interface for the transcoder pre-flight check.
type Prober interface {
	Probe(ctx context.Context, ffmpegPath string) (string, error)
}
