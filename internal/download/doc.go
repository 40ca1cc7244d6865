// Package download implements the MP3 download pipeline. It provisions the
// external yt-dlp and ffmpeg binaries, asks the host where to save the file,
// runs the extraction and reports a structured result. Progress and stage
// changes are published to an observer as model.DownloadTask snapshots.
package download
