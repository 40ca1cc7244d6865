// Package ui contains the Fyne desktop shell. It collects a URL, runs the
// download service off the UI goroutine, asks for the save location through
// a native save dialog and shows localized status and progress.
package ui
