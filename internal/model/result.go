package model

import (
	"fmt"
	"strings"
)

// Outcome is the top-level discriminator of a download operation result
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeCanceled Outcome = "canceled"
	OutcomeError    Outcome = "error"
)

// ErrorKind classifies why an operation did not succeed
type ErrorKind string

const (
	// ErrorInvalidInput means the URL has no accepted host marker
	ErrorInvalidInput ErrorKind = "invalid_input"

	// ErrorProvision means a required tool could not be downloaded, extracted or made executable
	ErrorProvision ErrorKind = "provision"

	// ErrorMetadata means the video title could not be fetched
	ErrorMetadata ErrorKind = "metadata"

	// ErrorUserCanceled means the save dialog was dismissed
	ErrorUserCanceled ErrorKind = "user_canceled"

	// ErrorCanceled means the caller's context was canceled between steps
	ErrorCanceled ErrorKind = "canceled"

	// ErrorExecution means the extraction could not be run or exited non-zero
	ErrorExecution ErrorKind = "execution"
)

// FailureError carries the structured detail of a failed or canceled operation.
type FailureError struct {
	Kind   ErrorKind
	Tool   string // tool involved in the failing step, if any
	Detail string // stderr captured from the tool, if any
	Err    error  // underlying error, if any
}

func (e *FailureError) Error() string {
	switch e.Kind {
	case ErrorInvalidInput:
		return "invalid URL"
	case ErrorUserCanceled, ErrorCanceled:
		return "canceled"
	case ErrorProvision:
		return fmt.Sprintf("Error ensuring %s: %s", e.Tool, e.reason())
	case ErrorMetadata:
		return fmt.Sprintf("Error: %s failed to get title: %s", e.Tool, e.reason())
	default:
		return fmt.Sprintf("Error: %s failed: %s", e.Tool, e.reason())
	}
}

func (e *FailureError) Unwrap() error { return e.Err }

func (e *FailureError) reason() string {
	if d := strings.TrimSpace(e.Detail); d != "" {
		return d
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Result is the discriminated outcome of one MP3 download operation
type Result struct {
	Outcome    Outcome
	Dir        string        // directory chosen by the user (ok only)
	OutputPath string        // full path of the written .mp3 (ok only)
	Title      string        // raw video title, when it was fetched
	Err        *FailureError // set unless Outcome is ok
}

// NewOKResult builds a successful result
func NewOKResult(dir, outputPath, title string) Result {
	return Result{Outcome: OutcomeOK, Dir: dir, OutputPath: outputPath, Title: title}
}

// NewFailedResult builds a canceled or error result depending on the kind
func NewFailedResult(err *FailureError) Result {
	outcome := OutcomeError
	if err.Kind == ErrorUserCanceled || err.Kind == ErrorCanceled {
		outcome = OutcomeCanceled
	}
	return Result{Outcome: outcome, Err: err}
}

// OK reports whether the operation succeeded
func (r Result) OK() bool {
	return r.Outcome == OutcomeOK
}

// ErrorKind returns the failure kind, or "" for a successful result
func (r Result) ErrorKind() ErrorKind {
	if r.Err == nil {
		return ""
	}
	return r.Err.Kind
}

// String renders the result in the legacy single-line form
// ("Ok: path=<dir>", "canceled", "invalid URL", "Error...").
func (r Result) String() string {
	if r.Outcome == OutcomeOK {
		return "Ok: path=" + r.Dir
	}
	if r.Err == nil {
		return "Error: unknown error"
	}
	return r.Err.Error()
}
