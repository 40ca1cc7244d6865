// Package runner executes external tools with argument vectors and collects
// their output. It never goes through a shell.
package runner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"
)

// waitDelay bounds how long Wait blocks on output pipes after the process
// was killed by context cancellation.
const waitDelay = 5 * time.Second

// Runner runs an external command to completion.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Output, error)
}

// Command describes one invocation.
type Command struct {
	Path string
	Args []string

	// OnLine, when set, receives every stdout line while the process runs.
	// Output.Stdout still contains the full stream.
	OnLine func(line string)
}

// Output holds everything the process produced. A non-zero ExitCode is not an
// error: callers decide what it means for their step.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Success reports whether the process exited with status zero
func (o *Output) Success() bool {
	return o.ExitCode == 0
}

// SpawnError means the executable could not be started at all.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// IsSpawnError reports whether err is a SpawnError
func IsSpawnError(err error) bool {
	var e *SpawnError
	return errors.As(err, &e)
}

// Exec is the os/exec backed Runner.
type Exec struct{}

// New returns the default Runner
func New() *Exec {
	return &Exec{}
}

// Run starts cmd, waits for it and returns its output.
func (r *Exec) Run(ctx context.Context, c Command) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stderr = &stderr

	var (
		pw *io.PipeWriter
		wg sync.WaitGroup
	)
	if c.OnLine != nil {
		var pr *io.PipeReader
		pr, pw = io.Pipe()
		cmd.Stdout = io.MultiWriter(&stdout, pw)
		wg.Add(1)
		go func() {
			defer wg.Done()
			scanLines(pr, c.OnLine)
		}()
	} else {
		cmd.Stdout = &stdout
	}

	if err := cmd.Start(); err != nil {
		if pw != nil {
			pw.Close()
			wg.Wait()
		}
		return nil, &SpawnError{Path: c.Path, Err: err}
	}

	waitErr := cmd.Wait()
	if pw != nil {
		pw.Close()
		wg.Wait()
	}

	out := &Output{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, fmt.Errorf("%s interrupted: %w", c.Path, ctxErr)
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		return out, fmt.Errorf("failed to wait for %s: %w", c.Path, waitErr)
	}

	return out, nil
}

// scanLines feeds every line from r to fn. Lines longer than the scanner
// buffer end scanning; the rest of the stream is drained so the writer never
// blocks.
func scanLines(r io.Reader, fn func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Split(scanCRLF)
	for scanner.Scan() {
		fn(scanner.Text())
	}
	_, _ = io.Copy(io.Discard, r)
}

// scanCRLF splits on '\n' or '\r' so carriage-return progress updates are
// reported individually.
func scanCRLF(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
