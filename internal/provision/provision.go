// Package provision makes sure the external tools the app drives exist next
// to the application, downloading and installing them on first use.
package provision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/singleflight"

	"github.com/ytget/yt-mp3/internal/model"
)

const (
	// DefaultHTTPTimeout bounds a whole tool download
	DefaultHTTPTimeout = 10 * time.Minute

	// MaxArchiveSize caps archives buffered in memory for extraction
	MaxArchiveSize = 512 << 20

	executablePerm = 0o755
)

// Error kinds, matched with errors.Is.
var (
	ErrFetch      = errors.New("fetch failed")
	ErrPermission = errors.New("cannot mark executable")
	ErrExtraction = errors.New("extraction failed")
)

// Swappable in tests to simulate filesystem failures.
var (
	chmodFunc  = os.Chmod
	renameFunc = os.Rename
)

// Error reports a provisioning failure for one tool.
type Error struct {
	Tool string
	Kind error // one of ErrFetch, ErrPermission, ErrExtraction
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Tool, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error { return []error{e.Kind, e.Err} }

func newError(tool string, kind, err error) *Error {
	return &Error{Tool: tool, Kind: kind, Err: err}
}

// Provisioner installs tools into a single directory.
type Provisioner struct {
	dir    string
	client *http.Client
	logger *slog.Logger
	group  singleflight.Group
}

// New creates a Provisioner that installs into dir. A nil client gets a
// default client with DefaultHTTPTimeout; a nil logger uses slog.Default().
func New(dir string, client *http.Client, logger *slog.Logger) *Provisioner {
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provisioner{dir: dir, client: client, logger: logger}
}

// Dir returns the install directory
func (p *Provisioner) Dir() string {
	return p.dir
}

// PathFor returns where spec is installed
func (p *Provisioner) PathFor(spec model.ToolSpec) string {
	return filepath.Join(p.dir, spec.FileName())
}

// Ensure returns the path of a usable executable for spec, installing it
// first if it is missing or unusable. Concurrent calls for the same tool
// share one installation.
func (p *Provisioner) Ensure(ctx context.Context, spec model.ToolSpec) (string, error) {
	target := p.PathFor(spec)
	if usable(target) {
		return target, nil
	}

	v, err, _ := p.group.Do(target, func() (any, error) {
		if usable(target) {
			return target, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, newError(spec.Name, ErrFetch, err)
		}
		if err := p.install(ctx, spec, target); err != nil {
			return nil, err
		}
		return target, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (p *Provisioner) install(ctx context.Context, spec model.ToolSpec, target string) error {
	log := p.logger.With(slog.String("tool", spec.Name), slog.String("path", target))

	if _, err := os.Stat(target); err == nil {
		log.Warn("existing binary is not usable, reinstalling")
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return newError(spec.Name, ErrPermission, err)
	}

	log.Info("tool not found, downloading", slog.String("url", spec.URL))

	var err error
	switch spec.Distribution {
	case model.DistributionRaw:
		err = p.installRaw(ctx, spec, target)
	case model.DistributionZip:
		err = p.installZip(ctx, spec, target)
	default:
		err = newError(spec.Name, ErrFetch, fmt.Errorf("unknown distribution %q", spec.Distribution))
	}
	if err != nil {
		log.Error("provisioning failed", slog.Any("error", err))
		return err
	}

	log.Info("tool installed")
	return nil
}

func (p *Provisioner) installRaw(ctx context.Context, spec model.ToolSpec, target string) error {
	body, err := p.get(ctx, spec)
	if err != nil {
		return err
	}
	defer body.Close()

	return writeExecutable(spec.Name, target, body, ErrFetch)
}

func (p *Provisioner) installZip(ctx context.Context, spec model.ToolSpec, target string) error {
	body, err := p.get(ctx, spec)
	if err != nil {
		return err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, MaxArchiveSize+1))
	if err != nil {
		return newError(spec.Name, ErrFetch, fmt.Errorf("read failed: %w", err))
	}
	if len(data) > MaxArchiveSize {
		return newError(spec.Name, ErrFetch, fmt.Errorf("archive exceeds %d bytes", MaxArchiveSize))
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return newError(spec.Name, ErrExtraction, fmt.Errorf("zip parse failed: %w", err))
	}

	entry := findEntry(zr.File, spec.FileName())
	if entry == nil {
		return newError(spec.Name, ErrExtraction, fmt.Errorf("%s not found in zip", spec.FileName()))
	}
	p.logger.Debug("extracting archive entry", slog.String("tool", spec.Name), slog.String("entry", entry.Name))

	rc, err := entry.Open()
	if err != nil {
		return newError(spec.Name, ErrExtraction, fmt.Errorf("open %s: %w", entry.Name, err))
	}
	defer rc.Close()

	return writeExecutable(spec.Name, target, rc, ErrExtraction)
}

func (p *Provisioner) get(ctx context.Context, spec model.ToolSpec) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spec.URL, nil)
	if err != nil {
		return nil, newError(spec.Name, ErrFetch, fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, newError(spec.Name, ErrFetch, fmt.Errorf("download failed: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, newError(spec.Name, ErrFetch, fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	return resp.Body, nil
}

// findEntry returns the first non-directory entry, in archive order, whose
// name ends with name.
func findEntry(files []*zip.File, name string) *zip.File {
	for _, f := range files {
		if f.FileInfo().IsDir() {
			continue
		}
		if strings.HasSuffix(f.Name, name) {
			return f
		}
	}
	return nil
}

// writeExecutable streams r into a temp file beside target, marks it
// executable and renames it into place, so target is either absent or
// complete. writeKind classifies write failures.
func writeExecutable(tool, target string, r io.Reader, writeKind error) error {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return newError(tool, writeKind, err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	n, err := io.Copy(tmp, r)
	if err != nil {
		return newError(tool, writeKind, fmt.Errorf("write failed: %w", err))
	}
	if n == 0 {
		return newError(tool, writeKind, errors.New("downloaded file is empty"))
	}
	if err := tmp.Sync(); err != nil {
		return newError(tool, writeKind, err)
	}
	if err := tmp.Close(); err != nil {
		return newError(tool, writeKind, err)
	}

	if err := chmodFunc(tmpName, executablePerm); err != nil {
		return newError(tool, ErrPermission, err)
	}

	if err := renameFunc(tmpName, target); err != nil {
		return newError(tool, writeKind, fmt.Errorf("install failed: %w", err))
	}
	return nil
}

// usable reports whether path is a non-empty regular file with an execute
// bit. The execute bit is not checked on Windows.
func usable(path string) bool {
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	if !fi.Mode().IsRegular() || fi.Size() == 0 {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return fi.Mode().Perm()&0o111 != 0
}
