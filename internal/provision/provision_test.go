package provision

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/ytget/yt-mp3/internal/model"
)

type zipEntry struct {
	name string
	body string
}

func buildZip(t *testing.T, entries ...zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		if strings.HasSuffix(e.name, "/") {
			if _, err := zw.Create(e.name); err != nil {
				t.Fatalf("Failed to create dir entry: %v", err)
			}
			continue
		}
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatalf("Failed to create entry: %v", err)
		}
		if _, err := w.Write([]byte(e.body)); err != nil {
			t.Fatalf("Failed to write entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return buf.Bytes()
}

// serve returns a server answering every request with body and a counter of
// requests received.
func serve(t *testing.T, status int, body []byte) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("Temp file left behind: %s", e.Name())
		}
	}
}

func assertExecutable(t *testing.T, path string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		return
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if fi.Mode().Perm()&0o111 == 0 {
		t.Errorf("Expected %s to be executable, mode %v", path, fi.Mode())
	}
}

func TestEnsure_RawDownload(t *testing.T) {
	srv, hits := serve(t, http.StatusOK, []byte("#!/bin/sh\necho yt-dlp\n"))
	dir := t.TempDir()
	p := New(dir, srv.Client(), nil)
	spec := model.ToolSpec{Name: "yt-dlp", Distribution: model.DistributionRaw, URL: srv.URL + "/yt-dlp"}

	path, err := p.Ensure(context.Background(), spec)
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if path != filepath.Join(dir, spec.FileName()) {
		t.Errorf("Expected path in %s, got %s", dir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "#!/bin/sh\necho yt-dlp\n" {
		t.Errorf("Unexpected content: %q", data)
	}
	assertExecutable(t, path)
	assertNoTempFiles(t, dir)

	if _, err := p.Ensure(context.Background(), spec); err != nil {
		t.Fatalf("Second Ensure failed: %v", err)
	}
	if got := atomic.LoadInt32(hits); got != 1 {
		t.Errorf("Expected 1 request, got %d", got)
	}
}

func TestEnsure_ExistingToolIsNoop(t *testing.T) {
	srv, hits := serve(t, http.StatusOK, []byte("new"))
	dir := t.TempDir()
	p := New(dir, srv.Client(), nil)
	spec := model.ToolSpec{Name: "yt-dlp", Distribution: model.DistributionRaw, URL: srv.URL}

	target := p.PathFor(spec)
	if err := os.WriteFile(target, []byte("old"), 0o755); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := p.Ensure(context.Background(), spec); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if got := atomic.LoadInt32(hits); got != 0 {
		t.Errorf("Expected no requests, got %d", got)
	}
	data, _ := os.ReadFile(target)
	if string(data) != "old" {
		t.Errorf("Existing tool was overwritten: %q", data)
	}
}

func TestEnsure_ReprovisionsUnusable(t *testing.T) {
	tests := []struct {
		name string
		body []byte
		perm os.FileMode
		unix bool
	}{
		{"empty file", nil, 0o755, false},
		{"not executable", []byte("stale"), 0o644, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.unix && runtime.GOOS == "windows" {
				t.Skip("execute bit is not checked on windows")
			}
			srv, hits := serve(t, http.StatusOK, []byte("fresh"))
			dir := t.TempDir()
			p := New(dir, srv.Client(), nil)
			spec := model.ToolSpec{Name: "yt-dlp", Distribution: model.DistributionRaw, URL: srv.URL}

			target := p.PathFor(spec)
			if err := os.WriteFile(target, tt.body, tt.perm); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}
			// WriteFile leaves existing permissions alone and umask may strip bits
			if err := os.Chmod(target, tt.perm); err != nil {
				t.Fatalf("Chmod failed: %v", err)
			}

			if _, err := p.Ensure(context.Background(), spec); err != nil {
				t.Fatalf("Ensure failed: %v", err)
			}
			if got := atomic.LoadInt32(hits); got != 1 {
				t.Errorf("Expected 1 request, got %d", got)
			}
			data, _ := os.ReadFile(target)
			if string(data) != "fresh" {
				t.Errorf("Expected fresh content, got %q", data)
			}
			assertExecutable(t, target)
		})
	}
}

func TestEnsure_FetchErrors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		srv, _ := serve(t, http.StatusNotFound, []byte("nope"))
		dir := t.TempDir()
		p := New(dir, srv.Client(), nil)
		spec := model.ToolSpec{Name: "yt-dlp", Distribution: model.DistributionRaw, URL: srv.URL}

		_, err := p.Ensure(context.Background(), spec)
		if !errors.Is(err, ErrFetch) {
			t.Fatalf("Expected ErrFetch, got %v", err)
		}
		if !strings.Contains(err.Error(), "404") {
			t.Errorf("Expected status code in error, got %v", err)
		}
		if _, statErr := os.Stat(p.PathFor(spec)); !os.IsNotExist(statErr) {
			t.Error("Target must not exist after failed fetch")
		}
		assertNoTempFiles(t, dir)
	})

	t.Run("empty body", func(t *testing.T) {
		srv, _ := serve(t, http.StatusOK, nil)
		p := New(t.TempDir(), srv.Client(), nil)
		spec := model.ToolSpec{Name: "yt-dlp", Distribution: model.DistributionRaw, URL: srv.URL}

		if _, err := p.Ensure(context.Background(), spec); !errors.Is(err, ErrFetch) {
			t.Errorf("Expected ErrFetch, got %v", err)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		p := New(t.TempDir(), nil, nil)
		spec := model.ToolSpec{Name: "yt-dlp", Distribution: model.DistributionRaw, URL: url}

		var perr *Error
		_, err := p.Ensure(context.Background(), spec)
		if !errors.As(err, &perr) {
			t.Fatalf("Expected *Error, got %T", err)
		}
		if perr.Tool != "yt-dlp" || perr.Kind != ErrFetch {
			t.Errorf("Unexpected error fields: %+v", perr)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		srv, hits := serve(t, http.StatusOK, []byte("x"))
		p := New(t.TempDir(), srv.Client(), nil)
		spec := model.ToolSpec{Name: "yt-dlp", Distribution: model.DistributionRaw, URL: srv.URL}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := p.Ensure(ctx, spec); !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
		if got := atomic.LoadInt32(hits); got != 0 {
			t.Errorf("Expected no requests, got %d", got)
		}
	})
}

func TestEnsure_PermissionError(t *testing.T) {
	orig := chmodFunc
	chmodFunc = func(string, os.FileMode) error { return os.ErrPermission }
	t.Cleanup(func() { chmodFunc = orig })

	srv, _ := serve(t, http.StatusOK, []byte("binary"))
	dir := t.TempDir()
	p := New(dir, srv.Client(), nil)
	spec := model.ToolSpec{Name: "yt-dlp", Distribution: model.DistributionRaw, URL: srv.URL}

	_, err := p.Ensure(context.Background(), spec)
	if !errors.Is(err, ErrPermission) {
		t.Fatalf("Expected ErrPermission, got %v", err)
	}
	if _, statErr := os.Stat(p.PathFor(spec)); !os.IsNotExist(statErr) {
		t.Error("Target must not exist after permission failure")
	}
	assertNoTempFiles(t, dir)
}

func TestEnsure_ZipExtraction(t *testing.T) {
	spec := model.ToolSpec{Name: "ffmpeg", Distribution: model.DistributionZip, Optional: true}
	name := spec.FileName()

	archive := buildZip(t,
		zipEntry{"docs/", ""},
		zipEntry{"docs/readme.txt", "read me"},
		zipEntry{"bin/" + name, "ffmpeg-binary"},
	)
	srv, _ := serve(t, http.StatusOK, archive)
	dir := t.TempDir()
	p := New(dir, srv.Client(), nil)
	spec.URL = srv.URL + "/ffmpeg.zip"

	path, err := p.Ensure(context.Background(), spec)
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if filepath.Base(path) != name {
		t.Errorf("Expected %s, got %s", name, path)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "ffmpeg-binary" {
		t.Errorf("Unexpected content: %q", data)
	}
	assertExecutable(t, path)
	assertNoTempFiles(t, dir)
}

func TestEnsure_ZipFirstMatchWins(t *testing.T) {
	spec := model.ToolSpec{Name: "ffmpeg", Distribution: model.DistributionZip}
	name := spec.FileName()

	archive := buildZip(t,
		zipEntry{"debug/" + name, "first"},
		zipEntry{"release/" + name, "second"},
	)
	srv, _ := serve(t, http.StatusOK, archive)
	p := New(t.TempDir(), srv.Client(), nil)
	spec.URL = srv.URL

	path, err := p.Ensure(context.Background(), spec)
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "first" {
		t.Errorf("Expected first matching entry, got %q", data)
	}
}

func TestEnsure_ZipErrors(t *testing.T) {
	tests := []struct {
		name    string
		archive func(t *testing.T) []byte
	}{
		{"no matching entry", func(t *testing.T) []byte {
			return buildZip(t, zipEntry{"docs/readme.txt", "read me"})
		}},
		{"not a zip", func(t *testing.T) []byte {
			return []byte("definitely not a zip archive")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := serve(t, http.StatusOK, tt.archive(t))
			dir := t.TempDir()
			p := New(dir, srv.Client(), nil)
			spec := model.ToolSpec{Name: "ffmpeg", Distribution: model.DistributionZip, URL: srv.URL}

			_, err := p.Ensure(context.Background(), spec)
			if !errors.Is(err, ErrExtraction) {
				t.Fatalf("Expected ErrExtraction, got %v", err)
			}
			if _, statErr := os.Stat(p.PathFor(spec)); !os.IsNotExist(statErr) {
				t.Error("Target must not exist after failed extraction")
			}
			assertNoTempFiles(t, dir)
		})
	}
}

func TestEnsure_UnknownDistribution(t *testing.T) {
	p := New(t.TempDir(), nil, nil)
	spec := model.ToolSpec{Name: "tool", Distribution: "tarball", URL: "http://127.0.0.1:0"}

	_, err := p.Ensure(context.Background(), spec)
	if err == nil || !strings.Contains(err.Error(), "tarball") {
		t.Errorf("Expected unknown distribution error, got %v", err)
	}
}

func TestEnsure_ConcurrentCallsShareInstall(t *testing.T) {
	srv, hits := serve(t, http.StatusOK, []byte("binary"))
	p := New(t.TempDir(), srv.Client(), nil)
	spec := model.ToolSpec{Name: "yt-dlp", Distribution: model.DistributionRaw, URL: srv.URL}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Ensure(context.Background(), spec); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Ensure failed: %v", err)
	}
	if got := atomic.LoadInt32(hits); got != 1 {
		t.Errorf("Expected a single download, got %d", got)
	}
}

func TestFindEntry_SkipsDirectories(t *testing.T) {
	archive := buildZip(t,
		zipEntry{"ffmpeg/", ""},
		zipEntry{"pkg/ffmpeg", "bin"},
	)
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}

	entry := findEntry(zr.File, "ffmpeg")
	if entry == nil || entry.Name != "pkg/ffmpeg" {
		t.Errorf("Expected pkg/ffmpeg, got %v", entry)
	}
	if findEntry(zr.File, "ffprobe") != nil {
		t.Error("Expected no entry for ffprobe")
	}
}

func TestErrorMessage(t *testing.T) {
	err := newError("ffmpeg", ErrExtraction, errors.New("ffmpeg not found in zip"))
	want := "ffmpeg: extraction failed: ffmpeg not found in zip"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
}
