package download

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"github.com/ytget/yt-mp3/internal/model"
	"github.com/ytget/yt-mp3/internal/platform"
	"github.com/ytget/yt-mp3/internal/runner"
	"github.com/ytget/yt-mp3/internal/transcode"
)

// Pipeline step names used in logs
const (
	StepValidate   = "validate"
	StepExtractor  = "provision_extractor"
	StepTranscoder = "provision_transcoder"
	StepProbe      = "probe"
	StepTitle      = "fetch_title"
	StepLocation   = "choose_location"
	StepExtract    = "extract"
)

// SaveDialogTool names the dialog in failure messages
const SaveDialogTool = "save dialog"

// AcceptedHosts are the URL substrings that mark a supported video link.
// Matching is case-sensitive.
var AcceptedHosts = []string{"youtube.com", "youtu.be"}

// IsSupportedURL reports whether url contains one of AcceptedHosts
func IsSupportedURL(url string) bool {
	for _, host := range AcceptedHosts {
		if strings.Contains(url, host) {
			return true
		}
	}
	return false
}

// Options configures a Service
type Options struct {
	Extractor  model.ToolSpec   // yt-dlp
	Transcoder model.ToolSpec   // ffmpeg, best effort
	Prober     transcode.Prober // nil skips the pre-flight transcoder check
	Logger     *slog.Logger
}

// Service runs MP3 download operations
type Service struct {
	provisioner Provisioner
	runner      runner.Runner
	dirs        DirectoryProvider
	dialog      SaveDialog
	extractor   model.ToolSpec
	transcoder  model.ToolSpec
	prober      transcode.Prober
	logger      *slog.Logger

	mu       sync.RWMutex
	onUpdate func(model.DownloadTask) // callback for UI updates
}

// NewService creates a new download service. dirs may be nil, in which case
// the user's Downloads directory is offered.
func NewService(p Provisioner, r runner.Runner, dirs DirectoryProvider, dialog SaveDialog, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		provisioner: p,
		runner:      r,
		dirs:        dirs,
		dialog:      dialog,
		extractor:   opts.Extractor,
		transcoder:  opts.Transcoder,
		prober:      opts.Prober,
		logger:      logger,
	}
}

// SetUpdateCallback sets the callback function for task updates. The
// callback receives copies and is invoked from the goroutine running
// DownloadMP3.
func (s *Service) SetUpdateCallback(callback func(model.DownloadTask)) {
	s.mu.Lock()
	s.onUpdate = callback
	s.mu.Unlock()
}

// DownloadMP3 extracts the audio of url into an MP3 file at a location chosen
// through the SaveDialog. It blocks until the operation finishes.
func (s *Service) DownloadMP3(ctx context.Context, url string) model.Result {
	task := &model.DownloadTask{
		ID:        generateTaskID(),
		URL:       url,
		Status:    model.TaskStatusPending,
		StartedAt: time.Now(),
	}
	log := s.logger.With(slog.String("op", task.ID))

	if !IsSupportedURL(url) {
		log.Warn("rejected url", slog.String("step", StepValidate), slog.String("url", url))
		return s.finish(log, task, &model.FailureError{Kind: model.ErrorInvalidInput})
	}

	s.setStatus(task, model.TaskStatusProvisioning)

	if err := ctx.Err(); err != nil {
		return s.canceled(log, task, err)
	}
	ytdlp, err := s.provisioner.Ensure(ctx, s.extractor)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return s.canceled(log, task, ctxErr)
		}
		log.Error("extractor unavailable", slog.String("step", StepExtractor), slog.String("tool", s.extractor.Name), slog.Any("error", err))
		return s.finish(log, task, &model.FailureError{Kind: model.ErrorProvision, Tool: s.extractor.Name, Err: err})
	}
	log.Debug("extractor ready", slog.String("step", StepExtractor), slog.String("path", ytdlp))

	ffmpeg := s.prepareTranscoder(ctx, log)

	if err := ctx.Err(); err != nil {
		return s.canceled(log, task, err)
	}
	s.setStatus(task, model.TaskStatusFetchingTitle)

	out, err := s.runner.Run(ctx, runner.Command{Path: ytdlp, Args: platform.TitleArgs(url)})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return s.canceled(log, task, ctxErr)
		}
		return s.finish(log, task, &model.FailureError{Kind: model.ErrorMetadata, Tool: s.extractor.Name, Err: err})
	}
	log.Debug("title output", slog.String("step", StepTitle), slog.String("stdout", string(out.Stdout)), slog.String("stderr", string(out.Stderr)))
	if !out.Success() {
		return s.finish(log, task, &model.FailureError{
			Kind:   model.ErrorMetadata,
			Tool:   s.extractor.Name,
			Detail: string(out.Stderr),
			Err:    fmt.Errorf("exit status %d", out.ExitCode),
		})
	}

	task.Title = platform.ParseTitle(out.Stdout)
	name := platform.OutputFileName(task.Title)

	if err := ctx.Err(); err != nil {
		return s.canceled(log, task, err)
	}
	s.setStatus(task, model.TaskStatusChoosingLocation)

	defaultDir := s.defaultDirectory(log)
	dir, err := s.dialog.ChooseDirectory(ctx, defaultDir, name)
	if err != nil {
		if errors.Is(err, ErrCanceled) {
			log.Info("save dialog dismissed", slog.String("step", StepLocation))
			return s.finish(log, task, &model.FailureError{Kind: model.ErrorUserCanceled, Err: err})
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return s.canceled(log, task, ctxErr)
		}
		return s.finish(log, task, &model.FailureError{Kind: model.ErrorExecution, Tool: SaveDialogTool, Err: err})
	}

	if err := ctx.Err(); err != nil {
		return s.canceled(log, task, err)
	}

	task.OutputPath = filepath.Join(dir, name+platform.MP3Extension)
	s.setStatus(task, model.TaskStatusDownloading)
	log.Info("extracting audio", slog.String("step", StepExtract), slog.String("path", task.OutputPath))

	out, err = s.runner.Run(ctx, runner.Command{
		Path: ytdlp,
		Args: platform.ExtractAudioArgs(url, task.OutputPath, ffmpeg),
		OnLine: func(line string) {
			if percent, ok := platform.ParseProgressLine(line); ok {
				task.SetPercent(percent)
				s.notifyUpdate(task)
			}
		},
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return s.canceled(log, task, ctxErr)
		}
		return s.finish(log, task, &model.FailureError{Kind: model.ErrorExecution, Tool: s.extractor.Name, Err: err})
	}
	log.Debug("extraction output", slog.String("step", StepExtract), slog.String("stderr", string(out.Stderr)))
	if !out.Success() {
		return s.finish(log, task, &model.FailureError{
			Kind:   model.ErrorExecution,
			Tool:   s.extractor.Name,
			Detail: string(out.Stderr),
			Err:    fmt.Errorf("exit status %d", out.ExitCode),
		})
	}

	task.SetPercent(100)
	task.Status = model.TaskStatusCompleted
	task.FinishedAt = time.Now()
	s.notifyUpdate(task)
	log.Info("download completed", slog.String("path", task.OutputPath))

	return model.NewOKResult(dir, task.OutputPath, task.Title)
}

// prepareTranscoder returns the ffmpeg path to hand to the extractor, or ""
// when ffmpeg is unavailable and the extractor must fall back to whatever
// it finds on its own.
func (s *Service) prepareTranscoder(ctx context.Context, log *slog.Logger) string {
	if err := ctx.Err(); err != nil {
		return ""
	}
	path, err := s.provisioner.Ensure(ctx, s.transcoder)
	if err != nil {
		log.Warn("transcoder unavailable, continuing without it",
			slog.String("step", StepTranscoder), slog.String("tool", s.transcoder.Name), slog.Any("error", err))
		return ""
	}

	if s.prober == nil {
		return path
	}
	if err := ctx.Err(); err != nil {
		return ""
	}
	version, err := s.prober.Probe(ctx, path)
	if err != nil {
		log.Warn("transcoder probe failed, continuing without it",
			slog.String("step", StepProbe), slog.String("tool", s.transcoder.Name), slog.String("path", path), slog.Any("error", err))
		return ""
	}
	log.Debug("transcoder ready", slog.String("step", StepProbe), slog.String("path", path), slog.String("version", version))
	return path
}

// defaultDirectory picks the save dialog's starting directory
func (s *Service) defaultDirectory(log *slog.Logger) string {
	if s.dirs != nil {
		dir, err := s.dirs.DefaultDirectory()
		if err == nil && dir != "" {
			return dir
		}
		if err != nil {
			log.Debug("default directory unavailable", slog.String("step", StepLocation), slog.Any("error", err))
		}
	}
	return platform.DefaultDownloadsDir()
}

func (s *Service) setStatus(task *model.DownloadTask, status model.TaskStatus) {
	task.Status = status
	s.notifyUpdate(task)
}

func (s *Service) canceled(log *slog.Logger, task *model.DownloadTask, err error) model.Result {
	return s.finish(log, task, &model.FailureError{Kind: model.ErrorCanceled, Err: err})
}

// finish records the failure on the task, publishes it and builds the result
func (s *Service) finish(log *slog.Logger, task *model.DownloadTask, failure *model.FailureError) model.Result {
	result := model.NewFailedResult(failure)
	result.Title = task.Title

	if result.Outcome == model.OutcomeCanceled {
		task.Status = model.TaskStatusCanceled
	} else {
		task.Status = model.TaskStatusError
		log.Error("download failed", slog.String("kind", string(failure.Kind)), slog.String("error", failure.Error()))
	}
	task.LastError = failure.Error()
	task.FinishedAt = time.Now()
	s.notifyUpdate(task)

	return result
}

// notifyUpdate calls the update callback with a copy of task, if set
func (s *Service) notifyUpdate(task *model.DownloadTask) {
	s.mu.RLock()
	callback := s.onUpdate
	s.mu.RUnlock()

	if callback != nil {
		callback(*task)
	}
}

// generateTaskID generates a unique, time-ordered task ID
func generateTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
