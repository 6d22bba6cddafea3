package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/yourusername/vidfetch/internal/domain"
	"github.com/yourusername/vidfetch/pkg/logger"
	"go.uber.org/zap"
)

// Notifier reports the outcome of a download request
type Notifier interface {
	NotifyDownloadCompleted(result *domain.DownloadResult)
	NotifyDownloadFailed(url string, err error)
}

// ManagerOptions holds the per-process settings of the pipeline
type ManagerOptions struct {
	HasTranscoder bool          // probed once at startup
	Timeout       time.Duration // wraps the whole extractor call; 0 disables
	UniqueNames   bool          // one output subdirectory per request
}

// DownloadManager runs the resolve, extract, interpret pipeline for a single request
type DownloadManager struct {
	policy      *QualityPolicy
	extractor   domain.Extractor
	interpreter *ResultInterpreter
	store       *RetrievalStore
	fs          afero.Fs
	notifier    Notifier
	options     ManagerOptions
	logger      *zap.Logger
	eventLogger *logger.MultiLogger
}

// NewDownloadManager creates a new download manager
func NewDownloadManager(
	policy *QualityPolicy,
	extractor domain.Extractor,
	interpreter *ResultInterpreter,
	store *RetrievalStore,
	fs afero.Fs,
	notifier Notifier,
	options ManagerOptions,
	logger *zap.Logger,
	eventLogger *logger.MultiLogger,
) *DownloadManager {
	return &DownloadManager{
		policy:      policy,
		extractor:   extractor,
		interpreter: interpreter,
		store:       store,
		fs:          fs,
		notifier:    notifier,
		options:     options,
		logger:      logger,
		eventLogger: eventLogger,
	}
}

// HasTranscoder reports the capability flag the manager resolves with
func (dm *DownloadManager) HasTranscoder() bool {
	return dm.options.HasTranscoder
}

// Choices returns the quality presets valid for this process
func (dm *DownloadManager) Choices() []domain.QualityChoice {
	return dm.policy.Choices(dm.options.HasTranscoder)
}

// Backend names the extraction backend in use
func (dm *DownloadManager) Backend() string {
	return dm.extractor.Name()
}

// Fetch downloads rawURL at the chosen quality and returns a one-shot retrieval ticket.
// Every failure is terminal for the request and is returned as a *domain.DownloadError.
func (dm *DownloadManager) Fetch(ctx context.Context, rawURL string, choice domain.QualityChoice) (*domain.DownloadTicket, error) {
	started := time.Now()

	videoURL, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, dm.fail(rawURL, choice, started, err)
	}

	cfg, err := dm.policy.Resolve(choice, dm.options.HasTranscoder)
	if err != nil {
		return nil, dm.fail(videoURL, choice, started, err)
	}

	requestID := uuid.New().String()
	if dm.options.UniqueNames {
		cfg = cfg.Scoped(requestID)
	}
	if err := dm.fs.MkdirAll(cfg.OutputDir(), 0755); err != nil {
		return nil, dm.fail(videoURL, choice, started,
			domain.NewDownloadError(domain.KindUnknown, "failed to prepare output directory", err))
	}

	dm.logger.Info("Download started",
		zap.String("request_id", requestID),
		zap.String("url", videoURL),
		zap.String("quality", string(choice)),
		zap.String("format", cfg.FormatSelector))
	dm.logEvent("download_started",
		zap.String("request_id", requestID),
		zap.String("url", videoURL),
		zap.String("quality", string(choice)),
		zap.String("backend", dm.extractor.Name()))

	raw, err := dm.extract(ctx, videoURL, cfg)
	if err != nil {
		dm.cleanupScope(cfg)
		return nil, dm.fail(videoURL, choice, started, err)
	}

	result, err := dm.interpreter.Interpret(raw, cfg)
	if err != nil {
		dm.cleanupScope(cfg)
		return nil, dm.fail(videoURL, choice, started, err)
	}

	ticket := dm.store.Put(result)

	dm.logger.Info("Download completed",
		zap.String("request_id", requestID),
		zap.String("file", result.FilePath),
		zap.Int64("size_bytes", result.SizeBytes),
		zap.Duration("elapsed", time.Since(started)))
	dm.logEvent("download_completed",
		zap.String("request_id", requestID),
		zap.String("url", videoURL),
		zap.String("title", result.Title),
		zap.String("file", result.FilePath),
		zap.Int64("size_bytes", result.SizeBytes),
		zap.Int64("duration_seconds", result.DurationSeconds),
		zap.Duration("elapsed", time.Since(started)))

	if dm.notifier != nil {
		dm.notifier.NotifyDownloadCompleted(result)
	}

	return ticket, nil
}

// Retrieve redeems a ticket issued by Fetch
func (dm *DownloadManager) Retrieve(token string) (*domain.DownloadResult, bool) {
	return dm.store.Take(token)
}

// extract invokes the engine under the configured timeout and classifies its failures
func (dm *DownloadManager) extract(ctx context.Context, videoURL string, cfg *domain.DownloadConfig) (*domain.RawInfo, error) {
	if dm.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, dm.options.Timeout)
		defer cancel()
	}

	raw, err := dm.extractor.Extract(ctx, videoURL, cfg)
	if err == nil {
		return raw, nil
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return nil, domain.NewDownloadError(domain.KindExternalService,
			fmt.Sprintf("the download did not finish within %s", dm.options.Timeout), err).
			WithHint("The video may be too long for this server. Try a lower quality option.")
	case errors.Is(err, context.Canceled):
		return nil, domain.NewDownloadError(domain.KindExternalService, "the download was cancelled", err).
			WithHint("Try again.")
	}

	var dlErr *domain.DownloadError
	if errors.As(err, &dlErr) {
		return nil, dlErr
	}
	return nil, domain.NewDownloadError(domain.KindExternalService, err.Error(), err)
}

// cleanupScope removes the per-request directory when the engine left nothing in it
func (dm *DownloadManager) cleanupScope(cfg *domain.DownloadConfig) {
	if !dm.options.UniqueNames {
		return
	}
	dir := cfg.OutputDir()
	empty, err := afero.IsEmpty(dm.fs, dir)
	if err != nil || !empty {
		return
	}
	if err := dm.fs.Remove(dir); err != nil {
		dm.logger.Debug("Failed to remove empty request directory", zap.String("dir", dir), zap.Error(err))
	}
}

func (dm *DownloadManager) fail(videoURL string, choice domain.QualityChoice, started time.Time, err error) error {
	dlErr := domain.AsDownloadError(err)

	dm.logger.Warn("Download failed",
		zap.String("url", videoURL),
		zap.String("quality", string(choice)),
		zap.String("kind", string(dlErr.Kind)),
		zap.String("message", dlErr.Message))
	dm.logEvent("download_failed",
		zap.String("url", videoURL),
		zap.String("quality", string(choice)),
		zap.String("kind", string(dlErr.Kind)),
		zap.String("message", dlErr.Message),
		zap.Duration("elapsed", time.Since(started)))

	// validation failures are not notified
	if dm.notifier != nil && dlErr.Kind != domain.KindInvalidInput && dlErr.Kind != domain.KindInvalidChoice {
		dm.notifier.NotifyDownloadFailed(videoURL, dlErr)
	}
	if dm.eventLogger != nil && dlErr.Kind == domain.KindUnknown {
		dm.eventLogger.LogAppError("Download pipeline error", zap.String("url", videoURL), zap.Error(dlErr))
	}

	return dlErr
}

func (dm *DownloadManager) logEvent(event string, fields ...zap.Field) {
	if dm.eventLogger != nil {
		dm.eventLogger.LogDownloadEvent(event, fields...)
	}
}

// NormalizeURL trims raw and checks that it is an absolute http(s) URL
func NormalizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", domain.NewDownloadError(domain.KindInvalidInput, "Please enter a video URL", nil)
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", domain.NewDownloadError(domain.KindInvalidInput, fmt.Sprintf("%q is not a valid URL", trimmed), err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", domain.NewDownloadError(domain.KindInvalidInput, "Only http and https URLs are supported", nil)
	}
	if parsed.Host == "" {
		return "", domain.NewDownloadError(domain.KindInvalidInput, fmt.Sprintf("%q has no host", trimmed), nil)
	}

	return trimmed, nil
}
