package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lrstanley/go-ytdlp"
	"github.com/yourusername/vidfetch/internal/domain"
	"github.com/yourusername/vidfetch/pkg/logger"
	"go.uber.org/zap"
)

// LibraryExtractor drives yt-dlp through the go-ytdlp command builder
type LibraryExtractor struct {
	config      *domain.ExtractorConfig
	eventLogger *logger.MultiLogger
}

// NewLibraryExtractor creates a go-ytdlp backed extractor
func NewLibraryExtractor(config *domain.ExtractorConfig, eventLogger *logger.MultiLogger) *LibraryExtractor {
	return &LibraryExtractor{
		config:      config,
		eventLogger: eventLogger,
	}
}

// Name returns the backend name
func (e *LibraryExtractor) Name() string {
	return domain.BackendLibrary
}

// Extract downloads url according to cfg
func (e *LibraryExtractor) Extract(ctx context.Context, url string, cfg *domain.DownloadConfig) (*domain.RawInfo, error) {
	dl := e.command(cfg)

	result, err := dl.Run(ctx, url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("yt-dlp interrupted: %w", ctxErr)
		}
		output := err.Error()
		if result != nil && result.Stderr != "" {
			output = result.Stderr
		}
		dlErr := ClassifyEngineFailure(output, err)
		if e.eventLogger != nil {
			e.eventLogger.LogAppError("yt-dlp failed",
				zap.String("url", url),
				zap.String("backend", e.Name()),
				zap.String("message", dlErr.Message),
				zap.Error(err))
		}
		return nil, dlErr
	}

	infos, err := result.GetExtractedInfo()
	if err != nil {
		return nil, domain.NewDownloadError(domain.KindExternalService, "failed to read yt-dlp info", err)
	}
	if len(infos) == 0 {
		err := errors.New("yt-dlp reported no info record")
		return nil, domain.NewDownloadError(domain.KindExternalService, err.Error(), err)
	}

	info := infos[len(infos)-1]
	filename := reportedFilename(info)
	if filename == "" {
		err := errors.New("yt-dlp did not report an output filename")
		return nil, domain.NewDownloadError(domain.KindExternalService, err.Error(), err)
	}

	raw := &domain.RawInfo{
		Filename: filename,
		Ext:      strings.TrimPrefix(filepath.Ext(filename), "."),
	}
	if info.Title != nil {
		raw.Title = *info.Title
	}
	if info.Duration != nil {
		raw.Duration = *info.Duration
	}
	return raw, nil
}

// reportedFilename prefers "filename" and falls back to the legacy "_filename" key
func reportedFilename(info *ytdlp.ExtractedInfo) string {
	if info.Filename != nil && strings.TrimSpace(*info.Filename) != "" {
		return *info.Filename
	}
	if info.AltFilename != nil {
		return strings.TrimSpace(*info.AltFilename)
	}
	return ""
}

// command maps a DownloadConfig onto the builder
func (e *LibraryExtractor) command(cfg *domain.DownloadConfig) *ytdlp.Command {
	dl := ytdlp.New().
		NoPlaylist().
		NoProgress().
		PrintJSON().
		Format(cfg.FormatSelector).
		Output(cfg.OutputTemplate)

	if e.config.YTDLPBinary != "" {
		dl = dl.SetExecutable(e.config.YTDLPBinary)
	}

	if pp := cfg.AudioExtraction(); pp != nil {
		dl = dl.ExtractAudio().
			AudioFormat(pp.Codec).
			AudioQuality(pp.Quality)
	}

	return dl
}
