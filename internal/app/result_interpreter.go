package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/yourusername/vidfetch/internal/domain"
)

// audioExtensions lists codecs whose container extension differs from the codec name
var audioExtensions = map[string]string{
	"vorbis": "ogg",
	"aac":    "m4a",
	"alac":   "m4a",
}

// ResultInterpreter turns an engine report into a verified result on storage
type ResultInterpreter struct {
	fs afero.Fs
}

// NewResultInterpreter creates an interpreter reading from fs
func NewResultInterpreter(fs afero.Fs) *ResultInterpreter {
	return &ResultInterpreter{fs: fs}
}

// Interpret verifies the file the engine reported.
// Audio extraction changes the extension after the engine reports the name, so the path is rewritten first.
// A zero-byte file is removed before EmptyOutput is returned.
func (r *ResultInterpreter) Interpret(raw *domain.RawInfo, cfg *domain.DownloadConfig) (*domain.DownloadResult, error) {
	if raw == nil || strings.TrimSpace(raw.Filename) == "" {
		return nil, domain.NewDownloadError(domain.KindFileNotProduced, "the download did not report an output file", nil)
	}

	path := ExpectedPath(raw, cfg)

	info, err := r.fs.Stat(path)
	if err != nil || info.IsDir() {
		return nil, domain.NewDownloadError(domain.KindFileNotProduced,
			fmt.Sprintf("expected output file %s was not found", filepath.Base(path)), err)
	}

	if info.Size() == 0 {
		if rmErr := r.fs.Remove(path); rmErr != nil {
			return nil, domain.NewDownloadError(domain.KindEmptyOutput,
				fmt.Sprintf("output file %s is empty and could not be removed", filepath.Base(path)), rmErr)
		}
		return nil, domain.NewDownloadError(domain.KindEmptyOutput,
			fmt.Sprintf("output file %s is empty", filepath.Base(path)), nil)
	}

	title := raw.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	var duration int64
	if raw.Duration > 0 {
		duration = int64(raw.Duration)
	}

	return &domain.DownloadResult{
		Title:           title,
		FilePath:        path,
		FileName:        filepath.Base(path),
		ContentType:     domain.ContentTypeFor(path),
		SizeBytes:       info.Size(),
		DurationSeconds: duration,
	}, nil
}

// ExpectedPath returns where the final file should be after post-processing
func ExpectedPath(raw *domain.RawInfo, cfg *domain.DownloadConfig) string {
	if cfg == nil {
		return raw.Filename
	}
	pp := cfg.AudioExtraction()
	if pp == nil {
		return raw.Filename
	}
	ext := pp.Codec
	if mapped, ok := audioExtensions[ext]; ok {
		ext = mapped
	}
	return domain.ReplaceExt(raw.Filename, ext)
}
