package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Audio extraction defaults
const (
	PostProcessorExtractAudio = "FFmpegExtractAudio"
	DefaultAudioCodec         = "mp3"
	DefaultAudioQuality       = "192"
)

// AudioCodecs are the extraction targets with a predictable output extension.
// yt-dlp's "best" keeps the source codec, so the final file name cannot be derived from it.
var AudioCodecs = []string{"aac", "alac", "flac", "m4a", "mp3", "opus", "vorbis", "wav"}

// IsAudioCodec reports whether codec is one of AudioCodecs
func IsAudioCodec(codec string) bool {
	for _, c := range AudioCodecs {
		if c == codec {
			return true
		}
	}
	return false
}

// PostProcessor is an instruction applied by the extraction engine after retrieval
type PostProcessor struct {
	Key     string `json:"key"`
	Codec   string `json:"preferred_codec"`
	Quality string `json:"preferred_quality"`
}

// DownloadConfig is the resolved request handed to the extraction engine
type DownloadConfig struct {
	FormatSelector string          `json:"format"`
	PostProcessors []PostProcessor `json:"postprocessors"`
	OutputTemplate string          `json:"outtmpl"`
}

// AudioExtraction returns the audio conversion directive, if any
func (c *DownloadConfig) AudioExtraction() *PostProcessor {
	for i := range c.PostProcessors {
		if c.PostProcessors[i].Key == PostProcessorExtractAudio {
			return &c.PostProcessors[i]
		}
	}
	return nil
}

// OutputDir returns the directory the output template writes into
func (c *DownloadConfig) OutputDir() string {
	return filepath.Dir(c.OutputTemplate)
}

// Scoped returns a copy whose output template lives in a subdirectory of the output directory
func (c *DownloadConfig) Scoped(subdir string) *DownloadConfig {
	scoped := &DownloadConfig{
		FormatSelector: c.FormatSelector,
		OutputTemplate: filepath.Join(filepath.Dir(c.OutputTemplate), subdir, filepath.Base(c.OutputTemplate)),
	}
	if len(c.PostProcessors) > 0 {
		scoped.PostProcessors = append([]PostProcessor(nil), c.PostProcessors...)
	}
	return scoped
}

// RawInfo is the metadata record reported by the extraction engine
type RawInfo struct {
	Title    string  `json:"title"`
	Filename string  `json:"filename"`
	Ext      string  `json:"ext"`
	Duration float64 `json:"duration"`
	Filesize int64   `json:"filesize"`
}

// DownloadResult describes a produced file
type DownloadResult struct {
	Title           string `json:"title"`
	FilePath        string `json:"file_path"`
	FileName        string `json:"file_name"`
	ContentType     string `json:"content_type"`
	SizeBytes       int64  `json:"size_bytes"`
	DurationSeconds int64  `json:"duration_seconds,omitempty"`
}

// DownloadTicket grants a single retrieval of a produced file
type DownloadTicket struct {
	Token     string          `json:"token"`
	Result    *DownloadResult `json:"result"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Expired reports whether the ticket is no longer valid at now
func (t *DownloadTicket) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// ContentTypeFor returns the MIME type served for a produced file
func ContentTypeFor(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "mp3":
		return "audio/mpeg"
	case "mp4", "webm", "mkv":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}

// ReplaceExt swaps the extension of path for ext (given without the dot)
func ReplaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + ext
}
