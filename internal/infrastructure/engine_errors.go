package infrastructure

import (
	"strings"

	"github.com/yourusername/vidfetch/internal/domain"
)

// engineHints maps substrings of yt-dlp error output to remediation text.
// Order matters: the first match wins.
var engineHints = []struct {
	needle string
	hint   string
}{
	{"private video", "This video is private. Only publicly accessible videos can be downloaded."},
	{"sign in to confirm your age", "The video is age-restricted and cannot be downloaded anonymously."},
	{"age-restricted", "The video is age-restricted and cannot be downloaded anonymously."},
	{"available in your country", "The video is geo-blocked from this server's location."},
	{"geo restriction", "The video is geo-blocked from this server's location."},
	{"video unavailable", "The video was removed or is unavailable. Check the URL."},
	{"has been removed", "The video was removed or is unavailable. Check the URL."},
	{"unsupported url", "This site is not supported. Check the URL."},
	{"is not a valid url", "Check the URL."},
	{"requested format is not available", "Try a different quality option."},
	{"ffmpeg not found", "Audio conversion needs ffmpeg. Try a single-file option."},
	{"unable to download webpage", "The site could not be reached. Try again later."},
	{"http error 429", "The site is throttling requests. Try again later."},
	{"http error 403", "The site refused the download. Try again later or pick another quality option."},
	{"timed out", "The site could not be reached. Try again later."},
}

// ClassifyEngineFailure turns engine error output into an ExternalServiceError
func ClassifyEngineFailure(output string, err error) *domain.DownloadError {
	message := LastErrorLine(output)
	if message == "" && err != nil {
		message = err.Error()
	}
	if message == "" {
		message = "extraction failed"
	}

	dlErr := domain.NewDownloadError(domain.KindExternalService, message, err)

	lower := strings.ToLower(message)
	for _, h := range engineHints {
		if strings.Contains(lower, h.needle) {
			return dlErr.WithHint(h.hint)
		}
	}
	return dlErr
}

// LastErrorLine returns the last "ERROR:" line of yt-dlp output without its prefix,
// or the last non-empty line when no such line exists.
func LastErrorLine(output string) string {
	var lastLine, lastError string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lastLine = line
		if strings.HasPrefix(line, "ERROR:") {
			lastError = strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))
		}
	}
	if lastError != "" {
		return lastError
	}
	return lastLine
}
