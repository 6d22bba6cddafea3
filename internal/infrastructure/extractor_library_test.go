package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alessio/shellescape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/vidfetch/internal/domain"
)

// go-ytdlp runs the child with only PATH set, so the fake script carries its paths inline
func libraryScript(t *testing.T, argsFile string, record map[string]interface{}) string {
	t.Helper()
	line, err := json.Marshal(record)
	require.NoError(t, err)
	return "printf '%s\\n' \"$@\" > " + shellescape.Quote(argsFile) + "\n" +
		"printf '%s\\n' " + shellescape.Quote(string(line)) + "\n"
}

func newTestLibraryExtractor(binary string) *LibraryExtractor {
	config := domain.DefaultConfig().Extractor
	config.YTDLPBinary = binary
	return NewLibraryExtractor(&config, nil)
}

func TestLibraryExtractor_Name(t *testing.T) {
	assert.Equal(t, domain.BackendLibrary, newTestLibraryExtractor("yt-dlp").Name())
}

func TestLibraryExtractor_Extract_AudioFlags(t *testing.T) {
	outDir := t.TempDir()
	argsFile := filepath.Join(outDir, "args.txt")
	outFile := filepath.Join(outDir, "Demo.webm")

	binary := writeFakeYTDLP(t, libraryScript(t, argsFile, map[string]interface{}{
		"_type":    "video",
		"title":    "Demo",
		"filename": outFile,
		"duration": 61.5,
	}))
	cfg := &domain.DownloadConfig{
		FormatSelector: "bestaudio/best",
		PostProcessors: []domain.PostProcessor{
			{Key: domain.PostProcessorExtractAudio, Codec: "mp3", Quality: "192"},
		},
		OutputTemplate: filepath.Join(outDir, "%(title)s.%(ext)s"),
	}

	info, err := newTestLibraryExtractor(binary).Extract(context.Background(), "https://example.com/watch?v=abc", cfg)
	require.NoError(t, err)

	assert.Equal(t, "Demo", info.Title)
	assert.Equal(t, outFile, info.Filename)
	assert.Equal(t, "webm", info.Ext)
	assert.InDelta(t, 61.5, info.Duration, 0.001)

	recorded, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(recorded)), "\n")
	args := strings.Join(lines, " ")

	assert.Contains(t, args, "--no-playlist")
	assert.Contains(t, args, "--format bestaudio/best")
	assert.Contains(t, args, "--output "+cfg.OutputTemplate)
	assert.Contains(t, args, "--extract-audio")
	assert.Contains(t, args, "--audio-format mp3")
	assert.Contains(t, args, "--audio-quality 192")
	assert.Equal(t, "https://example.com/watch?v=abc", lines[len(lines)-1])
}

func TestLibraryExtractor_Extract_VideoHasNoAudioFlags(t *testing.T) {
	outDir := t.TempDir()
	argsFile := filepath.Join(outDir, "args.txt")

	binary := writeFakeYTDLP(t, libraryScript(t, argsFile, map[string]interface{}{
		"_type":    "video",
		"title":    "Clip",
		"filename": filepath.Join(outDir, "Clip.mp4"),
	}))
	cfg := &domain.DownloadConfig{
		FormatSelector: "best[height<=480]",
		OutputTemplate: filepath.Join(outDir, "%(title)s.%(ext)s"),
	}

	_, err := newTestLibraryExtractor(binary).Extract(context.Background(), "https://example.com/v", cfg)
	require.NoError(t, err)

	recorded, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Contains(t, string(recorded), "best[height<=480]")
	assert.NotContains(t, string(recorded), "--extract-audio")
}

func TestLibraryExtractor_Extract_LegacyFilename(t *testing.T) {
	outDir := t.TempDir()
	outFile := filepath.Join(outDir, "Legacy.mkv")

	binary := writeFakeYTDLP(t, libraryScript(t, filepath.Join(outDir, "args.txt"), map[string]interface{}{
		"_type":     "video",
		"title":     "Legacy",
		"_filename": outFile,
	}))
	cfg := &domain.DownloadConfig{FormatSelector: "best", OutputTemplate: filepath.Join(outDir, "%(title)s.%(ext)s")}

	info, err := newTestLibraryExtractor(binary).Extract(context.Background(), "https://example.com/v", cfg)
	require.NoError(t, err)

	assert.Equal(t, outFile, info.Filename)
	assert.Equal(t, "mkv", info.Ext)
}

func TestLibraryExtractor_Extract_NoFilename(t *testing.T) {
	outDir := t.TempDir()
	binary := writeFakeYTDLP(t, libraryScript(t, filepath.Join(outDir, "args.txt"), map[string]interface{}{
		"_type": "video",
		"title": "Nameless",
	}))
	cfg := &domain.DownloadConfig{FormatSelector: "best", OutputTemplate: filepath.Join(outDir, "%(title)s.%(ext)s")}

	_, err := newTestLibraryExtractor(binary).Extract(context.Background(), "https://example.com/v", cfg)
	assert.ErrorIs(t, err, domain.ErrExternalService)
}

func TestLibraryExtractor_Extract_EngineError(t *testing.T) {
	binary := writeFakeYTDLP(t, `echo 'ERROR: [youtube] abc: Private video. Sign in if you have been granted access' >&2
exit 1
`)
	cfg := &domain.DownloadConfig{FormatSelector: "best", OutputTemplate: filepath.Join(t.TempDir(), "%(title)s.%(ext)s")}

	info, err := newTestLibraryExtractor(binary).Extract(context.Background(), "https://example.com/private", cfg)

	assert.Nil(t, info)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExternalService)

	var dlErr *domain.DownloadError
	require.True(t, errors.As(err, &dlErr))
	assert.Contains(t, dlErr.Message, "Private video")
	assert.Contains(t, dlErr.Hint, "private")
}

func TestLibraryExtractor_Extract_Timeout(t *testing.T) {
	binary := writeFakeYTDLP(t, "exec sleep 5\n")
	cfg := &domain.DownloadConfig{FormatSelector: "best", OutputTemplate: filepath.Join(t.TempDir(), "%(title)s.%(ext)s")}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := newTestLibraryExtractor(binary).Extract(ctx, "https://example.com/slow", cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
