package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")

	log, err := New(Config{Level: "debug", Format: "json", OutputPath: path})
	require.NoError(t, err)

	log.Info("hello", zap.String("k", "v"))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"k":"v"`)
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := New(Config{Level: "loud", Format: "console", OutputPath: path})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("shown")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestNewMultiLogger_RequiresDir(t *testing.T) {
	_, err := NewMultiLogger(MultiLoggerConfig{})
	assert.Error(t, err)
}

func TestMultiLogger_CategoryFiles(t *testing.T) {
	dir := t.TempDir()
	ml, err := NewMultiLogger(MultiLoggerConfig{Level: "info", LogsDir: dir})
	require.NoError(t, err)

	ml.LogDownloadEvent("download_completed", zap.String("title", "Demo"))
	ml.LogAppError("extraction failed", zap.String("kind", "ExternalServiceError"))
	require.NoError(t, ml.Close())

	now := time.Now()
	downloadLog, err := os.ReadFile(ml.CategoryLogPath(CategoryDownload, now))
	require.NoError(t, err)
	errorLog, err := os.ReadFile(ml.CategoryLogPath(CategoryError, now))
	require.NoError(t, err)

	var event map[string]interface{}
	line := strings.TrimSpace(strings.Split(string(downloadLog), "\n")[0])
	require.NoError(t, json.Unmarshal([]byte(line), &event))
	assert.Equal(t, "download_completed", event["event"])
	assert.Equal(t, "Demo", event["title"])

	assert.Contains(t, string(errorLog), "extraction failed")
	assert.NotContains(t, string(downloadLog), "extraction failed")
	assert.Equal(t, dir, ml.LogsDir())
}

func TestMultiLogger_ClosedLoggerIsNop(t *testing.T) {
	ml, err := NewMultiLogger(MultiLoggerConfig{Level: "info", LogsDir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, ml.Close())

	assert.NotPanics(t, func() {
		ml.LogDownloadEvent("after_close")
	})
}

func TestDailyFile_RollsOverAtMidnight(t *testing.T) {
	dir := t.TempDir()
	current := time.Date(2024, 3, 9, 23, 59, 0, 0, time.Local)
	pathFor := func(day time.Time) string {
		return filepath.Join(dir, "download-"+day.Format("20060102")+".log")
	}

	file := newDailyFile(pathFor, func() time.Time { return current })
	_, err := file.Write([]byte("first\n"))
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)
	_, err = file.Write([]byte("second\n"))
	require.NoError(t, err)
	require.NoError(t, file.Close())

	before, err := os.ReadFile(filepath.Join(dir, "download-20240309.log"))
	require.NoError(t, err)
	after, err := os.ReadFile(filepath.Join(dir, "download-20240310.log"))
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(before))
	assert.Equal(t, "second\n", string(after))

	_, err = file.Write([]byte("late\n"))
	assert.ErrorIs(t, err, os.ErrClosed)
}
