package infrastructure

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"github.com/yourusername/vidfetch/internal/domain"
	"github.com/yourusername/vidfetch/pkg/logger"
	"go.uber.org/zap"
)

// YTDLPExtractor runs the yt-dlp binary as a child process
type YTDLPExtractor struct {
	config         *domain.ExtractorConfig
	logsDir        string
	ffmpegLocation string
	eventLogger    *logger.MultiLogger // structured events only; raw yt-dlp output goes to the process log
}

// NewYTDLPExtractor creates an exec-backed extractor.
// ffmpegLocation is passed to yt-dlp when non-empty; logsDir may be empty to disable the process log.
func NewYTDLPExtractor(config *domain.ExtractorConfig, logsDir, ffmpegLocation string, eventLogger *logger.MultiLogger) *YTDLPExtractor {
	return &YTDLPExtractor{
		config:         config,
		logsDir:        logsDir,
		ffmpegLocation: ffmpegLocation,
		eventLogger:    eventLogger,
	}
}

// Name returns the backend name
func (e *YTDLPExtractor) Name() string {
	return domain.BackendExec
}

// Extract downloads url into cfg's output template and reports what yt-dlp wrote
func (e *YTDLPExtractor) Extract(ctx context.Context, url string, cfg *domain.DownloadConfig) (*domain.RawInfo, error) {
	args := e.buildArgs(url, cfg)

	processLog, err := e.openLogFile()
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer processLog.Close()

	cmdLine := shellescape.QuoteCommand(append([]string{e.config.YTDLPBinary}, args...))
	e.writeLogHeader(processLog, url, cmdLine)

	// stdout carries the JSON info record, stderr the human-readable progress and errors
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.config.YTDLPBinary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = io.MultiWriter(processLog, &stderr)
	cmd.WaitDelay = 5 * time.Second

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			e.writeLogFooter(processLog, false, fmt.Sprintf("interrupted: %v", ctxErr))
			return nil, fmt.Errorf("yt-dlp interrupted: %w", ctxErr)
		}
		dlErr := ClassifyEngineFailure(stderr.String(), err)
		e.writeLogFooter(processLog, false, dlErr.Message)
		if e.eventLogger != nil {
			e.eventLogger.LogAppError("yt-dlp failed",
				zap.String("url", url),
				zap.String("message", dlErr.Message),
				zap.Error(err))
		}
		return nil, dlErr
	}

	info, err := ParseInfoJSON(stdout.Bytes())
	if err != nil {
		e.writeLogFooter(processLog, false, err.Error())
		return nil, domain.NewDownloadError(domain.KindExternalService, err.Error(), err)
	}

	e.writeLogFooter(processLog, true, fmt.Sprintf("Downloaded: %s", info.Filename))
	return info, nil
}

// buildArgs maps a DownloadConfig onto yt-dlp flags.
// exec passes args directly to the process, no shell quoting needed.
func (e *YTDLPExtractor) buildArgs(url string, cfg *domain.DownloadConfig) []string {
	args := []string{
		"--no-playlist",
		"--no-progress",
		"--no-simulate",
		"--dump-json",
		"-f", cfg.FormatSelector,
		"-o", cfg.OutputTemplate,
	}

	for _, pp := range cfg.PostProcessors {
		if pp.Key == domain.PostProcessorExtractAudio {
			args = append(args, "-x", "--audio-format", pp.Codec, "--audio-quality", pp.Quality)
		}
	}

	if e.ffmpegLocation != "" {
		args = append(args, "--ffmpeg-location", e.ffmpegLocation)
	}

	// "--" keeps a URL starting with a dash from being read as an option
	return append(args, "--", url)
}

// openLogFile opens today's yt-dlp process log
func (e *YTDLPExtractor) openLogFile() (io.WriteCloser, error) {
	if e.logsDir == "" {
		return nopWriteCloser{io.Discard}, nil
	}

	if err := os.MkdirAll(e.logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	dateStr := time.Now().Format("20060102")
	logPath := filepath.Join(e.logsDir, "ytdlp-"+dateStr+".log")
	return os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

func (e *YTDLPExtractor) writeLogHeader(w io.Writer, url, cmdLine string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(w, "\n=== [%s] Extract: %s ===\n", timestamp, url)
	fmt.Fprintf(w, "$ %s\n", cmdLine)
}

func (e *YTDLPExtractor) writeLogFooter(w io.Writer, success bool, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, status, message)
	fmt.Fprint(w, "=== END ===\n\n")
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// infoJSON is the subset of yt-dlp's info dict we read
type infoJSON struct {
	Title             string   `json:"title"`
	Filename          string   `json:"filename"`
	LegacyFilename    string   `json:"_filename"`
	Ext               string   `json:"ext"`
	Duration          float64  `json:"duration"`
	Filesize          *float64 `json:"filesize"`
	FilesizeApprox    *float64 `json:"filesize_approx"`
	RequestedDownload []struct {
		Filepath string `json:"filepath"`
	} `json:"requested_downloads"`
}

// ParseInfoJSON extracts the last info record from yt-dlp --dump-json output
func ParseInfoJSON(output []byte) (*domain.RawInfo, error) {
	var last *infoJSON

	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 32*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var record infoJSON
		if err := json.Unmarshal(line, &record); err != nil {
			continue
		}
		last = &record
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read yt-dlp output: %w", err)
	}
	if last == nil {
		return nil, errors.New("yt-dlp reported no info record")
	}

	info := &domain.RawInfo{
		Title:    last.Title,
		Ext:      last.Ext,
		Duration: last.Duration,
	}

	for _, rd := range last.RequestedDownload {
		if rd.Filepath != "" {
			info.Filename = rd.Filepath
		}
	}
	if info.Filename == "" {
		info.Filename = last.Filename
	}
	if info.Filename == "" {
		info.Filename = last.LegacyFilename
	}

	switch {
	case last.Filesize != nil:
		info.Filesize = int64(*last.Filesize)
	case last.FilesizeApprox != nil:
		info.Filesize = int64(*last.FilesizeApprox)
	}

	if strings.TrimSpace(info.Filename) == "" {
		return nil, errors.New("yt-dlp did not report an output filename")
	}
	return info, nil
}
