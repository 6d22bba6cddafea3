package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/yourusername/vidfetch/api"
	"github.com/yourusername/vidfetch/api/handlers"
	"github.com/yourusername/vidfetch/internal/app"
	"github.com/yourusername/vidfetch/internal/domain"
	"github.com/yourusername/vidfetch/internal/infrastructure"
	"github.com/yourusername/vidfetch/pkg/logger"
)

var (
	configPath  = flag.String("config", "", "Path to config file (default: ./configs, ~/.vidfetch, /etc/vidfetch)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(handlers.Version)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "vidfetch-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := app.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	// Event files (download-*.log, error-*.log) next to the yt-dlp process log
	events, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Storage.LogsDir,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize event logger: %w", err)
	}
	defer events.Close()

	if err := os.MkdirAll(config.Storage.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", config.Storage.OutputDir, err)
	}

	// The transcoder is probed once; the flag is fixed for the life of the process
	probe := infrastructure.NewTranscoderProbe(config.Extractor.FFmpegBinary)
	hasTranscoder := probe.Detect()
	if !hasTranscoder {
		log.Warn("ffmpeg not found, offering single-file formats only",
			zap.String("binary", config.Extractor.FFmpegBinary))
	}

	extractor := newExtractor(config, probe, events)

	log.Info("Starting vidfetch server",
		zap.String("version", handlers.Version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("output_dir", config.Storage.OutputDir),
		zap.String("backend", extractor.Name()),
		zap.Bool("has_transcoder", hasTranscoder))

	fs := afero.NewOsFs()
	notifier := infrastructure.NewNotificationService(&config.Notification, log)
	store := app.NewRetrievalStore(config.Storage.TicketTTL, log)
	policy := app.NewQualityPolicy(config.Storage.OutputDir).
		WithAudioFormat(config.Extractor.AudioCodec, config.Extractor.AudioQuality)

	manager := app.NewDownloadManager(
		policy,
		extractor,
		app.NewResultInterpreter(fs),
		store,
		fs,
		notifier,
		app.ManagerOptions{
			HasTranscoder: hasTranscoder,
			Timeout:       config.Extractor.Timeout,
			UniqueNames:   config.Storage.UniqueNames,
		},
		log,
		events,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go store.Run(ctx, config.Storage.SweepInterval)

	router := api.SetupRouter(manager, fs, config.Storage.OutputDir, log, events)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("Received shutdown signal")
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	}

	log.Info("Shutting down server...")

	// In-flight downloads get the shutdown window; their request contexts are cancelled after it
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	cancel()

	log.Info("Server exited")
	return nil
}

// newExtractor picks the engine backend named in the config
func newExtractor(config *domain.Config, probe *infrastructure.TranscoderProbe, events *logger.MultiLogger) domain.Extractor {
	if config.Extractor.Backend == domain.BackendLibrary {
		return infrastructure.NewLibraryExtractor(&config.Extractor, events)
	}

	// Only pin ffmpeg when the configured binary is not the bare name yt-dlp would find itself
	ffmpegLocation := ""
	if probe.Detect() && config.Extractor.FFmpegBinary != "ffmpeg" {
		ffmpegLocation = probe.Path()
	}
	return infrastructure.NewYTDLPExtractor(&config.Extractor, config.Storage.LogsDir, ffmpegLocation, events)
}
