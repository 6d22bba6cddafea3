package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/yourusername/vidfetch/internal/domain"
)

// EnvPrefix prefixes environment overrides, e.g. VIDFETCH_SERVER_PORT
const EnvPrefix = "VIDFETCH"

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.vidfetch")
		v.AddConfigPath("/etc/vidfetch")
	}

	// Defaults must be registered so AutomaticEnv can override keys absent from the file
	for key, value := range settings(config) {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// settings flattens config into viper keys
func settings(config *domain.Config) map[string]interface{} {
	return map[string]interface{}{
		"server.host":             config.Server.Host,
		"server.port":             config.Server.Port,
		"storage.output_dir":      config.Storage.OutputDir,
		"storage.logs_dir":        config.Storage.LogsDir,
		"storage.unique_names":    config.Storage.UniqueNames,
		"storage.ticket_ttl":      config.Storage.TicketTTL.String(),
		"storage.sweep_interval":  config.Storage.SweepInterval.String(),
		"extractor.backend":       config.Extractor.Backend,
		"extractor.ytdlp_binary":  config.Extractor.YTDLPBinary,
		"extractor.ffmpeg_binary": config.Extractor.FFmpegBinary,
		"extractor.timeout":       config.Extractor.Timeout.String(),
		"extractor.audio_codec":   config.Extractor.AudioCodec,
		"extractor.audio_quality": config.Extractor.AudioQuality,
		"notification.enabled":    config.Notification.Enabled,
		"notification.sound":      config.Notification.Sound,
		"notification.method":     config.Notification.Method,
		"logging.level":           config.Logging.Level,
		"logging.format":          config.Logging.Format,
		"logging.output_path":     config.Logging.OutputPath,
	}
}

func expandPaths(config *domain.Config) *domain.Config {
	config.Storage.OutputDir = expandPath(config.Storage.OutputDir)
	config.Storage.LogsDir = expandPath(config.Storage.LogsDir)
	config.Extractor.YTDLPBinary = expandPath(config.Extractor.YTDLPBinary)
	config.Extractor.FFmpegBinary = expandPath(config.Extractor.FFmpegBinary)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}

func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Storage.OutputDir == "" {
		return fmt.Errorf("output directory not configured")
	}

	if config.Storage.TicketTTL <= 0 {
		return fmt.Errorf("ticket ttl must be positive")
	}

	if config.Storage.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive")
	}

	switch config.Extractor.Backend {
	case domain.BackendExec, domain.BackendLibrary:
	default:
		return fmt.Errorf("unknown extractor backend: %q", config.Extractor.Backend)
	}

	if config.Extractor.YTDLPBinary == "" {
		return fmt.Errorf("yt-dlp binary not configured")
	}

	if config.Extractor.Timeout <= 0 {
		return fmt.Errorf("extractor timeout must be positive")
	}

	config.Extractor.AudioCodec = strings.ToLower(strings.TrimSpace(config.Extractor.AudioCodec))
	if config.Extractor.AudioCodec == "" {
		config.Extractor.AudioCodec = domain.DefaultAudioCodec
	}
	if !domain.IsAudioCodec(config.Extractor.AudioCodec) {
		return fmt.Errorf("unsupported audio codec: %q (want one of %s)",
			config.Extractor.AudioCodec, strings.Join(domain.AudioCodecs, ", "))
	}
	if config.Extractor.AudioQuality == "" {
		config.Extractor.AudioQuality = domain.DefaultAudioQuality
	}

	if config.Storage.LogsDir == "" {
		config.Storage.LogsDir = filepath.Join(config.Storage.OutputDir, "logs")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, value := range settings(config) {
		v.Set(key, value)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
