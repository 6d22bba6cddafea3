package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Extractor    ExtractorConfig    `mapstructure:"extractor"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// StorageConfig describes where produced files and logs live
type StorageConfig struct {
	OutputDir     string        `mapstructure:"output_dir"`
	LogsDir       string        `mapstructure:"logs_dir"`
	UniqueNames   bool          `mapstructure:"unique_names"` // one subdirectory per request
	TicketTTL     time.Duration `mapstructure:"ticket_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// Extractor backends
const (
	BackendExec    = "exec"
	BackendLibrary = "library"
)

// ExtractorConfig contains extraction engine configuration
type ExtractorConfig struct {
	Backend      string        `mapstructure:"backend"` // exec, library
	YTDLPBinary  string        `mapstructure:"ytdlp_binary"`
	FFmpegBinary string        `mapstructure:"ffmpeg_binary"`
	Timeout      time.Duration `mapstructure:"timeout"`
	AudioCodec   string        `mapstructure:"audio_codec"`
	AudioQuality string        `mapstructure:"audio_quality"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Sound   bool   `mapstructure:"sound"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8501,
		},
		Storage: StorageConfig{
			OutputDir:     "downloads",
			LogsDir:       "downloads/logs",
			UniqueNames:   true,
			TicketTTL:     time.Hour,
			SweepInterval: 5 * time.Minute,
		},
		Extractor: ExtractorConfig{
			Backend:      BackendExec,
			YTDLPBinary:  "yt-dlp",
			FFmpegBinary: "ffmpeg",
			Timeout:      30 * time.Minute,
			AudioCodec:   DefaultAudioCodec,
			AudioQuality: DefaultAudioQuality,
		},
		Notification: NotificationConfig{
			Enabled: false,
			Sound:   false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
