package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Store drivers.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Database  DatabaseConfig  `yaml:"database"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Transcode TranscodeConfig `yaml:"transcode"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Logging   LoggingConfig   `yaml:"logging"`
	App       AppConfig       `yaml:"app"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxVideoMB      int64         `yaml:"max_video_mb"`
	MaxReportMB     int64         `yaml:"max_report_mb"`
}

// StoreConfig selects the record store backend and its file locations.
// The file driver needs no external services; postgres switches the job
// collection to the database while screenings and children stay on disk.
type StoreConfig struct {
	Driver     string `yaml:"driver"`
	DataDir    string `yaml:"data_dir"`
	UploadsDir string `yaml:"uploads_dir"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// GeminiConfig holds inference service settings. The API key itself comes
// from the GEMINI_API_KEY environment variable, never from this file.
type GeminiConfig struct {
	Model           string        `yaml:"model"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	MaxPollDuration time.Duration `yaml:"max_poll_duration"`
	ProgressEvery   int           `yaml:"progress_every"`
}

// TranscodeConfig holds the size-budget re-encode settings
type TranscodeConfig struct {
	FFmpegPath          string `yaml:"ffmpeg_path"`
	FFprobePath         string `yaml:"ffprobe_path"`
	MaxSizeMB           int    `yaml:"max_size_mb"`
	TargetSizeMB        int    `yaml:"target_size_mb"`
	AudioBitrateKbps    int    `yaml:"audio_bitrate_kbps"`
	MinVideoBitrateKbps int    `yaml:"min_video_bitrate_kbps"`
	Preset              string `yaml:"preset"`
}

// PipelineConfig holds worker pool settings
type PipelineConfig struct {
	Concurrency int           `yaml:"concurrency"`
	QueueSize   int           `yaml:"queue_size"`
	JobTimeout  time.Duration `yaml:"job_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// Load reads and parses the configuration file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	switch c.Store.Driver {
	case DriverFile:
		if c.Store.DataDir == "" {
			return fmt.Errorf("store data_dir is required for the file driver")
		}
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.Port < MinPort || c.Database.Port > MaxPort {
			return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Store.DataDir == "" {
			return fmt.Errorf("store data_dir is required")
		}
	default:
		return fmt.Errorf("invalid store driver: %q (must be %q or %q)", c.Store.Driver, DriverFile, DriverPostgres)
	}

	if c.Store.UploadsDir == "" {
		return fmt.Errorf("store uploads_dir is required")
	}

	if c.Transcode.MaxSizeMB < 0 || c.Transcode.TargetSizeMB < 0 {
		return fmt.Errorf("transcode size budgets must not be negative")
	}
	if c.Transcode.MaxSizeMB > 0 && c.Transcode.TargetSizeMB > c.Transcode.MaxSizeMB {
		return fmt.Errorf("transcode target_size_mb (%d) must not exceed max_size_mb (%d)", c.Transcode.TargetSizeMB, c.Transcode.MaxSizeMB)
	}

	if c.Pipeline.Concurrency < 0 {
		return fmt.Errorf("pipeline concurrency must not be negative")
	}
	if c.Pipeline.QueueSize < 0 {
		return fmt.Errorf("pipeline queue_size must not be negative")
	}

	if c.Gemini.ProgressEvery < 0 {
		return fmt.Errorf("gemini progress_every must not be negative")
	}

	return nil
}
