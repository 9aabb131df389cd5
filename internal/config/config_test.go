package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Store:  StoreConfig{Driver: DriverFile, DataDir: "data", UploadsDir: "uploads"},
		Transcode: TranscodeConfig{
			MaxSizeMB:    20,
			TargetSizeMB: 18,
		},
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				// Verify some key fields are populated
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, int64(500), cfg.Server.MaxVideoMB)
				assert.Equal(t, DriverFile, cfg.Store.Driver)
				assert.Equal(t, "uploads", cfg.Store.UploadsDir)
				assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
				assert.Equal(t, 5*time.Second, cfg.Gemini.PollInterval)
				assert.Equal(t, 20, cfg.Transcode.MaxSizeMB)
				assert.Equal(t, 200, cfg.Transcode.MinVideoBitrateKbps)
				assert.Equal(t, 2, cfg.Pipeline.Concurrency)
				assert.Equal(t, "analysis-service", cfg.App.Name)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		errString string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:      "invalid server port - too low",
			mutate:    func(c *Config) { c.Server.Port = 0 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "invalid server port - too high",
			mutate:    func(c *Config) { c.Server.Port = 70000 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "unknown store driver",
			mutate:    func(c *Config) { c.Store.Driver = "redis" },
			wantErr:   true,
			errString: "invalid store driver",
		},
		{
			name:      "file driver without data dir",
			mutate:    func(c *Config) { c.Store.DataDir = "" },
			wantErr:   true,
			errString: "data_dir is required",
		},
		{
			name: "postgres driver without host",
			mutate: func(c *Config) {
				c.Store.Driver = DriverPostgres
				c.Database = DatabaseConfig{Port: 5432, Database: "analysis_db"}
			},
			wantErr:   true,
			errString: "database host is required",
		},
		{
			name: "postgres driver without database name",
			mutate: func(c *Config) {
				c.Store.Driver = DriverPostgres
				c.Database = DatabaseConfig{Host: "localhost", Port: 5432}
			},
			wantErr:   true,
			errString: "database name is required",
		},
		{
			name:      "missing uploads dir",
			mutate:    func(c *Config) { c.Store.UploadsDir = "" },
			wantErr:   true,
			errString: "uploads_dir is required",
		},
		{
			name: "target size above max",
			mutate: func(c *Config) {
				c.Transcode.MaxSizeMB = 20
				c.Transcode.TargetSizeMB = 25
			},
			wantErr:   true,
			errString: "must not exceed max_size_mb",
		},
		{
			name:      "negative pipeline concurrency",
			mutate:    func(c *Config) { c.Pipeline.Concurrency = -1 },
			wantErr:   true,
			errString: "concurrency must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLoad_ValidateIntegration(t *testing.T) {
	t.Run("load and validate valid config", func(t *testing.T) {
		cfg, err := Load("testdata/valid_config.yaml")
		require.NoError(t, err)
		require.NotNil(t, cfg)

		require.NoError(t, cfg.Validate())
	})

	t.Run("load config with invalid port", func(t *testing.T) {
		cfg, err := Load("testdata/invalid_port.yaml")
		require.NoError(t, err)

		err = cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid server port")
	})

	t.Run("load config with missing database", func(t *testing.T) {
		cfg, err := Load("testdata/missing_database.yaml")
		require.NoError(t, err)

		err = cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database name is required")
	})
}
