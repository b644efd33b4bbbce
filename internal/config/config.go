package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the market viewer.
type Config struct {
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
	Viewer  Viewer  `yaml:"viewer"`
	Export  Export  `yaml:"export"`
}

// Server holds network listener configuration.
type Server struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Viewer controls how the session window and charts are presented.
type Viewer struct {
	// Timezone names the IANA zone whose calendar date seeds the session
	// window. Empty means the process-local zone.
	Timezone    string `yaml:"timezone"`
	NasdaqLabel string `yaml:"nasdaq_label"`
	SPXLabel    string `yaml:"spx_label"`
}

// Export holds the destination for parquet exports.
type Export struct {
	Dir string `yaml:"dir"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: Server{
			Host:        "127.0.0.1",
			Port:        8501,
			MaxUploadMB: 64,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Viewer: Viewer{
			NasdaqLabel: "NQ",
			SPXLabel:    "ES",
		},
		Export: Export{
			Dir: "exports",
		},
	}
}

// Addr returns the host:port listen address.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MaxUploadBytes converts the upload limit to bytes.
func (s Server) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}

// Location resolves the configured time zone.
func (v Viewer) Location() (*time.Location, error) {
	if v.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(v.Timezone)
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path over the
// defaults, and then applies environment variable overrides. A missing file
// is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if _, err := cfg.Viewer.Location(); err != nil {
		return nil, fmt.Errorf("viewer timezone: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is
// ignored.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("MARKETVIEWER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("MARKETVIEWER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MARKETVIEWER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("MARKETVIEWER_TZ"); v != "" {
		cfg.Viewer.Timezone = v
	}

	if v := os.Getenv("MARKETVIEWER_EXPORT_DIR"); v != "" {
		cfg.Export.Dir = v
	}

	return nil
}
