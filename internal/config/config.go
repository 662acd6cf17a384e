// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable name.
const Prefix = "SCROLLY"

// Config holds all runtime settings.
type Config struct {
	Addr           string        `envconfig:"ADDR" default:":8080"`
	DataDir        string        `envconfig:"DATA_DIR"`
	PluginDir      string        `envconfig:"PLUGIN_DIR"`
	StaticDir      string        `envconfig:"STATIC_DIR"`
	CameraID       int           `envconfig:"CAMERA_ID" default:"0"`
	FPS            int           `envconfig:"FPS" default:"15"`
	PluginTimeout  time.Duration `envconfig:"PLUGIN_TIMEOUT" default:"5s"`
	EventRetention time.Duration `envconfig:"EVENT_RETENTION" default:"168h"`
	JPEGQuality    int           `envconfig:"JPEG_QUALITY" default:"75"`
	Tray           bool          `envconfig:"TRAY" default:"true"`
	Gate           bool          `envconfig:"GATE" default:"true"`
	LogLevel       slog.Level    `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads an optional .env file and then the SCROLLY_* environment.
// Empty directories default to locations below ~/.scrolly.
func Load() (*Config, error) {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) resolve() error {
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality must be within 1..100, got %d", c.JPEGQuality)
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve data dir: %w", err)
		}
		c.DataDir = filepath.Join(home, ".scrolly")
	}
	if c.PluginDir == "" {
		c.PluginDir = filepath.Join(c.DataDir, "plugins")
	}
	return nil
}

// DBPath returns the sqlite database location.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "scrolly.db")
}

// FrameInterval returns the delay between two processed frames.
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.FPS)
}
