package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
)

// Config holds every runtime knob of the application. All values can come
// from config.yaml or from OKS_-prefixed environment variables.
type Config struct {
	// Directories used by the web application and the CLI.
	PDFDir        string `mapstructure:"pdf_dir" yaml:"pdf_dir"`
	CacheDir      string `mapstructure:"cache_dir" yaml:"cache_dir"`
	TmpDir        string `mapstructure:"tmp_dir" yaml:"tmp_dir"`
	ThumbnailsDir string `mapstructure:"thumbnails_dir" yaml:"thumbnails_dir"`

	// Web server listen address.
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`

	// UseCache controls whether extraction snapshots are read and written.
	UseCache bool `mapstructure:"use_cache" yaml:"use_cache"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// DefaultConfig returns the configuration used when no file and no
// environment variables are present.
func DefaultConfig() *Config {
	return &Config{
		PDFDir:        "pdf",
		CacheDir:      "cache",
		TmpDir:        "tmp",
		ThumbnailsDir: "thumbnails",
		Host:          "127.0.0.1",
		Port:          8000,
		UseCache:      true,
		LogLevel:      "info",
	}
}

// Address returns the host:port pair the web server listens on.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Level maps the configured log level onto slog. Unknown values fall back
// to info.
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// EnsureDirs creates every configured directory that does not exist yet.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.PDFDir, c.CacheDir, c.TmpDir, c.ThumbnailsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}
