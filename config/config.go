// Package config loads application settings from config.yaml, OKS_
// environment variables and built-in defaults, and hot-reloads the file
// when it changes on disk.
package config

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager sets up viper and loads the initial configuration. cfgFile may
// be empty, in which case config.yaml is searched in the working directory
// and in ~/.oks-checker.
func NewManager(cfgFile string) (*Manager, error) {
	m := &Manager{
		callbacks: make([]func(*Config), 0),
	}

	if err := m.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := m.load()
	if err != nil {
		return nil, err
	}
	m.config = cfg

	return m, nil
}

func (m *Manager) initViper(cfgFile string) error {
	defaults := DefaultConfig()
	viper.SetDefault("pdf_dir", defaults.PDFDir)
	viper.SetDefault("cache_dir", defaults.CacheDir)
	viper.SetDefault("tmp_dir", defaults.TmpDir)
	viper.SetDefault("thumbnails_dir", defaults.ThumbnailsDir)
	viper.SetDefault("host", defaults.Host)
	viper.SetDefault("port", defaults.Port)
	viper.SetDefault("use_cache", defaults.UseCache)
	viper.SetDefault("log_level", defaults.LogLevel)

	viper.SetEnvPrefix("OKS")
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.oks-checker")
	}

	// A missing config file is fine, defaults and environment cover it.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config file: %w", err)
		}
	}

	return nil
}

func (m *Manager) load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// NewStatic wraps a fixed configuration with no file or environment
// backing. Get returns it unchanged and callbacks never fire; useful for
// embedding the server and in tests.
func NewStatic(cfg *Config) *Manager {
	return &Manager{
		config:    cfg,
		callbacks: make([]func(*Config), 0),
	}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// OnChange registers a callback invoked after every successful reload.
func (m *Manager) OnChange(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

// WatchConfig enables hot-reloading of the config file.
func (m *Manager) WatchConfig() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := m.load()
		if err != nil {
			return
		}

		m.mu.Lock()
		m.config = cfg
		callbacks := make([]func(*Config), len(m.callbacks))
		copy(callbacks, m.callbacks)
		m.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	viper.WatchConfig()
}

// WriteDefault writes a commented default config file to the given path.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshaling default config: %w", err)
	}

	header := []byte(`# oks-checker configuration
# Every value can be overridden with an OKS_ environment variable,
# e.g. OKS_PORT=8080 or OKS_PDF_DIR=/srv/plans.

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
