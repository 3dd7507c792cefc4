// Package config holds the settings shared by the daemon and the launcher.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the tool's YAML configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Launcher LauncherConfig `yaml:"launcher"`
}

type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	OutputDir string `yaml:"outputDir"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// LauncherConfig controls the bootstrap flow: where the server binary lives,
// which dependency manifest gates installation, and how long to wait for the
// port to come up before opening the browser.
type LauncherConfig struct {
	ServerCommand   string   `yaml:"serverCommand"`
	Manifest        string   `yaml:"manifest"`
	Marker          string   `yaml:"marker"`
	InstallCommand  []string `yaml:"installCommand"`
	OpenBrowser     *bool    `yaml:"openBrowser"`
	ReadyTimeoutSec int      `yaml:"readyTimeoutSec"`
	BrowserOverride string   `yaml:"browserOverride"`
}

// ReadyTimeout returns the readiness deadline as a duration.
func (l LauncherConfig) ReadyTimeout() time.Duration {
	return time.Duration(l.ReadyTimeoutSec) * time.Second
}

// BrowserEnabled reports whether the launcher should open a browser tab once
// the server is reachable. Defaults to true.
func (l LauncherConfig) BrowserEnabled() bool {
	return l.OpenBrowser == nil || *l.OpenBrowser
}

// Load reads the config file at path. A missing file yields the defaults so
// the tool runs with zero configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := &Config{}
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read: %w", err)
	}
	return Parse(raw)
}

// Parse decodes raw YAML, applies defaults, and validates.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5001
	}
	if cfg.Server.OutputDir == "" {
		cfg.Server.OutputDir = "outputs"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Launcher.ServerCommand == "" {
		cfg.Launcher.ServerCommand = "underwrited"
	}
	if cfg.Launcher.Marker == "" {
		cfg.Launcher.Marker = ".deps_installed"
	}
	if cfg.Launcher.ReadyTimeoutSec <= 0 {
		cfg.Launcher.ReadyTimeoutSec = 30
	}
}

// Validate rejects configurations the processes cannot act on.
func Validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", cfg.Server.Port)
	}
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: logging.level %q is not recognised", cfg.Logging.Level)
	}
	if cfg.Launcher.Manifest != "" && len(cfg.Launcher.InstallCommand) == 0 {
		return errors.New("config: launcher.manifest set without launcher.installCommand")
	}
	return nil
}
