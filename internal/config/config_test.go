package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/propforma/underwrite/internal/config"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got := cfg.Server.Addr(); got != "127.0.0.1:5001" {
		t.Fatalf("expected default address, got %q", got)
	}
	if cfg.Server.OutputDir != "outputs" {
		t.Fatalf("expected default output dir, got %q", cfg.Server.OutputDir)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("expected default log level, got %q", cfg.Logging.Level)
	}
	if cfg.Launcher.ServerCommand != "underwrited" {
		t.Fatalf("expected default server command, got %q", cfg.Launcher.ServerCommand)
	}
	if cfg.Launcher.Marker != ".deps_installed" {
		t.Fatalf("expected default marker, got %q", cfg.Launcher.Marker)
	}
	if got := cfg.Launcher.ReadyTimeout(); got != 30*time.Second {
		t.Fatalf("expected 30s ready timeout, got %s", got)
	}
	if !cfg.Launcher.BrowserEnabled() {
		t.Fatalf("expected the browser enabled by default")
	}
}

func TestLoadEmptyPathYieldsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 5001 {
		t.Fatalf("expected default port, got %d", cfg.Server.Port)
	}
}

func TestLoadReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte(`
server:
  host: 0.0.0.0
  port: 8080
  outputDir: /tmp/artifacts
logging:
  level: debug
  development: true
launcher:
  serverCommand: ./bin/underwrited
  manifest: requirements.txt
  installCommand: [pip, install, -r, requirements.txt]
  openBrowser: false
  readyTimeoutSec: 5
`)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.Server.Addr(); got != "0.0.0.0:8080" {
		t.Fatalf("expected configured address, got %q", got)
	}
	if cfg.Server.OutputDir != "/tmp/artifacts" {
		t.Fatalf("expected configured output dir, got %q", cfg.Server.OutputDir)
	}
	if !cfg.Logging.Development || cfg.Logging.Level != "debug" {
		t.Fatalf("expected configured logging, got %+v", cfg.Logging)
	}
	if cfg.Launcher.BrowserEnabled() {
		t.Fatalf("expected the browser disabled")
	}
	if got := cfg.Launcher.ReadyTimeout(); got != 5*time.Second {
		t.Fatalf("expected 5s ready timeout, got %s", got)
	}
	if len(cfg.Launcher.InstallCommand) != 4 {
		t.Fatalf("expected the install command, got %v", cfg.Launcher.InstallCommand)
	}
}

func TestParseRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"port out of range":        "server:\n  port: 99999\n",
		"unknown log level":        "logging:\n  level: loud\n",
		"manifest without install": "launcher:\n  manifest: requirements.txt\n",
		"malformed yaml":           "server: [",
	}
	for name, raw := range cases {
		if _, err := config.Parse([]byte(raw)); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
}
