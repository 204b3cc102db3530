package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lmod_proxy.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: "DEBUG"
gradebook:
  cert: "/tmp/cert.pem"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected level DEBUG, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("Expected default port %d, got %d", DefaultPort, cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Gradebook.URLBase != DefaultURLBase {
		t.Errorf("Expected default urlbase, got %q", cfg.Gradebook.URLBase)
	}
	if cfg.Gradebook.Cert != "/tmp/cert.pem" {
		t.Errorf("Expected cert from file, got %q", cfg.Gradebook.Cert)
	}
	if cfg.Gradebook.MaxPointsColumn != "max_pts" {
		t.Errorf("Expected default max points column, got %q", cfg.Gradebook.MaxPointsColumn)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := Load(missing)
	if err != nil {
		t.Fatalf("Expected defaults when config file is absent, got error: %v", err)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("Expected default port %d, got %d", DefaultPort, cfg.Server.Port)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
gradebook:
  urlbase: "https://file.example.com/"
`)
	t.Setenv("LMODP_GRADEBOOK_URLBASE", "https://env.example.com/")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Gradebook.URLBase != "https://env.example.com/" {
		t.Errorf("Expected env to override file, got %q", cfg.Gradebook.URLBase)
	}
}

func TestLoad_EnvOverridesDefault(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	t.Setenv("LMODP_AUTH_HTPASSWD_PATH", "/etc/lmod-proxy/htpasswd")

	cfg, err := Load(missing)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Auth.HtpasswdPath != "/etc/lmod-proxy/htpasswd" {
		t.Errorf("Expected htpasswd path from environment, got %q", cfg.Auth.HtpasswdPath)
	}
}

func TestLoad_DurationStrings(t *testing.T) {
	path := writeConfig(t, `
gradebook:
  timeout: "45s"
server:
  shutdown_timeout: "5s"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Gradebook.Timeout != 45*time.Second {
		t.Errorf("Expected 45s gradebook timeout, got %v", cfg.Gradebook.Timeout)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected 5s shutdown timeout, got %v", cfg.Server.ShutdownTimeout)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Auth.HtpasswdPath = "/srv/htpasswd"

	path := filepath.Join(t.TempDir(), "out", "lmod_proxy.yaml")
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to reload saved config: %v", err)
	}
	if loaded.Auth.HtpasswdPath != "/srv/htpasswd" {
		t.Errorf("Expected htpasswd path to round-trip, got %q", loaded.Auth.HtpasswdPath)
	}
}
