package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("APAFLOW_SERVER__PORT")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %v, want 8080", cfg.Server.Port)
	}
	if cfg.Backend.BaseURL != "http://localhost:8000" {
		t.Errorf("base_url = %v", cfg.Backend.BaseURL)
	}
	if cfg.Backend.MaxAttempts != 3 {
		t.Errorf("max_attempts = %v, want 3", cfg.Backend.MaxAttempts)
	}
	if cfg.Market.DefaultRegion != "nigeria" {
		t.Errorf("default_region = %v, want nigeria", cfg.Market.DefaultRegion)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	os.Setenv("APAFLOW_SERVER__PORT", "9000")
	os.Setenv("APAFLOW_BACKEND__BASE_URL", "http://backend.internal:8000")
	defer os.Unsetenv("APAFLOW_SERVER__PORT")
	defer os.Unsetenv("APAFLOW_BACKEND__BASE_URL")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %v, want 9000", cfg.Server.Port)
	}
	if cfg.Backend.BaseURL != "http://backend.internal:8000" {
		t.Errorf("base_url = %v", cfg.Backend.BaseURL)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: 7070\nmarket:\n  default_region: kenya\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	os.Setenv("APAFLOW_SERVER__PORT", "7171")
	defer os.Unsetenv("APAFLOW_SERVER__PORT")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Env wins over file, file wins over defaults.
	if cfg.Server.Port != 7171 {
		t.Errorf("port = %v, want 7171", cfg.Server.Port)
	}
	if cfg.Market.DefaultRegion != "kenya" {
		t.Errorf("default_region = %v, want kenya", cfg.Market.DefaultRegion)
	}
}

func TestLoad_MissingFileIgnored(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %v, want 8080", cfg.Server.Port)
	}
}

func TestLoad_BackendBaseURLEnvCase(t *testing.T) {
	// BASE_URL has a single underscore inside the key; only the double
	// underscore separates nesting levels.
	os.Setenv("APAFLOW_BACKEND__API_KEY", "sk-test-0123456789abcdef")
	defer os.Unsetenv("APAFLOW_BACKEND__API_KEY")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend.APIKey != "sk-test-0123456789abcdef" {
		t.Errorf("api_key = %v", cfg.Backend.APIKey)
	}
}
