// Package config loads process configuration from an optional YAML file and
// APAFLOW_-prefixed environment variables, env winning over file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Backend BackendConfig `koanf:"backend"`
	Market  MarketConfig  `koanf:"market"`
	Storage StorageConfig `koanf:"storage"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type BackendConfig struct {
	// BaseURL is the automation backend address; per-invocation api_url
	// overrides it.
	BaseURL string `koanf:"base_url"`
	// APIKey is the default bearer credential, used when an invocation
	// supplies no api_key of its own.
	APIKey string `koanf:"api_key"`
	// MaxAttempts bounds the dispatcher retry budget.
	MaxAttempts int `koanf:"max_attempts"`
}

type MarketConfig struct {
	// DefaultRegion is used when an invocation carries no region.
	DefaultRegion string `koanf:"default_region"`
}

type StorageConfig struct {
	// Path is the SQLite audit database path; empty disables auditing.
	Path string `koanf:"path"`
}

// Load reads configuration, layering defaults, the optional YAML file at
// path, and APAFLOW_ environment variables (double underscore separates
// nesting, e.g. APAFLOW_SERVER__PORT).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Defaults
	k.Set("server.port", 8080)
	k.Set("backend.base_url", "http://localhost:8000")
	k.Set("backend.max_attempts", 3)
	k.Set("market.default_region", "nigeria")
	k.Set("storage.path", "apaflow-audit.db")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider("APAFLOW_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "APAFLOW_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
