// Package config loads service configuration: defaults, then an optional
// YAML file, then environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"masterdata/internal/core/capability"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Database DatabaseConfig  `yaml:"database"`
	Auth     AuthConfig      `yaml:"auth"`
	Log      LogConfig       `yaml:"log"`
	Audit    AuditConfig     `yaml:"audit"`
	Caps     map[string]bool `yaml:"capabilities"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// URL empty means the in-memory store (development/tests).
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
	MinConns int32  `yaml:"min_conns"`
}

type AuthConfig struct {
	// Enabled turns on bearer-token validation. Off, every request acts
	// as the anonymous actor.
	Enabled   bool   `yaml:"enabled"`
	JWTSecret string `yaml:"jwt_secret"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type AuditConfig struct {
	Enabled bool `yaml:"enabled"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            "8080",
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			URL:      "",
			MaxConns: 25,
			MinConns: 5,
		},
		Auth: AuthConfig{Enabled: false},
		Log:  LogConfig{Level: "info"},
		Audit: AuditConfig{
			Enabled: true,
		},
		Caps: map[string]bool{
			capability.ModuleCRM:        true,
			capability.ModuleHR:         true,
			capability.ModuleProjects:   true,
			capability.ModuleWarehouse:  true,
			capability.ModuleAccounting: true,
		},
	}
}

// Load reads configuration. path may be empty or point to a missing file;
// both fall back to defaults plus environment overrides.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			b, err := os.ReadFile(path)
			if err != nil {
				return cfg, fmt.Errorf("read config: %w", err)
			}
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if cfg.Auth.Enabled && cfg.Auth.JWTSecret == "" {
		return cfg, fmt.Errorf("auth enabled but no JWT secret configured")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getenv("MASTERDATA_PORT", cfg.Server.Port)
	cfg.Database.URL = getenv("MASTERDATA_DB_URL", cfg.Database.URL)
	cfg.Auth.JWTSecret = getenv("MASTERDATA_JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.Enabled = getenvBool("MASTERDATA_AUTH_ENABLED", cfg.Auth.Enabled)
	cfg.Log.Level = getenv("MASTERDATA_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Development = getenvBool("MASTERDATA_LOG_DEV", cfg.Log.Development)
	cfg.Audit.Enabled = getenvBool("MASTERDATA_AUDIT_ENABLED", cfg.Audit.Enabled)

	// MASTERDATA_CAPABILITIES=crm,hr,import_export replaces the whole map.
	if v, ok := os.LookupEnv("MASTERDATA_CAPABILITIES"); ok {
		caps := make(map[string]bool)
		for _, name := range strings.Split(v, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				caps[name] = true
			}
		}
		cfg.Caps = caps
	}
}

// Capabilities resolves the configured flags into a capability registry.
func (c Config) Capabilities() capability.Static {
	s := make(capability.Static, len(c.Caps))
	for name, enabled := range c.Caps {
		s[name] = enabled
	}
	return s
}

func getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func getenvBool(k string, fallback bool) bool {
	if v, ok := os.LookupEnv(k); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}
