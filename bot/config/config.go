// Package config carries the application configuration on top of the shared
// core sections.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/vesilelab/vesilebot/bot/blob"
	coreconfig "github.com/vesilelab/vesilebot/core/config"
	coredatabase "github.com/vesilelab/vesilebot/core/database"
)

// AppConfig holds domain settings.
type AppConfig struct {
	// TranslationsDir holds one JSON catalog per locale.
	TranslationsDir string `yaml:"translations_dir" envconfig:"APP_TRANSLATIONS_DIR"`
	DefaultLocale   string `yaml:"default_locale" envconfig:"APP_DEFAULT_LOCALE"`
	// FallbackTimeoutSeconds is how long a turn may stay unanswered before
	// the recovery notice fires.
	FallbackTimeoutSeconds int `yaml:"fallback_timeout_seconds" envconfig:"APP_FALLBACK_TIMEOUT_SECONDS"`
	// AccessCodeRotation is a cron spec for translator code regeneration.
	AccessCodeRotation string `yaml:"access_code_rotation" envconfig:"APP_ACCESS_CODE_ROTATION"`
	PageSize           int    `yaml:"page_size" envconfig:"APP_PAGE_SIZE"`
	SessionCapacity    int    `yaml:"session_capacity" envconfig:"APP_SESSION_CAPACITY"`
}

// Config aggregates every section the bot needs.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
	Blob     blob.Config         `yaml:"blob"`
	App      AppConfig           `yaml:"app"`
}

// CoreConfig exposes the embedded core section.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Core
}

// FallbackTimeout returns the configured recovery delay.
func (c *Config) FallbackTimeout() time.Duration {
	return time.Duration(c.App.FallbackTimeoutSeconds) * time.Second
}

// Load reads the YAML file, applies environment overrides, and validates.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	if err := normalizeApp(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalizeApp(cfg *Config) error {
	if strings.TrimSpace(cfg.Database.Host) == "" {
		return fmt.Errorf("database.host is required")
	}
	if strings.TrimSpace(cfg.Blob.Endpoint) == "" {
		return fmt.Errorf("blob.endpoint is required")
	}
	if strings.TrimSpace(cfg.Blob.Bucket) == "" {
		return fmt.Errorf("blob.bucket is required")
	}
	if cfg.App.TranslationsDir == "" {
		cfg.App.TranslationsDir = "./translations"
	}
	if cfg.App.DefaultLocale == "" {
		cfg.App.DefaultLocale = "az"
	}
	if cfg.App.FallbackTimeoutSeconds <= 0 {
		cfg.App.FallbackTimeoutSeconds = 20
	}
	if cfg.App.AccessCodeRotation == "" {
		cfg.App.AccessCodeRotation = "@every 5m"
	}
	if cfg.App.PageSize <= 0 {
		cfg.App.PageSize = 10
	}
	return nil
}
