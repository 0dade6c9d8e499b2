package config

import (
	"strings"
	"time"

	"github.com/dcnetdisk/dcdisk/pkg/adapter/httpapi"
	"github.com/dcnetdisk/dcdisk/pkg/auth"
)

// Default locations used when the config does not name one.
const (
	DefaultContentPath = "/tmp/dcdisk-content"
	DefaultBadgerPath  = "/tmp/dcdisk-metadata"
	DefaultMetricsPort = 9090
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Secrets are never defaulted
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyHTTPDefaults(&cfg.HTTP)
	applyAuthDefaults(&cfg.Auth)
	applyContentDefaults(&cfg.Content)
	applyMetadataDefaults(&cfg.Metadata)
	applyMetricsDefaults(&cfg.Metrics)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyHTTPDefaults enables the HTTP adapter when it was not configured at
// all (port 0), so a config without an http section still serves.
// Users can set enabled: false together with a port to disable it.
func applyHTTPDefaults(cfg *httpapi.HTTPConfig) {
	if !cfg.Enabled && cfg.Port == 0 {
		cfg.Enabled = true
	}
	cfg.ApplyDefaults()
}

func applyAuthDefaults(cfg *AuthConfig) {
	if cfg.Type == "" {
		cfg.Type = "jwt"
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "dcdisk"
	}
	if cfg.JWT.TTL == 0 {
		cfg.JWT.TTL = auth.DefaultTokenTTL
	}
	if cfg.Static.Tokens == nil {
		cfg.Static.Tokens = make(map[string]string)
	}
}

func applyContentDefaults(cfg *ContentConfig) {
	if cfg.Type == "" {
		cfg.Type = "filesystem"
	}

	if cfg.Filesystem == nil {
		cfg.Filesystem = make(map[string]any)
	}
	if _, ok := cfg.Filesystem["path"]; !ok {
		cfg.Filesystem["path"] = DefaultContentPath
	}
}

func applyMetadataDefaults(cfg *MetadataConfig) {
	if cfg.Type == "" {
		cfg.Type = "badger"
	}

	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if _, ok := cfg.Badger["db_path"]; !ok {
		cfg.Badger["db_path"] = DefaultBadgerPath
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = DefaultMetricsPort
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// The JWT secret is left empty: callers generating a config file must fill
// it in (see InitConfigToPath).
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
