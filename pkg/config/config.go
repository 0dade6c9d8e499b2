package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dcnetdisk/dcdisk/pkg/adapter/httpapi"
	"github.com/spf13/viper"
)

// Config represents the complete dcdisk configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (DCDISK_*)
//  2. Configuration file (YAML or TOML)
//  3. Default values (lowest priority)
//
// Store Configuration Pattern:
// Each store implementation defines its own configuration type. The Config
// struct carries type-specific sections (e.g. content.filesystem,
// content.s3) as generic maps and only the section matching the selected
// type is decoded, by the factories in this package.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Server contains server-wide settings
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// HTTP configures the HTTP adapter.
	// Uses the httpapi.HTTPConfig type directly to avoid duplication.
	HTTP httpapi.HTTPConfig `mapstructure:"http" yaml:"http"`

	// Auth selects how session tokens are resolved to users
	Auth AuthConfig `mapstructure:"auth" yaml:"auth"`

	// Content specifies the byte store type and type-specific configuration
	Content ContentConfig `mapstructure:"content" yaml:"content"`

	// Metadata specifies the metadata repository type and type-specific configuration
	Metadata MetadataConfig `mapstructure:"metadata" yaml:"metadata"`

	// Metrics controls the Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// ServerConfig contains server-wide settings.
type ServerConfig struct {
	// ShutdownTimeout is the maximum time adapters get to drain on shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"required,gt=0"`
}

// AuthConfig selects the token resolver.
type AuthConfig struct {
	// Type specifies the resolver implementation
	// Valid values: jwt, static
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=jwt static"`

	// JWT is used when Type = "jwt"
	JWT JWTConfig `mapstructure:"jwt" yaml:"jwt"`

	// Static is used when Type = "static"
	Static StaticAuthConfig `mapstructure:"static" yaml:"static"`
}

// JWTConfig configures HS256 session tokens.
type JWTConfig struct {
	// Secret is the HMAC signing key. Required when auth.type = jwt.
	Secret string `mapstructure:"secret" yaml:"secret"`

	// Issuer is stamped into issued tokens and required when validating.
	// Empty disables the issuer check.
	Issuer string `mapstructure:"issuer" yaml:"issuer"`

	// TTL is the lifetime of issued tokens
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl" validate:"gte=0"`
}

// StaticAuthConfig maps fixed tokens to usernames. Intended for development.
// Map keys read from a config file are lowercased by viper, so tokens must
// be lowercase.
type StaticAuthConfig struct {
	Tokens map[string]string `mapstructure:"tokens" yaml:"tokens"`
}

// ContentConfig specifies byte store configuration.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used.
type ContentConfig struct {
	// Type specifies which byte store implementation to use
	// Valid values: filesystem, s3, memory
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=filesystem s3 memory"`

	// Filesystem contains filesystem-specific configuration
	// Only used when Type = "filesystem"
	Filesystem map[string]any `mapstructure:"filesystem" yaml:"filesystem"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3" yaml:"s3,omitempty"`
}

// MetadataConfig specifies metadata repository configuration.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used.
type MetadataConfig struct {
	// Type specifies which metadata store implementation to use
	// Valid values: memory, badger, postgres
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory badger postgres"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger" yaml:"badger"`

	// Postgres contains PostgreSQL-specific configuration
	// Only used when Type = "postgres"
	Postgres map[string]any `mapstructure:"postgres" yaml:"postgres,omitempty"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	// Enabled turns on collection and the /metrics endpoint
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port for the metrics HTTP server
	Port int `mapstructure:"port" yaml:"port" validate:"gte=0,lte=65535"`
}

// envKeys are bound explicitly so they can be set from the environment even
// when the config file does not mention them.
var envKeys = []string{
	"logging.level",
	"logging.format",
	"logging.output",
	"http.port",
	"auth.type",
	"auth.jwt.secret",
	"auth.jwt.issuer",
	"content.type",
	"content.filesystem.path",
	"content.s3.bucket",
	"content.s3.region",
	"content.s3.endpoint",
	"content.s3.access_key_id",
	"content.s3.secret_access_key",
	"metadata.type",
	"metadata.badger.db_path",
	"metadata.postgres.dsn",
	"metrics.enabled",
	"metrics.port",
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Example: DCDISK_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("DCDISK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/dcdisk/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			// Missing config file is acceptable - use defaults
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dcdisk")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "dcdisk")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
