package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// InitConfig writes a default configuration file to the default location
// and returns its path. An existing file is only replaced when force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a default configuration file to path.
//
// The generated file carries a freshly generated JWT secret, so it loads
// and validates as written.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	cfg := GetDefaultConfig()
	secret, err := generateSecret()
	if err != nil {
		return err
	}
	cfg.Auth.JWT.Secret = secret

	out, err := generateYAMLWithComments(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// 0600: the file holds the signing secret
	if err := os.WriteFile(path, []byte(out), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// configSection is one top-level key of the generated file.
type configSection struct {
	key     string
	comment string
	value   any
}

// generateYAMLWithComments renders cfg as YAML with a comment block above
// each top-level section.
func generateYAMLWithComments(cfg *Config) (string, error) {
	sections := []configSection{
		{"logging", "Logging\n  level: DEBUG, INFO, WARN, ERROR\n  format: text, json\n  output: stdout, stderr or a file path", cfg.Logging},
		{"server", "Server-wide settings", cfg.Server},
		{"http", "HTTP adapter\n  max_upload_bytes: 0 means unlimited\n  rate_limit.requests_per_second: 0 disables rate limiting", cfg.HTTP},
		{"auth", "Session tokens\n  type: jwt, static\n  static.tokens maps token -> username (development only)", cfg.Auth},
		{"content", "File bytes\n  type: filesystem, s3, memory\n  s3 keys: region, bucket, key_prefix, endpoint, access_key_id, secret_access_key", cfg.Content},
		{"metadata", "File metadata\n  type: memory, badger, postgres\n  postgres keys: dsn, max_open_conns, max_idle_conns", cfg.Metadata},
		{"metrics", "Prometheus metrics endpoint", cfg.Metrics},
	}

	var b strings.Builder
	b.WriteString("# dcdisk Configuration File\n")
	b.WriteString("#\n")
	b.WriteString("# Every value can be overridden with a DCDISK_* environment variable,\n")
	b.WriteString("# e.g. DCDISK_LOGGING_LEVEL=DEBUG or DCDISK_AUTH_JWT_SECRET=...\n")

	for _, s := range sections {
		b.WriteString("\n")
		for _, line := range strings.Split(s.comment, "\n") {
			b.WriteString("# " + line + "\n")
		}

		out, err := yaml.Marshal(map[string]any{s.key: s.value})
		if err != nil {
			return "", fmt.Errorf("failed to marshal %s section: %w", s.key, err)
		}
		b.Write(out)
	}

	return b.String(), nil
}
