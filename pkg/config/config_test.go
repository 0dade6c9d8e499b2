package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultConfig(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
logging:
  level: "info"

auth:
  jwt:
    secret: "`+testSecret+`"

content:
  type: "filesystem"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected normalized level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.Server.ShutdownTimeout)
	}
	if !cfg.HTTP.Enabled || cfg.HTTP.Port != 8080 {
		t.Errorf("Expected HTTP enabled on 8080, got enabled=%v port=%d", cfg.HTTP.Enabled, cfg.HTTP.Port)
	}
	if cfg.Auth.Type != "jwt" {
		t.Errorf("Expected default auth type 'jwt', got %q", cfg.Auth.Type)
	}
	if cfg.Metadata.Type != "badger" {
		t.Errorf("Expected default metadata type 'badger', got %q", cfg.Metadata.Type)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	t.Setenv("DCDISK_AUTH_JWT_SECRET", testSecret)

	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Expected no error with missing config file, got: %v", err)
	}

	if cfg.Content.Type != "filesystem" {
		t.Errorf("Expected default content type 'filesystem', got %q", cfg.Content.Type)
	}
	if cfg.Auth.JWT.Secret != testSecret {
		t.Error("Expected JWT secret from environment")
	}
}

func TestLoad_MissingSecretFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("Expected validation error without a JWT secret")
	}
	if !strings.Contains(err.Error(), "auth.jwt.secret") {
		t.Errorf("Expected error to name auth.jwt.secret, got: %v", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid.yaml", `
logging:
  level: INFO
  invalid yaml here [[[
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_TOML(t *testing.T) {
	configPath := writeConfig(t, "config.toml", `
[logging]
level = "WARN"
format = "json"

[http]
enabled = true
port = 9000
max_upload_bytes = 1048576

[auth]
type = "static"

[auth.static.tokens]
dev-token = "alice"

[metadata]
type = "memory"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load TOML config: %v", err)
	}

	if cfg.Logging.Level != "WARN" || cfg.Logging.Format != "json" {
		t.Errorf("Expected WARN/json, got %q/%q", cfg.Logging.Level, cfg.Logging.Format)
	}
	if cfg.HTTP.Port != 9000 || cfg.HTTP.MaxUploadBytes != 1048576 {
		t.Errorf("Unexpected http section: %+v", cfg.HTTP)
	}
	if cfg.Auth.Static.Tokens["dev-token"] != "alice" {
		t.Errorf("Expected static token for alice, got %v", cfg.Auth.Static.Tokens)
	}
}

func TestLoad_Durations(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
server:
  shutdown_timeout: 5s
http:
  read_timeout: 1m
auth:
  jwt:
    secret: "`+testSecret+`"
    ttl: 2h
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected 5s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.HTTP.ReadTimeout != time.Minute {
		t.Errorf("Expected 1m, got %v", cfg.HTTP.ReadTimeout)
	}
	if cfg.Auth.JWT.TTL != 2*time.Hour {
		t.Errorf("Expected 2h, got %v", cfg.Auth.JWT.TTL)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()

	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Expected filename 'config.yaml', got %q", filepath.Base(path))
	}
}

func TestGetConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	if dir := GetConfigDir(); dir != filepath.Join("/xdg", "dcdisk") {
		t.Errorf("Expected /xdg/dcdisk, got %q", dir)
	}
}

func TestConfigExists(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if ConfigExists() {
		t.Fatal("Expected no config in a fresh directory")
	}
	if _, err := InitConfig(false); err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}
	if !ConfigExists() {
		t.Error("Expected config to exist after InitConfig")
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("DCDISK_LOGGING_LEVEL", "ERROR")
	t.Setenv("DCDISK_HTTP_PORT", "5049")

	configPath := writeConfig(t, "config.yaml", `
logging:
  level: "INFO"
http:
  enabled: true
  port: 8080
auth:
  jwt:
    secret: "`+testSecret+`"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected level 'ERROR' from env var, got %q", cfg.Logging.Level)
	}
	if cfg.HTTP.Port != 5049 {
		t.Errorf("Expected port 5049 from env var, got %d", cfg.HTTP.Port)
	}
}
