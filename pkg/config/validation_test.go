package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := GetDefaultConfig()
	cfg.Auth.JWT.Secret = testSecret
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("Expected valid config, got: %v", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{"invalid log level", func(c *Config) { c.Logging.Level = "TRACE" }, "Level"},
		{"invalid log format", func(c *Config) { c.Logging.Format = "xml" }, "Format"},
		{"zero shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = 0 }, "ShutdownTimeout"},
		{"invalid content type", func(c *Config) { c.Content.Type = "ftp" }, "Content.Type"},
		{"invalid metadata type", func(c *Config) { c.Metadata.Type = "mysql" }, "Metadata.Type"},
		{"invalid auth type", func(c *Config) { c.Auth.Type = "ldap" }, "Auth.Type"},
		{"invalid http port", func(c *Config) { c.HTTP.Port = 70000 }, "Port"},
		{"negative upload cap", func(c *Config) { c.HTTP.MaxUploadBytes = -1 }, "MaxUploadBytes"},
		{"negative read timeout", func(c *Config) { c.HTTP.ReadTimeout = -time.Second }, "ReadTimeout"},
		{"http disabled", func(c *Config) { c.HTTP.Enabled = false }, "at least one adapter"},
		{"short jwt secret", func(c *Config) { c.Auth.JWT.Secret = "short" }, "auth.jwt.secret"},
		{"static without tokens", func(c *Config) { c.Auth.Type = "static" }, "auth.static.tokens"},
		{"static with empty user", func(c *Config) {
			c.Auth.Type = "static"
			c.Auth.Static.Tokens = map[string]string{"tok": ""}
		}, "empty token or username"},
		{"metrics port clash", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Port = c.HTTP.Port
		}, "metrics.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_StaticAuth(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.Type = "static"
	cfg.Auth.JWT.Secret = ""
	cfg.Auth.Static.Tokens = map[string]string{"dev-token": "alice"}

	if err := Validate(cfg); err != nil {
		t.Fatalf("Static auth does not need a JWT secret: %v", err)
	}
}

func TestValidate_LogLevelNormalization(t *testing.T) {
	for _, level := range []string{"debug", "Info", "WARN", "error"} {
		cfg := validConfig()
		cfg.Logging.Level = level
		ApplyDefaults(cfg)

		if err := Validate(cfg); err != nil {
			t.Errorf("Level %q should be accepted: %v", level, err)
		}
		if cfg.Logging.Level != strings.ToUpper(level) {
			t.Errorf("Expected %q, got %q", strings.ToUpper(level), cfg.Logging.Level)
		}
	}
}
