package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// minJWTSecretLen is the shortest accepted HMAC key (256 bits).
const minJWTSecretLen = 32

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs validation that cannot be expressed in tags.
func validateCustomRules(cfg *Config) error {
	if !cfg.HTTP.Enabled {
		return fmt.Errorf("http: at least one adapter must be enabled")
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		return fmt.Errorf("http.shutdown_timeout: must be > 0")
	}

	switch cfg.Auth.Type {
	case "jwt":
		if len(cfg.Auth.JWT.Secret) < minJWTSecretLen {
			return fmt.Errorf("auth.jwt.secret: must be at least %d characters", minJWTSecretLen)
		}
	case "static":
		if len(cfg.Auth.Static.Tokens) == 0 {
			return fmt.Errorf("auth.static.tokens: at least one token must be configured")
		}
		for token, user := range cfg.Auth.Static.Tokens {
			if token == "" || user == "" {
				return fmt.Errorf("auth.static.tokens: empty token or username")
			}
		}
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Port == cfg.HTTP.Port {
		return fmt.Errorf("metrics.port: %d is already used by the http adapter", cfg.Metrics.Port)
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		// Return the first validation error with context
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
