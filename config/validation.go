package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their koanf path instead of the Go field name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			return strings.ToLower(fld.Name)
		}
		return name
	})
	return v
}

// Validate checks cfg against its struct rules and returns the first
// violation as a *ConfigError.
func Validate(cfg *Config) error {
	if cfg == nil {
		return NewInvalidFieldError("config", "is nil")
	}

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return toConfigError(verrs[0])
		}
		return NewInvalidFieldError("config", err.Error())
	}

	if cfg.Fetch.Log.Payloads && cfg.Fetch.Log.MaxBytes == 0 {
		return NewInvalidFieldError("fetch.log.maxbytes", "must be positive when payload logging is enabled")
	}
	return nil
}

// IsTelegramConfigured reports whether notifications can be sent.
func IsTelegramConfigured(cfg *TelegramConfig) bool {
	return cfg != nil && cfg.Token != "" && cfg.ChatID != ""
}

// IsCloudflareConfigured reports whether the KV client can be used.
func IsCloudflareConfigured(cfg *CloudflareConfig) bool {
	return cfg != nil && cfg.AccountID != "" && cfg.Token != ""
}

func toConfigError(fe validator.FieldError) *ConfigError {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	switch fe.Tag() {
	case "required":
		return NewMissingFieldError(field)
	case "oneof":
		return NewInvalidFieldError(field, fmt.Sprintf("has invalid value %v", fe.Value()), strings.Fields(fe.Param())...)
	case "url":
		return NewInvalidFieldError(field, fmt.Sprintf("has invalid url %q", fe.Value()))
	default:
		return NewInvalidFieldError(field, fmt.Sprintf("failed %s=%s (got %v)", fe.Tag(), fe.Param(), fe.Value()))
	}
}
