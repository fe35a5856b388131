// Package config loads application configuration from defaults, YAML
// files and environment variables using koanf.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Top-level sections that environment variables may override. Variables
// outside these sections are ignored.
var envSections = []string{"app", "log", "fetch", "telegram", "cloudflare", "guard", "server", "otel"}

// Load loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. YAML configuration files (config.yaml, then config.<env>.yaml)
// 3. Default values (lowest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := loadOptionalFile(k, "config.yaml"); err != nil {
		return nil, err
	}

	// Environment may select the env-specific file, so peek at APP_ENV first
	env := k.String("app.env")
	if v := os.Getenv("APP_ENV"); v != "" {
		env = v
	}
	if env != "" {
		if err := loadOptionalFile(k, fmt.Sprintf("config.%s.yaml", env)); err != nil {
			return nil, err
		}
	}

	return finish(k)
}

// LoadBytes loads configuration from an in-memory YAML document layered
// over the defaults and under environment variables.
func LoadBytes(data []byte) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return finish(k)
}

func loadOptionalFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func finish(k *koanf.Koanf) (*Config, error) {
	if err := k.Load(envprovider.Provider(".", envprovider.Opt{
		TransformFunc: envKey,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// envKey converts UPPER_CASE to lower.case for koanf. Returning an empty
// key drops the variable.
func envKey(key, value string) (string, any) {
	key = strings.ReplaceAll(strings.ToLower(key), "_", ".")
	section, _, _ := strings.Cut(key, ".")
	for _, s := range envSections {
		if section == s && key != s {
			return key, value
		}
	}
	return "", nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":    "go-fetch",
		"app.version": "v1.0.0",
		"app.env":     EnvDevelopment,

		"log.level":  "info",
		"log.pretty": false,

		"fetch.timeout":           "10s",
		"fetch.retry.max":         3,
		"fetch.retry.delay":       "1s",
		"fetch.retry.maxdelay":    "30s",
		"fetch.retry.exponential": true,
		"fetch.retry.jitter":      0.0,
		"fetch.retry.on":          []int{500, 502, 503, 504},
		"fetch.retry.ceiling":     10,
		"fetch.decoding":          "json",
		"fetch.log.payloads":      false,
		"fetch.log.maxbytes":      1024,
		"fetch.trace.header":      "X-Request-ID",
		"fetch.trace.w3c":         false,

		"telegram.baseurl": "https://api.telegram.org",
		"telegram.rate":    1.0,
		"telegram.burst":   1,

		"cloudflare.baseurl":     "https://api.cloudflare.com/client/v4",
		"cloudflare.concurrency": 4,

		"guard.allow": []string{"*"},
		"guard.rate":  0,

		"server.host":         "0.0.0.0",
		"server.port":         8080,
		"server.readtimeout":  "15s",
		"server.writetimeout": "30s",
		"server.timeout":      "25s",
		"server.bodylimit":    "10M",

		"otel.enabled":    false,
		"otel.endpoint":   "stdout",
		"otel.protocol":   "http",
		"otel.samplerate": 1.0,
		"otel.interval":   "15s",
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
