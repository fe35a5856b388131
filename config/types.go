package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Config represents the overall application configuration structure.
// The embedded koanf.Koanf instance allows access to custom keys not
// defined in the struct.
type Config struct {
	App        AppConfig        `koanf:"app" json:"app" yaml:"app"`
	Log        LogConfig        `koanf:"log" json:"log" yaml:"log"`
	Fetch      FetchConfig      `koanf:"fetch" json:"fetch" yaml:"fetch"`
	Telegram   TelegramConfig   `koanf:"telegram" json:"telegram" yaml:"telegram"`
	Cloudflare CloudflareConfig `koanf:"cloudflare" json:"cloudflare" yaml:"cloudflare"`
	Guard      GuardConfig      `koanf:"guard" json:"guard" yaml:"guard"`
	Server     ServerConfig     `koanf:"server" json:"server" yaml:"server"`
	Otel       OtelConfig       `koanf:"otel" json:"otel" yaml:"otel"`

	// k holds the underlying Koanf instance for flexible access to custom configurations
	k *koanf.Koanf `json:"-" yaml:"-"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name    string `koanf:"name" json:"name" yaml:"name" validate:"required"`
	Version string `koanf:"version" json:"version" yaml:"version" validate:"required"`
	Env     string `koanf:"env" json:"env" yaml:"env" validate:"oneof=development staging production"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty"`
}

// FetchConfig holds the HTTP client defaults.
type FetchConfig struct {
	Timeout  time.Duration     `koanf:"timeout" json:"timeout" yaml:"timeout" validate:"gte=0"`
	Retry    RetryConfig       `koanf:"retry" json:"retry" yaml:"retry"`
	Decoding string            `koanf:"decoding" json:"decoding" yaml:"decoding" validate:"omitempty,oneof=json text blob arrayBuffer formData stream"`
	Headers  map[string]string `koanf:"headers" json:"headers" yaml:"headers"`
	Log      PayloadLogConfig  `koanf:"log" json:"log" yaml:"log"`
	Trace    TraceConfig       `koanf:"trace" json:"trace" yaml:"trace"`
}

// RetryConfig holds retry and backoff settings.
type RetryConfig struct {
	Max         int           `koanf:"max" json:"max" yaml:"max" validate:"gte=0"`
	Delay       time.Duration `koanf:"delay" json:"delay" yaml:"delay" validate:"gte=0"`
	MaxDelay    time.Duration `koanf:"maxdelay" json:"maxdelay" yaml:"maxdelay" validate:"gte=0"`
	Exponential bool          `koanf:"exponential" json:"exponential" yaml:"exponential"`
	Jitter      float64       `koanf:"jitter" json:"jitter" yaml:"jitter" validate:"gte=0,lte=1"`
	On          []int         `koanf:"on" json:"on" yaml:"on" validate:"dive,gte=100,lte=599"`
	Ceiling     int           `koanf:"ceiling" json:"ceiling" yaml:"ceiling" validate:"gte=0"`
}

// PayloadLogConfig controls debug logging of request and response bodies.
type PayloadLogConfig struct {
	Payloads bool `koanf:"payloads" json:"payloads" yaml:"payloads"`
	MaxBytes int  `koanf:"maxbytes" json:"maxbytes" yaml:"maxbytes" validate:"gte=0"`
}

// TraceConfig controls request ID and W3C trace propagation.
type TraceConfig struct {
	Header string `koanf:"header" json:"header" yaml:"header"`
	W3C    bool   `koanf:"w3c" json:"w3c" yaml:"w3c"`
}

// TelegramConfig holds notifier settings. Rate is messages per second.
type TelegramConfig struct {
	Token   string  `koanf:"token" json:"-" yaml:"token"`
	ChatID  string  `koanf:"chatid" json:"chatid" yaml:"chatid"`
	BaseURL string  `koanf:"baseurl" json:"baseurl" yaml:"baseurl" validate:"omitempty,url"`
	Rate    float64 `koanf:"rate" json:"rate" yaml:"rate" validate:"gte=0"`
	Burst   int     `koanf:"burst" json:"burst" yaml:"burst" validate:"gte=0"`
}

// CloudflareConfig holds Workers KV API settings.
type CloudflareConfig struct {
	BaseURL     string `koanf:"baseurl" json:"baseurl" yaml:"baseurl" validate:"omitempty,url"`
	AccountID   string `koanf:"accountid" json:"accountid" yaml:"accountid"`
	Token       string `koanf:"token" json:"-" yaml:"token"`
	Concurrency int    `koanf:"concurrency" json:"concurrency" yaml:"concurrency" validate:"gte=0"`
}

// GuardConfig holds the IP allow list and per-IP rate. "*" allows every
// address; a zero rate disables throttling.
type GuardConfig struct {
	Allow []string `koanf:"allow" json:"allow" yaml:"allow"`
	Rate  int      `koanf:"rate" json:"rate" yaml:"rate" validate:"gte=0"`
}

// ServerConfig holds the KV proxy listener settings.
type ServerConfig struct {
	Host         string        `koanf:"host" json:"host" yaml:"host"`
	Port         int           `koanf:"port" json:"port" yaml:"port" validate:"gte=0,lte=65535"`
	ReadTimeout  time.Duration `koanf:"readtimeout" json:"readtimeout" yaml:"readtimeout" validate:"gte=0"`
	WriteTimeout time.Duration `koanf:"writetimeout" json:"writetimeout" yaml:"writetimeout" validate:"gte=0"`
	Timeout      time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout" validate:"gte=0"`
	BodyLimit    string        `koanf:"bodylimit" json:"bodylimit" yaml:"bodylimit"`
}

// OtelConfig selects the OpenTelemetry exporters. Endpoint "stdout" writes
// spans and metrics to standard output; anything else is an OTLP collector
// reached over Protocol.
type OtelConfig struct {
	Enabled    bool              `koanf:"enabled" json:"enabled" yaml:"enabled"`
	Endpoint   string            `koanf:"endpoint" json:"endpoint" yaml:"endpoint"`
	Protocol   string            `koanf:"protocol" json:"protocol" yaml:"protocol" validate:"omitempty,oneof=http grpc"`
	Insecure   bool              `koanf:"insecure" json:"insecure" yaml:"insecure"`
	Headers    map[string]string `koanf:"headers" json:"-" yaml:"headers"`
	SampleRate float64           `koanf:"samplerate" json:"samplerate" yaml:"samplerate" validate:"gte=0,lte=1"`
	Interval   time.Duration     `koanf:"interval" json:"interval" yaml:"interval" validate:"gte=0"`
}
