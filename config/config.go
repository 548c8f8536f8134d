// Package config loads server configuration from a YAML file and
// GLOSSIA_* environment variables. Environment variables win; every
// key has a default so the server starts with nothing but an API key.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ZaguanLabs/glossia"
)

// Config is the root server configuration.
type Config struct {
	ListenAddr string `mapstructure:"listen_addr"` // Address the HTTP server binds to
	ClientURL  string `mapstructure:"client_url"`  // Allowed CORS origin, "*" for any
	LogLevel   string `mapstructure:"log_level"`   // zap level: debug, info, warn, error

	LLM       LLMConfig       `mapstructure:"llm"`
	Translate TranslateConfig `mapstructure:"translate"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Convert   ConvertConfig   `mapstructure:"convert"`
	Whisper   WhisperConfig   `mapstructure:"whisper"`
	Usage     UsageConfig     `mapstructure:"usage"`
}

// LLMConfig selects and tunes the completion backend.
type LLMConfig struct {
	BaseURL           string  `mapstructure:"base_url"`            // OpenAI-compatible endpoint, empty for api.openai.com
	APIKey            string  `mapstructure:"api_key"`             // Bearer token, may be empty for local gateways
	Model             string  `mapstructure:"model"`               // Model identifier
	Temperature       float32 `mapstructure:"temperature"`         // Sampling temperature
	RequestsPerMinute int     `mapstructure:"requests_per_minute"` // 0 disables client-side rate limiting
}

// TranslateConfig tunes the translation pipeline.
type TranslateConfig struct {
	ChunkBudget  int           `mapstructure:"chunk_budget"`  // Max runes per chunk
	ContextWords int           `mapstructure:"context_words"` // Continuity excerpt length
	Workers      int           `mapstructure:"workers"`       // Concurrent chunk translations
	MaxRetries   int           `mapstructure:"max_retries"`   // Retries after the initial attempt
	CallTimeout  time.Duration `mapstructure:"call_timeout"`  // Per model call
}

// CacheConfig selects the translation cache backend.
type CacheConfig struct {
	RedisURL   string        `mapstructure:"redis_url"`   // redis:// URL, empty for in-memory
	TTL        time.Duration `mapstructure:"ttl"`         // Entry lifetime
	MaxEntries int           `mapstructure:"max_entries"` // In-memory bound, 0 = unbounded
}

// ConvertConfig points at the document conversion engine.
type ConvertConfig struct {
	URL     string        `mapstructure:"url"`     // Engine endpoint, empty disables PDF/DOCX
	Timeout time.Duration `mapstructure:"timeout"` // Per conversion call
}

// WhisperConfig points at the transcription server.
type WhisperConfig struct {
	URL string `mapstructure:"url"` // Server endpoint, empty disables transcription
}

// UsageConfig controls usage event tracking.
type UsageConfig struct {
	Secret string `mapstructure:"secret"` // HMAC key for client ID pseudonyms
	DB     string `mapstructure:"db"`     // SQLite path, empty for log-only tracking
}

// Load reads configuration from path (or the default search locations
// when path is empty) and the environment. A missing config file is
// fine; a malformed one is not.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("GLOSSIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("glossia")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/glossia")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key. AutomaticEnv only surfaces keys
// viper already knows about, so defaults double as the key registry.
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("client_url", "*")
	v.SetDefault("log_level", "info")

	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.requests_per_minute", 0)

	v.SetDefault("translate.chunk_budget", glossia.DefaultChunkBudget)
	v.SetDefault("translate.context_words", glossia.DefaultContextWords)
	v.SetDefault("translate.workers", glossia.DefaultWorkers)
	v.SetDefault("translate.max_retries", glossia.DefaultRetryConfig().MaxRetries)
	v.SetDefault("translate.call_timeout", glossia.DefaultCallTimeout)

	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("cache.max_entries", 10000)

	v.SetDefault("convert.url", "")
	v.SetDefault("convert.timeout", 5*time.Minute)

	v.SetDefault("whisper.url", "")

	v.SetDefault("usage.secret", "")
	v.SetDefault("usage.db", "")
}

func (c *Config) validate() error {
	if c.ListenAddr == "" {
		return errors.New("listen_addr must not be empty")
	}
	if c.Translate.ChunkBudget < 0 {
		return errors.New("translate.chunk_budget must not be negative")
	}
	if c.Translate.Workers < 0 {
		return errors.New("translate.workers must not be negative")
	}
	if c.Translate.MaxRetries < 0 {
		return errors.New("translate.max_retries must not be negative")
	}
	return nil
}
