// Package config loads formsolve settings from defaults, a YAML file,
// FORMSOLVE_* environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const EnvPrefix = "FORMSOLVE"

type Config struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Cache      CacheConfig      `mapstructure:"cache" yaml:"cache"`
	Recognizer RecognizerConfig `mapstructure:"recognizer" yaml:"recognizer"`
	OpenAI     OpenAIConfig     `mapstructure:"openai" yaml:"openai"`
	Gemini     GeminiConfig     `mapstructure:"gemini" yaml:"gemini"`
	Telegram   TelegramConfig   `mapstructure:"telegram" yaml:"telegram"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Host         string  `mapstructure:"host" yaml:"host"`
	Port         int     `mapstructure:"port" yaml:"port"`
	RateLimit    float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // requests per second
	Burst        int     `mapstructure:"burst" yaml:"burst"`
	MaxBodyBytes int64   `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
}

type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl" yaml:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" yaml:"cleanup_interval"`
}

type RecognizerConfig struct {
	Provider string        `mapstructure:"provider" yaml:"provider"` // openai, gemini or tesseract
	Model    string        `mapstructure:"model" yaml:"model"`
	Attempts int           `mapstructure:"attempts" yaml:"attempts"`
	Delay    time.Duration `mapstructure:"delay" yaml:"delay"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token" yaml:"token"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // text or json
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:         "127.0.0.1",
			Port:         8080,
			RateLimit:    5,
			Burst:        10,
			MaxBodyBytes: 10 << 20,
		},
		Cache: CacheConfig{
			TTL:             30 * time.Minute,
			CleanupInterval: 10 * time.Minute,
		},
		Recognizer: RecognizerConfig{
			Provider: "openai",
			Attempts: 3,
			Delay:    500 * time.Millisecond,
			Timeout:  30 * time.Second,
		},
		OpenAI:   OpenAIConfig{APIKey: "${OPENAI_API_KEY}"},
		Gemini:   GeminiConfig{APIKey: "${GEMINI_API_KEY}"},
		Telegram: TelegramConfig{Token: "${TELEGRAM_BOT_TOKEN}"},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// SetDefaults registers every key with its default so that environment
// variables override keys absent from the config file.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	defaults := map[string]any{
		"server.host":            d.Server.Host,
		"server.port":            d.Server.Port,
		"server.rate_limit":      d.Server.RateLimit,
		"server.burst":           d.Server.Burst,
		"server.max_body_bytes":  d.Server.MaxBodyBytes,
		"cache.ttl":              d.Cache.TTL,
		"cache.cleanup_interval": d.Cache.CleanupInterval,
		"recognizer.provider":    d.Recognizer.Provider,
		"recognizer.model":       d.Recognizer.Model,
		"recognizer.attempts":    d.Recognizer.Attempts,
		"recognizer.delay":       d.Recognizer.Delay,
		"recognizer.timeout":     d.Recognizer.Timeout,
		"openai.api_key":         d.OpenAI.APIKey,
		"openai.base_url":        d.OpenAI.BaseURL,
		"gemini.api_key":         d.Gemini.APIKey,
		"telegram.token":         d.Telegram.Token,
		"log.level":              d.Log.Level,
		"log.format":             d.Log.Format,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// ReadFile reads the config file at path, or config.yaml from
// $HOME/.formsolve and the working directory when path is empty. A missing
// default file is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.formsolve")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// Load decodes the viper state and expands ${ENV_VAR} references in
// secrets.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.OpenAI.APIKey = ResolveEnvVars(cfg.OpenAI.APIKey)
	cfg.Gemini.APIKey = ResolveEnvVars(cfg.Gemini.APIKey)
	cfg.Telegram.Token = ResolveEnvVars(cfg.Telegram.Token)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Recognizer.Provider {
	case "openai", "gemini", "tesseract":
	default:
		return fmt.Errorf("unknown recognizer provider %q", c.Recognizer.Provider)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Redacted returns a copy with secrets masked for display.
func (c Config) Redacted() Config {
	c.OpenAI.APIKey = mask(c.OpenAI.APIKey)
	c.Gemini.APIKey = mask(c.Gemini.APIKey)
	c.Telegram.Token = mask(c.Telegram.Token)
	return c
}

func mask(s string) string {
	if len(s) <= 4 {
		if s == "" {
			return ""
		}
		return "****"
	}
	return s[:4] + strings.Repeat("*", 8)
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envRef.ReplaceAllStringFunc(value, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// ParseLevel parses the configured level name (debug, info, warn, error).
func (c LogConfig) ParseLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	return level, nil
}

// Logger builds the slog logger described by c. When lv is not nil the
// handler reads its level from lv, which is set to the configured level.
func (c LogConfig) Logger(w io.Writer, lv *slog.LevelVar) (*slog.Logger, error) {
	level, err := c.ParseLevel()
	if err != nil {
		return nil, err
	}
	var leveler slog.Leveler = level
	if lv != nil {
		lv.Set(level)
		leveler = lv
	}
	opts := &slog.HandlerOptions{Level: leveler}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// Watch reloads the config file on change and passes each valid new
// config to fn. Invalid edits are logged and ignored.
func Watch(v *viper.Viper, logger *slog.Logger, fn func(Config)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := Load(v)
		if err != nil {
			logger.Warn("ignoring invalid config change", "file", e.Name, "error", err)
			return
		}
		logger.Info("config reloaded", "file", e.Name, "op", e.Op.String())
		fn(cfg)
	})
	v.WatchConfig()
}
