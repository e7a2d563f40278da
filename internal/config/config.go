package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Supported settings backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config keeps runtime settings for the bot.
type Config struct {
	BotToken string `env:"BOT_TOKEN" env-required:"true" env-description:"Telegram bot token"`
	BotDebug bool   `env:"BOT_DEBUG" env-default:"false"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	Settings  SettingsConfig
	Defaults  DefaultsConfig
	Cache     CacheConfig
	Providers ProvidersConfig
	Dialogue  DialogueConfig
	Metrics   MetricsConfig
}

// SettingsConfig selects where user preferences live.
type SettingsConfig struct {
	Backend     string `env:"SETTINGS_BACKEND" env-default:"json"`
	Path        string `env:"SETTINGS_PATH" env-default:"data/user_settings.json"`
	DatabaseURL string `env:"DATABASE_URL" env-default:"data/currency_bot.db"`
}

// DefaultsConfig holds values used for users without stored settings.
type DefaultsConfig struct {
	BaseCurrency string `env:"DEFAULT_BASE_CURRENCY" env-default:"RUB"`
	Amount       string `env:"DEFAULT_AMOUNT" env-default:"1"`
}

// CacheConfig configures the in-memory rate cache.
type CacheConfig struct {
	TTL   time.Duration `env:"RATE_CACHE_TTL" env-default:"5m"`
	Sweep time.Duration `env:"RATE_CACHE_SWEEP" env-default:"1m"`
}

// ProvidersConfig lists external rate APIs in the order they are tried.
type ProvidersConfig struct {
	Timeout             time.Duration `env:"PROVIDER_TIMEOUT" env-default:"10s"`
	ExchangerateHostURL string        `env:"EXCHANGERATE_HOST_URL" env-default:"https://api.exchangerate.host"`
	ExchangerateHostKey string        `env:"EXCHANGERATE_HOST_KEY"`
	OpenERAPIURL        string        `env:"OPEN_ER_API_URL" env-default:"https://open.er-api.com/v6"`
	CurrencyAPIURL      string        `env:"CURRENCY_API_URL" env-default:"https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api@latest/v1"`
}

// DialogueConfig bounds how long an abandoned dialogue is remembered.
type DialogueConfig struct {
	TTL time.Duration `env:"DIALOGUE_TTL" env-default:"15m"`
}

// MetricsConfig controls the health/metrics HTTP listener. Empty Addr disables it.
type MetricsConfig struct {
	Addr string `env:"METRICS_ADDR" env-default:":9090"`
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("read env: %w", err)
	}

	cfg.BotToken = strings.TrimSpace(cfg.BotToken)
	cfg.Settings.Backend = strings.ToLower(strings.TrimSpace(cfg.Settings.Backend))
	cfg.Defaults.BaseCurrency = strings.ToUpper(strings.TrimSpace(cfg.Defaults.BaseCurrency))

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values cleanenv cannot check on its own.
func (c Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	switch c.Settings.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("SETTINGS_BACKEND must be %q or %q, got %q", BackendJSON, BackendSQLite, c.Settings.Backend)
	}
	if n := len(c.Defaults.BaseCurrency); n < 3 || n > 4 {
		return fmt.Errorf("DEFAULT_BASE_CURRENCY must be a 3-4 letter code, got %q", c.Defaults.BaseCurrency)
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(c.Defaults.Amount))
	if err != nil || !amount.IsPositive() {
		return fmt.Errorf("DEFAULT_AMOUNT must be a positive number, got %q", c.Defaults.Amount)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("RATE_CACHE_TTL must be positive")
	}
	if c.Cache.Sweep <= 0 {
		return fmt.Errorf("RATE_CACHE_SWEEP must be positive")
	}
	if c.Providers.Timeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}
	if c.Dialogue.TTL <= 0 {
		return fmt.Errorf("DIALOGUE_TTL must be positive")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %s", c.LogLevel)
	}
	return nil
}

// DefaultAmount returns the validated default conversion amount.
func (c Config) DefaultAmount() decimal.Decimal {
	amount, err := decimal.NewFromString(strings.TrimSpace(c.Defaults.Amount))
	if err != nil || !amount.IsPositive() {
		return decimal.NewFromInt(1)
	}
	return amount
}
