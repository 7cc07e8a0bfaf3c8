package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultDatabaseURL    = "momento.db"
	defaultAPIURL         = "http://localhost:8000"
	defaultReportInterval = 12 * time.Hour
	defaultHorizonDays    = 14
	defaultHTTPTimeout    = 10 * time.Second
	defaultHTTPRetries    = 2
)

// Config keeps runtime settings for the bot and the CLI.
type Config struct {
	TelegramToken     string        `yaml:"telegram_token"`
	DatabaseURL       string        `yaml:"database_url" validate:"required"`
	APIBaseURL        string        `yaml:"api_base_url" validate:"required,url"`
	ReportInterval    time.Duration `yaml:"report_interval" validate:"gte=0"`
	DigestTime        string        `yaml:"digest_time" validate:"omitempty,datetime=15:04"`
	DigestHorizonDays int           `yaml:"digest_horizon_days" validate:"gte=1,lte=365"`
	HTTPTimeout       time.Duration `yaml:"http_timeout" validate:"gt=0"`
	HTTPRetries       int           `yaml:"http_retries" validate:"gte=0,lte=10"`
	LogLevel          string        `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// Load reads configuration from, in increasing priority: built-in defaults,
// the YAML file named by MOMENTO_CONFIG, a .env file in the working
// directory and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		DatabaseURL:       defaultDatabaseURL,
		APIBaseURL:        defaultAPIURL,
		ReportInterval:    defaultReportInterval,
		DigestHorizonDays: defaultHorizonDays,
		HTTPTimeout:       defaultHTTPTimeout,
		HTTPRetries:       defaultHTTPRetries,
		LogLevel:          "info",
	}

	if path := strings.TrimSpace(os.Getenv("MOMENTO_CONFIG")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	applyEnv(&cfg)
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// RequireTelegram reports whether the bot can start with this config.
func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %q: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := env("TELEGRAM_TOKEN"); v != "" {
		cfg.TelegramToken = v
	}
	if v := env("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := env("MOMENTO_API_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if d := parseInterval(env("REPORT_INTERVAL_HOURS")); d > 0 {
		cfg.ReportInterval = d
	}
	if v := env("DIGEST_TIME"); v != "" {
		cfg.DigestTime = v
	}
	if n, err := strconv.Atoi(env("DIGEST_HORIZON_DAYS")); err == nil && n > 0 {
		cfg.DigestHorizonDays = n
	}
	if d, err := time.ParseDuration(env("HTTP_TIMEOUT")); err == nil && d > 0 {
		cfg.HTTPTimeout = d
	}
	if n, err := strconv.Atoi(env("HTTP_RETRIES")); err == nil && n >= 0 {
		cfg.HTTPRetries = n
	}
	if v := env("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}
