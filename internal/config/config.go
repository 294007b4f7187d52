package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	APIBaseURL string `env:"VENTURELENS_API_URL"`
	LogLevel   string `env:"LOG_LEVEL" default:"info"`
	LogFormat  string `env:"LOG_FORMAT" default:"text"`

	// DebounceInterval is the quiescence window applied to free-text search
	// input. One shared value for the whole client.
	DebounceInterval time.Duration `env:"DEBOUNCE_INTERVAL" default:"1500ms"`

	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" default:"10s"`

	// OptionsTTL bounds how long the domain/region filter option lists are
	// served from the in-memory cache.
	OptionsTTL time.Duration `env:"OPTIONS_TTL" default:"5m"`

	// DiagAddr enables the local diagnostics endpoint when non-empty,
	// e.g. "127.0.0.1:9180".
	DiagAddr string `env:"DIAG_ADDR"`

	// TokenFile overrides the default credential location under the
	// XDG state directory.
	TokenFile string `env:"TOKEN_FILE"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.APIBaseURL == "" {
		return fmt.Errorf("VENTURELENS_API_URL is required")
	}

	u, err := url.Parse(cfg.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("VENTURELENS_API_URL must be an absolute URL, got %q", cfg.APIBaseURL)
	}

	if cfg.DebounceInterval <= 0 {
		return fmt.Errorf("DEBOUNCE_INTERVAL must be positive, got %s", cfg.DebounceInterval)
	}
	if cfg.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", cfg.HTTPTimeout)
	}
	if cfg.OptionsTTL <= 0 {
		return fmt.Errorf("OPTIONS_TTL must be positive, got %s", cfg.OptionsTTL)
	}

	return nil
}
