package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("VENTURELENS_API_URL", "http://localhost:8000/api")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api", cfg.APIBaseURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 1500*time.Millisecond, cfg.DebounceInterval)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 5*time.Minute, cfg.OptionsTTL)
	assert.Empty(t, cfg.DiagAddr)
	assert.Empty(t, cfg.TokenFile)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("VENTURELENS_API_URL", "https://api.example.com")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("DEBOUNCE_INTERVAL", "500ms")
	t.Setenv("HTTP_TIMEOUT", "30s")
	t.Setenv("OPTIONS_TTL", "1h")
	t.Setenv("DIAG_ADDR", "127.0.0.1:9180")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 500*time.Millisecond, cfg.DebounceInterval)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, time.Hour, cfg.OptionsTTL)
	assert.Equal(t, "127.0.0.1:9180", cfg.DiagAddr)
}

func TestLoad_RequiresBaseURL(t *testing.T) {
	t.Setenv("VENTURELENS_API_URL", "")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "VENTURELENS_API_URL")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			APIBaseURL:       "http://localhost:8000/api",
			DebounceInterval: 1500 * time.Millisecond,
			HTTPTimeout:      10 * time.Second,
			OptionsTTL:       5 * time.Minute,
		}
	}

	t.Run("valid config", func(t *testing.T) {
		assert.NoError(t, validate(valid()))
	})

	t.Run("relative base URL", func(t *testing.T) {
		cfg := valid()
		cfg.APIBaseURL = "localhost:8000"
		assert.Error(t, validate(cfg))
	})

	t.Run("zero debounce", func(t *testing.T) {
		cfg := valid()
		cfg.DebounceInterval = 0
		assert.Error(t, validate(cfg))
	})

	t.Run("negative timeout", func(t *testing.T) {
		cfg := valid()
		cfg.HTTPTimeout = -time.Second
		assert.Error(t, validate(cfg))
	})

	t.Run("zero options TTL", func(t *testing.T) {
		cfg := valid()
		cfg.OptionsTTL = 0
		assert.Error(t, validate(cfg))
	})
}
