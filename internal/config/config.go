// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/ilyakaznacheev/cleanenv"
)

var hexKeyPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	// github
	GitHubToken  string `env:"CODEFLOW_GITHUB_TOKEN"`
	GitHubAPIURL string `env:"CODEFLOW_GITHUB_API_URL" env-default:"https://api.github.com/"`

	// polling
	PollInterval time.Duration `env:"CODEFLOW_POLL_INTERVAL" env-default:"60s"`
	FetchTimeout time.Duration `env:"CODEFLOW_FETCH_TIMEOUT" env-default:"30s"`
	AlertTTL     time.Duration `env:"CODEFLOW_ALERT_TTL" env-default:"2m"`

	// http server and storage
	ListenAddr string `env:"CODEFLOW_LISTEN_ADDR" env-default:"127.0.0.1:8787"`
	DBPath     string `env:"CODEFLOW_DB_PATH" env-default:"codeflow.db"`
	SecretKey  string `env:"CODEFLOW_SECRET_KEY"`

	// logging
	LogLevel  string `env:"CODEFLOW_LOG_LEVEL" env-default:"info"`
	LogFormat string `env:"CODEFLOW_LOG_FORMAT" env-default:"text"`
	LogFile   string `env:"CODEFLOW_LOG_FILE"`
}

// HasGitHubToken reports whether a token was supplied through the environment.
// Without one the app starts idle until a token is stored or entered.
func (c *Config) HasGitHubToken() bool {
	return c.GitHubToken != ""
}

// Validate checks value ranges and formats.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.GitHubAPIURL, validation.Required, is.URL),
		validation.Field(&c.PollInterval, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.FetchTimeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.AlertTTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.ListenAddr, validation.Required),
		validation.Field(&c.DBPath, validation.Required),
		validation.Field(&c.SecretKey, validation.Match(hexKeyPattern).Error("must be 64 hex characters")),
		validation.Field(&c.LogLevel, validation.Required, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.LogFormat, validation.Required, validation.In("text", "json")),
	)
}

// Load reads configuration from an optional .env file in the working
// directory and then from the environment, and returns a validated Config.
// All variables are optional. Defaults: CODEFLOW_POLL_INTERVAL (60s),
// CODEFLOW_FETCH_TIMEOUT (30s), CODEFLOW_LISTEN_ADDR (127.0.0.1:8787),
// CODEFLOW_DB_PATH (codeflow.db), CODEFLOW_LOG_LEVEL (info).
func Load() (*Config, error) {
	return load(".env")
}

func load(dotenv string) (*Config, error) {
	var cfg Config

	if err := cleanenv.ReadConfig(dotenv, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read dotenv file: %w", err)
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
