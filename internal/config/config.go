package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerHost string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	ServerPort int    `env:"SERVER_PORT" envDefault:"8080"`

	// Hosted model settings. APIKey may be empty: users can supply their own
	// key when they open a chat session.
	APIKey         string        `env:"GROQ_API_KEY"`
	BaseURL        string        `env:"LLM_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	Model          string        `env:"LLM_MODEL" envDefault:"llama3-8b-8192"`
	MaxTokens      int           `env:"LLM_MAX_TOKENS" envDefault:"2048"`
	Temperature    float32       `env:"LLM_TEMPERATURE" envDefault:"0.7"`
	RateLimit      float64       `env:"LLM_RATE_LIMIT" envDefault:"2"`
	MaxRetries     int           `env:"LLM_MAX_RETRIES" envDefault:"3"`
	AgentMaxSteps  int           `env:"AGENT_MAX_ITERATIONS" envDefault:"10"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"1h"`
	SessionHistory int           `env:"SESSION_HISTORY" envDefault:"100"`

	// Wikipedia lookup settings
	WikipediaUserAgent string `env:"WIKIPEDIA_USER_AGENT" envDefault:"mathbot/1.0 (https://github.com/hassan123789/mathbot)"`
	WikipediaLanguage  string `env:"WIKIPEDIA_LANG" envDefault:"en"`

	// Application settings
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from environment variables. Values from .env and
// .env.<APP_ENV> are applied first when those files exist; variables already
// set in the process environment take precedence over .env.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadDotEnv() error {
	files := []string{".env"}
	if appEnv := os.Getenv("APP_ENV"); appEnv != "" {
		files = append(files, ".env."+appEnv)
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("SERVER_PORT %d is out of range", c.ServerPort)
	}
	if c.Model == "" {
		return errors.New("LLM_MODEL is required")
	}
	if c.AgentMaxSteps <= 0 {
		return fmt.Errorf("AGENT_MAX_ITERATIONS must be positive, got %d", c.AgentMaxSteps)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("LLM_RATE_LIMIT must not be negative, got %v", c.RateLimit)
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// HasAPIKey reports whether a server-wide model credential is configured.
func (c *Config) HasAPIKey() bool {
	return c.APIKey != ""
}

// Address returns the server address in host:port format.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}
