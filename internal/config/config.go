package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type LookupFunc func(string) (string, bool)

type Config struct {
	HTTP     HTTPConfig
	Database DatabaseConfig
	AI       AIConfig
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN          string
	MaxOpenConns int
}

type AIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Referer     string
	Title       string
	Temperature float64
	Timeout     time.Duration
}

const (
	DefaultAIBaseURL = "https://openrouter.ai/api/v1"
	DefaultAIModel   = "deepseek/deepseek-chat-v3-0324:free"
)

// LoadDotEnv reads .env into the process environment; a missing file is not an error.
func LoadDotEnv() {
	_ = godotenv.Load()
}

func LoadFromEnv() (Config, error) {
	return Load(os.LookupEnv)
}

func Load(lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	cfg := defaults()

	if err := applyString(lookup, "PORT", &cfg.HTTP.Port); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "DATABASE_URL", &cfg.Database.DSN); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "DATABASE_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "AI_BASE_URL", &cfg.AI.BaseURL); err != nil {
		return Config{}, err
	}
	// OPENAI_API_KEY is honoured for direct OpenAI use; OpenRouter wins when both are set.
	if err := applyString(lookup, "OPENAI_API_KEY", &cfg.AI.APIKey); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "OPENROUTER_API_KEY", &cfg.AI.APIKey); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "AI_MODEL", &cfg.AI.Model); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "AI_HTTP_REFERER", &cfg.AI.Referer); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "AI_TITLE", &cfg.AI.Title); err != nil {
		return Config{}, err
	}
	if err := applyFloat(lookup, "AI_TEMPERATURE", &cfg.AI.Temperature); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "AI_TIMEOUT", &cfg.AI.Timeout); err != nil {
		return Config{}, err
	}

	if cfg.HTTP.Port == "" {
		return Config{}, fmt.Errorf("http port is required")
	}
	if cfg.AI.BaseURL == "" {
		return Config{}, fmt.Errorf("ai base url is required")
	}
	if cfg.AI.Model == "" {
		return Config{}, fmt.Errorf("ai model is required")
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		HTTP: HTTPConfig{
			Port:         "8001",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 10,
		},
		AI: AIConfig{
			BaseURL:     DefaultAIBaseURL,
			Model:       DefaultAIModel,
			Referer:     "https://localhost:8001",
			Title:       "Odoo Chatbot",
			Temperature: 0,
			Timeout:     90 * time.Second,
		},
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}
