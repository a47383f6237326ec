package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port string

	// Auth (optional; endpoints are open when unset)
	DocquestAPIKey string

	// Azure OpenAI
	AzureEndpoint string
	APIKey        string
	APIVersion    string
	Model         string

	// Token accounting
	TokenScheme     string
	MaxInputTokens  int
	AnswerMaxTokens int

	// Ingestion
	ExtractWorkers int
	MaxUploadBytes int64

	// Optional drop directory; empty disables the watcher.
	WatchDir string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		DocquestAPIKey: os.Getenv("DOCQUEST_API_KEY"),

		AzureEndpoint: os.Getenv("AZURE_ENDPOINT"),
		APIKey:        os.Getenv("API_KEY"),
		APIVersion:    envOr("API_VERSION", "2024-02-01"),
		Model:         envOr("MODEL", "gpt-4o"),

		TokenScheme:     envOr("TOKEN_SCHEME", "openai"),
		MaxInputTokens:  envInt("MAX_INPUT_TOKENS", 120000),
		AnswerMaxTokens: envInt("ANSWER_MAX_TOKENS", 1024),

		ExtractWorkers: envInt("EXTRACT_WORKERS", 2),
		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		WatchDir: os.Getenv("WATCH_DIR"),
	}

	if cfg.MaxInputTokens <= 0 {
		cfg.MaxInputTokens = 120000
	}
	if cfg.AnswerMaxTokens <= 0 {
		cfg.AnswerMaxTokens = 1024
	}
	if cfg.ExtractWorkers <= 0 {
		cfg.ExtractWorkers = 2
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}

	return cfg
}

func (c Config) Validate() error {
	if c.AzureEndpoint == "" {
		return fmt.Errorf("AZURE_ENDPOINT is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
