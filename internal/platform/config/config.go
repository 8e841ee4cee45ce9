// Package config loads application configuration from environment variables.
// All variables use the EDUMINT_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	AI       AIConfig
	Content  ContentConfig
	Quiz     QuizConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL runs the
// service on in-memory stores, which is only suitable for development.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings. An empty URL disables caching.
type CacheConfig struct {
	URL string
}

// AIConfig holds completion-capability settings.
type AIConfig struct {
	// ChatGatewayURL is the {messages}->{response} endpoint.
	ChatGatewayURL string
	OpenAIAPIKey   string
	TimeoutSeconds int
}

// ContentConfig holds upload and extraction settings.
type ContentConfig struct {
	UploadDir    string
	TaxonomyPath string // empty disables upload metadata validation
	MaxTextRunes int
}

// QuizConfig holds quiz generation settings.
type QuizConfig struct {
	// AllowRegenerate permits a fresh quiz for content that already has one.
	AllowRegenerate bool
	CacheTTLMinutes int
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with EDUMINT_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("EDUMINT_SERVER_PORT", 5200),
			Host: envStr("EDUMINT_SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			URL:      envStr("EDUMINT_DATABASE_URL", ""),
			MaxConns: envInt("EDUMINT_DATABASE_MAX_CONNS", 25),
			MinConns: envInt("EDUMINT_DATABASE_MIN_CONNS", 5),
		},
		Cache: CacheConfig{
			URL: envStr("EDUMINT_CACHE_URL", ""),
		},
		AI: AIConfig{
			ChatGatewayURL: envStr("EDUMINT_AI_CHAT_GATEWAY_URL", ""),
			OpenAIAPIKey:   envStr("EDUMINT_AI_OPENAI_API_KEY", ""),
			TimeoutSeconds: envInt("EDUMINT_AI_TIMEOUT_SECONDS", 30),
		},
		Content: ContentConfig{
			UploadDir:    envStr("EDUMINT_CONTENT_UPLOAD_DIR", "./public/uploads"),
			TaxonomyPath: envStr("EDUMINT_CONTENT_TAXONOMY_PATH", ""),
			MaxTextRunes: envInt("EDUMINT_CONTENT_MAX_TEXT_RUNES", 4000),
		},
		Quiz: QuizConfig{
			AllowRegenerate: envBool("EDUMINT_QUIZ_ALLOW_REGENERATE", true),
			CacheTTLMinutes: envInt("EDUMINT_QUIZ_CACHE_TTL_MINUTES", 10),
		},
		Log: LogConfig{
			Level:  envStr("EDUMINT_LOG_LEVEL", "info"),
			Format: envStr("EDUMINT_LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if !c.HasAIProvider() {
		return fmt.Errorf("at least one completion provider must be configured")
	}
	if c.AI.TimeoutSeconds <= 0 {
		return fmt.Errorf("EDUMINT_AI_TIMEOUT_SECONDS must be positive, got %d", c.AI.TimeoutSeconds)
	}
	if c.Content.MaxTextRunes <= 0 {
		return fmt.Errorf("EDUMINT_CONTENT_MAX_TEXT_RUNES must be positive, got %d", c.Content.MaxTextRunes)
	}
	return nil
}

// HasAIProvider returns true if at least one completion backend is configured.
func (c *Config) HasAIProvider() bool {
	return c.AI.ChatGatewayURL != "" || c.AI.OpenAIAPIKey != ""
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}
