// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the application configuration.
type Config struct {
	HTTPAddr     string
	DatabasePath string
	LogLevel     string
	CronSecret   string

	RedditClientID     string
	RedditClientSecret string
	RedditUsername     string
	RedditPassword     string
	RedditUserAgent    string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	TelegramBotToken string
	TelegramChatID   int64

	Subreddits   []string
	RSSFeeds     []string
	CollectLimit int
	DigestHour   int

	// SampleDataFallback substitutes canned sample data for failed read
	// queries so demo deployments never show an empty dashboard.
	SampleDataFallback bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		DatabasePath:       envOrDefault("DATABASE_PATH", "./data/ideaspark.db"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		CronSecret:         os.Getenv("CRON_SECRET"),
		RedditClientID:     os.Getenv("REDDIT_CLIENT_ID"),
		RedditClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
		RedditUsername:     os.Getenv("REDDIT_USERNAME"),
		RedditPassword:     os.Getenv("REDDIT_PASSWORD"),
		RedditUserAgent:    envOrDefault("REDDIT_USER_AGENT", "ideaspark:v2.0:pain-point-analysis"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        envOrDefault("OPENAI_MODEL", "gpt-4-turbo-preview"),
		OpenAIBaseURL:      envOrDefault("OPENAI_BASE_URL", "https://api.openai.com"),
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	if cfg.CronSecret == "" {
		return nil, fmt.Errorf("CRON_SECRET is required")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", raw, err)
		}
		cfg.TelegramChatID = id
	}

	cfg.Subreddits = splitList(envOrDefault("SUBREDDITS",
		"startups,entrepreneur,smallbusiness,SaaS,productivity"))
	cfg.RSSFeeds = splitList(os.Getenv("RSS_FEEDS"))

	var err error
	if cfg.CollectLimit, err = intEnv("COLLECT_LIMIT", 25); err != nil {
		return nil, err
	}
	if cfg.DigestHour, err = intEnv("DIGEST_HOUR", 9); err != nil {
		return nil, err
	}
	if cfg.DigestHour < 0 || cfg.DigestHour > 23 {
		return nil, fmt.Errorf("DIGEST_HOUR must be within 0..23, got %d", cfg.DigestHour)
	}

	cfg.SampleDataFallback = strings.EqualFold(os.Getenv("SAMPLE_DATA_FALLBACK"), "true")

	return cfg, nil
}

// RedditEnabled reports whether Reddit credentials are fully configured.
func (c *Config) RedditEnabled() bool {
	return c.RedditClientID != "" && c.RedditClientSecret != "" &&
		c.RedditUsername != "" && c.RedditPassword != ""
}

// TelegramEnabled reports whether the digest bot is configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
