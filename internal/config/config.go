package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"crypto-chart-bot/internal/exchange"
)

type Config struct {
	TelegramBotToken string
	RedisURL         string
	Port             string

	BybitBaseURL     string
	FetchTimeoutSecs int

	OpenAIAPIKey          string
	OpenAIModel           string
	AIPatternTimeoutSecs  int
	AIForecastTimeoutSecs int

	SymbolRefreshCron string

	MCPTransport          string
	MCPHTTPEnabled        bool
	MCPHTTPBind           string
	MCPHTTPPort           int
	MCPAuthToken          string
	MCPRequestTimeoutSecs int
	MCPRateLimitPerMin    int
}

func Load() *Config {
	cfg := &Config{
		TelegramBotToken: strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		RedisURL:         strings.TrimSpace(os.Getenv("REDIS_URL")),
		OpenAIAPIKey:     strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		MCPAuthToken:     os.Getenv("MCP_AUTH_TOKEN"),
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, Telegram bot will be disabled")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, symbol catalog will be kept in memory")
	}

	cfg.Port = strings.TrimSpace(os.Getenv("PORT"))
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	cfg.BybitBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("BYBIT_BASE_URL")), "/")
	if cfg.BybitBaseURL == "" {
		cfg.BybitBaseURL = exchange.DefaultBaseURL
	}
	cfg.FetchTimeoutSecs = positiveInt("FETCH_TIMEOUT_SECS", 10)

	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, AI analysis and forecasts will be disabled")
	}
	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}
	cfg.AIPatternTimeoutSecs = positiveInt("AI_PATTERN_TIMEOUT_SECS", 45)
	cfg.AIForecastTimeoutSecs = positiveInt("AI_FORECAST_TIMEOUT_SECS", 60)

	cfg.SymbolRefreshCron = strings.TrimSpace(os.Getenv("SYMBOL_REFRESH_CRON"))
	if cfg.SymbolRefreshCron == "" {
		cfg.SymbolRefreshCron = "@every 6h"
	}

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Printf("Warning: unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}
	cfg.MCPHTTPEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("MCP_HTTP_ENABLED")), "true")
	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}
	cfg.MCPHTTPPort = positiveInt("MCP_HTTP_PORT", 8090)
	cfg.MCPRequestTimeoutSecs = positiveInt("MCP_REQUEST_TIMEOUT_SECS", 90)
	cfg.MCPRateLimitPerMin = positiveInt("MCP_RATE_LIMIT_PER_MIN", 60)

	return cfg
}

// positiveInt reads key as a positive integer, keeping def for missing or invalid values.
func positiveInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}
