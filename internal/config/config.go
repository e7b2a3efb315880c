// Package config centralises environment configuration for the API server.
package config

import (
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// Config captures runtime configuration values for the recovery coach API.
type Config struct {
	Port int

	// Oura provider
	OuraAccessToken  string
	OuraBaseURL      string
	OuraClientID     string
	OuraClientSecret string
	OuraRedirectURI  string

	// Generative service
	AnthropicAPIKey  string
	AnthropicBaseURL string
	AnthropicModel   string

	// Per-call timeout for both external clients.
	UpstreamTimeout time.Duration
}

// Load reads environment variables into Config, applying defaults for
// local development. A .env file is honoured via godotenv autoload.
func Load() Config {
	return Config{
		Port:             getIntEnv("PORT", 8080),
		OuraAccessToken:  getEnv("OURA_ACCESS_TOKEN", ""),
		OuraBaseURL:      getEnv("OURA_BASE_URL", "https://api.ouraring.com/v2/usercollection"),
		OuraClientID:     getEnv("OURA_CLIENT_ID", ""),
		OuraClientSecret: getEnv("OURA_CLIENT_SECRET", ""),
		OuraRedirectURI:  getEnv("OURA_REDIRECT_URI", "http://localhost:8080/oauth/callback"),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicBaseURL: getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-3-haiku-20240307"),
		UpstreamTimeout:  getDurationEnv("UPSTREAM_TIMEOUT", 30*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
