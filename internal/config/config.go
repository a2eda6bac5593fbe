package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP API and fanout WebSocket share one listener.
	APIHost      string
	APIPort      int
	APIRateLimit float64 // requests/sec, 0 disables
	APIBurst     int

	// Model file: presets, weights, thresholds, aliases.
	ModelPath     string
	DefaultPreset string

	// Journal (SQLite audit copy). Empty path disables it.
	JournalPath    string
	JournalMaxRows int64

	// Discord
	DiscordWebhookURL string
	DiscordStrongOnly bool

	// Print a match card to stderr on every session event.
	DisplayEnabled bool

	// Fanout address used by cmd/watch.
	FanoutAddr string

	// Telemetry
	LogLevel string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		APIHost:      envStr("API_HOST", "0.0.0.0"),
		APIPort:      envInt("API_PORT", 8080),
		APIRateLimit: envFloat("API_RATE_LIMIT", 50),
		APIBurst:     envInt("API_BURST", 100),

		ModelPath:     envStr("MODEL_PATH", "config/model.yaml"),
		DefaultPreset: envStr("DEFAULT_PRESET", "classic"),

		JournalPath:    envStr("JOURNAL_PATH", "data/journal.db"),
		JournalMaxRows: int64(envInt("JOURNAL_MAX_ROWS", 1_000_000)),

		DiscordWebhookURL: envStr("DISCORD_WEBHOOK_URL", ""),
		DiscordStrongOnly: envBool("DISCORD_STRONG_ONLY", true),

		DisplayEnabled: envBool("DISPLAY_ENABLED", true),

		FanoutAddr: envStr("FANOUT_ADDR", "localhost:8080"),

		LogLevel: envStr("LOG_LEVEL", "info"),
	}
}

func envStr(key, fallback string) string {
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

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	return fallback
}
