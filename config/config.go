package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	Env         string
	LogLevel    slog.Level

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	DiscordBotToken string
	ESPNAutoResults bool
}

// Load reads the process environment, optionally seeded from a .env file.
func Load() (*Config, error) {
	// a missing .env file is normal outside local development
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	cfg := &Config{
		DatabaseURL:     dbURL,
		Env:             envOr("ENV", "development"),
		SMTPHost:        os.Getenv("SMTP_HOST"),
		SMTPUser:        os.Getenv("SMTP_USER"),
		SMTPPass:        os.Getenv("SMTP_PASS"),
		SMTPFrom:        envOr("SMTP_FROM", "noreply@lastmanstanding.local"),
		DiscordBotToken: os.Getenv("DISCORD_BOT_TOKEN"),
	}

	portStr := envOr("SMTP_PORT", "587")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SMTP_PORT must be between 1 and 65535, got %d", port)
	}
	cfg.SMTPPort = port

	if raw := os.Getenv("ESPN_AUTO_RESULTS"); raw != "" {
		auto, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid ESPN_AUTO_RESULTS environment variable: %w", err)
		}
		cfg.ESPNAutoResults = auto
	}

	level, err := parseLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	return cfg, nil
}

func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

func (c *Config) DiscordEnabled() bool {
	return c.DiscordBotToken != ""
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(raw))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", raw, err)
	}
	return level, nil
}
