package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type BotConfig struct {
	Addr            string
	DatabaseURL     string
	DiscordToken    string
	AdminToken      string
	ResetPollEvery  time.Duration
	AnnounceChannel string
}

type CLIConfig struct {
	APIBaseURL string
	AdminToken string
}

func LoadBotFromEnv() (BotConfig, error) {
	cfg := loadFromEnv()
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.DiscordToken == "" {
		return cfg, fmt.Errorf("WAYSTONE_DISCORD_TOKEN is required")
	}
	if cfg.AdminToken == "" {
		return cfg, fmt.Errorf("WAYSTONE_ADMIN_TOKEN is required")
	}
	return cfg, nil
}

// LoadWorkerFromEnv is the scheduler-only subset: the worker needs the
// database and a Discord token for REST role lookups, but not the admin API.
func LoadWorkerFromEnv() (BotConfig, error) {
	cfg := loadFromEnv()
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.DiscordToken == "" {
		return cfg, fmt.Errorf("WAYSTONE_DISCORD_TOKEN is required")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("WAYSTONE_API_BASE_URL", "http://localhost:8080"), "/"),
		AdminToken: strings.TrimSpace(os.Getenv("WAYSTONE_ADMIN_TOKEN")),
	}
}

func loadFromEnv() BotConfig {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("WAYSTONE_API_ADDR", ":8080")
	}

	pollEvery := envDurationDefault("WAYSTONE_RESET_POLL_EVERY", 30*time.Minute)
	if pollEvery < time.Minute {
		pollEvery = time.Minute
	}

	return BotConfig{
		Addr:            addr,
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DiscordToken:    strings.TrimSpace(os.Getenv("WAYSTONE_DISCORD_TOKEN")),
		AdminToken:      strings.TrimSpace(os.Getenv("WAYSTONE_ADMIN_TOKEN")),
		ResetPollEvery:  pollEvery,
		AnnounceChannel: envDefault("WAYSTONE_ANNOUNCE_CHANNEL", "announcements"),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
