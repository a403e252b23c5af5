package config

import (
	"testing"
	"time"
)

func TestLoadBotFromEnvDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/waystone")
	t.Setenv("WAYSTONE_DISCORD_TOKEN", "token")
	t.Setenv("WAYSTONE_ADMIN_TOKEN", "admin")
	t.Setenv("PORT", "")

	cfg, err := LoadBotFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("addr got %q", cfg.Addr)
	}
	if cfg.ResetPollEvery != 30*time.Minute {
		t.Fatalf("poll interval got %v", cfg.ResetPollEvery)
	}
	if cfg.AnnounceChannel != "announcements" {
		t.Fatalf("announce channel got %q", cfg.AnnounceChannel)
	}
}

func TestLoadBotFromEnvRequiredVars(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("WAYSTONE_DISCORD_TOKEN", "token")
	t.Setenv("WAYSTONE_ADMIN_TOKEN", "admin")
	if _, err := LoadBotFromEnv(); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/waystone")
	t.Setenv("WAYSTONE_DISCORD_TOKEN", "")
	if _, err := LoadBotFromEnv(); err == nil {
		t.Fatalf("expected error without WAYSTONE_DISCORD_TOKEN")
	}
}

func TestPollIntervalFloor(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/waystone")
	t.Setenv("WAYSTONE_DISCORD_TOKEN", "token")
	t.Setenv("WAYSTONE_ADMIN_TOKEN", "admin")
	t.Setenv("WAYSTONE_RESET_POLL_EVERY", "5s")

	cfg, err := LoadBotFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ResetPollEvery != time.Minute {
		t.Fatalf("expected 1m floor, got %v", cfg.ResetPollEvery)
	}
}

func TestPortOverridesAddr(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/waystone")
	t.Setenv("WAYSTONE_DISCORD_TOKEN", "token")
	t.Setenv("WAYSTONE_ADMIN_TOKEN", "admin")
	t.Setenv("PORT", "9090")

	cfg, err := LoadBotFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Fatalf("addr got %q", cfg.Addr)
	}
}
