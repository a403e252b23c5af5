package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"waystone/internal/config"
	"waystone/internal/db"
	"waystone/internal/discord"
	"waystone/internal/economy"
	"waystone/internal/store"
)

// The worker runs the reset scheduler without the gateway bot or the admin
// API. Role lookups and announcements go over Discord's REST API, so the
// session is never opened.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWorkerFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	session, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		logger.Error("discord session failed", "err", err)
		os.Exit(1)
	}
	adapter := discord.NewAdapter(session, cfg.AnnounceChannel, logger)

	guilds := store.NewGuildStore(pool)
	engine := economy.NewEngine(economy.Deps{
		Guilds:     guilds,
		Characters: store.NewCharacterStore(pool),
		Stipends:   store.NewStipendStore(pool),
		Shops:      store.NewShopStore(pool),
		Ledger:     store.NewLedgerStore(pool),
		Roles:      adapter,
		Announcer:  adapter,
	}, logger)

	scheduler := economy.NewScheduler(engine, guilds, logger, cfg.ResetPollEvery)

	runOnce := strings.EqualFold(strings.TrimSpace(os.Getenv("WAYSTONE_WORKER_RUN_ONCE")), "true")
	if runOnce {
		if err := scheduler.Tick(ctx); err != nil {
			logger.Error("tick failed", "err", err)
			os.Exit(1)
		}
		logger.Info("worker run-once completed")
		return
	}

	scheduler.Run(ctx)
}
