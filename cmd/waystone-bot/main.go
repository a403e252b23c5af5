package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"waystone/internal/api"
	"waystone/internal/config"
	"waystone/internal/db"
	"waystone/internal/discord"
	"waystone/internal/economy"
	"waystone/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadBotFromEnv()
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
	stipends := store.NewStipendStore(pool)
	ledger := store.NewLedgerStore(pool)
	engine := economy.NewEngine(economy.Deps{
		Guilds:     guilds,
		Characters: store.NewCharacterStore(pool),
		Stipends:   stipends,
		Shops:      store.NewShopStore(pool),
		Ledger:     ledger,
		Roles:      adapter,
		Announcer:  adapter,
	}, logger)

	bot := discord.NewBot(session, engine, guilds, stipends, logger)
	if err := bot.Start(ctx); err != nil {
		logger.Error("discord bot failed", "err", err)
		os.Exit(1)
	}

	scheduler := economy.NewScheduler(engine, guilds, logger, cfg.ResetPollEvery)
	go scheduler.Run(ctx)

	server := api.New(cfg, logger, engine, guilds, stipends, ledger)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("waystone admin api listening", "addr", cfg.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
