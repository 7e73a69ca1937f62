package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"creditbot/internal/api"
	"creditbot/internal/bot"
	"creditbot/internal/config"
	"creditbot/internal/db"
	"creditbot/internal/game"
	"creditbot/internal/metrics"

	"github.com/bwmarrin/discordgo"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadBotFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	store, closeStore, err := db.OpenSnapshots(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Error("open snapshots failed", "err", err)
		os.Exit(1)
	}
	defer closeStore()

	collector := metrics.NewCollector("creditbot")
	dice := game.NewClockDice()
	gameSvc, err := game.Open(ctx, store, game.Options{
		OwnerID:      cfg.OwnerID,
		CreditSeller: cfg.CreditSeller,
		Dice:         dice,
		Logger:       logger,
		Recorder:     collector,
	})
	if err != nil {
		logger.Error("load economy failed", "err", err)
		os.Exit(1)
	}

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		logger.Error("discord session init failed", "err", err)
		os.Exit(1)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent
	dispatcher := bot.New(bot.Config{
		Prefix:              cfg.Prefix,
		SpinChannelID:       cfg.SpinChannelID,
		GambleChannelID:     cfg.GambleChannelID,
		MarketBannedRole:    cfg.MarketBannedRole,
		GamblePromptTimeout: cfg.GamblePromptTimeout,
	}, gameSvc, session, dice, logger)
	session.AddHandler(dispatcher.OnMessageCreate)
	session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		logger.Info("discord connected", "user", r.User.Username, "guilds", len(r.Guilds))
	})
	if err := session.Open(); err != nil {
		logger.Error("discord connect failed", "err", err)
		os.Exit(1)
	}
	defer session.Close()

	server := api.New(logger, gameSvc, collector.Handler())
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

	logger.Info("creditbot keep-alive listening", "addr", cfg.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
