package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"warden/internal/bot"
	"warden/internal/config"
	"warden/internal/giveaways"
	"warden/internal/moderation"
	"warden/internal/sanctions"
	"warden/internal/storage"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	ledger := moderation.NewLedger(store, logger, time.Duration(cfg.Moderation.WarnTTLDays)*24*time.Hour)
	scheduler := sanctions.New(store, logger)
	registry := giveaways.NewRegistry(store, logger)
	picker := giveaways.NewPicker(cfg.Giveaways.OverrideWinnerID)

	botSvc, err := bot.New(cfg, logger, ledger, scheduler, registry, picker)
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}
	scheduler.SetReverser(botSvc)
	scheduler.SetNotifier(func(guildID, userID int64, kind sanctions.Kind) {
		logger.Info("punishment expired",
			zap.Int64("guild_id", guildID),
			zap.Int64("user_id", userID),
			zap.String("kind", string(kind)))
	})

	sweeper := giveaways.NewSweeper(registry, picker, botSvc, logger, time.Duration(cfg.Giveaways.SweepSeconds)*time.Second)

	if err := botSvc.Start(); err != nil {
		logger.Fatal("bot start failed", zap.Error(err))
	}
	logger.Info("bot started")

	if err := scheduler.Restore(context.Background()); err != nil {
		logger.Fatal("punishment restore failed", zap.Error(err))
	}
	if err := sweeper.Start(); err != nil {
		logger.Fatal("sweeper start failed", zap.Error(err))
	}

	var server *http.Server
	if cfg.Health.Enabled {
		server = &http.Server{Addr: cfg.Health.Addr}
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		go func() {
			logger.Info("health endpoint enabled", zap.String("addr", cfg.Health.Addr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server error", zap.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown requested")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if server != nil {
		_ = server.Shutdown(ctx)
	}
	sweeper.Stop(ctx)
	scheduler.Close()
	botSvc.Close(ctx)
}
