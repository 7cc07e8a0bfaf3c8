package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"momento/internal/api"
	"momento/internal/bot"
	"momento/internal/config"
	"momento/internal/logger"
	"momento/internal/repository"
	"momento/internal/service"
)

const retryBackoff = 300 * time.Millisecond

// The API client serves every backend the services depend on.
var (
	_ service.OccasionBackend     = (*api.Client)(nil)
	_ service.RelationshipBackend = (*api.Client)(nil)
	_ service.InviteBackend       = (*api.Client)(nil)
	_ service.DigestBackend       = (*api.Client)(nil)
	_ service.SuggestionBackend   = (*api.Client)(nil)
	_ service.GalleryBackend      = (*api.Client)(nil)
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(logger.Option{Level: cfg.LogLevel})
	defer logger.Sync()

	if err := cfg.RequireTelegram(); err != nil {
		logger.Errorf("config: %v", err)
		return
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		logger.Errorf("db: %v", err)
		return
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	accountRepo := repository.NewAccountRepository(db)
	pinRepo := repository.NewPinRepository(db)
	priorityRepo := repository.NewPriorityRepository(db)
	selectionRepo := repository.NewNoteSelectionRepository(db)

	client := api.New(cfg.APIBaseURL,
		api.WithTimeout(cfg.HTTPTimeout),
		api.WithRetries(cfg.HTTPRetries, retryBackoff),
	)

	scheduler := service.NewSchedulerService(time.Local)
	deps := bot.Deps{
		Accounts:      accountRepo,
		Sessions:      service.NewSessionService(accountRepo, client),
		Occasions:     service.NewOccasionService(priorityRepo, selectionRepo),
		Relationships: service.NewRelationshipService(pinRepo),
		Pending:       service.NewPendingSets(),
		Digest:        service.NewDigestService(cfg.DigestHorizonDays),
		Suggestions:   service.NewSuggestionService(),
		Gallery:       service.NewGalleryService(),
		Scheduler:     scheduler,
	}

	telegramBot, err := bot.New(cfg.TelegramToken, deps, &cfg)
	if err != nil {
		logger.Errorf("bot: %v", err)
		return
	}

	switch {
	case cfg.DigestTime != "":
		err = telegramBot.ScheduleDailyDigest(cfg.DigestTime)
	case cfg.ReportInterval > 0:
		err = telegramBot.ScheduleDigests(cfg.ReportInterval)
	}
	if err != nil {
		logger.Errorf("schedule digests: %v", err)
		return
	}
	scheduler.Start()
	defer scheduler.Stop()

	logger.Infof("momento bot started, backend %s", cfg.APIBaseURL)
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("bot stopped with error: %v", err)
		return
	}
	logger.Infof("shutdown complete")
}
