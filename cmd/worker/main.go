package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prayer-clock/backend/internal/config"
	"github.com/prayer-clock/backend/internal/db"
	"github.com/prayer-clock/backend/internal/events"
	"github.com/prayer-clock/backend/internal/repositories"
	"github.com/prayer-clock/backend/internal/services"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, cfg.StorageTimeout, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repos
	campaignRepo := repositories.NewCampaignRepo(pool, cfg.StorageTimeout)
	signupRepo := repositories.NewSignupRepo(pool, cfg.StorageTimeout)
	reminderRepo := repositories.NewReminderRepo(pool, cfg.StorageTimeout)

	// Services
	publisher := events.NewRedisPublisher(rdb, log)
	reminderService := services.NewReminderService(campaignRepo, signupRepo, reminderRepo, publisher, cfg.ReminderLeadTime, log)

	log.Info("worker started",
		zap.Duration("reminder_lead", cfg.ReminderLeadTime),
		zap.Duration("poll_interval", cfg.ReminderPollInterval),
	)

	runEvery(ctx, cfg.ReminderPollInterval, func() {
		if _, err := reminderService.SendDue(ctx); err != nil {
			log.Error("slot reminders failed", zap.Error(err))
		}
	})
	log.Info("shutting down worker")
}

// runEvery calls job now and then on every tick until ctx is done.
func runEvery(ctx context.Context, interval time.Duration, job func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		job()
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}
