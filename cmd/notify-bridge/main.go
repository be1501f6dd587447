package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prayer-clock/backend/internal/config"
	"github.com/prayer-clock/backend/internal/db"
	"github.com/prayer-clock/backend/internal/events"
	"github.com/prayer-clock/backend/internal/repositories"
	"github.com/prayer-clock/backend/internal/services"
	"go.uber.org/zap"
)

// Notify Bridge subscribes to signup events and forwards each one, with the
// member's contact data, to the messaging webhook.

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

	memberRepo := repositories.NewMemberRepo(pool, cfg.StorageTimeout)
	client := services.NewNotifyClient(cfg.NotifyWebhookURL, cfg.NotifyTimeout, log)
	dispatcher := services.NewDispatcher(memberRepo, client, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	err = subscriber.Subscribe(ctx, events.StreamSignups, func(event events.Event) {
		log.Info("forwarding event",
			zap.String("type", event.Type),
			zap.String("campaign_id", event.CampaignID.String()),
			zap.String("member_id", event.MemberID.String()),
		)
		if err := dispatcher.Dispatch(ctx, event); err != nil {
			log.Warn("failed to forward notification", zap.String("type", event.Type), zap.Error(err))
		}
	})
	if err != nil {
		log.Fatal("failed to subscribe to signup events", zap.Error(err))
	}

	log.Info("notify-bridge started")
	<-ctx.Done()
	log.Info("shutting down notify-bridge")
}
