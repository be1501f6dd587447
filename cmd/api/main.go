package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/prayer-clock/backend/internal/config"
	"github.com/prayer-clock/backend/internal/db"
	"github.com/prayer-clock/backend/internal/events"
	apphttp "github.com/prayer-clock/backend/internal/http"
	"github.com/prayer-clock/backend/internal/http/handlers"
	"github.com/prayer-clock/backend/internal/memberlock"
	"github.com/prayer-clock/backend/internal/repositories"
	"github.com/prayer-clock/backend/internal/services"
	"github.com/prayer-clock/backend/internal/validation"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, cfg.StorageTimeout, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, cfg.MigrationsDir, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	campaignRepo := repositories.NewCampaignRepo(pool, cfg.StorageTimeout)
	signupRepo := repositories.NewSignupRepo(pool, cfg.StorageTimeout)
	memberRepo := repositories.NewMemberRepo(pool, cfg.StorageTimeout)
	auditRepo := repositories.NewAuditRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	campaignService := services.NewCampaignService(campaignRepo, auditRepo, cfg, log)
	reservationService := services.NewReservationService(signupRepo, auditRepo, publisher, cfg, log)
	selectionService := services.NewSelectionService(campaignRepo, signupRepo, reservationService, log)
	reportService := services.NewReportService(campaignRepo, signupRepo)

	// Handlers
	validator := validation.New()
	locker := memberlock.NewRedisLocker(rdb, memberlock.DefaultTTL, log)
	campaignHandler := handlers.NewCampaignHandler(campaignService, reportService, validator, log)
	signupHandler := handlers.NewSignupHandler(reservationService, selectionService, memberRepo, locker, validator, log)
	auditHandler := handlers.NewAuditHandler(auditRepo, log)
	wsHub := handlers.NewWSHub(subscriber, log)

	// Start WS hub
	if err := wsHub.Start(ctx); err != nil {
		log.Fatal("failed to subscribe to signup events", zap.Error(err))
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, campaignHandler, signupHandler, auditHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
