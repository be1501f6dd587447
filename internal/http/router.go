package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prayer-clock/backend/internal/config"
	"github.com/prayer-clock/backend/internal/http/handlers"
	"github.com/prayer-clock/backend/internal/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	campaignHandler *handlers.CampaignHandler,
	signupHandler *handlers.SignupHandler,
	auditHandler *handlers.AuditHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute))

	// Campaigns
	api.Get("/campaigns", campaignHandler.ListCampaigns)
	api.Post("/campaigns", campaignHandler.CreateCampaign)
	api.Get("/campaigns/active", campaignHandler.GetActiveCampaign)
	api.Get("/campaigns/:id", campaignHandler.GetCampaign)
	api.Put("/campaigns/:id/active", campaignHandler.SetActive)
	api.Delete("/campaigns/:id", campaignHandler.DeleteCampaign)
	api.Get("/campaigns/:id/report", campaignHandler.GetReport)
	api.Get("/campaigns/:id/audit", auditHandler.CampaignAudit)
	api.Get("/campaigns/:id/watchers", wsHub.WatcherCount)

	// Signups
	api.Get("/campaigns/:id/signups", campaignHandler.ListSignups)
	api.Post("/campaigns/:id/signups", signupHandler.Reserve)
	api.Delete("/campaigns/:id/signups/:slot", signupHandler.Cancel)
	api.Get("/campaigns/:id/selection/:member", signupHandler.GetSelection)
	api.Put("/campaigns/:id/selection/:member", signupHandler.ReplaceSelection)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws/campaigns/:id", websocket.New(wsHub.HandleWS))
}
