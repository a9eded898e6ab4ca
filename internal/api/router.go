package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/comment-insight/backend/internal/api/handlers"
	"github.com/comment-insight/backend/internal/metrics"
	"github.com/comment-insight/backend/internal/middleware/ratelimit"
	"github.com/comment-insight/backend/internal/middleware/security"
	"github.com/comment-insight/backend/internal/middleware/validation"
	"github.com/comment-insight/backend/internal/runs"
	"github.com/comment-insight/backend/pkg/config"
	"github.com/comment-insight/backend/pkg/logger"
)

type Deps struct {
	Config  *config.Config
	Service *runs.Service
	// Cache is optional; the flush route is only mounted when it is set.
	Cache handlers.Flusher
	// Limiter is optional; requests are not rate limited when it is nil.
	Limiter *ratelimit.RateLimiter
	// AccessLog enables the per-request access log.
	AccessLog bool
}

func NewApp(d Deps) *fiber.App {
	cfg := d.Config

	app := fiber.New(fiber.Config{
		AppName:      "comment-insight",
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	if d.AccessLog {
		app.Use(fiberlogger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-Client-ID",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		IsDevelopment: cfg.Logging.Level == "debug",
	}))

	app.Get("/metrics", metrics.MetricsHandler())

	runHandler := handlers.NewRunHandler(d.Service)
	queryHandler := handlers.NewQueryHandler(d.Service)
	analyzeHandler := handlers.NewAnalyzeHandler(d.Service)
	wsHandler := handlers.NewWebSocketHandler(d.Service)

	api := app.Group("/api/v1")
	if d.Limiter != nil {
		api.Use(d.Limiter.Middleware())
	}
	api.Use(validation.Middleware(validation.Config{
		Logger: logger.GetLogger(),
	}))

	api.Post("/analyze", analyzeHandler.AnalyzeComment)

	api.Post("/runs", runHandler.CreateRun)
	api.Get("/runs/:id", validation.RunID(), runHandler.GetRun)
	api.Delete("/runs/:id", validation.RunID(), runHandler.DeleteRun)
	api.Get("/runs/:id/results", validation.RunID(), queryHandler.GetResults)

	if d.Cache != nil {
		api.Delete("/cache", handlers.NewCacheHandler(d.Cache).Flush)
	}

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/runs", websocket.New(wsHandler.HandleConnection))

	return app
}
