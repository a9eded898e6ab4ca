package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/comment-insight/backend/internal/analysis"
	"github.com/comment-insight/backend/internal/api"
	"github.com/comment-insight/backend/internal/cache/redis"
	"github.com/comment-insight/backend/internal/llm"
	"github.com/comment-insight/backend/internal/metrics"
	"github.com/comment-insight/backend/internal/middleware/ratelimit"
	"github.com/comment-insight/backend/internal/query"
	"github.com/comment-insight/backend/internal/runs"
	"github.com/comment-insight/backend/pkg/circuitbreaker"
	"github.com/comment-insight/backend/pkg/config"
	appLogger "github.com/comment-insight/backend/pkg/logger"
)

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Comment Insight API Server",
		zap.String("provider", cfg.Analysis.Provider),
	)

	metrics.Init()

	opts := []analysis.Option{
		analysis.WithRetry(cfg.Analysis.MaxAttempts, cfg.Analysis.BaseDelay()),
		analysis.WithLogger(appLogger.GetLogger()),
	}

	if cfg.Breaker.Enabled {
		cb := circuitbreaker.NewCircuitBreaker("analysis", circuitbreaker.Config{
			FailureThreshold: uint32(cfg.Breaker.FailureThreshold),
			Timeout:          time.Duration(cfg.Breaker.TimeoutSec) * time.Second,
			Logger:           appLogger.GetLogger(),
			OnStateChange: func(name string, _, to circuitbreaker.State) {
				metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			},
		})
		opts = append(opts, analysis.WithCircuitBreaker(cb))
	}

	var flusher *redis.Client
	if cfg.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err := redis.NewClient(ctx, cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		cancel()
		if err != nil {
			appLogger.Warn("Verdict cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			flusher = redisClient
			opts = append(opts, analysis.WithCache(redisClient, cfg.Redis.TTL()))
		}
	}

	client := analysis.NewClient(newTransport(cfg), opts...)
	registry := runs.NewRegistry(cfg.Runs.MaxRuns, cfg.Runs.TTL())
	engine := query.NewEngine(cfg.Query.DefaultPageSize, cfg.Query.MaxPageSize)
	service := runs.NewService(client, cfg.Analysis.Concurrency, registry, engine)

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Logger:               appLogger.GetLogger(),
	})
	defer limiter.Stop()

	deps := api.Deps{
		Config:    cfg,
		Service:   service,
		Limiter:   limiter,
		AccessLog: true,
	}
	if flusher != nil {
		deps.Cache = flusher
	}
	app := api.NewApp(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		appLogger.Error("Server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}

func newTransport(cfg *config.Config) analysis.Transport {
	if cfg.Analysis.Provider == config.ProviderOpenAI {
		return llm.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.Temperature, cfg.LLM.MaxTokens)
	}
	return analysis.NewHTTPTransport(cfg.Analysis.Endpoint, cfg.Analysis.Timeout())
}
