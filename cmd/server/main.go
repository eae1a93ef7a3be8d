// Package main is the entry point for the storefront referral API.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/logging"
	"storefront/internal/repositories"
	"storefront/internal/repositories/cache"
	"storefront/internal/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()

	zl, err := logging.New(config.IsProduction())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	referralSettings, err := config.LoadReferralSettings()
	if err != nil {
		zl.Fatal("invalid referral configuration", zap.Error(err))
	}

	db, err := repositories.InitDB(repositories.LoadDBConfig())
	if err != nil {
		zl.Fatal("database initialisation failed", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zl.Fatal("failed to get database instance", zap.Error(err))
	}
	defer sqlDB.Close()
	zl.Info("connected to database")

	redisClient := cache.NewRedisClient(&cache.RedisConfig{
		Host:     config.GetEnv("REDIS_HOST", "localhost"),
		Port:     config.GetEnv("REDIS_PORT", "6379"),
		Password: config.GetEnv("REDIS_PASSWORD", ""),
		DB:       config.GetIntEnv("REDIS_DB", 0),
	})
	cacheService := cache.NewCacheService(redisClient, time.Duration(config.GetIntEnv("CACHE_TTL_SECONDS", 300))*time.Second)
	defer cacheService.Close()

	deps := routes.Dependencies{
		DB:        db,
		Health:    cacheService,
		Referral:  referralSettings,
		JWTSecret: config.GetEnv("JWT_SECRET", ""),
		Logger:    zl,
	}
	if deps.JWTSecret == "" {
		zl.Fatal("JWT_SECRET must be set")
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := cacheService.HealthCheck(pingCtx); err != nil {
		// serve straight from postgres until redis comes back
		zl.Warn("redis unavailable, account cache disabled", zap.Error(err))
	} else {
		deps.Cache = cacheService
	}
	cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps.Registry = registry

	app := fiber.New(fiber.Config{AppName: "storefront"})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use("/api/accounts", limiter.New(limiter.Config{
		Max:        config.GetIntEnv("ACCOUNTS_RATE_LIMIT", 30),
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return !strings.EqualFold(c.Method(), fiber.MethodPost)
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	routes.SetupRoutes(app, deps)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		zl.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			zl.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	addr := ":" + config.GetEnv("PORT", "3000")
	zl.Info("listening", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		zl.Error("server stopped", zap.Error(err))
	}
}
