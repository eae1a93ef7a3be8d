package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CacheChecker is satisfied by cache.CacheService.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	db    *gorm.DB
	cache CacheChecker
}

func NewHealthHandler(db *gorm.DB, cache CacheChecker) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := fiber.StatusOK
	services := fiber.Map{"database": "connected", "redis": "connected"}

	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		services["database"] = "unreachable"
		status = fiber.StatusServiceUnavailable
	}
	if h.cache == nil {
		services["redis"] = "disabled"
	} else if err := h.cache.HealthCheck(ctx); err != nil {
		services["redis"] = "unreachable"
		status = fiber.StatusServiceUnavailable
	}

	state := "ok"
	if status != fiber.StatusOK {
		state = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{
		"status":   state,
		"services": services,
	})
}
