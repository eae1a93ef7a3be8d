// Package routes defines the API routing configuration.
// It wires repositories, services and handlers and mounts them on the app.
package routes

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services/account"
	"storefront/internal/services/referral"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies are the infrastructure handles created in main.
type Dependencies struct {
	DB        *gorm.DB
	Cache     repositories.AccountCache
	Health    handlers.CacheChecker
	Referral  config.ReferralSettings
	JWTSecret string
	Registry  *prometheus.Registry
	Logger    *zap.Logger
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	accountRepo := repositories.NewAccountRepository(deps.DB, deps.Cache, deps.Logger)

	referralService := referral.NewService(
		accountRepo,
		accountRepo,
		referral.Config{
			LevelBasisPoints: deps.Referral.LevelBasisPoints,
			AtomicChain:      deps.Referral.AtomicChain,
		},
		referral.NewPrometheusCollector(deps.Registry),
		deps.Logger,
	)
	accountService := account.NewService(accountRepo, referralService.Config().MaxLevels(), deps.Logger)

	referralHandler := handlers.NewReferralHandler(referralService)
	accountHandler := handlers.NewAccountHandler(accountService)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Health)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to Storefront API",
			"version": "1.0.0",
			"docs":    "/api",
		})
	})
	app.Get("/health", healthHandler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(metricsHandler(deps.Registry)))

	api := app.Group("/api")

	serviceAuth := middleware.ServiceAuth(deps.JWTSecret, deps.Logger, models.RoleService, models.RoleAdmin)

	// Accounts: registration is public, reads require a service token
	accounts := api.Group("/accounts")
	accounts.Post("/", accountHandler.Register)
	accounts.Get("/:id", serviceAuth, accountHandler.GetAccount)
	accounts.Get("/:id/referrals", serviceAuth, accountHandler.GetReferralTree)
	accounts.Get("/:id/cashbacks", serviceAuth, accountHandler.GetCashbacks)

	// Referral cashback is settled by internal services only
	referrals := api.Group("/referrals", serviceAuth)
	referrals.Post("/cashback", referralHandler.ApplyCashback)
	referrals.Post("/cashback/preview", referralHandler.PreviewCashback)
	referrals.Get("/config", referralHandler.GetConfig)
}

func metricsHandler(reg *prometheus.Registry) http.Handler {
	if reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
