// Package middleware provides HTTP middleware components for the application.
package middleware

import (
	"strings"

	"storefront/internal/logging"
	"storefront/internal/models"
	"storefront/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const ClaimsLocalKey = "claims"

// ServiceAuth validates the bearer token of internal callers and requires
// one of roles.
func ServiceAuth(secret string, logger *zap.Logger, roles ...string) fiber.Handler {
	logger = logging.OrNop(logger)

	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return utils.Unauthorized(c, "missing authorization header")
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return utils.Unauthorized(c, "invalid authorization format")
		}

		claims, err := utils.ParseServiceToken(secret, strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			logger.Debug("token validation failed", zap.Error(err), zap.String("ip", c.IP()))
			return utils.Unauthorized(c, "invalid token")
		}

		if len(roles) > 0 && !claims.HasRole(roles...) {
			logger.Warn("caller role rejected",
				zap.String("subject", claims.Subject),
				zap.String("role", claims.Role),
				zap.String("path", c.Path()),
			)
			return utils.Forbidden(c, "insufficient permissions")
		}

		c.Locals(ClaimsLocalKey, claims)
		return c.Next()
	}
}

// Claims returns the caller claims stored by ServiceAuth.
func Claims(c *fiber.Ctx) (*models.ServiceClaims, bool) {
	claims, ok := c.Locals(ClaimsLocalKey).(*models.ServiceClaims)
	return claims, ok && claims != nil
}
