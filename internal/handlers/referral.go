package handlers

import (
	"errors"

	"storefront/internal/services/referral"
	"storefront/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type ReferralHandler struct {
	referralService referral.Service
}

func NewReferralHandler(referralService referral.Service) *ReferralHandler {
	return &ReferralHandler{referralService: referralService}
}

type cashbackRequest struct {
	AmountMinorUnits int64  `json:"amount_minor_units"`
	BuyerID          string `json:"buyer_id"`
}

// ApplyCashback credits the buyer's invitation chain for a settled purchase.
func (h *ReferralHandler) ApplyCashback(c *fiber.Ctx) error {
	var input cashbackRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "amount_minor_units must be an integer and buyer_id a string")
	}

	result, err := h.referralService.ComputeAndApplyCashback(c.UserContext(), input.AmountMinorUnits, input.BuyerID)
	if err != nil {
		return referralError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message": "Referral cashback applied",
		"result":  result,
	})
}

// PreviewCashback reports the credits a purchase would produce.
func (h *ReferralHandler) PreviewCashback(c *fiber.Ctx) error {
	var input cashbackRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "amount_minor_units must be an integer and buyer_id a string")
	}

	result, err := h.referralService.PreviewCashback(c.UserContext(), input.AmountMinorUnits, input.BuyerID)
	if err != nil {
		return referralError(c, err)
	}

	return utils.Success(c, fiber.Map{"result": result})
}

// GetConfig exposes the active percent table in basis points.
func (h *ReferralHandler) GetConfig(c *fiber.Ctx) error {
	cfg := h.referralService.Config()
	return utils.Success(c, fiber.Map{
		"level_basis_points": cfg.LevelBasisPoints,
		"max_levels":         cfg.MaxLevels(),
		"atomic_chain":       cfg.AtomicChain,
	})
}

func referralError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, referral.ErrInvalidArgument):
		return utils.BadRequest(c, err.Error())
	case errors.Is(err, referral.ErrNotFound):
		return utils.NotFound(c, "Buyer not found")
	case errors.Is(err, referral.ErrUnavailable):
		return utils.ServiceUnavailable(c, "Account directory unavailable, retry later")
	default:
		return utils.InternalError(c, "Failed to compute referral cashback")
	}
}
