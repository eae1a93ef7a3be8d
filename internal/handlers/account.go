package handlers

import (
	"errors"

	"storefront/internal/services/account"
	"storefront/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type AccountHandler struct {
	accountService account.Service
}

func NewAccountHandler(accountService account.Service) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

func (h *AccountHandler) Register(c *fiber.Ctx) error {
	var input account.RegisterRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	acct, err := h.accountService.Register(c.UserContext(), input)
	if err != nil {
		return accountError(c, err)
	}

	return utils.Created(c, fiber.Map{
		"message": "Account created",
		"account": acct,
	})
}

func (h *AccountHandler) GetAccount(c *fiber.Ctx) error {
	acct, err := h.accountService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return accountError(c, err)
	}
	return utils.Success(c, fiber.Map{"account": acct})
}

func (h *AccountHandler) GetReferralTree(c *fiber.Ctx) error {
	tree, err := h.accountService.ReferralTree(c.UserContext(), c.Params("id"))
	if err != nil {
		return accountError(c, err)
	}
	return utils.Success(c, tree)
}

func (h *AccountHandler) GetCashbacks(c *fiber.Ctx) error {
	p := utils.GetPagination(c, 1, 20)

	entries, total, err := h.accountService.Cashbacks(c.UserContext(), c.Params("id"), p.Limit, p.Offset)
	if err != nil {
		return accountError(c, err)
	}

	p.SetTotal(total)
	return utils.Success(c, utils.NewPaginatedResponse(entries, p))
}

func accountError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, account.ErrInvalidAccount):
		return utils.BadRequest(c, err.Error())
	case errors.Is(err, account.ErrInviterNotFound):
		return utils.BadRequest(c, "Inviter not found")
	case errors.Is(err, account.ErrAccountNotFound):
		return utils.NotFound(c, "Account not found")
	case errors.Is(err, account.ErrDuplicateAccount):
		return utils.Conflict(c, "Account already exists")
	default:
		return utils.InternalError(c, "Account operation failed")
	}
}
