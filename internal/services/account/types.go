package account

import "storefront/internal/models"

// DefaultTreeDepth matches the number of cashback levels.
const DefaultTreeDepth = 3

// RegisterRequest is the input for opening an account.
type RegisterRequest struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	AccountType string `json:"account_type"`
	InvitedBy   string `json:"invited_by,omitempty"`
}

// ReferralLevel lists the accounts at one depth below the root, level 1 being
// the accounts the root invited directly.
type ReferralLevel struct {
	Level    int              `json:"level"`
	Accounts []models.Account `json:"accounts"`
}

type ReferralTree struct {
	Identifier string          `json:"identifier"`
	Levels     []ReferralLevel `json:"levels"`
}
