package repositories

import (
	"context"
	"errors"

	"storefront/internal/models"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrDuplicateAccount   = errors.New("account already exists")
	ErrInvalidAccountData = errors.New("invalid account data")
	ErrDatabaseOperation  = errors.New("database operation failed")
)

// AccountCache is the cache-aside store in front of account lookups.
type AccountCache interface {
	GetAccount(ctx context.Context, identifier string) (*models.Account, error)
	CacheAccount(ctx context.Context, account *models.Account) error
	InvalidateAccount(ctx context.Context, identifier string) error
}

// AccountRepository defines the account directory and the cashback ledger.
type AccountRepository interface {
	// Create inserts a new account
	Create(ctx context.Context, account *models.Account) error

	// FindByIdentifier returns ErrAccountNotFound when no account matches.
	// It may answer from the cache, where BalanceFromReferrals can lag recent
	// increments; identifier, type and inviter never change after creation.
	FindByIdentifier(ctx context.Context, identifier string) (*models.Account, error)

	// FindCurrent reads the account from the database, bypassing the cache
	FindCurrent(ctx context.Context, identifier string) (*models.Account, error)

	// IncrementReferralBalance adds delta in a single UPDATE statement
	IncrementReferralBalance(ctx context.Context, identifier string, delta int64) error

	// ListInvitees returns every account invited by one of the given identifiers
	ListInvitees(ctx context.Context, inviterIDs []string) ([]models.Account, error)

	RecordCashback(ctx context.Context, entry *models.ReferralCashback) error
	ListCashbacks(ctx context.Context, payeeID string, limit, offset int) ([]models.ReferralCashback, int64, error)

	// WithinTransaction runs fn against a repository bound to one database transaction
	WithinTransaction(ctx context.Context, fn func(tx AccountRepository) error) error
}
