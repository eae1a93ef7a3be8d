package referral

import (
	"context"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// Service defines the referral cashback operations
type Service interface {
	// ComputeAndApplyCashback credits the buyer's eligible ancestors.
	ComputeAndApplyCashback(ctx context.Context, amountMinorUnits int64, buyerID string) (*Result, error)

	// PreviewCashback walks the chain like ComputeAndApplyCashback without writing.
	PreviewCashback(ctx context.Context, amountMinorUnits int64, buyerID string) (*Result, error)

	Config() Config
}

// Directory resolves accounts and applies balance increments.
// FindByIdentifier must return repositories.ErrAccountNotFound for unknown
// identifiers; IncrementReferralBalance must be a storage-level atomic add.
type Directory interface {
	FindByIdentifier(ctx context.Context, identifier string) (*models.Account, error)
	IncrementReferralBalance(ctx context.Context, identifier string, delta int64) error
}

// Ledger records one entry per applied credit.
type Ledger interface {
	RecordCashback(ctx context.Context, entry *models.ReferralCashback) error
}

// Transactor is implemented by directories that can run the whole walk in
// one database transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(tx repositories.AccountRepository) error) error
}
