package repositories

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/logging"
	"storefront/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type accountRepository struct {
	db     *gorm.DB
	cache  AccountCache
	logger *zap.Logger

	// set inside WithinTransaction; cache invalidation waits for commit
	touched *[]string
}

// NewAccountRepository creates a new instance of AccountRepository.
// cache may be nil, in which case every lookup goes to the database.
func NewAccountRepository(db *gorm.DB, cache AccountCache, logger *zap.Logger) AccountRepository {
	return &accountRepository{
		db:     db,
		cache:  cache,
		logger: logging.OrNop(logger),
	}
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	if account == nil || account.Identifier == "" || !account.AccountType.Valid() {
		return ErrInvalidAccountData
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("identifier = ? OR email = ?", account.Identifier, account.Email).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDatabaseOperation, err)
	}
	if count > 0 {
		return ErrDuplicateAccount
	}

	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateAccount
		}
		return fmt.Errorf("%w: %w", ErrDatabaseOperation, err)
	}
	return nil
}

func (r *accountRepository) FindByIdentifier(ctx context.Context, identifier string) (*models.Account, error) {
	if r.cache != nil && r.touched == nil {
		if account, err := r.cache.GetAccount(ctx, identifier); err == nil {
			return account, nil
		}
	}

	account, err := r.FindCurrent(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if r.cache != nil && r.touched == nil {
		if err := r.cache.CacheAccount(ctx, account); err != nil {
			r.logger.Warn("failed to cache account", zap.String("identifier", identifier), zap.Error(err))
		}
	}

	return account, nil
}

func (r *accountRepository) FindCurrent(ctx context.Context, identifier string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).Where("identifier = ?", identifier).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrDatabaseOperation, err)
	}

	if !account.AccountType.Valid() {
		return nil, fmt.Errorf("%w: account %s has type %q", ErrInvalidAccountData, identifier, account.AccountType)
	}
	return &account, nil
}

func (r *accountRepository) IncrementReferralBalance(ctx context.Context, identifier string, delta int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("identifier = ?", identifier).
		Update("balance_from_referrals", gorm.Expr("balance_from_referrals + ?", delta))
	if result.Error != nil {
		return fmt.Errorf("%w: %w", ErrDatabaseOperation, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}

	if r.touched != nil {
		*r.touched = append(*r.touched, identifier)
		return nil
	}
	r.invalidate(ctx, identifier)
	return nil
}

func (r *accountRepository) ListInvitees(ctx context.Context, inviterIDs []string) ([]models.Account, error) {
	if len(inviterIDs) == 0 {
		return nil, nil
	}

	var accounts []models.Account
	err := r.db.WithContext(ctx).
		Where("invited_by IN ?", inviterIDs).
		Order("id").
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseOperation, err)
	}
	return accounts, nil
}

func (r *accountRepository) RecordCashback(ctx context.Context, entry *models.ReferralCashback) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("%w: %w", ErrDatabaseOperation, err)
	}
	return nil
}

func (r *accountRepository) ListCashbacks(ctx context.Context, payeeID string, limit, offset int) ([]models.ReferralCashback, int64, error) {
	var total int64
	query := r.db.WithContext(ctx).Model(&models.ReferralCashback{}).Where("payee_id = ?", payeeID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDatabaseOperation, err)
	}

	var entries []models.ReferralCashback
	err := r.db.WithContext(ctx).
		Where("payee_id = ?", payeeID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDatabaseOperation, err)
	}
	return entries, total, nil
}

func (r *accountRepository) WithinTransaction(ctx context.Context, fn func(tx AccountRepository) error) error {
	var touched []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&accountRepository{
			db:      tx,
			cache:   r.cache,
			logger:  r.logger,
			touched: &touched,
		})
	})
	if err != nil {
		return err
	}

	for _, identifier := range touched {
		r.invalidate(ctx, identifier)
	}
	return nil
}

func (r *accountRepository) invalidate(ctx context.Context, identifier string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.InvalidateAccount(ctx, identifier); err != nil {
		r.logger.Warn("failed to invalidate account cache", zap.String("identifier", identifier), zap.Error(err))
	}
}
