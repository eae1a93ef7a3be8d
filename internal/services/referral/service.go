package referral

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/logging"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"go.uber.org/zap"
)

type service struct {
	directory  Directory
	ledger     Ledger
	transactor Transactor
	config     Config
	metrics    MetricsCollector
	logger     *zap.Logger
}

// creditFunc applies one credit; nil means preview.
type creditFunc func(ctx context.Context, credit Credit) error

// NewService creates a new referral service.
// ledger, metrics and logger are optional.
func NewService(
	directory Directory,
	ledger Ledger,
	config Config,
	metrics MetricsCollector,
	logger *zap.Logger,
) Service {
	if directory == nil {
		panic("directory is required")
	}

	if config.LevelBasisPoints == nil {
		config.LevelBasisPoints = DefaultConfig().LevelBasisPoints
	}
	config = config.clone()
	if err := config.Validate(); err != nil {
		panic(err.Error())
	}

	var transactor Transactor
	if config.AtomicChain {
		t, ok := directory.(Transactor)
		if !ok {
			panic("atomic chain requires a directory that supports transactions")
		}
		transactor = t
	}

	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}

	return &service{
		directory:  directory,
		ledger:     ledger,
		transactor: transactor,
		config:     config,
		metrics:    metrics,
		logger:     logging.OrNop(logger).Named("referral"),
	}
}

// Config returns a copy of the active configuration.
func (s *service) Config() Config {
	return s.config.clone()
}

func (s *service) ComputeAndApplyCashback(ctx context.Context, amountMinorUnits int64, buyerID string) (*Result, error) {
	start := time.Now()

	var (
		result *Result
		err    error
	)
	if s.transactor != nil {
		err = s.transactor.WithinTransaction(ctx, func(tx repositories.AccountRepository) error {
			var ledger Ledger
			if s.ledger != nil {
				ledger = tx
			}
			var walkErr error
			result, walkErr = s.walk(ctx, tx, amountMinorUnits, buyerID, s.creditor(tx, ledger, buyerID, amountMinorUnits))
			return walkErr
		})
		if err != nil {
			// the walk's own errors are already classified
			if !isClassified(err) {
				err = fmt.Errorf("%w: %w", ErrUnavailable, err)
			}
			result = nil
		}
	} else {
		result, err = s.walk(ctx, s.directory, amountMinorUnits, buyerID, s.creditor(s.directory, s.ledger, buyerID, amountMinorUnits))
	}

	s.metrics.RecordComputation(outcome(err, ResultApplied), time.Since(start))
	if err != nil {
		s.logger.Warn("referral cashback failed",
			zap.String("buyer_id", buyerID),
			zap.Int64("amount", amountMinorUnits),
			zap.Error(err),
		)
		return nil, err
	}

	result.Applied = true
	for _, c := range result.Credits {
		s.metrics.RecordCredit(c.Level, c.Amount)
	}
	s.logger.Info("referral cashback applied",
		zap.String("buyer_id", buyerID),
		zap.Int64("amount", amountMinorUnits),
		zap.Int("credits", len(result.Credits)),
		zap.Int64("total_credited", result.TotalCredited),
		zap.String("stop_reason", result.StopReason),
	)
	return result, nil
}

func (s *service) PreviewCashback(ctx context.Context, amountMinorUnits int64, buyerID string) (*Result, error) {
	start := time.Now()
	result, err := s.walk(ctx, s.directory, amountMinorUnits, buyerID, nil)
	s.metrics.RecordComputation(outcome(err, ResultPreview), time.Since(start))
	return result, err
}

func (s *service) creditor(dir Directory, ledger Ledger, buyerID string, amount int64) creditFunc {
	return func(ctx context.Context, c Credit) error {
		if err := dir.IncrementReferralBalance(ctx, c.PayeeID, c.Amount); err != nil {
			return fmt.Errorf("%w: credit %s: %w", ErrUnavailable, c.PayeeID, err)
		}
		if ledger == nil {
			return nil
		}
		entry := &models.ReferralCashback{
			Type:           models.CashbackTypeReferral,
			PayerID:        buyerID,
			PayeeID:        c.PayeeID,
			Level:          c.Level,
			PurchaseAmount: amount,
			Amount:         c.Amount,
		}
		if err := ledger.RecordCashback(ctx, entry); err != nil {
			return fmt.Errorf("%w: record cashback for %s: %w", ErrUnavailable, c.PayeeID, err)
		}
		return nil
	}
}

// walk follows the invitation chain from buyerID upward. apply is called for
// every eligible link; a nil apply only computes.
func (s *service) walk(ctx context.Context, dir Directory, amount int64, buyerID string, apply creditFunc) (*Result, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: purchase amount must be positive, got %d", ErrInvalidArgument, amount)
	}
	if amount > MaxPurchaseAmount {
		return nil, fmt.Errorf("%w: purchase amount %d is too large", ErrInvalidArgument, amount)
	}
	if buyerID == "" {
		return nil, fmt.Errorf("%w: buyer id is required", ErrInvalidArgument)
	}

	buyer, err := dir.FindByIdentifier(ctx, buyerID)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, buyerID)
		}
		return nil, fmt.Errorf("%w: find buyer %s: %w", ErrUnavailable, buyerID, err)
	}

	result := &Result{
		BuyerID:        buyerID,
		PurchaseAmount: amount,
		Credits:        []Credit{},
		StopReason:     StopMaxLevels,
	}
	visited := map[string]struct{}{buyer.Identifier: {}}
	current := buyer

	for level := 0; level < s.config.MaxLevels(); level++ {
		inviterID, ok := current.Inviter()
		if !ok {
			result.StopReason = StopNoInviter
			break
		}
		if _, seen := visited[inviterID]; seen {
			if apply != nil {
				s.metrics.RecordCycle()
			}
			s.logger.Warn("invitation cycle detected",
				zap.String("buyer_id", buyerID),
				zap.String("account_id", current.Identifier),
				zap.String("inviter_id", inviterID),
				zap.Int("level", level),
			)
			result.StopReason = StopCycle
			break
		}

		inviter, err := dir.FindByIdentifier(ctx, inviterID)
		if err != nil {
			if errors.Is(err, repositories.ErrAccountNotFound) {
				result.StopReason = StopInviterNotFound
				break
			}
			return nil, fmt.Errorf("%w: find inviter %s: %w", ErrUnavailable, inviterID, err)
		}
		visited[inviterID] = struct{}{}
		result.LinksVisited++

		if inviter.IsBusiness() && current.IsBusiness() {
			credit := creditAmount(amount, s.config.LevelBasisPoints[level])
			if credit > 0 {
				c := Credit{Level: level, PayeeID: inviterID, Amount: credit}
				if apply != nil {
					if err := apply(ctx, c); err != nil {
						return nil, err
					}
				}
				result.Credits = append(result.Credits, c)
				result.TotalCredited += credit
				s.logger.Debug("referral credit",
					zap.String("buyer_id", buyerID),
					zap.String("payee_id", inviterID),
					zap.Int("level", level),
					zap.Int64("amount", credit),
				)
			}
		} else if apply != nil {
			s.metrics.RecordSkippedLink(level)
		}

		current = inviter
	}

	return result, nil
}

// creditAmount is floor(amount/100 * bp/100 * 100) computed in integers,
// i.e. amount * bp / 10000 truncated toward zero.
func creditAmount(amount, basisPoints int64) int64 {
	return amount * basisPoints / BasisPointsDivisor
}

func isClassified(err error) bool {
	return errors.Is(err, ErrInvalidArgument) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnavailable)
}

func outcome(err error, ok string) string {
	switch {
	case err == nil:
		return ok
	case errors.Is(err, ErrInvalidArgument):
		return ResultInvalid
	case errors.Is(err, ErrNotFound):
		return ResultNotFound
	default:
		return ResultUnavailable
	}
}
