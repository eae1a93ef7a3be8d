package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/logging"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service manages accounts and their place in the referral program.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*models.Account, error)
	Get(ctx context.Context, identifier string) (*models.Account, error)
	ReferralTree(ctx context.Context, identifier string) (*ReferralTree, error)
	Cashbacks(ctx context.Context, identifier string, limit, offset int) ([]models.ReferralCashback, int64, error)
}

type service struct {
	repo      repositories.AccountRepository
	treeDepth int
	logger    *zap.Logger
}

func NewService(repo repositories.AccountRepository, treeDepth int, logger *zap.Logger) Service {
	if repo == nil {
		panic("repo is required")
	}
	if treeDepth <= 0 {
		treeDepth = DefaultTreeDepth
	}
	return &service{
		repo:      repo,
		treeDepth: treeDepth,
		logger:    logging.OrNop(logger).Named("account"),
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*models.Account, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	req.InvitedBy = strings.TrimSpace(req.InvitedBy)

	v := validation.New()
	v.Account(req.Email, req.Name, req.AccountType, req.InvitedBy)
	if !v.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAccount, v.Error())
	}
	accountType, _ := models.ParseAccountType(req.AccountType)

	account := &models.Account{
		Identifier:  uuid.NewString(),
		Email:       req.Email,
		Name:        req.Name,
		AccountType: accountType,
	}

	if req.InvitedBy != "" {
		if _, err := s.repo.FindByIdentifier(ctx, req.InvitedBy); err != nil {
			if errors.Is(err, repositories.ErrAccountNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrInviterNotFound, req.InvitedBy)
			}
			return nil, fmt.Errorf("failed to resolve inviter: %w", err)
		}
		inviter := req.InvitedBy
		account.InvitedBy = &inviter
	}

	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrDuplicateAccount) {
			return nil, ErrDuplicateAccount
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.Info("account registered",
		zap.String("identifier", account.Identifier),
		zap.String("account_type", string(account.AccountType)),
		zap.Stringp("invited_by", account.InvitedBy),
	)
	return account, nil
}

func (s *service) Get(ctx context.Context, identifier string) (*models.Account, error) {
	account, err := s.repo.FindCurrent(ctx, identifier)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// ReferralTree walks downward from identifier, one query per level.
func (s *service) ReferralTree(ctx context.Context, identifier string) (*ReferralTree, error) {
	if _, err := s.Get(ctx, identifier); err != nil {
		return nil, err
	}

	tree := &ReferralTree{Identifier: identifier, Levels: []ReferralLevel{}}
	seen := map[string]struct{}{identifier: {}}
	frontier := []string{identifier}

	for level := 1; level <= s.treeDepth && len(frontier) > 0; level++ {
		invitees, err := s.repo.ListInvitees(ctx, frontier)
		if err != nil {
			return nil, fmt.Errorf("failed to list invitees: %w", err)
		}

		next := make([]string, 0, len(invitees))
		accounts := make([]models.Account, 0, len(invitees))
		for _, a := range invitees {
			if _, dup := seen[a.Identifier]; dup {
				continue
			}
			seen[a.Identifier] = struct{}{}
			accounts = append(accounts, a)
			next = append(next, a.Identifier)
		}
		if len(accounts) == 0 {
			break
		}

		tree.Levels = append(tree.Levels, ReferralLevel{Level: level, Accounts: accounts})
		frontier = next
	}

	return tree, nil
}

func (s *service) Cashbacks(ctx context.Context, identifier string, limit, offset int) ([]models.ReferralCashback, int64, error) {
	if _, err := s.Get(ctx, identifier); err != nil {
		return nil, 0, err
	}
	entries, total, err := s.repo.ListCashbacks(ctx, identifier, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list cashbacks: %w", err)
	}
	return entries, total, nil
}
