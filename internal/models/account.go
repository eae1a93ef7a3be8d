package models

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// AccountType classifies an account for referral cashback eligibility.
type AccountType string

const (
	AccountTypeBusiness   AccountType = "BUSINESS"
	AccountTypeIndividual AccountType = "INDIVIDUAL"
)

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeBusiness, AccountTypeIndividual:
		return true
	}
	return false
}

// ParseAccountType normalises s and rejects unknown classifications.
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown account type %q", s)
	}
	return t, nil
}

type Account struct {
	gorm.Model
	Identifier           string      `gorm:"uniqueIndex;not null" json:"identifier"`
	Email                string      `gorm:"uniqueIndex;not null" json:"email"`
	Name                 string      `gorm:"not null" json:"name"`
	AccountType          AccountType `gorm:"type:varchar(32);not null;default:'INDIVIDUAL'" json:"account_type"`
	BalanceFromReferrals int64       `gorm:"not null;default:0" json:"balance_from_referrals"`
	InvitedBy            *string     `gorm:"index" json:"invited_by,omitempty"`
}

// IsBusiness reports whether the account is eligible for referral cashback.
func (a *Account) IsBusiness() bool {
	return a.AccountType == AccountTypeBusiness
}

// Inviter returns the identifier of the inviting account, if any.
func (a *Account) Inviter() (string, bool) {
	if a.InvitedBy == nil || *a.InvitedBy == "" {
		return "", false
	}
	return *a.InvitedBy, true
}
