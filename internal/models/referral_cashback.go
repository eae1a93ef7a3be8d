package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const CashbackTypeReferral = "referral_cashback"

// ReferralCashback is a ledger entry for one credit applied to an ancestor
// of a buyer. Amounts are in minor units.
type ReferralCashback struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Type           string    `gorm:"not null;default:'referral_cashback'" json:"type"`
	PayerID        string    `gorm:"index;not null" json:"payer_id"`
	PayeeID        string    `gorm:"index;not null" json:"payee_id"`
	Level          int       `gorm:"not null" json:"level"`
	PurchaseAmount int64     `gorm:"not null" json:"purchase_amount"`
	Amount         int64     `gorm:"not null" json:"amount"`
	CreatedAt      time.Time `json:"created_at"`
}

func (c *ReferralCashback) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Type == "" {
		c.Type = CashbackTypeReferral
	}
	return nil
}
