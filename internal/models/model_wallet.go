package models

import (
	"time"

	"github.com/fatflowers/paygate/pkg/types"
)

// Wallet holds one user's internal balance in minor units.
type Wallet struct {
	ID        string             `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID    string             `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex" json:"user_id"`
	Balance   int64              `gorm:"column:balance;type:bigint;not null;default:0;check:balance >= 0" json:"balance"`
	Currency  string             `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	Status    types.WalletStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func (Wallet) TableName() string { return "wallet" }

func (w *Wallet) Active() bool { return w != nil && w.Status == types.WalletStatusActive }
