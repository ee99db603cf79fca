package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/fatflowers/paygate/pkg/types"
)

// WalletTransaction is an append-only ledger entry. Rows are inserted in the
// same database transaction as the balance update and never updated.
type WalletTransaction struct {
	ID            string                      `gorm:"column:id;type:uuid;primary_key;index:idx_wallet_tx_user_id,priority:2,sort:desc" json:"id"`
	WalletID      string                      `gorm:"column:wallet_id;type:uuid;not null;index" json:"wallet_id"`
	UserID        string                      `gorm:"column:user_id;type:varchar(64);not null;index:idx_wallet_tx_user_id,priority:1" json:"user_id"`
	Type          types.WalletTransactionType `gorm:"column:type;type:varchar(32);not null" json:"type"`
	Direction     types.WalletDirection       `gorm:"column:direction;type:varchar(8);not null" json:"direction"`
	Amount        int64                       `gorm:"column:amount;type:bigint;not null" json:"amount"`
	BalanceBefore int64                       `gorm:"column:balance_before;type:bigint;not null" json:"balance_before"`
	BalanceAfter  int64                       `gorm:"column:balance_after;type:bigint;not null" json:"balance_after"`
	Currency      string                      `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	Method        string                      `gorm:"column:method;type:varchar(32)" json:"method,omitempty"`
	Description   string                      `gorm:"column:description;type:varchar(255)" json:"description,omitempty"`
	// ReferenceID correlates the entry to a payment transaction or an external document.
	ReferenceID *string `gorm:"column:reference_id;type:varchar(128);index" json:"reference_id,omitempty"`
	// OriginalTransactionID is set on refund entries and points at the refunded entry.
	OriginalTransactionID *string `gorm:"column:original_transaction_id;type:uuid;index" json:"original_transaction_id,omitempty"`
	// IdempotencyKey makes a credit or debit happen at most once per key.
	IdempotencyKey *string           `gorm:"column:idempotency_key;type:varchar(191);uniqueIndex" json:"-"`
	ProcessedBy    string            `gorm:"column:processed_by;type:varchar(64);not null" json:"processed_by"`
	Extra          datatypes.JSONMap `gorm:"column:extra;type:jsonb" json:"extra,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

func (WalletTransaction) TableName() string { return "wallet_transaction" }

// SignedAmount is positive for credits and negative for debits.
func (t *WalletTransaction) SignedAmount() int64 {
	if t.Direction == types.WalletDirectionDebit {
		return -t.Amount
	}
	return t.Amount
}
