package wallet

import (
	"github.com/fatflowers/paygate/internal/models"
	"github.com/fatflowers/paygate/pkg/types"
)

// DepositRequest credits a wallet. Type defaults to deposit; bonus is the
// only other credit type accepted.
type DepositRequest struct {
	UserID         string                      `json:"user_id" binding:"required"`
	Amount         int64                       `json:"amount" binding:"required,gt=0"`
	Type           types.WalletTransactionType `json:"type,omitempty"`
	Method         string                      `json:"method,omitempty"`
	Description    string                      `json:"description,omitempty"`
	ReferenceID    string                      `json:"reference_id,omitempty"`
	IdempotencyKey string                      `json:"idempotency_key,omitempty"`
	ProcessedBy    string                      `json:"processed_by,omitempty"`
	Extra          map[string]any              `json:"extra,omitempty"`
}

// WithdrawRequest debits a wallet. Type defaults to withdrawal; penalty is
// the only other debit type accepted.
type WithdrawRequest struct {
	UserID         string                      `json:"user_id" binding:"required"`
	Amount         int64                       `json:"amount" binding:"required,gt=0"`
	Type           types.WalletTransactionType `json:"type,omitempty"`
	Method         string                      `json:"method,omitempty"`
	Description    string                      `json:"description,omitempty"`
	ReferenceID    string                      `json:"reference_id,omitempty"`
	IdempotencyKey string                      `json:"idempotency_key,omitempty"`
	ProcessedBy    string                      `json:"processed_by,omitempty"`
	Extra          map[string]any              `json:"extra,omitempty"`
}

// RefundRequest reverses part or all of an earlier ledger entry. A zero
// Amount refunds whatever is left of the original.
type RefundRequest struct {
	OriginalTransactionID string `json:"original_transaction_id" binding:"required"`
	// UserID, when set, must own the original entry.
	UserID         string `json:"user_id,omitempty"`
	Amount         int64  `json:"amount,omitempty" binding:"gte=0"`
	Reason         string `json:"reason,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	ProcessedBy    string `json:"processed_by,omitempty"`
}

type SetStatusRequest struct {
	UserID      string             `json:"user_id" binding:"required"`
	Status      types.WalletStatus `json:"status" binding:"required"`
	ProcessedBy string             `json:"processed_by,omitempty"`
}

// Result is the wallet after a mutation and the ledger entry it produced.
// Replayed is set when an idempotency key matched an earlier entry and
// nothing was written.
type Result struct {
	Wallet      *models.Wallet            `json:"wallet"`
	Transaction *models.WalletTransaction `json:"transaction"`
	Replayed    bool                      `json:"replayed,omitempty"`
}

type ListTransactionsRequest struct {
	UserID string                      `json:"user_id"`
	Type   types.WalletTransactionType `json:"type,omitempty"`
	From   int                         `json:"from"`
	Size   int                         `json:"size"`
}

type ListTransactionsResponse struct {
	Items []*models.WalletTransaction `json:"items"`
	Total int64                       `json:"total"`
}
