package types

type WalletStatus string

const (
	WalletStatusActive    WalletStatus = "active"
	WalletStatusSuspended WalletStatus = "suspended"
	WalletStatusBlocked   WalletStatus = "blocked"
)

func (s WalletStatus) Valid() bool {
	return s == WalletStatusActive || s == WalletStatusSuspended || s == WalletStatusBlocked
}

type WalletTransactionType string

const (
	WalletTransactionTypeDeposit    WalletTransactionType = "deposit"
	WalletTransactionTypeWithdrawal WalletTransactionType = "withdrawal"
	WalletTransactionTypeBonus      WalletTransactionType = "bonus"
	WalletTransactionTypePenalty    WalletTransactionType = "penalty"
	WalletTransactionTypeRefund     WalletTransactionType = "refund"
)

type WalletDirection string

const (
	WalletDirectionCredit WalletDirection = "credit"
	WalletDirectionDebit  WalletDirection = "debit"
)
