package gateway

import (
	"context"

	"github.com/fatflowers/paygate/internal/app/service/wallet"
	"github.com/fatflowers/paygate/internal/models"
	"github.com/fatflowers/paygate/pkg/apperr"
	"github.com/fatflowers/paygate/pkg/types"
)

// Ledger is the part of the wallet service the payment flows use.
type Ledger interface {
	GetOrCreateWallet(ctx context.Context, userID string) (*models.Wallet, error)
	Deposit(ctx context.Context, req *wallet.DepositRequest) (*wallet.Result, error)
	Withdraw(ctx context.Context, req *wallet.WithdrawRequest) (*wallet.Result, error)
	Refund(ctx context.Context, req *wallet.RefundRequest) (*wallet.Result, error)
}

// WalletAdapter pays from the user's internal balance. Payments complete at
// creation; there is nothing to verify with a third party.
type WalletAdapter struct {
	adapterBase
	ledger Ledger
}

func NewWalletAdapter(ledger Ledger, limits AmountLimits) *WalletAdapter {
	return &WalletAdapter{adapterBase: adapterBase{gateway: types.GatewayTypeWallet, limits: limits}, ledger: ledger}
}

func (a *WalletAdapter) SupportsRefund() bool { return true }

func (a *WalletAdapter) CreatePaymentRequest(ctx context.Context, userID string, in *CreateInput) (*CreateResult, error) {
	if err := a.limits.Check(a.gateway, in.Amount); err != nil {
		return nil, err
	}
	w, err := a.ledger.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !w.Active() {
		return nil, apperr.Validation("wallet_inactive", "wallet is %s", w.Status).WithGateway(a.gateway)
	}
	if w.Balance < in.Amount {
		return nil, apperr.InsufficientFunds(w.Balance, in.Amount).WithGateway(a.gateway)
	}
	res, err := a.ledger.Withdraw(ctx, &wallet.WithdrawRequest{
		UserID:         userID,
		Amount:         in.Amount,
		Method:         string(a.gateway),
		Description:    description(in),
		ReferenceID:    in.TransactionID,
		IdempotencyKey: "payment:" + in.TransactionID + ":debit",
		ProcessedBy:    wallet.SystemActor,
	})
	if err != nil {
		return nil, err
	}
	return &CreateResult{
		Authority:   res.Transaction.ID,
		ReferenceID: res.Transaction.ID,
		Status:      types.PaymentStatusCompleted,
		GatewayData: map[string]any{
			"wallet_transaction_id": res.Transaction.ID,
			"balance_after":         res.Transaction.BalanceAfter,
		},
	}, nil
}

func (a *WalletAdapter) VerifyPayment(ctx context.Context, userID string, in *VerifyInput) (*VerifyResult, error) {
	return &VerifyResult{ReferenceID: in.Authority, TrackingCode: in.Authority, Amount: in.Amount}, nil
}

// RefundPayment credits back part of the debit recorded at creation.
func (a *WalletAdapter) RefundPayment(ctx context.Context, in *RefundInput) (*RefundResult, error) {
	res, err := a.ledger.Refund(ctx, &wallet.RefundRequest{
		OriginalTransactionID: in.Authority,
		UserID:                in.UserID,
		Amount:                in.Amount,
		Reason:                in.Reason,
		ProcessedBy:           wallet.SystemActor,
	})
	if err != nil {
		return nil, err
	}
	return &RefundResult{
		RefundID:    res.Transaction.ID,
		Amount:      res.Transaction.Amount,
		Status:      "completed",
		GatewayData: map[string]any{"balance_after": res.Transaction.BalanceAfter},
	}, nil
}

func (a *WalletAdapter) HealthCheck(ctx context.Context) error { return nil }
