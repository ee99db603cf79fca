package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"

	"github.com/fatflowers/paygate/internal/models"
	"github.com/fatflowers/paygate/internal/platform/db/dbtest"
	"github.com/fatflowers/paygate/pkg/apperr"
	"github.com/fatflowers/paygate/pkg/config"
	"github.com/fatflowers/paygate/pkg/types"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(dbtest.New(t), zap.NewNop().Sugar(), &config.PaymentConfig{Currency: "IRR"}, nil, clockz.RealClock)
}

func TestGetOrCreateWallet_IsLazyAndStable(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	w1, err := s.GetOrCreateWallet(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, int64(0), w1.Balance)
	require.Equal(t, types.WalletStatusActive, w1.Status)
	require.Equal(t, "IRR", w1.Currency)

	w2, err := s.GetOrCreateWallet(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, w1.ID, w2.ID)

	_, err = s.GetOrCreateWallet(ctx, "")
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDepositThenWithdraw(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	dep, err := s.Deposit(ctx, &DepositRequest{UserID: "u-1", Amount: 50000, Method: "zarinpal"})
	require.NoError(t, err)
	require.Equal(t, int64(50000), dep.Wallet.Balance)
	require.Equal(t, types.WalletDirectionCredit, dep.Transaction.Direction)
	require.Equal(t, int64(0), dep.Transaction.BalanceBefore)
	require.Equal(t, int64(50000), dep.Transaction.BalanceAfter)
	require.Equal(t, SystemActor, dep.Transaction.ProcessedBy)

	wd, err := s.Withdraw(ctx, &WithdrawRequest{UserID: "u-1", Amount: 30000})
	require.NoError(t, err)
	require.Equal(t, int64(20000), wd.Wallet.Balance)
	require.Equal(t, types.WalletTransactionTypeWithdrawal, wd.Transaction.Type)
	require.Equal(t, int64(50000), wd.Transaction.BalanceBefore)
	require.Equal(t, int64(20000), wd.Transaction.BalanceAfter)

	_, err = s.Withdraw(ctx, &WithdrawRequest{UserID: "u-1", Amount: 30000})
	require.ErrorIs(t, err, apperr.ErrInsufficientFunds)
	require.False(t, apperr.Retryable(err))

	w, err := s.GetBalance(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, int64(20000), w.Balance)

	list, err := s.ListTransactions(ctx, &ListTransactionsRequest{UserID: "u-1"})
	require.NoError(t, err)
	require.Equal(t, int64(2), list.Total)
}

func TestRejectsInvalidInput(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() error
	}{
		{"zero deposit", func() error { _, err := s.Deposit(ctx, &DepositRequest{UserID: "u", Amount: 0}); return err }},
		{"negative withdraw", func() error { _, err := s.Withdraw(ctx, &WithdrawRequest{UserID: "u", Amount: -5}); return err }},
		{"missing user", func() error { _, err := s.Deposit(ctx, &DepositRequest{Amount: 10}); return err }},
		{"deposit with debit type", func() error {
			_, err := s.Deposit(ctx, &DepositRequest{UserID: "u", Amount: 10, Type: types.WalletTransactionTypePenalty})
			return err
		}},
		{"withdraw with credit type", func() error {
			_, err := s.Withdraw(ctx, &WithdrawRequest{UserID: "u", Amount: 10, Type: types.WalletTransactionTypeBonus})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.run(), apperr.ErrValidation)
		})
	}
}

func TestInactiveWalletRejectsMutations(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.Deposit(ctx, &DepositRequest{UserID: "u-1", Amount: 1000})
	require.NoError(t, err)

	w, err := s.SetStatus(ctx, &SetStatusRequest{UserID: "u-1", Status: types.WalletStatusSuspended, ProcessedBy: "admin"})
	require.NoError(t, err)
	require.Equal(t, types.WalletStatusSuspended, w.Status)

	_, err = s.Deposit(ctx, &DepositRequest{UserID: "u-1", Amount: 1000})
	require.ErrorIs(t, err, apperr.ErrValidation)
	_, err = s.Withdraw(ctx, &WithdrawRequest{UserID: "u-1", Amount: 500})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = s.SetStatus(ctx, &SetStatusRequest{UserID: "u-1", Status: "frozen"})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = s.SetStatus(ctx, &SetStatusRequest{UserID: "u-1", Status: types.WalletStatusActive})
	require.NoError(t, err)
	res, err := s.Withdraw(ctx, &WithdrawRequest{UserID: "u-1", Amount: 500})
	require.NoError(t, err)
	require.Equal(t, int64(500), res.Wallet.Balance)
}

func TestIdempotencyKey(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	req := &DepositRequest{UserID: "u-1", Amount: 7000, IdempotencyKey: "payment:tx-1:credit"}
	first, err := s.Deposit(ctx, req)
	require.NoError(t, err)
	require.False(t, first.Replayed)

	second, err := s.Deposit(ctx, req)
	require.NoError(t, err)
	require.True(t, second.Replayed)
	require.Equal(t, first.Transaction.ID, second.Transaction.ID)
	require.Equal(t, int64(7000), second.Wallet.Balance)

	_, err = s.Deposit(ctx, &DepositRequest{UserID: "u-2", Amount: 1, IdempotencyKey: "payment:tx-1:credit"})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRefundDirections(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	dep, err := s.Deposit(ctx, &DepositRequest{UserID: "u-1", Amount: 10000, ReferenceID: "tx-1"})
	require.NoError(t, err)
	wd, err := s.Withdraw(ctx, &WithdrawRequest{UserID: "u-1", Amount: 4000})
	require.NoError(t, err)

	// refunding a debit credits the wallet
	r1, err := s.Refund(ctx, &RefundRequest{OriginalTransactionID: wd.Transaction.ID})
	require.NoError(t, err)
	require.Equal(t, types.WalletDirectionCredit, r1.Transaction.Direction)
	require.Equal(t, int64(4000), r1.Transaction.Amount)
	require.Equal(t, int64(10000), r1.Wallet.Balance)
	require.Equal(t, wd.Transaction.ID, *r1.Transaction.OriginalTransactionID)

	// fully refunded already
	_, err = s.Refund(ctx, &RefundRequest{OriginalTransactionID: wd.Transaction.ID, Amount: 1})
	require.ErrorIs(t, err, apperr.ErrValidation)

	// refunding a credit debits, partially then the remainder
	r2, err := s.Refund(ctx, &RefundRequest{OriginalTransactionID: dep.Transaction.ID, Amount: 3000})
	require.NoError(t, err)
	require.Equal(t, types.WalletDirectionDebit, r2.Transaction.Direction)
	require.Equal(t, int64(7000), r2.Wallet.Balance)
	require.Equal(t, "tx-1", *r2.Transaction.ReferenceID)

	_, err = s.Refund(ctx, &RefundRequest{OriginalTransactionID: dep.Transaction.ID, Amount: 8000})
	require.ErrorIs(t, err, apperr.ErrValidation)

	r3, err := s.Refund(ctx, &RefundRequest{OriginalTransactionID: dep.Transaction.ID})
	require.NoError(t, err)
	require.Equal(t, int64(7000), r3.Transaction.Amount)
	require.Equal(t, int64(0), r3.Wallet.Balance)

	// refunds are not refundable
	_, err = s.Refund(ctx, &RefundRequest{OriginalTransactionID: r3.Transaction.ID})
	require.ErrorIs(t, err, apperr.ErrValidation)

	// wrong owner looks like a missing entry
	_, err = s.Refund(ctx, &RefundRequest{OriginalTransactionID: dep.Transaction.ID, UserID: "u-2"})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRefundOfCreditNeedsFunds(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	dep, err := s.Deposit(ctx, &DepositRequest{UserID: "u-1", Amount: 5000})
	require.NoError(t, err)
	_, err = s.Withdraw(ctx, &WithdrawRequest{UserID: "u-1", Amount: 4000})
	require.NoError(t, err)

	_, err = s.Refund(ctx, &RefundRequest{OriginalTransactionID: dep.Transaction.ID})
	require.ErrorIs(t, err, apperr.ErrInsufficientFunds)
}

func TestConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.Deposit(ctx, &DepositRequest{UserID: "u-1", Amount: 50000})
	require.NoError(t, err)

	const workers = 10
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Withdraw(ctx, &WithdrawRequest{UserID: "u-1", Amount: 10000})
		}(i)
	}
	wg.Wait()

	var ok, short int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperr.ErrInsufficientFunds):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 5, ok)
	require.Equal(t, 5, short)

	w, err := s.GetBalance(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, int64(0), w.Balance)
	requireLedgerConsistent(t, s, "u-1")
}

func TestLedgerInvariant(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.Deposit(ctx, &DepositRequest{UserID: "u-1", Amount: 12000})
	require.NoError(t, err)
	_, err = s.Bonus(ctx, "u-1", 3000, "welcome", "admin")
	require.NoError(t, err)
	_, err = s.Penalty(ctx, "u-1", 2500, "late return", "admin")
	require.NoError(t, err)
	wd, err := s.Withdraw(ctx, &WithdrawRequest{UserID: "u-1", Amount: 9000})
	require.NoError(t, err)
	_, err = s.Refund(ctx, &RefundRequest{OriginalTransactionID: wd.Transaction.ID, Amount: 1000})
	require.NoError(t, err)
	_, err = s.Withdraw(ctx, &WithdrawRequest{UserID: "u-1", Amount: 1_000_000})
	require.Error(t, err)

	requireLedgerConsistent(t, s, "u-1")
}

func TestListTransactionsPaging(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.Deposit(ctx, &DepositRequest{UserID: "u-1", Amount: int64(1000 * (i + 1))})
		require.NoError(t, err)
	}
	_, err := s.Withdraw(ctx, &WithdrawRequest{UserID: "u-1", Amount: 100})
	require.NoError(t, err)

	page, err := s.ListTransactions(ctx, &ListTransactionsRequest{UserID: "u-1", From: 0, Size: 4})
	require.NoError(t, err)
	require.Equal(t, int64(6), page.Total)
	require.Len(t, page.Items, 4)

	deposits, err := s.ListTransactions(ctx, &ListTransactionsRequest{UserID: "u-1", Type: types.WalletTransactionTypeDeposit})
	require.NoError(t, err)
	require.Equal(t, int64(5), deposits.Total)
}

// requireLedgerConsistent checks that the entries chain and sum to the balance.
func requireLedgerConsistent(t *testing.T, s *Service, userID string) {
	t.Helper()
	w, err := s.GetBalance(context.Background(), userID)
	require.NoError(t, err)

	var entries []*models.WalletTransaction
	require.NoError(t, s.db.Where("user_id = ?", userID).Order("id ASC").Find(&entries).Error)

	var sum int64
	for _, e := range entries {
		require.Equal(t, e.BalanceBefore+e.SignedAmount(), e.BalanceAfter, "entry %s", e.ID)
		require.GreaterOrEqual(t, e.BalanceAfter, int64(0))
		sum += e.SignedAmount()
	}
	require.Equal(t, w.Balance, sum)
}
