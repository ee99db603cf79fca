package gateway

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fatflowers/paygate/internal/app/service/wallet"
	"github.com/fatflowers/paygate/internal/models"
	"github.com/fatflowers/paygate/pkg/apperr"
	"github.com/fatflowers/paygate/pkg/config"
	"github.com/fatflowers/paygate/pkg/types"
)

func TestCreatePayment_RejectsInvalidRequests(t *testing.T) {
	env := newTestEnv(t, nil, newFake(zp))
	ctx := context.Background()

	tests := []struct {
		name string
		req  *UnifiedPaymentRequest
		want error
	}{
		{"missing user", &UnifiedPaymentRequest{Amount: 5000, Purpose: types.PaymentPurposeOther}, apperr.ErrAuthentication},
		{"zero amount", &UnifiedPaymentRequest{UserID: "u-1", Purpose: types.PaymentPurposeOther}, apperr.ErrValidation},
		{"unknown purpose", &UnifiedPaymentRequest{UserID: "u-1", Amount: 5000, Purpose: "lottery"}, apperr.ErrValidation},
		{"foreign currency", &UnifiedPaymentRequest{UserID: "u-1", Amount: 5000, Purpose: types.PaymentPurposeOther, Currency: "USD"}, apperr.ErrValidation},
		{"crypto", &UnifiedPaymentRequest{UserID: "u-1", Amount: 5000, Purpose: types.PaymentPurposeOther, GatewayType: types.GatewayTypeCrypto}, apperr.ErrValidation},
		{"wallet charge from wallet", &UnifiedPaymentRequest{UserID: "u-1", Amount: 5000, Purpose: types.PaymentPurposeWalletCharge, GatewayType: types.GatewayTypeWallet}, apperr.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.manager.CreatePayment(ctx, tt.req)
			require.ErrorIs(t, err, tt.want)
		})
	}
	require.Zero(t, env.registry.Len())
}

func TestCreatePayment_External(t *testing.T) {
	fake := newFake(zp)
	env := newTestEnv(t, nil, fake)

	res, err := env.manager.CreatePayment(context.Background(), paymentRequest(15000))
	require.NoError(t, err)
	require.Equal(t, zp, res.Gateway)
	require.Equal(t, types.PaymentStatusPending, res.Status)
	require.Equal(t, "auth-"+res.TransactionID, res.Authority)
	require.False(t, res.FallbackUsed)
	require.Equal(t, []types.GatewayType{zp}, res.AttemptedGateways)
	require.NotNil(t, res.ExpiresAt)
	require.Equal(t, 1, env.registry.Len())

	id, err := env.manager.FindTransactionID(context.Background(), zp, res.Authority)
	require.NoError(t, err)
	require.Equal(t, res.TransactionID, id)

	stored, err := env.archive.Find(context.Background(), res.TransactionID)
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusPending, stored.Status)
	require.Contains(t, stored.GatewayData["callback_url"], "/api/v1/payment/callback/zarinpal?transaction_id="+res.TransactionID)
}

func TestCreatePayment_FallsBackToNextGateway(t *testing.T) {
	first, second := newFake(zp).failing(), newFake(bm)
	env := newTestEnv(t, nil, first, second)

	req := paymentRequest(15000)
	req.PriorityGateways = []types.GatewayType{zp, bm}
	res, err := env.manager.CreatePayment(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, bm, res.Gateway)
	require.True(t, res.FallbackUsed)
	require.Equal(t, []types.GatewayType{zp, bm}, res.AttemptedGateways)

	s, _ := env.health.Status(zp)
	require.Equal(t, int64(1), s.ErrorCount)
}

func TestCreatePayment_FallbackStopsAfterMaxRetries(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRetryAttempts = 2
	fakes := []*fakeAdapter{newFake(zp).failing(), newFake(bm).failing(), newFake(sb).failing(), newFake(bt).failing()}
	env := newTestEnv(t, cfg, fakes[0], fakes[1], fakes[2], fakes[3])

	_, err := env.manager.CreatePayment(context.Background(), paymentRequest(15000))
	require.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindProvider, Code: "gateway_unreachable"})
	require.NotErrorIs(t, err, apperr.ErrGatewayUnavailable)
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	require.Len(t, appErr.Detail.(map[string]any)["attempted_gateways"], cfg.MaxRetryAttempts+1)

	total := 0
	for _, f := range fakes {
		creates, _, _ := f.calls()
		require.LessOrEqual(t, creates, 1)
		total += creates
	}
	require.Equal(t, cfg.MaxRetryAttempts+1, total)
	require.Zero(t, env.registry.Len())

	list, err := env.manager.ListTransactions(context.Background(), &ListTransactionsRequest{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	require.Equal(t, types.PaymentStatusFailed, list.Items[0].Status)
}

func TestCreatePayment_FallbackDisabledTriesOnce(t *testing.T) {
	cfg := testConfig()
	cfg.FallbackEnabled = false
	a, b := newFake(zp).failing(), newFake(bm)
	env := newTestEnv(t, cfg, a, b)

	_, err := env.manager.CreatePayment(context.Background(), paymentRequest(15000))
	require.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindProvider, Code: "gateway_unreachable"})
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, zp, appErr.Gateway)
	require.Equal(t, []types.GatewayType{zp}, appErr.Detail.(map[string]any)["attempted_gateways"])
	creates, _, _ := b.calls()
	require.Zero(t, creates)
}

func TestCreatePayment_RequestDisablesFallback(t *testing.T) {
	a, b := newFake(zp).failing(), newFake(bm)
	env := newTestEnv(t, nil, a, b)

	req := paymentRequest(15000)
	req.PriorityGateways = []types.GatewayType{zp, bm}
	req.AllowFallback = new(bool)
	_, err := env.manager.CreatePayment(context.Background(), req)
	require.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindProvider, Code: "gateway_unreachable"})

	creates, _, _ := a.calls()
	require.Equal(t, 1, creates)
	creates, _, _ = b.calls()
	require.Zero(t, creates)

	// an explicit true still defers to the deployment setting
	allow := true
	req = paymentRequest(15000)
	req.PriorityGateways = []types.GatewayType{zp, bm}
	req.AllowFallback = &allow
	res, err := env.manager.CreatePayment(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, bm, res.Gateway)
	require.True(t, res.FallbackUsed)
}

func TestCreatePayment_SlowGatewayTimesOutAndFallsBack(t *testing.T) {
	cfg := testConfig()
	cfg.Gateways.ZarinPal.Timeout = 20 * time.Millisecond
	slow, fast := newFake(zp), newFake(bm)
	slow.createDelay = 5 * time.Second
	env := newTestEnv(t, cfg, slow, fast)

	req := paymentRequest(15000)
	req.PriorityGateways = []types.GatewayType{zp, bm}
	start := time.Now()
	res, err := env.manager.CreatePayment(context.Background(), req)
	require.NoError(t, err)
	require.Less(t, time.Since(start), 2*time.Second)
	require.Equal(t, bm, res.Gateway)
	require.True(t, res.FallbackUsed)
	require.Equal(t, []types.GatewayType{zp, bm}, res.AttemptedGateways)

	s, _ := env.health.Status(zp)
	require.Equal(t, int64(1), s.ErrorCount)
	require.Contains(t, s.LastError, "timed out")

	stored, err := env.archive.Find(context.Background(), res.TransactionID)
	require.NoError(t, err)
	require.True(t, slices.ContainsFunc(stored.Events.Data(), func(e models.PaymentEvent) bool {
		return e.Gateway == zp && strings.Contains(e.Message, "timed out")
	}))
}

func TestCreatePayment_AmountOutsideLimitsMakesNoCalls(t *testing.T) {
	a, b := newFake(zp), newFake(bm)
	env := newTestEnv(t, nil, a, b)

	_, err := env.manager.CreatePayment(context.Background(), paymentRequest(500))
	require.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindValidation, Code: "amount_below_minimum"})

	for _, f := range []*fakeAdapter{a, b} {
		creates, _, _ := f.calls()
		require.Zero(t, creates)
	}
	for _, s := range env.health.Statuses() {
		require.Zero(t, s.TotalCount)
	}
}

func TestCreatePayment_ValidationErrorStopsFallback(t *testing.T) {
	a, b := newFake(zp), newFake(bm)
	a.createErr = apperr.Validation("invalid_request", "rejected")
	env := newTestEnv(t, nil, a, b)

	_, err := env.manager.CreatePayment(context.Background(), paymentRequest(15000))
	require.ErrorIs(t, err, apperr.ErrValidation)
	creates, _, _ := b.calls()
	require.Zero(t, creates)
	s, _ := env.health.Status(zp)
	require.Zero(t, s.TotalCount)
}

func TestCreatePayment_NoHealthyGateway(t *testing.T) {
	a := newFake(zp)
	env := newTestEnv(t, nil, a)
	for range UnhealthyAfter {
		env.health.RecordFailure(zp, time.Millisecond, errors.New("down"))
	}

	_, err := env.manager.CreatePayment(context.Background(), paymentRequest(15000))
	require.ErrorIs(t, err, apperr.ErrGatewayUnavailable)
	creates, _, _ := a.calls()
	require.Zero(t, creates)
}

func TestCreatePayment_FromWallet(t *testing.T) {
	env := newTestEnv(t, nil, newFake(zp))
	ctx := context.Background()
	_, err := env.wallet.Deposit(ctx, &wallet.DepositRequest{UserID: "u-1", Amount: 50000})
	require.NoError(t, err)

	req := paymentRequest(20000)
	req.GatewayType = types.GatewayTypeWallet
	res, err := env.manager.CreatePayment(ctx, req)
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusCompleted, res.Status)
	require.Nil(t, res.ExpiresAt)

	w, err := env.wallet.GetBalance(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, int64(30000), w.Balance)

	_, err = env.manager.CreatePayment(ctx, func() *UnifiedPaymentRequest {
		r := paymentRequest(40000)
		r.PreferredGateway = types.GatewayTypeWallet
		return r
	}())
	require.ErrorIs(t, err, apperr.ErrInsufficientFunds)

	refund, err := env.manager.RefundPayment(ctx, &RefundPaymentRequest{TransactionID: res.TransactionID})
	require.NoError(t, err)
	require.Equal(t, int64(20000), refund.Amount)
	require.Equal(t, types.PaymentStatusRefunded, refund.Status)

	w, err = env.wallet.GetBalance(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, int64(50000), w.Balance)
}

func TestVerifyPayment_UnknownTransactionIsStale(t *testing.T) {
	env := newTestEnv(t, nil, newFake(zp))
	created, err := env.manager.CreatePayment(context.Background(), paymentRequest(15000))
	require.NoError(t, err)

	_, err = env.manager.VerifyPayment(context.Background(), &UnifiedVerificationRequest{TransactionID: "no-such-id"})
	require.ErrorIs(t, err, apperr.ErrStaleTransaction)

	details, err := env.manager.GetTransactionDetails(context.Background(), created.TransactionID, "")
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusPending, details.Status)
	require.Equal(t, 1, env.registry.Len())
}

func TestVerifyPayment_OtherUserIsStale(t *testing.T) {
	env := newTestEnv(t, nil, newFake(zp))
	created, err := env.manager.CreatePayment(context.Background(), paymentRequest(15000))
	require.NoError(t, err)

	_, err = env.manager.VerifyPayment(context.Background(), &UnifiedVerificationRequest{TransactionID: created.TransactionID, UserID: "u-2"})
	require.ErrorIs(t, err, apperr.ErrStaleTransaction)
}

func TestVerifyPayment_CompletesOnce(t *testing.T) {
	fake := newFake(zp)
	env := newTestEnv(t, nil, fake)
	ctx := context.Background()
	created, err := env.manager.CreatePayment(ctx, paymentRequest(15000))
	require.NoError(t, err)

	res, err := env.manager.VerifyPayment(ctx, &UnifiedVerificationRequest{TransactionID: created.TransactionID})
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusCompleted, res.Status)
	require.Equal(t, "ref-"+created.TransactionID, res.ReferenceID)
	require.False(t, res.AlreadyVerified)
	require.False(t, res.WalletCredited)
	require.NotNil(t, res.CompletedAt)

	again, err := env.manager.VerifyPayment(ctx, &UnifiedVerificationRequest{TransactionID: created.TransactionID})
	require.NoError(t, err)
	require.True(t, again.AlreadyVerified)
	_, verifies, _ := fake.calls()
	require.Equal(t, 1, verifies)
}

func TestVerifyPayment_FailureMarksFailed(t *testing.T) {
	fake := newFake(zp)
	fake.verifyErr = apperr.Provider(zp, "payment_failed", "payer cancelled", nil)
	env := newTestEnv(t, nil, fake)
	ctx := context.Background()
	created, err := env.manager.CreatePayment(ctx, paymentRequest(15000))
	require.NoError(t, err)

	_, err = env.manager.VerifyPayment(ctx, &UnifiedVerificationRequest{TransactionID: created.TransactionID})
	require.ErrorIs(t, err, apperr.ErrProvider)

	details, err := env.manager.GetTransactionDetails(ctx, created.TransactionID, "u-1")
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusFailed, details.Status)

	_, err = env.manager.VerifyPayment(ctx, &UnifiedVerificationRequest{TransactionID: created.TransactionID})
	require.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindValidation, Code: "transaction_not_verifiable"})
}

func TestVerifyPayment_ValidationErrorKeepsPaymentOpen(t *testing.T) {
	fake := newFake(zp)
	fake.verifyErr = apperr.Validation("missing_callback_field", "RefNum is required")
	env := newTestEnv(t, nil, fake)
	ctx := context.Background()
	created, err := env.manager.CreatePayment(ctx, paymentRequest(15000))
	require.NoError(t, err)

	_, err = env.manager.VerifyPayment(ctx, &UnifiedVerificationRequest{TransactionID: created.TransactionID})
	require.ErrorIs(t, err, apperr.ErrValidation)

	details, err := env.manager.GetTransactionDetails(ctx, created.TransactionID, "")
	require.NoError(t, err)
	require.True(t, details.Status.Open())
}

func TestVerifyPayment_BankTransferNeedsOperator(t *testing.T) {
	transfer := NewBankTransferAdapter(config.BankTransferConfig{IBAN: "IR000000000000000000000001"}, AmountLimits{Min: 1000, Max: 500_000_000})
	env := newTestEnv(t, nil, transfer)
	ctx := context.Background()

	req := paymentRequest(30000)
	req.Purpose = types.PaymentPurposeWalletCharge
	req.GatewayType = bt
	created, err := env.manager.CreatePayment(ctx, req)
	require.NoError(t, err)

	// the payer fills in what an operator would send
	forged := map[string]string{"confirmed": "true", "bank_reference": "made-up", "reference_code": created.Authority}
	_, err = env.manager.VerifyPayment(ctx, &UnifiedVerificationRequest{TransactionID: created.TransactionID, UserID: "u-1", CallbackData: forged})
	require.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindValidation, Code: "transfer_not_confirmed"})

	details, err := env.manager.GetTransactionDetails(ctx, created.TransactionID, "u-1")
	require.NoError(t, err)
	require.True(t, details.Status.Open())
	w, err := env.wallet.GetBalance(ctx, "u-1")
	require.NoError(t, err)
	require.Zero(t, w.Balance)

	res, err := env.manager.VerifyPayment(ctx, &UnifiedVerificationRequest{
		TransactionID:     created.TransactionID,
		CallbackData:      map[string]string{"confirmed": "true", "bank_reference": "BR-991"},
		OperatorConfirmed: true,
	})
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusCompleted, res.Status)
	require.Equal(t, "BR-991", res.ReferenceID)
	require.True(t, res.WalletCredited)
	w, err = env.wallet.GetBalance(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, int64(30000), w.Balance)
}

func TestVerifyPayment_ConcurrentWalletChargeCreditsOnce(t *testing.T) {
	fake := newFake(zp)
	fake.verifyDelay = 20 * time.Millisecond
	env := newTestEnv(t, nil, fake)
	ctx := context.Background()

	req := paymentRequest(10000)
	req.Purpose = types.PaymentPurposeWalletCharge
	created, err := env.manager.CreatePayment(ctx, req)
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan *VerificationResponse, callers)
	errs := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := env.manager.VerifyPayment(ctx, &UnifiedVerificationRequest{TransactionID: created.TransactionID})
			if err != nil {
				errs <- err
				return
			}
			results <- res
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	require.Empty(t, errs)
	fresh := 0
	for res := range results {
		require.True(t, res.WalletCredited)
		if !res.AlreadyVerified {
			fresh++
		}
	}
	require.Equal(t, 1, fresh)
	_, verifies, _ := fake.calls()
	require.Equal(t, 1, verifies)
	w, err := env.wallet.GetBalance(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, int64(10000), w.Balance)
}

func TestRefundPayment_NeverExceedsPaidAmount(t *testing.T) {
	fake := newFake(zp)
	env := newTestEnv(t, nil, fake)
	ctx := context.Background()
	created, err := env.manager.CreatePayment(ctx, paymentRequest(10000))
	require.NoError(t, err)

	_, err = env.manager.RefundPayment(ctx, &RefundPaymentRequest{TransactionID: created.TransactionID, Amount: 1000})
	require.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindValidation, Code: "transaction_not_refundable"})

	_, err = env.manager.VerifyPayment(ctx, &UnifiedVerificationRequest{TransactionID: created.TransactionID})
	require.NoError(t, err)

	res, err := env.manager.RefundPayment(ctx, &RefundPaymentRequest{TransactionID: created.TransactionID, Amount: 4000})
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusPartiallyRefunded, res.Status)
	require.Equal(t, int64(4000), res.RefundedAmount)

	_, err = env.manager.RefundPayment(ctx, &RefundPaymentRequest{TransactionID: created.TransactionID, Amount: 7000})
	require.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindValidation, Code: "refund_exceeds_remaining"})

	res, err = env.manager.RefundPayment(ctx, &RefundPaymentRequest{TransactionID: created.TransactionID, Amount: 6000})
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusRefunded, res.Status)
	require.Equal(t, int64(10000), res.RefundedAmount)

	_, err = env.manager.RefundPayment(ctx, &RefundPaymentRequest{TransactionID: created.TransactionID, Amount: 1})
	require.ErrorIs(t, err, apperr.ErrValidation)
	_, _, refunds := fake.calls()
	require.Equal(t, 2, refunds)
}

func TestRefundPayment_UnsupportedGateway(t *testing.T) {
	fake := newFake(bm)
	fake.refundable = false
	env := newTestEnv(t, nil, fake)
	ctx := context.Background()
	created, err := env.manager.CreatePayment(ctx, paymentRequest(10000))
	require.NoError(t, err)
	_, err = env.manager.VerifyPayment(ctx, &UnifiedVerificationRequest{TransactionID: created.TransactionID})
	require.NoError(t, err)

	_, err = env.manager.RefundPayment(ctx, &RefundPaymentRequest{TransactionID: created.TransactionID})
	require.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindValidation, Code: "refund_not_supported"})
}

func TestRefundPayment_WalletChargeDebitsWallet(t *testing.T) {
	fake := newFake(zp)
	env := newTestEnv(t, nil, fake)
	ctx := context.Background()

	req := paymentRequest(10000)
	req.Purpose = types.PaymentPurposeWalletCharge
	created, err := env.manager.CreatePayment(ctx, req)
	require.NoError(t, err)
	_, err = env.manager.VerifyPayment(ctx, &UnifiedVerificationRequest{TransactionID: created.TransactionID})
	require.NoError(t, err)

	_, err = env.manager.RefundPayment(ctx, &RefundPaymentRequest{TransactionID: created.TransactionID, Amount: 4000})
	require.NoError(t, err)
	w, err := env.wallet.GetBalance(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, int64(6000), w.Balance)

	fake.mu.Lock()
	fake.refundErr = apperr.Provider(zp, "gateway_unreachable", "down", nil)
	fake.mu.Unlock()
	_, err = env.manager.RefundPayment(ctx, &RefundPaymentRequest{TransactionID: created.TransactionID, Amount: 1000})
	require.ErrorIs(t, err, apperr.ErrProvider)

	w, err = env.wallet.GetBalance(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, int64(6000), w.Balance)
	details, err := env.manager.GetTransactionDetails(ctx, created.TransactionID, "")
	require.NoError(t, err)
	require.Equal(t, int64(4000), details.RefundedAmount)
}

func TestCancelPayment_Evicts(t *testing.T) {
	env := newTestEnv(t, nil, newFake(zp))
	ctx := context.Background()
	created, err := env.manager.CreatePayment(ctx, paymentRequest(10000))
	require.NoError(t, err)

	tx, err := env.manager.CancelPayment(ctx, &CancelPaymentRequest{TransactionID: created.TransactionID, Reason: "changed mind"})
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusCancelled, tx.Status)
	require.Zero(t, env.registry.Len())

	_, err = env.manager.VerifyPayment(ctx, &UnifiedVerificationRequest{TransactionID: created.TransactionID})
	require.ErrorIs(t, err, apperr.ErrStaleTransaction)
	_, err = env.manager.CancelPayment(ctx, &CancelPaymentRequest{TransactionID: created.TransactionID})
	require.ErrorIs(t, err, apperr.ErrStaleTransaction)

	details, err := env.manager.GetTransactionDetails(ctx, created.TransactionID, "u-1")
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusCancelled, details.Status)
}

func TestCleanupExpiredTransactions(t *testing.T) {
	env := newTestEnv(t, nil, newFake(zp))
	ctx := context.Background()

	stale, err := env.manager.CreatePayment(ctx, paymentRequest(10000))
	require.NoError(t, err)
	fresh, err := env.manager.CreatePayment(ctx, paymentRequest(10000))
	require.NoError(t, err)
	done, err := env.manager.CreatePayment(ctx, paymentRequest(10000))
	require.NoError(t, err)
	_, err = env.manager.VerifyPayment(ctx, &UnifiedVerificationRequest{TransactionID: done.TransactionID})
	require.NoError(t, err)

	backdate := func(id string, created, updated time.Duration) {
		e, ok := env.registry.Get(id)
		require.True(t, ok)
		e.Lock()
		e.Tx().CreatedAt = time.Now().Add(-created)
		e.Tx().UpdatedAt = time.Now().Add(-updated)
		e.Unlock()
	}
	backdate(stale.TransactionID, 25*time.Hour, 25*time.Hour)
	backdate(done.TransactionID, 80*time.Hour, 73*time.Hour)

	n, err := env.manager.CleanupExpiredTransactions(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, 1, env.registry.Len())
	require.Equal(t, map[types.PaymentStatus]int{types.PaymentStatusPending: 1}, env.manager.ActiveCounts())

	_, err = env.manager.VerifyPayment(ctx, &UnifiedVerificationRequest{TransactionID: stale.TransactionID})
	require.ErrorIs(t, err, apperr.ErrStaleTransaction)
	details, err := env.manager.GetTransactionDetails(ctx, stale.TransactionID, "")
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusExpired, details.Status)

	// purged payments stay queryable and verify idempotently from the archive
	res, err := env.manager.VerifyPayment(ctx, &UnifiedVerificationRequest{TransactionID: done.TransactionID})
	require.NoError(t, err)
	require.True(t, res.AlreadyVerified)

	_, err = env.manager.GetTransactionDetails(ctx, fresh.TransactionID, "")
	require.NoError(t, err)
}

func TestRefundPayment_RehydratesPurgedPayment(t *testing.T) {
	env := newTestEnv(t, nil, newFake(zp))
	ctx := context.Background()
	created, err := env.manager.CreatePayment(ctx, paymentRequest(10000))
	require.NoError(t, err)
	_, err = env.manager.VerifyPayment(ctx, &UnifiedVerificationRequest{TransactionID: created.TransactionID})
	require.NoError(t, err)

	e, _ := env.registry.Get(created.TransactionID)
	e.Lock()
	env.registry.Remove(created.TransactionID)
	e.Unlock()

	res, err := env.manager.RefundPayment(ctx, &RefundPaymentRequest{TransactionID: created.TransactionID, Amount: 2500})
	require.NoError(t, err)
	require.Equal(t, int64(2500), res.RefundedAmount)
	require.Equal(t, 1, env.registry.Len())
}

func TestGetAvailableGateways(t *testing.T) {
	small := newFake(bm)
	small.limits = AmountLimits{Min: 1000, Max: 20000}
	env := newTestEnv(t, nil, newFake(zp), small)
	for range UnhealthyAfter {
		env.health.RecordFailure(zp, time.Millisecond, errors.New("down"))
	}

	infos := env.manager.GetAvailableGateways(50000)
	require.Len(t, infos, 3)
	byType := map[types.GatewayType]GatewayInfo{}
	for _, info := range infos {
		byType[info.Type] = info
	}
	require.False(t, byType[zp].Eligible)
	require.False(t, byType[zp].Healthy)
	require.False(t, byType[bm].Eligible)
	require.True(t, byType[types.GatewayTypeWallet].Eligible)

	require.True(t, env.manager.GetAvailableGateways(0)[1].Eligible)
}
