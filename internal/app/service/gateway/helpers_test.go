package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"

	"github.com/fatflowers/paygate/internal/app/service/wallet"
	"github.com/fatflowers/paygate/internal/platform/db/dbtest"
	"github.com/fatflowers/paygate/pkg/apperr"
	"github.com/fatflowers/paygate/pkg/config"
	"github.com/fatflowers/paygate/pkg/types"
)

// fakeAdapter records calls and answers with canned results.
type fakeAdapter struct {
	adapterBase
	refundable bool

	mu          sync.Mutex
	createErr   error
	verifyErr   error
	refundErr   error
	healthErr   error
	createDelay time.Duration
	verifyDelay time.Duration
	creates     int
	verifies    int
	refunds     int
}

func newFake(g types.GatewayType) *fakeAdapter {
	return &fakeAdapter{adapterBase: adapterBase{gateway: g, limits: AmountLimits{Min: 1000, Max: 500_000_000}}, refundable: true}
}

func (f *fakeAdapter) failing() *fakeAdapter {
	f.createErr = apperr.Provider(f.gateway, "gateway_unreachable", "down", nil)
	return f
}

func (f *fakeAdapter) SupportsRefund() bool { return f.refundable }

func (f *fakeAdapter) CreatePaymentRequest(ctx context.Context, userID string, in *CreateInput) (*CreateResult, error) {
	f.mu.Lock()
	f.creates++
	err, delay := f.createErr, f.createDelay
	f.mu.Unlock()
	if delay > 0 {
		// behaves like a provider that stops answering
		select {
		case <-ctx.Done():
			return nil, transportError(f.gateway, "create", ctx.Err())
		case <-time.After(delay):
		}
	}
	if err != nil {
		return nil, err
	}
	return &CreateResult{
		Authority:    "auth-" + in.TransactionID,
		PaymentURL:   "https://pay.example/" + in.TransactionID,
		RedirectVerb: "GET",
		Status:       types.PaymentStatusPending,
	}, nil
}

func (f *fakeAdapter) VerifyPayment(ctx context.Context, userID string, in *VerifyInput) (*VerifyResult, error) {
	f.mu.Lock()
	f.verifies++
	err, delay := f.verifyErr, f.verifyDelay
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	return &VerifyResult{ReferenceID: "ref-" + in.TransactionID, TrackingCode: "trk", Amount: in.Amount}, nil
}

func (f *fakeAdapter) RefundPayment(ctx context.Context, in *RefundInput) (*RefundResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refunds++
	if f.refundErr != nil {
		return nil, f.refundErr
	}
	return &RefundResult{RefundID: "rf-" + in.TransactionID, Amount: in.Amount, Status: "done"}, nil
}

func (f *fakeAdapter) HealthCheck(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.healthErr
}

func (f *fakeAdapter) calls() (creates, verifies, refunds int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates, f.verifies, f.refunds
}

type testEnv struct {
	manager  *Manager
	health   *HealthMonitor
	registry Registry
	archive  Archive
	wallet   *wallet.Service
	cfg      *config.PaymentConfig
}

func testConfig() *config.PaymentConfig {
	return &config.PaymentConfig{
		CallbackBaseURL:      "http://localhost:8888",
		FallbackEnabled:      true,
		MaxRetryAttempts:     3,
		LoadBalancingEnabled: true,
		TransactionTTL:       24 * time.Hour,
		TerminalRetention:    72 * time.Hour,
		Currency:             types.DefaultCurrency,
	}
}

// newTestEnv wires a manager over the given adapters plus a real wallet
// adapter backed by sqlite.
func newTestEnv(t *testing.T, cfg *config.PaymentConfig, fakes ...Adapter) *testEnv {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	log := zap.NewNop().Sugar()
	db := dbtest.New(t)
	ledger := wallet.NewService(db, log, cfg, nil, clockz.RealClock)

	list := append([]Adapter{NewWalletAdapter(ledger, AmountLimits{Min: 1})}, fakes...)
	adapters, err := NewAdapters(list...)
	require.NoError(t, err)

	health := NewHealthMonitor(adapters, cfg, log, nil, clockz.RealClock)
	registry := NewMemoryRegistry()
	archive := NewGormArchive(db)
	m := NewManager(cfg, log, adapters, health, registry, archive, ledger, nil, nil, clockz.RealClock)
	return &testEnv{manager: m, health: health, registry: registry, archive: archive, wallet: ledger, cfg: cfg}
}

func paymentRequest(amount int64) *UnifiedPaymentRequest {
	return &UnifiedPaymentRequest{UserID: "u-1", Amount: amount, Purpose: types.PaymentPurposeCoursePurchase}
}
