package gateway

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/paygate/internal/app/service/wallet"
	"github.com/fatflowers/paygate/internal/models"
	"github.com/fatflowers/paygate/pkg/apperr"
	"github.com/fatflowers/paygate/pkg/config"
	"github.com/fatflowers/paygate/pkg/logctx"
	"github.com/fatflowers/paygate/pkg/metrics"
	"github.com/fatflowers/paygate/pkg/tool"
	"github.com/fatflowers/paygate/pkg/types"
)

// CallbackPath is where providers send the payer back; the gateway name follows.
const CallbackPath = "/api/v1/payment/callback/"

// Manager owns the payment lifecycle: create with fallback, verify, cancel,
// refund and expiry.
type Manager struct {
	cfg      *config.PaymentConfig
	log      *zap.SugaredLogger
	adapters *Adapters
	health   *HealthMonitor
	registry Registry
	archive  Archive
	ledger   Ledger
	notifier OrderNotifier
	metrics  *metrics.PaymentMetrics
	clock    clockz.Clock
}

func NewManager(
	cfg *config.PaymentConfig,
	log *zap.SugaredLogger,
	adapters *Adapters,
	health *HealthMonitor,
	registry Registry,
	archive Archive,
	ledger Ledger,
	notifier OrderNotifier,
	m *metrics.PaymentMetrics,
	clock clockz.Clock,
) *Manager {
	if clock == nil {
		clock = clockz.RealClock
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Manager{
		cfg:      cfg,
		log:      log,
		adapters: adapters,
		health:   health,
		registry: registry,
		archive:  archive,
		ledger:   ledger,
		notifier: notifier,
		metrics:  m,
		clock:    clock,
	}
}

// CreatePayment registers a payment on the wallet or on the best external
// gateway, falling back to the next candidate when a provider fails.
func (m *Manager) CreatePayment(ctx context.Context, req *UnifiedPaymentRequest) (*UnifiedPaymentResponse, error) {
	if err := m.validateCreate(req); err != nil {
		return nil, err
	}
	id := tool.GenerateUUIDV7()
	ctx = logctx.WithTransactionID(ctx, id)

	if req.GatewayType == types.GatewayTypeWallet || req.PreferredGateway == types.GatewayTypeWallet {
		return m.createWalletPayment(ctx, id, req)
	}
	return m.createExternalPayment(ctx, id, req)
}

func (m *Manager) validateCreate(req *UnifiedPaymentRequest) error {
	if req == nil {
		return apperr.Validation("invalid_request", "empty payment request")
	}
	if req.UserID == "" {
		return apperr.Authentication("user identity is required", nil)
	}
	if req.Amount <= 0 {
		return apperr.Validation("invalid_amount", "amount must be positive, got %d", req.Amount)
	}
	if !req.Purpose.Valid() {
		return apperr.Validation("invalid_purpose", "unknown payment purpose %q", req.Purpose)
	}
	if req.Currency != "" && !strings.EqualFold(req.Currency, m.currency()) {
		return apperr.Validation("unsupported_currency", "only %s is supported", m.currency())
	}
	for _, g := range append([]types.GatewayType{req.GatewayType, req.PreferredGateway}, req.PriorityGateways...) {
		if g != "" && !g.Valid() {
			return apperr.Validation("invalid_gateway", "unknown gateway %q", g)
		}
	}
	if req.GatewayType == types.GatewayTypeCrypto {
		return apperr.Validation("unsupported_gateway", "%s payments are not available", types.GatewayTypeCrypto.DisplayName())
	}
	if req.Purpose == types.PaymentPurposeWalletCharge &&
		(req.GatewayType == types.GatewayTypeWallet || req.PreferredGateway == types.GatewayTypeWallet) {
		return apperr.Validation("invalid_gateway", "a wallet cannot be charged from itself")
	}
	if req.MaxRetryAttempts != nil && *req.MaxRetryAttempts < 0 {
		return apperr.Validation("invalid_retry_attempts", "max_retry_attempts must not be negative")
	}
	return nil
}

func (m *Manager) currency() string {
	if m.cfg.Currency != "" {
		return m.cfg.Currency
	}
	return types.DefaultCurrency
}

func (m *Manager) createWalletPayment(ctx context.Context, id string, req *UnifiedPaymentRequest) (*UnifiedPaymentResponse, error) {
	ad, ok := m.adapters.Get(types.GatewayTypeWallet)
	if !ok {
		return nil, apperr.GatewayUnavailable("wallet payments are disabled")
	}
	in := m.createInput(id, req, types.GatewayTypeWallet)
	res, err := m.invokeCreate(ctx, ad, req.UserID, in)
	if err != nil {
		return nil, err
	}

	now := m.clock.Now()
	tx := m.newTransaction(id, req, types.GatewayTypeWallet, now)
	m.applyCreateResult(tx, res, []types.GatewayType{types.GatewayTypeWallet})
	tx.ReferenceID = res.ReferenceID
	if err := tx.Transition(types.PaymentStatusCompleted, now, "paid from wallet"); err != nil {
		return nil, apperr.Internal("failed to complete wallet payment", err)
	}
	if err := m.registry.Add(tx); err != nil {
		return nil, apperr.Internal("failed to register payment", err)
	}
	m.persist(ctx, tx)
	m.notify(ctx, EventPaymentCompleted, tx)

	logctx.FromCtx(ctx, m.log).Infow("wallet payment completed", "user_id", req.UserID, "amount", req.Amount)
	return m.createResponse(tx, res), nil
}

func (m *Manager) createExternalPayment(ctx context.Context, id string, req *UnifiedPaymentRequest) (*UnifiedPaymentResponse, error) {
	healthy := lo.Filter(m.health.HealthyGateways(), func(g types.GatewayType, _ int) bool {
		return g.IsExternal() && g != types.GatewayTypeCrypto
	})
	if len(healthy) == 0 {
		return nil, apperr.GatewayUnavailable("no healthy payment gateway is available")
	}

	// amount limits are checked up front so a bad amount never reaches a provider
	var limitErr error
	pool := make([]types.GatewayType, 0, len(healthy))
	for _, g := range healthy {
		ad, _ := m.adapters.Get(g)
		if err := ad.Limits().Check(g, req.Amount); err != nil {
			if limitErr == nil || g == req.GatewayType || g == req.PreferredGateway {
				limitErr = err
			}
			continue
		}
		pool = append(pool, g)
	}
	if len(pool) == 0 {
		return nil, limitErr
	}

	log := logctx.FromCtx(ctx, m.log)
	maxAttempts := m.maxAttempts(req)
	sel := SelectionRequest{
		Amount:           req.Amount,
		GatewayType:      req.GatewayType,
		PreferredGateway: req.PreferredGateway,
		PriorityGateways: req.PriorityGateways,
		ExcludeGateways:  req.ExcludeGateways,
	}

	var (
		attempted []types.GatewayType
		failures  []models.PaymentEvent
		lastErr   error
	)
	for g := range m.candidates(sel, pool) {
		if len(attempted) >= maxAttempts {
			break
		}
		attempted = append(attempted, g)
		ad, _ := m.adapters.Get(g)
		in := m.createInput(id, req, g)

		res, err := m.invokeCreate(ctx, ad, req.UserID, in)
		if err == nil {
			return m.registerExternal(ctx, id, req, g, in, res, attempted, failures)
		}

		lastErr = err
		failures = append(failures, models.PaymentEvent{At: m.clock.Now(), Gateway: g, Message: err.Error()})
		log.Warnw("gateway create failed", "gateway", g, "attempt", len(attempted), "error", err)
		if !apperr.Retryable(err) {
			return nil, err
		}
		if !m.fallbackAllowed(req) {
			break
		}
	}

	if lastErr == nil {
		return nil, apperr.GatewayUnavailable("no payment gateway matches the request")
	}
	m.archiveFailedCreate(ctx, id, req, attempted, failures)
	// the caller sees the last provider's own classification
	out := apperr.As(lastErr)
	detail := map[string]any{"attempted_gateways": attempted}
	if prev, ok := out.Detail.(map[string]any); ok {
		for k, v := range prev {
			detail[k] = v
		}
	}
	return nil, out.WithDetail(detail)
}

// fallbackAllowed is false when either the deployment or the request turns
// fallback off.
func (m *Manager) fallbackAllowed(req *UnifiedPaymentRequest) bool {
	if !m.cfg.FallbackEnabled {
		return false
	}
	return req.AllowFallback == nil || *req.AllowFallback
}

// candidates yields gateways from pool, re-selecting after every attempt
// with fresh health scores. Each yielded gateway leaves the pool, so the
// sequence is finite and never repeats.
func (m *Manager) candidates(sel SelectionRequest, pool []types.GatewayType) iter.Seq[types.GatewayType] {
	return func(yield func(types.GatewayType) bool) {
		remaining := slices.Clone(pool)
		for len(remaining) > 0 {
			g, ok := SelectOptimalGateway(sel, remaining, m.health.Snapshot(), m.selectorOptions())
			if !ok {
				return
			}
			remaining = lo.Without(remaining, g)
			if !yield(g) {
				return
			}
		}
	}
}

func (m *Manager) selectorOptions() SelectorOptions {
	return SelectorOptions{
		LoadBalancing:  m.cfg.LoadBalancingEnabled,
		DefaultGateway: m.cfg.DefaultGateway,
		TieWindow:      DefaultTieWindow,
	}
}

func (m *Manager) maxAttempts(req *UnifiedPaymentRequest) int {
	if !m.fallbackAllowed(req) {
		return 1
	}
	retries := m.cfg.MaxRetryAttempts
	if req.MaxRetryAttempts != nil {
		retries = *req.MaxRetryAttempts
	}
	return retries + 1
}

func (m *Manager) createInput(id string, req *UnifiedPaymentRequest, g types.GatewayType) *CreateInput {
	return &CreateInput{
		TransactionID: id,
		Amount:        req.Amount,
		Currency:      m.currency(),
		Description:   req.Description,
		CallbackURL:   m.callbackURL(req, id, g),
		Mobile:        req.Mobile,
		Email:         req.Email,
		OrderID:       req.OrderID,
		Purpose:       req.Purpose,
		Metadata:      req.Metadata,
	}
}

func (m *Manager) callbackURL(req *UnifiedPaymentRequest, id string, g types.GatewayType) string {
	if req.CallbackURL != "" {
		return req.CallbackURL
	}
	q := url.Values{}
	q.Set("transaction_id", id)
	return strings.TrimRight(m.cfg.CallbackBaseURL, "/") + CallbackPath + string(g) + "?" + q.Encode()
}

func (m *Manager) invokeCreate(ctx context.Context, ad Adapter, userID string, in *CreateInput) (*CreateResult, error) {
	g := ad.Type()
	cctx, cancel := m.clock.WithTimeout(ctx, m.cfg.Timeout(g))
	defer cancel()

	start := m.clock.Now()
	res, err := ad.CreatePaymentRequest(cctx, userID, in)
	elapsed := m.clock.Now().Sub(start)
	m.metrics.ObserveGatewayCall(string(g), "create", elapsed, err)
	m.recordOutcome(g, elapsed, err)
	return res, err
}

// recordOutcome feeds the health score. Validation, balance and storage
// errors say nothing about the gateway and are not counted.
func (m *Manager) recordOutcome(g types.GatewayType, elapsed time.Duration, err error) {
	switch {
	case err == nil:
		m.health.RecordSuccess(g, elapsed)
	case apperr.Retryable(err), apperr.KindOf(err) == apperr.KindSettlementInconsistency:
		m.health.RecordFailure(g, elapsed, err)
	}
}

func (m *Manager) newTransaction(id string, req *UnifiedPaymentRequest, g types.GatewayType, now time.Time) *models.PaymentTransaction {
	tx := &models.PaymentTransaction{
		ID:            id,
		UserID:        req.UserID,
		Amount:        req.Amount,
		Currency:      m.currency(),
		Purpose:       req.Purpose,
		PaymentMethod: g,
		Status:        types.PaymentStatusPending,
		Description:   req.Description,
		OrderID:       lo.EmptyableToPtr(req.OrderID),
		InvoiceID:     lo.EmptyableToPtr(req.InvoiceID),
		FinalAmount:   req.Amount,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	tx.AppendEvent(models.PaymentEvent{At: now, To: types.PaymentStatusPending, Gateway: g, Message: "payment created"})
	return tx
}

func (m *Manager) applyCreateResult(tx *models.PaymentTransaction, res *CreateResult, attempted []types.GatewayType) {
	tx.Authority = res.Authority
	tx.GatewayFee = res.Fee
	tx.FallbackUsed = len(attempted) > 1
	tx.AttemptedGateways = datatypes.NewJSONType(attempted)
	for k, v := range res.GatewayData {
		tx.SetGatewayData(k, v)
	}
	if len(res.Instructions) > 0 {
		tx.SetGatewayData("instructions", res.Instructions)
	}
}

func (m *Manager) registerExternal(
	ctx context.Context,
	id string,
	req *UnifiedPaymentRequest,
	g types.GatewayType,
	in *CreateInput,
	res *CreateResult,
	attempted []types.GatewayType,
	failures []models.PaymentEvent,
) (*UnifiedPaymentResponse, error) {
	now := m.clock.Now()
	tx := m.newTransaction(id, req, g, now)
	for _, f := range failures {
		f.To = types.PaymentStatusPending
		tx.AppendEvent(f)
	}
	m.applyCreateResult(tx, res, attempted)
	tx.SetGatewayData("callback_url", in.CallbackURL)

	if err := m.registry.Add(tx); err != nil {
		return nil, apperr.Internal("failed to register payment", err)
	}
	m.persist(ctx, tx)

	logctx.FromCtx(ctx, m.log).Infow("payment created",
		"gateway", g, "user_id", req.UserID, "amount", req.Amount, "attempts", len(attempted))
	return m.createResponse(tx, res), nil
}

// archiveFailedCreate keeps a failed record for statistics. It never enters
// the active registry.
func (m *Manager) archiveFailedCreate(ctx context.Context, id string, req *UnifiedPaymentRequest, attempted []types.GatewayType, failures []models.PaymentEvent) {
	now := m.clock.Now()
	g := attempted[len(attempted)-1]
	tx := m.newTransaction(id, req, g, now)
	tx.AttemptedGateways = datatypes.NewJSONType(attempted)
	tx.FallbackUsed = len(attempted) > 1
	for _, f := range failures {
		f.To = types.PaymentStatusPending
		tx.AppendEvent(f)
	}
	_ = tx.Transition(types.PaymentStatusFailed, now, "all gateway attempts failed")
	m.persist(ctx, tx)
}

func (m *Manager) createResponse(tx *models.PaymentTransaction, res *CreateResult) *UnifiedPaymentResponse {
	out := &UnifiedPaymentResponse{
		TransactionID:     tx.ID,
		Status:            tx.Status,
		Gateway:           tx.PaymentMethod,
		Amount:            tx.Amount,
		Currency:          tx.Currency,
		Authority:         res.Authority,
		PaymentURL:        res.PaymentURL,
		RedirectMethod:    res.RedirectVerb,
		FormFields:        res.FormFields,
		Instructions:      res.Instructions,
		Fee:               res.Fee,
		FallbackUsed:      tx.FallbackUsed,
		AttemptedGateways: tx.AttemptedGateways.Data(),
	}
	if tx.Status.Open() && m.cfg.TransactionTTL > 0 {
		exp := tx.CreatedAt.Add(m.cfg.TransactionTTL)
		out.ExpiresAt = &exp
	}
	return out
}

// VerifyPayment resolves a payment through the gateway it was created on.
// The entry lock is held across the provider call, so concurrent verifies
// of one payment settle and credit it at most once.
func (m *Manager) VerifyPayment(ctx context.Context, req *UnifiedVerificationRequest) (*VerificationResponse, error) {
	if req == nil || req.TransactionID == "" {
		return nil, apperr.Validation("invalid_request", "transaction id is required")
	}
	ctx = logctx.WithTransactionID(ctx, req.TransactionID)

	e, ok := m.registry.Get(req.TransactionID)
	if !ok {
		return m.verifyArchived(ctx, req)
	}
	e.Lock()
	defer e.Unlock()
	if e.Removed() {
		return nil, apperr.StaleTransaction(req.TransactionID)
	}
	tx := e.Tx()
	if req.UserID != "" && tx.UserID != req.UserID {
		return nil, apperr.StaleTransaction(req.TransactionID)
	}
	if tx.Status.Settled() {
		return verificationResponse(tx, true), nil
	}
	if !tx.Status.Open() {
		return nil, apperr.Validation("transaction_not_verifiable", "payment is %s", tx.Status)
	}
	if req.Authority != "" && tx.Authority != "" && req.Authority != tx.Authority {
		return nil, apperr.Validation("authority_mismatch", "authority does not match the payment")
	}
	ad, ok := m.adapters.Get(tx.PaymentMethod)
	if !ok {
		return nil, apperr.GatewayUnavailable(fmt.Sprintf("%s is no longer registered", tx.PaymentMethod.DisplayName()))
	}

	log := logctx.FromCtx(ctx, m.log)
	if tx.Status == types.PaymentStatusPending {
		if err := tx.Transition(types.PaymentStatusProcessing, m.clock.Now(), "verification started"); err != nil {
			return nil, apperr.Internal("failed to start verification", err)
		}
		m.persist(ctx, tx)
	}

	res, err := m.invokeVerify(ctx, ad, tx, req)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindValidation {
			return nil, err
		}
		if terr := tx.Transition(types.PaymentStatusFailed, m.clock.Now(), err.Error()); terr != nil {
			log.Errorf("failed to mark payment failed: %v", terr)
		}
		m.persist(ctx, tx)
		log.Warnw("payment verification failed", "gateway", tx.PaymentMethod, "error", err)
		return nil, err
	}

	finalAmount := res.Amount
	if finalAmount <= 0 {
		finalAmount = tx.Amount
	}
	credited := false
	if tx.Purpose == types.PaymentPurposeWalletCharge {
		// credit before completing so a ledger failure leaves the payment
		// verifiable; providers answer a repeated verify idempotently
		if _, err := m.ledger.Deposit(ctx, &wallet.DepositRequest{
			UserID:         tx.UserID,
			Amount:         finalAmount,
			Method:         string(tx.PaymentMethod),
			Description:    "wallet charge " + tx.ID,
			ReferenceID:    tx.ID,
			IdempotencyKey: creditKey(tx.ID),
			ProcessedBy:    wallet.SystemActor,
		}); err != nil {
			log.Errorf("failed to credit wallet for verified payment: %v", err)
			return nil, err
		}
		credited = true
	}

	now := m.clock.Now()
	tx.ReferenceID = res.ReferenceID
	tx.TrackingCode = res.TrackingCode
	tx.CardPAN = res.CardPAN
	tx.FinalAmount = finalAmount
	if res.Fee > 0 {
		tx.GatewayFee = res.Fee
	}
	for k, v := range res.GatewayData {
		tx.SetGatewayData(k, v)
	}
	if res.CardHash != "" {
		tx.SetGatewayData("card_hash", res.CardHash)
	}
	if credited {
		tx.SetGatewayData("wallet_credited", true)
	}
	if err := tx.Transition(types.PaymentStatusCompleted, now, "payment verified"); err != nil {
		return nil, apperr.Internal("failed to complete payment", err)
	}
	m.persist(ctx, tx)
	m.notify(ctx, EventPaymentCompleted, tx)

	log.Infow("payment verified", "gateway", tx.PaymentMethod, "reference_id", tx.ReferenceID, "wallet_credited", credited)
	out := verificationResponse(tx, false)
	out.WalletCredited = credited
	return out, nil
}

func (m *Manager) verifyArchived(ctx context.Context, req *UnifiedVerificationRequest) (*VerificationResponse, error) {
	tx, err := m.archive.Find(ctx, req.TransactionID)
	if err != nil {
		return nil, apperr.Internal("failed to load payment", err)
	}
	if tx == nil || !tx.Status.Settled() || (req.UserID != "" && tx.UserID != req.UserID) {
		return nil, apperr.StaleTransaction(req.TransactionID)
	}
	return verificationResponse(tx, true), nil
}

func (m *Manager) invokeVerify(ctx context.Context, ad Adapter, tx *models.PaymentTransaction, req *UnifiedVerificationRequest) (*VerifyResult, error) {
	g := ad.Type()
	vctx, cancel := m.clock.WithTimeout(ctx, m.cfg.Timeout(g))
	defer cancel()

	start := m.clock.Now()
	res, err := ad.VerifyPayment(vctx, tx.UserID, &VerifyInput{
		TransactionID: tx.ID,
		Amount:        tx.Amount,
		Authority:     tx.Authority,
		ReferenceID:   tx.ReferenceID,
		GatewayData:   tx.GatewayData,
		CallbackData:  req.CallbackData,

		OperatorConfirmed: req.OperatorConfirmed,
	})
	elapsed := m.clock.Now().Sub(start)
	m.metrics.ObserveGatewayCall(string(g), "verify", elapsed, err)
	m.recordOutcome(g, elapsed, err)
	return res, err
}

func verificationResponse(tx *models.PaymentTransaction, already bool) *VerificationResponse {
	credited, _ := tx.GatewayData["wallet_credited"].(bool)
	return &VerificationResponse{
		TransactionID:   tx.ID,
		Status:          tx.Status,
		Gateway:         tx.PaymentMethod,
		Amount:          tx.Amount,
		FinalAmount:     tx.FinalAmount,
		ReferenceID:     tx.ReferenceID,
		TrackingCode:    tx.TrackingCode,
		CardPAN:         tx.CardPAN,
		CompletedAt:     tx.CompletedAt,
		WalletCredited:  credited,
		AlreadyVerified: already,
	}
}

func creditKey(transactionID string) string {
	return "payment:" + transactionID + ":credit"
}

// CancelPayment abandons an open payment and evicts it.
func (m *Manager) CancelPayment(ctx context.Context, req *CancelPaymentRequest) (*models.PaymentTransaction, error) {
	if req == nil || req.TransactionID == "" {
		return nil, apperr.Validation("invalid_request", "transaction id is required")
	}
	ctx = logctx.WithTransactionID(ctx, req.TransactionID)

	e, ok := m.registry.Get(req.TransactionID)
	if !ok {
		return nil, apperr.StaleTransaction(req.TransactionID)
	}
	e.Lock()
	defer e.Unlock()
	if e.Removed() {
		return nil, apperr.StaleTransaction(req.TransactionID)
	}
	tx := e.Tx()
	if req.UserID != "" && tx.UserID != req.UserID {
		return nil, apperr.StaleTransaction(req.TransactionID)
	}
	if !tx.Status.Open() {
		return nil, apperr.Validation("transaction_not_cancellable", "payment is %s", tx.Status)
	}
	reason := req.Reason
	if reason == "" {
		reason = "cancelled"
	}
	if err := tx.Transition(types.PaymentStatusCancelled, m.clock.Now(), reason); err != nil {
		return nil, apperr.Internal("failed to cancel payment", err)
	}
	m.persist(ctx, tx)
	m.registry.Remove(tx.ID)

	logctx.FromCtx(ctx, m.log).Infow("payment cancelled", "reason", reason)
	return tx.Clone(), nil
}

// RefundPayment returns money for a completed payment. Refunds accumulate and
// never exceed the settled amount.
func (m *Manager) RefundPayment(ctx context.Context, req *RefundPaymentRequest) (*RefundPaymentResponse, error) {
	if req == nil || req.TransactionID == "" {
		return nil, apperr.Validation("invalid_request", "transaction id is required")
	}
	if req.Amount < 0 {
		return nil, apperr.Validation("invalid_amount", "refund amount must not be negative")
	}
	ctx = logctx.WithTransactionID(ctx, req.TransactionID)

	e, err := m.refundEntry(ctx, req.TransactionID)
	if err != nil {
		return nil, err
	}
	e.Lock()
	defer e.Unlock()
	if e.Removed() {
		return nil, apperr.StaleTransaction(req.TransactionID)
	}
	tx := e.Tx()
	if req.UserID != "" && tx.UserID != req.UserID {
		return nil, apperr.StaleTransaction(req.TransactionID)
	}
	if !tx.Status.Refundable() {
		return nil, apperr.Validation("transaction_not_refundable", "payment is %s", tx.Status)
	}
	amount := req.Amount
	if amount == 0 {
		amount = tx.RefundableAmount()
	}
	if amount > tx.RefundableAmount() {
		return nil, apperr.Validation("refund_exceeds_remaining", "refund %d exceeds the refundable %d", amount, tx.RefundableAmount())
	}
	ad, ok := m.adapters.Get(tx.PaymentMethod)
	if !ok {
		return nil, apperr.GatewayUnavailable(fmt.Sprintf("%s is no longer registered", tx.PaymentMethod.DisplayName()))
	}
	if !ad.SupportsRefund() {
		return nil, refundNotSupported(tx.PaymentMethod)
	}

	log := logctx.FromCtx(ctx, m.log)
	reason := req.Reason
	if reason == "" {
		reason = "refund"
	}

	// a charged wallet gives the money back before the provider returns it
	var restore func()
	if tx.Purpose == types.PaymentPurposeWalletCharge && tx.PaymentMethod != types.GatewayTypeWallet {
		attempt := tool.GenerateUUIDV7()
		if _, err := m.ledger.Withdraw(ctx, &wallet.WithdrawRequest{
			UserID:         tx.UserID,
			Amount:         amount,
			Method:         string(tx.PaymentMethod),
			Description:    "refund of wallet charge " + tx.ID,
			ReferenceID:    tx.ID,
			IdempotencyKey: "payment:" + tx.ID + ":refund:" + attempt + ":debit",
			ProcessedBy:    actor(req.ProcessedBy),
		}); err != nil {
			return nil, err
		}
		restore = func() {
			_, rerr := m.ledger.Deposit(ctx, &wallet.DepositRequest{
				UserID:         tx.UserID,
				Amount:         amount,
				Method:         string(tx.PaymentMethod),
				Description:    "failed refund of wallet charge " + tx.ID,
				ReferenceID:    tx.ID,
				IdempotencyKey: "payment:" + tx.ID + ":refund:" + attempt + ":restore",
				ProcessedBy:    wallet.SystemActor,
			})
			if rerr != nil {
				log.Errorf("failed to restore wallet after failed refund: %v", rerr)
			}
		}
	}

	res, err := m.invokeRefund(ctx, ad, &RefundInput{
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Amount:        amount,
		PaidAmount:    tx.FinalAmount,
		Reason:        reason,
		Authority:     tx.Authority,
		ReferenceID:   tx.ReferenceID,
		GatewayData:   tx.GatewayData,
	})
	if err != nil {
		if restore != nil {
			restore()
		}
		log.Warnw("refund failed", "gateway", tx.PaymentMethod, "amount", amount, "error", err)
		return nil, err
	}

	now := m.clock.Now()
	if err := tx.ApplyRefund(amount, now, reason); err != nil {
		return nil, apperr.Internal("failed to record refund", err)
	}
	refunds, _ := tx.GatewayData["refunds"].([]any)
	tx.SetGatewayData("refunds", append(refunds, map[string]any{
		"refund_id":    res.RefundID,
		"amount":       amount,
		"status":       res.Status,
		"at":           now,
		"processed_by": actor(req.ProcessedBy),
	}))
	m.persist(ctx, tx)
	m.notify(ctx, EventPaymentRefunded, tx)

	log.Infow("payment refunded", "gateway", tx.PaymentMethod, "amount", amount, "refunded_total", tx.RefundedAmount)
	return &RefundPaymentResponse{
		TransactionID:  tx.ID,
		RefundID:       res.RefundID,
		Amount:         amount,
		RefundedAmount: tx.RefundedAmount,
		Status:         tx.Status,
	}, nil
}

// refundEntry finds the payment in the registry, bringing it back from the
// archive when it was already evicted.
func (m *Manager) refundEntry(ctx context.Context, id string) (*Entry, error) {
	if e, ok := m.registry.Get(id); ok {
		return e, nil
	}
	tx, err := m.archive.Find(ctx, id)
	if err != nil {
		return nil, apperr.Internal("failed to load payment", err)
	}
	if tx == nil {
		return nil, apperr.StaleTransaction(id)
	}
	if !tx.Status.Refundable() {
		return nil, apperr.Validation("transaction_not_refundable", "payment is %s", tx.Status)
	}
	if err := m.registry.Add(tx); err != nil {
		// lost a race with another refund loading the same payment
		if e, ok := m.registry.Get(id); ok {
			return e, nil
		}
		return nil, apperr.Internal("failed to load payment", err)
	}
	e, _ := m.registry.Get(id)
	return e, nil
}

func (m *Manager) invokeRefund(ctx context.Context, ad Adapter, in *RefundInput) (*RefundResult, error) {
	g := ad.Type()
	rctx, cancel := m.clock.WithTimeout(ctx, m.cfg.Timeout(g))
	defer cancel()

	start := m.clock.Now()
	res, err := ad.RefundPayment(rctx, in)
	m.metrics.ObserveGatewayCall(string(g), "refund", m.clock.Now().Sub(start), err)
	return res, err
}

// CleanupExpiredTransactions expires open payments older than the TTL and
// drops finished ones past the retention window. Only expirations count.
func (m *Manager) CleanupExpiredTransactions(ctx context.Context) (int, error) {
	now := m.clock.Now()
	expired, purged := 0, 0
	for _, e := range m.registry.Entries() {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		e.Lock()
		if e.Removed() {
			e.Unlock()
			continue
		}
		tx := e.Tx()
		switch {
		case tx.Status.Open() && m.cfg.TransactionTTL > 0 && now.Sub(tx.CreatedAt) > m.cfg.TransactionTTL:
			if err := tx.Transition(types.PaymentStatusExpired, now, "expired"); err == nil {
				m.persist(ctx, tx)
				m.registry.Remove(tx.ID)
				expired++
			}
		case !tx.Status.Open() && m.cfg.TerminalRetention > 0 && now.Sub(tx.UpdatedAt) > m.cfg.TerminalRetention:
			m.registry.Remove(tx.ID)
			purged++
		}
		e.Unlock()
	}
	m.metrics.AddExpired(expired)
	if expired > 0 || purged > 0 {
		logctx.FromCtx(ctx, m.log).Infow("payment sweep finished", "expired", expired, "purged", purged, "active", m.registry.Len())
	}
	return expired, nil
}

// GetTransactionDetails returns the live payment or, once evicted, its archived copy.
func (m *Manager) GetTransactionDetails(ctx context.Context, id, userID string) (*models.PaymentTransaction, error) {
	if id == "" {
		return nil, apperr.Validation("invalid_request", "transaction id is required")
	}
	var tx *models.PaymentTransaction
	if e, ok := m.registry.Get(id); ok {
		tx = e.View()
	} else {
		var err error
		if tx, err = m.archive.Find(ctx, id); err != nil {
			return nil, apperr.Internal("failed to load payment", err)
		}
	}
	if tx == nil || (userID != "" && tx.UserID != userID) {
		return nil, apperr.StaleTransaction(id)
	}
	return tx, nil
}

// FindTransactionID maps a provider authority back to our payment id.
func (m *Manager) FindTransactionID(ctx context.Context, g types.GatewayType, authority string) (string, error) {
	if id, ok := m.registry.FindByAuthority(g, authority); ok {
		return id, nil
	}
	tx, err := m.archive.FindByAuthority(ctx, g, authority)
	if err != nil {
		return "", apperr.Internal("failed to look up authority", err)
	}
	if tx == nil {
		return "", apperr.StaleTransaction(authority)
	}
	return tx.ID, nil
}

// GetAvailableGateways lists registered gateways; Eligible marks those that
// are healthy and accept amount (zero skips the amount check).
func (m *Manager) GetAvailableGateways(amount int64) []GatewayInfo {
	out := make([]GatewayInfo, 0)
	for _, g := range m.adapters.Types() {
		ad, _ := m.adapters.Get(g)
		status, _ := m.health.Status(g)
		info := GatewayInfo{
			Type:           g,
			Name:           g.DisplayName(),
			Healthy:        status.IsHealthy,
			Limits:         ad.Limits(),
			SupportsRefund: ad.SupportsRefund(),
		}
		info.Eligible = info.Healthy && (amount == 0 || ad.Limits().Check(g, amount) == nil)
		out = append(out, info)
	}
	return out
}

func (m *Manager) GetGatewayHealthStatus() []GatewayHealthStatus {
	return m.health.Statuses()
}

// CheckGatewayHealth probes every gateway now instead of waiting for the next tick.
func (m *Manager) CheckGatewayHealth(ctx context.Context) []GatewayHealthStatus {
	m.health.CheckAll(ctx)
	return m.health.Statuses()
}

// ActiveCounts tallies the registry by status.
func (m *Manager) ActiveCounts() map[types.PaymentStatus]int {
	out := make(map[types.PaymentStatus]int)
	for _, e := range m.registry.Entries() {
		e.Lock()
		if !e.Removed() {
			out[e.Tx().Status]++
		}
		e.Unlock()
	}
	return out
}

func (m *Manager) ListTransactions(ctx context.Context, req *ListTransactionsRequest) (*ListTransactionsResponse, error) {
	res, err := m.archive.List(ctx, req)
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperr.Internal("failed to list payments", err)
	}
	return res, nil
}

func (m *Manager) persist(ctx context.Context, tx *models.PaymentTransaction) {
	if err := m.archive.Save(ctx, tx.Clone()); err != nil {
		logctx.FromCtx(ctx, m.log).Errorf("failed to archive payment: %v", err)
	}
}

func (m *Manager) notify(ctx context.Context, event string, tx *models.PaymentTransaction) {
	ev := newOrderEvent(event, tx)
	log := logctx.FromCtx(ctx, m.log)
	go func() {
		nctx, cancel := m.clock.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := m.notifier.Notify(nctx, ev); err != nil {
			log.Warnw("order notification failed", "event", ev.Event, "error", err)
		}
	}()
}

func actor(processedBy string) string {
	if processedBy == "" {
		return wallet.SystemActor
	}
	return processedBy
}
