// Package wallet is the internal balance ledger. It doubles as a payment
// method and as the settlement target of external wallet charges.
package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/paygate/internal/models"
	"github.com/fatflowers/paygate/pkg/apperr"
	"github.com/fatflowers/paygate/pkg/config"
	"github.com/fatflowers/paygate/pkg/logctx"
	"github.com/fatflowers/paygate/pkg/metrics"
	"github.com/fatflowers/paygate/pkg/tool"
	"github.com/fatflowers/paygate/pkg/types"
)

// SystemActor is recorded as processed_by when no operator is named.
const SystemActor = "system"

type Service struct {
	db       *gorm.DB
	log      *zap.SugaredLogger
	metrics  *metrics.PaymentMetrics
	clock    clockz.Clock
	currency string
	locks    *keyedMutex
}

func NewService(db *gorm.DB, log *zap.SugaredLogger, cfg *config.PaymentConfig, m *metrics.PaymentMetrics, clock clockz.Clock) *Service {
	currency := cfg.Currency
	if currency == "" {
		currency = types.DefaultCurrency
	}
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Service{db: db, log: log, metrics: m, clock: clock, currency: currency, locks: newKeyedMutex()}
}

// GetOrCreateWallet returns the user's wallet, creating an empty active one
// on first use.
func (s *Service) GetOrCreateWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	if userID == "" {
		return nil, apperr.Validation("invalid_user", "user id is required")
	}
	var w *models.Wallet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		w, err = s.loadWallet(tx, userID, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// GetBalance is GetOrCreateWallet under the name the API uses.
func (s *Service) GetBalance(ctx context.Context, userID string) (*models.Wallet, error) {
	return s.GetOrCreateWallet(ctx, userID)
}

func (s *Service) Deposit(ctx context.Context, req *DepositRequest) (*Result, error) {
	if req == nil {
		return nil, apperr.Validation("invalid_request", "nil deposit request")
	}
	kind := req.Type
	if kind == "" {
		kind = types.WalletTransactionTypeDeposit
	}
	if kind != types.WalletTransactionTypeDeposit && kind != types.WalletTransactionTypeBonus {
		return nil, apperr.Validation("invalid_type", "deposit type must be deposit or bonus, got %q", kind)
	}
	return s.apply(ctx, mutation{
		userID:         req.UserID,
		direction:      types.WalletDirectionCredit,
		kind:           kind,
		amount:         req.Amount,
		method:         req.Method,
		description:    req.Description,
		referenceID:    req.ReferenceID,
		idempotencyKey: req.IdempotencyKey,
		processedBy:    req.ProcessedBy,
		extra:          req.Extra,
	})
}

func (s *Service) Withdraw(ctx context.Context, req *WithdrawRequest) (*Result, error) {
	if req == nil {
		return nil, apperr.Validation("invalid_request", "nil withdraw request")
	}
	kind := req.Type
	if kind == "" {
		kind = types.WalletTransactionTypeWithdrawal
	}
	if kind != types.WalletTransactionTypeWithdrawal && kind != types.WalletTransactionTypePenalty {
		return nil, apperr.Validation("invalid_type", "withdraw type must be withdrawal or penalty, got %q", kind)
	}
	return s.apply(ctx, mutation{
		userID:         req.UserID,
		direction:      types.WalletDirectionDebit,
		kind:           kind,
		amount:         req.Amount,
		method:         req.Method,
		description:    req.Description,
		referenceID:    req.ReferenceID,
		idempotencyKey: req.IdempotencyKey,
		processedBy:    req.ProcessedBy,
		extra:          req.Extra,
	})
}

// Bonus credits a promotional amount.
func (s *Service) Bonus(ctx context.Context, userID string, amount int64, description, processedBy string) (*Result, error) {
	return s.Deposit(ctx, &DepositRequest{
		UserID: userID, Amount: amount, Type: types.WalletTransactionTypeBonus,
		Description: description, ProcessedBy: processedBy,
	})
}

// Penalty debits a fine. It fails like any withdrawal when funds are short.
func (s *Service) Penalty(ctx context.Context, userID string, amount int64, description, processedBy string) (*Result, error) {
	return s.Withdraw(ctx, &WithdrawRequest{
		UserID: userID, Amount: amount, Type: types.WalletTransactionTypePenalty,
		Description: description, ProcessedBy: processedBy,
	})
}

// Refund reverses an earlier entry in the opposite direction: refunding a
// credit debits the wallet and refunding a debit credits it. Refund entries
// themselves cannot be refunded, and the refunds of one entry never sum
// past its amount.
func (s *Service) Refund(ctx context.Context, req *RefundRequest) (*Result, error) {
	if req == nil || req.OriginalTransactionID == "" {
		return nil, apperr.Validation("invalid_request", "original transaction id is required")
	}
	if req.Amount < 0 {
		return nil, apperr.Validation("invalid_amount", "refund amount must not be negative, got %d", req.Amount)
	}

	var original models.WalletTransaction
	if err := s.db.WithContext(ctx).Where("id = ?", req.OriginalTransactionID).Limit(1).Find(&original).Error; err != nil {
		return nil, apperr.Internal("failed to load ledger entry", err)
	}
	if original.ID == "" {
		return nil, apperr.Validation("transaction_not_found", "ledger entry %s not found", req.OriginalTransactionID)
	}
	if req.UserID != "" && req.UserID != original.UserID {
		return nil, apperr.Validation("transaction_not_found", "ledger entry %s not found", req.OriginalTransactionID)
	}
	if original.Type == types.WalletTransactionTypeRefund {
		return nil, apperr.Validation("refund_of_refund", "ledger entry %s is itself a refund", original.ID)
	}

	direction := types.WalletDirectionCredit
	if original.Direction == types.WalletDirectionCredit {
		direction = types.WalletDirectionDebit
	}
	description := req.Reason
	if description == "" {
		description = fmt.Sprintf("refund of %s", original.ID)
	}

	unlock := s.locks.Lock(original.UserID)
	defer unlock()

	var res *Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.IdempotencyKey != "" {
			prior, err := s.replay(tx, original.UserID, req.IdempotencyKey)
			if err != nil || prior != nil {
				res = prior
				return err
			}
		}
		var refunded int64
		if err := tx.Model(&models.WalletTransaction{}).
			Where("original_transaction_id = ? AND type = ?", original.ID, types.WalletTransactionTypeRefund).
			Select("COALESCE(SUM(amount), 0)").Scan(&refunded).Error; err != nil {
			return apperr.Internal("failed to sum prior refunds", err)
		}
		remaining := original.Amount - refunded
		amount := req.Amount
		if amount == 0 {
			amount = remaining
		}
		if remaining <= 0 {
			return apperr.Validation("already_refunded", "ledger entry %s is fully refunded", original.ID)
		}
		if amount > remaining {
			return apperr.Validation("refund_exceeds_original", "refund %d exceeds remaining %d of entry %s", amount, remaining, original.ID)
		}
		var err error
		res, err = s.applyTx(ctx, tx, mutation{
			userID:         original.UserID,
			direction:      direction,
			kind:           types.WalletTransactionTypeRefund,
			amount:         amount,
			method:         original.Method,
			description:    description,
			referenceID:    lo.FromPtr(original.ReferenceID),
			originalID:     original.ID,
			idempotencyKey: req.IdempotencyKey,
			processedBy:    req.ProcessedBy,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.observe(ctx, res)
	return res, nil
}

// SetStatus suspends, blocks or reactivates a wallet. Inactive wallets
// reject every mutation until reactivated.
func (s *Service) SetStatus(ctx context.Context, req *SetStatusRequest) (*models.Wallet, error) {
	if req == nil || req.UserID == "" {
		return nil, apperr.Validation("invalid_user", "user id is required")
	}
	if !req.Status.Valid() {
		return nil, apperr.Validation("invalid_status", "unknown wallet status %q", req.Status)
	}

	unlock := s.locks.Lock(req.UserID)
	defer unlock()

	var w *models.Wallet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if w, err = s.loadWallet(tx, req.UserID, true); err != nil {
			return err
		}
		if w.Status == req.Status {
			return nil
		}
		now := s.clock.Now()
		if err := tx.Model(&models.Wallet{}).Where("id = ?", w.ID).
			Updates(map[string]any{"status": req.Status, "updated_at": now}).Error; err != nil {
			return apperr.Internal("failed to update wallet status", err)
		}
		w.Status = req.Status
		w.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	logctx.FromCtx(ctx, s.log).Infow("wallet status changed", "user_id", req.UserID, "status", req.Status, "processed_by", actor(req.ProcessedBy))
	return w, nil
}

// ListTransactions pages through a user's ledger, newest first.
func (s *Service) ListTransactions(ctx context.Context, req *ListTransactionsRequest) (*ListTransactionsResponse, error) {
	if req == nil || req.UserID == "" {
		return nil, apperr.Validation("invalid_user", "user id is required")
	}
	if req.Size <= 0 || req.Size > 100 {
		req.Size = 20
	}
	if req.From < 0 {
		req.From = 0
	}

	q := s.db.WithContext(ctx).Model(&models.WalletTransaction{}).Where("user_id = ?", req.UserID)
	if req.Type != "" {
		q = q.Where("type = ?", req.Type)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, apperr.Internal("failed to count ledger entries", err)
	}
	var rows []*models.WalletTransaction
	if err := q.Order("created_at DESC").Order("id DESC").Offset(req.From).Limit(req.Size).Find(&rows).Error; err != nil {
		return nil, apperr.Internal("failed to list ledger entries", err)
	}
	return &ListTransactionsResponse{Items: rows, Total: total}, nil
}

type mutation struct {
	userID         string
	direction      types.WalletDirection
	kind           types.WalletTransactionType
	amount         int64
	method         string
	description    string
	referenceID    string
	originalID     string
	idempotencyKey string
	processedBy    string
	extra          map[string]any
}

func (s *Service) apply(ctx context.Context, m mutation) (*Result, error) {
	if m.userID == "" {
		return nil, apperr.Validation("invalid_user", "user id is required")
	}
	if m.amount <= 0 {
		return nil, apperr.Validation("invalid_amount", "amount must be positive, got %d", m.amount)
	}

	unlock := s.locks.Lock(m.userID)
	defer unlock()

	var res *Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if m.idempotencyKey != "" {
			prior, err := s.replay(tx, m.userID, m.idempotencyKey)
			if err != nil || prior != nil {
				res = prior
				return err
			}
		}
		var err error
		res, err = s.applyTx(ctx, tx, m)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.observe(ctx, res)
	return res, nil
}

// applyTx moves the balance and writes the paired ledger entry. The caller
// holds the user's lock and an open transaction.
func (s *Service) applyTx(ctx context.Context, tx *gorm.DB, m mutation) (*Result, error) {
	if m.amount <= 0 {
		return nil, apperr.Validation("invalid_amount", "amount must be positive, got %d", m.amount)
	}
	w, err := s.loadWallet(tx, m.userID, true)
	if err != nil {
		return nil, err
	}
	if !w.Active() {
		return nil, apperr.Validation("wallet_inactive", "wallet of user %s is %s", m.userID, w.Status)
	}

	before := w.Balance
	after := before + m.amount
	if m.direction == types.WalletDirectionDebit {
		if before < m.amount {
			return nil, apperr.InsufficientFunds(before, m.amount)
		}
		after = before - m.amount
	}

	now := s.clock.Now()
	upd := tx.Model(&models.Wallet{}).Where("id = ? AND balance = ?", w.ID, before).
		Updates(map[string]any{"balance": after, "updated_at": now})
	if upd.Error != nil {
		return nil, apperr.Internal("failed to update wallet balance", upd.Error)
	}
	if upd.RowsAffected != 1 {
		return nil, apperr.Internal("wallet balance changed concurrently", fmt.Errorf("wallet %s: expected balance %d", w.ID, before))
	}

	entry := &models.WalletTransaction{
		ID:            tool.GenerateUUIDV7(),
		WalletID:      w.ID,
		UserID:        w.UserID,
		Type:          m.kind,
		Direction:     m.direction,
		Amount:        m.amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Currency:      w.Currency,
		Method:        m.method,
		Description:   m.description,
		ProcessedBy:   actor(m.processedBy),
		CreatedAt:     now,
	}
	if m.referenceID != "" {
		entry.ReferenceID = &m.referenceID
	}
	if m.originalID != "" {
		entry.OriginalTransactionID = &m.originalID
	}
	if m.idempotencyKey != "" {
		entry.IdempotencyKey = &m.idempotencyKey
	}
	if len(m.extra) > 0 {
		entry.Extra = datatypes.JSONMap(m.extra)
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, apperr.Internal("failed to write ledger entry", err)
	}

	w.Balance = after
	w.UpdatedAt = now
	return &Result{Wallet: w, Transaction: entry}, nil
}

// replay returns the entry already written under key, or nil.
func (s *Service) replay(tx *gorm.DB, userID, key string) (*Result, error) {
	var prior models.WalletTransaction
	if err := tx.Where("idempotency_key = ?", key).Limit(1).Find(&prior).Error; err != nil {
		return nil, apperr.Internal("failed to check idempotency key", err)
	}
	if prior.ID == "" {
		return nil, nil
	}
	if prior.UserID != userID {
		return nil, apperr.Validation("idempotency_conflict", "idempotency key %q belongs to another wallet", key)
	}
	w, err := s.loadWallet(tx, userID, false)
	if err != nil {
		return nil, err
	}
	return &Result{Wallet: w, Transaction: &prior, Replayed: true}, nil
}

// loadWallet reads the user's wallet, creating it when missing. forUpdate
// takes a row lock on databases that support one.
func (s *Service) loadWallet(tx *gorm.DB, userID string, forUpdate bool) (*models.Wallet, error) {
	find := func() (*models.Wallet, error) {
		q := tx
		if forUpdate {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var rows []*models.Wallet
		if err := q.Where("user_id = ?", userID).Limit(1).Find(&rows).Error; err != nil {
			return nil, apperr.Internal("failed to load wallet", err)
		}
		if len(rows) == 0 {
			return nil, nil
		}
		return rows[0], nil
	}

	w, err := find()
	if err != nil || w != nil {
		return w, err
	}
	now := s.clock.Now()
	fresh := &models.Wallet{
		ID:        tool.GenerateUUIDV7(),
		UserID:    userID,
		Currency:  s.currency,
		Status:    types.WalletStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// another process may create the same wallet between find and insert
	if err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).Create(fresh).Error; err != nil {
		return nil, apperr.Internal("failed to create wallet", err)
	}
	if w, err = find(); err != nil {
		return nil, err
	}
	if w == nil {
		return nil, apperr.Internal("wallet vanished after create", errors.New(userID))
	}
	return w, nil
}

func (s *Service) observe(ctx context.Context, res *Result) {
	if res == nil || res.Transaction == nil {
		return
	}
	if res.Replayed {
		logctx.FromCtx(ctx, s.log).Infow("wallet operation replayed", "entry_id", res.Transaction.ID, "user_id", res.Transaction.UserID)
		return
	}
	s.metrics.IncWalletOp(string(res.Transaction.Type))
	logctx.FromCtx(ctx, s.log).Infow("wallet balance changed",
		"user_id", res.Transaction.UserID,
		"type", res.Transaction.Type,
		"direction", res.Transaction.Direction,
		"amount", res.Transaction.Amount,
		"balance_after", res.Transaction.BalanceAfter,
	)
}

func actor(processedBy string) string {
	if processedBy == "" {
		return SystemActor
	}
	return processedBy
}
