package gateway

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/paygate/internal/models"
	"github.com/fatflowers/paygate/pkg/apperr"
	"github.com/fatflowers/paygate/pkg/types"
)

// Archive persists every payment transition. The active registry is the
// working copy; the archive outlives eviction and restarts.
type Archive interface {
	Save(ctx context.Context, tx *models.PaymentTransaction) error
	Find(ctx context.Context, id string) (*models.PaymentTransaction, error)
	FindByAuthority(ctx context.Context, g types.GatewayType, authority string) (*models.PaymentTransaction, error)
	ReferenceIndex
	List(ctx context.Context, req *ListTransactionsRequest) (*ListTransactionsResponse, error)
}

// ListTransactionsRequest pages through archived payments for admins.
type ListTransactionsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

// ReferenceIndex finds the payment a provider reference was already settled on.
type ReferenceIndex interface {
	FindByReference(ctx context.Context, g types.GatewayType, referenceID string) (*models.PaymentTransaction, error)
}

type ListTransactionsResponse struct {
	Items []*models.PaymentTransaction `json:"items"`
	Total int64                        `json:"total"`
}

// ListableFields are the payment_transaction columns admins may filter and sort on.
var ListableFields = []string{
	"id", "user_id", "amount", "currency", "purpose", "payment_method", "status",
	"authority", "reference_id", "order_id", "invoice_id", "final_amount",
	"refunded_amount", "fallback_used", "created_at", "updated_at", "completed_at",
}

type gormArchive struct {
	db *gorm.DB
}

func NewGormArchive(db *gorm.DB) Archive {
	return &gormArchive{db: db}
}

func (a *gormArchive) Save(ctx context.Context, tx *models.PaymentTransaction) error {
	err := a.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(tx).Error
	if err != nil {
		return fmt.Errorf("failed to archive payment %s: %w", tx.ID, err)
	}
	return nil
}

// Find returns nil without error when id is unknown.
func (a *gormArchive) Find(ctx context.Context, id string) (*models.PaymentTransaction, error) {
	var rows []*models.PaymentTransaction
	if err := a.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load payment %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (a *gormArchive) FindByAuthority(ctx context.Context, g types.GatewayType, authority string) (*models.PaymentTransaction, error) {
	var rows []*models.PaymentTransaction
	err := a.db.WithContext(ctx).
		Where("payment_method = ? AND authority = ?", g, authority).
		Order("created_at DESC").Limit(1).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up authority: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (a *gormArchive) FindByReference(ctx context.Context, g types.GatewayType, referenceID string) (*models.PaymentTransaction, error) {
	var rows []*models.PaymentTransaction
	err := a.db.WithContext(ctx).
		Where("payment_method = ? AND reference_id = ?", g, referenceID).
		Order("created_at").Limit(1).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up reference: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (a *gormArchive) List(ctx context.Context, req *ListTransactionsRequest) (*ListTransactionsResponse, error) {
	if req == nil {
		return nil, apperr.Validation("invalid_request", "empty list request")
	}
	if err := types.CheckFields(req.Filters, ListableFields); err != nil {
		return nil, apperr.Validation("invalid_filter", "%v", err)
	}
	if req.SortBy != "" && !lo.Contains(ListableFields, req.SortBy) {
		return nil, apperr.Validation("invalid_sort", "sort on field %q is not allowed", req.SortBy)
	}
	if req.Size <= 0 {
		req.Size = 10
	}
	if req.From < 0 {
		req.From = 0
	}

	tx := a.db.WithContext(ctx).Model(&models.PaymentTransaction{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{types.Filters(req.Filters)}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}

	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	var rows []*models.PaymentTransaction
	q := tx.Limit(req.Size).Offset(req.From).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: sortBy}, Desc: req.SortOrder != "asc"}}})
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return &ListTransactionsResponse{Items: rows, Total: total}, nil
}
