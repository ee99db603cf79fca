package statistics

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/paygate/internal/app/service/gateway"
	"github.com/fatflowers/paygate/internal/models"
	"github.com/fatflowers/paygate/pkg/apperr"
	"github.com/fatflowers/paygate/pkg/types"
)

type StatisticType string

const (
	StatisticTypeDailyTransactionCount StatisticType = "daily_transaction_count"
	StatisticTypeDailyVolume           StatisticType = "daily_volume"
	StatisticTypeTotalVolume           StatisticType = "total_volume"
	StatisticTypeStatusBreakdown       StatisticType = "status_breakdown"
	StatisticTypeGatewaySuccessRate    StatisticType = "gateway_success_rate"
	StatisticTypeFallbackCount         StatisticType = "fallback_count"
	StatisticTypeRefundTotal           StatisticType = "refund_total"
)

var AllStatisticTypes = []StatisticType{
	StatisticTypeDailyTransactionCount,
	StatisticTypeDailyVolume,
	StatisticTypeTotalVolume,
	StatisticTypeStatusBreakdown,
	StatisticTypeGatewaySuccessRate,
	StatisticTypeFallbackCount,
	StatisticTypeRefundTotal,
}

// settledStatuses are the statuses whose money reached us at some point.
var settledStatuses = []types.PaymentStatus{
	types.PaymentStatusCompleted,
	types.PaymentStatusPartiallyRefunded,
	types.PaymentStatusRefunded,
}

type PaymentStatisticDataItem struct {
	ID StatisticType `json:"id"`
}

type PaymentStatisticRequest struct {
	Filters   []*types.CommonFilter       `json:"filters"`
	DataItems []*PaymentStatisticDataItem `json:"data_items"`
	// IncludeLive adds active registry counts and the health snapshot.
	IncludeLive bool `json:"include_live"`
}

type PaymentStatisticResponseDataItem struct {
	Date   string `json:"date,omitempty"`
	Label  string `json:"label,omitempty"`
	Value  int64  `json:"value"`
	Value2 int64  `json:"value2,omitempty"`
	Value3 int64  `json:"value3,omitempty"`
}

type PaymentStatisticResponse struct {
	DataItems map[StatisticType][]PaymentStatisticResponseDataItem `json:"data_items"`
	Active    map[types.PaymentStatus]int                          `json:"active,omitempty"`
	Health    []gateway.GatewayHealthStatus                        `json:"health,omitempty"`
}

// LiveSource exposes in-memory state that never reaches the database.
type LiveSource interface {
	ActiveCounts() map[types.PaymentStatus]int
	GetGatewayHealthStatus() []gateway.GatewayHealthStatus
}

// Service provides statistics operations
type Service struct {
	db   *gorm.DB
	live LiveSource
}

func New(db *gorm.DB, manager *gateway.Manager) *Service {
	s := &Service{db: db}
	if manager != nil {
		s.live = manager
	}
	return s
}

func (s *Service) payments(ctx context.Context, filters []*types.CommonFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Table((models.PaymentTransaction{}).TableName())
	if len(filters) > 0 {
		q = q.Where(clause.Where{Exprs: []clause.Expression{types.Filters(filters)}})
	}
	return q
}

// dateExpr renders created_at as YYYY-MM-DD in the connected dialect.
func (s *Service) dateExpr() string {
	if s.db.Dialector.Name() == "sqlite" {
		return "strftime('%Y-%m-%d', created_at)"
	}
	return "TO_CHAR(created_at, 'YYYY-MM-DD')"
}

func (s *Service) getDailyTransactionCount(ctx context.Context, request *PaymentStatisticRequest) ([]PaymentStatisticResponseDataItem, error) {
	var results []PaymentStatisticResponseDataItem
	date := s.dateExpr()
	q := s.payments(ctx, request.Filters).
		Select(date + " as date, count(*) as value").
		Group(date).
		Order("date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyVolume(ctx context.Context, request *PaymentStatisticRequest) ([]PaymentStatisticResponseDataItem, error) {
	var results []PaymentStatisticResponseDataItem
	date := s.dateExpr()
	q := s.payments(ctx, request.Filters).
		Select(date+" as date, currency as label, sum(final_amount) as value, count(*) as value2").
		Where("status IN ?", settledStatuses).
		Group(date).
		Group("currency").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// getTotalVolume is settled volume net of refunds, per currency.
func (s *Service) getTotalVolume(ctx context.Context, request *PaymentStatisticRequest) ([]PaymentStatisticResponseDataItem, error) {
	var results []PaymentStatisticResponseDataItem
	q := s.payments(ctx, request.Filters).
		Select("currency as label, sum(final_amount - refunded_amount) as value, sum(final_amount) as value2, sum(gateway_fee) as value3").
		Where("status IN ?", settledStatuses).
		Group("currency").
		Order("label")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getStatusBreakdown(ctx context.Context, request *PaymentStatisticRequest) ([]PaymentStatisticResponseDataItem, error) {
	var results []PaymentStatisticResponseDataItem
	q := s.payments(ctx, request.Filters).
		Select("status as label, count(*) as value, sum(amount) as value2").
		Group("status").
		Order("label")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// getGatewaySuccessRate reports, per gateway, the share of finished payments
// that settled. Value is the rate in basis points, Value2 the finished
// count and Value3 the settled count. Open payments are left out.
func (s *Service) getGatewaySuccessRate(ctx context.Context, request *PaymentStatisticRequest) ([]PaymentStatisticResponseDataItem, error) {
	var rows []struct {
		Gateway types.GatewayType
		Status  types.PaymentStatus
		Count   int64
	}
	q := s.payments(ctx, request.Filters).
		Select("payment_method as gateway, status, count(*) as count").
		Where("status NOT IN ?", []types.PaymentStatus{types.PaymentStatusPending, types.PaymentStatusProcessing}).
		Group("payment_method").
		Group("status")
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	totals := map[types.GatewayType]*PaymentStatisticResponseDataItem{}
	for _, r := range rows {
		item, ok := totals[r.Gateway]
		if !ok {
			item = &PaymentStatisticResponseDataItem{Label: string(r.Gateway)}
			totals[r.Gateway] = item
		}
		item.Value2 += r.Count
		if lo.Contains(settledStatuses, r.Status) {
			item.Value3 += r.Count
		}
	}
	results := make([]PaymentStatisticResponseDataItem, 0, len(totals))
	for _, g := range types.AllGatewayTypes {
		item, ok := totals[g]
		if !ok {
			continue
		}
		if item.Value2 > 0 {
			item.Value = int64(math.Round(float64(item.Value3) * 10000 / float64(item.Value2)))
		}
		results = append(results, *item)
	}
	return results, nil
}

func (s *Service) getFallbackCount(ctx context.Context, request *PaymentStatisticRequest) ([]PaymentStatisticResponseDataItem, error) {
	var results []PaymentStatisticResponseDataItem
	q := s.payments(ctx, request.Filters).
		Select("payment_method as label, count(*) as value").
		Where("fallback_used = ?", true).
		Group("payment_method").
		Order("label")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getRefundTotal(ctx context.Context, request *PaymentStatisticRequest) ([]PaymentStatisticResponseDataItem, error) {
	var results []PaymentStatisticResponseDataItem
	q := s.payments(ctx, request.Filters).
		Select("payment_method as label, sum(refunded_amount) as value, count(*) as value2").
		Where("refunded_amount > ?", 0).
		Group("payment_method").
		Order("label")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getPaymentStatistic(ctx context.Context, request *PaymentStatisticRequest, dataItem *PaymentStatisticDataItem) ([]PaymentStatisticResponseDataItem, error) {
	switch dataItem.ID {
	case StatisticTypeDailyTransactionCount:
		return s.getDailyTransactionCount(ctx, request)
	case StatisticTypeDailyVolume:
		return s.getDailyVolume(ctx, request)
	case StatisticTypeTotalVolume:
		return s.getTotalVolume(ctx, request)
	case StatisticTypeStatusBreakdown:
		return s.getStatusBreakdown(ctx, request)
	case StatisticTypeGatewaySuccessRate:
		return s.getGatewaySuccessRate(ctx, request)
	case StatisticTypeFallbackCount:
		return s.getFallbackCount(ctx, request)
	case StatisticTypeRefundTotal:
		return s.getRefundTotal(ctx, request)
	default:
		return nil, fmt.Errorf("invalid data item id: %s", dataItem.ID)
	}
}

// GetPaymentStatistic computes every requested data item concurrently.
// Filters may only reference columns in gateway.ListableFields.
func (s *Service) GetPaymentStatistic(ctx context.Context, request *PaymentStatisticRequest) (*PaymentStatisticResponse, error) {
	if request == nil {
		return nil, apperr.Validation("invalid_request", "empty statistics request")
	}
	if err := types.CheckFields(request.Filters, gateway.ListableFields); err != nil {
		return nil, apperr.Validation("invalid_filter", "%v", err)
	}
	for _, di := range request.DataItems {
		if di == nil || !lo.Contains(AllStatisticTypes, di.ID) {
			return nil, apperr.Validation("invalid_data_item", "unknown data item %v", lo.FromPtr(di).ID)
		}
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(request.DataItems))
	resChan := make(chan *lo.Entry[StatisticType, []PaymentStatisticResponseDataItem], len(request.DataItems))

	for _, item := range request.DataItems {
		wg.Add(1)
		go func(di *PaymentStatisticDataItem) {
			defer wg.Done()
			res, err := s.getPaymentStatistic(ctx, request, di)
			if err != nil {
				errChan <- fmt.Errorf("failed to compute %s: %w", di.ID, err)
				return
			}
			resChan <- &lo.Entry[StatisticType, []PaymentStatisticResponseDataItem]{Key: di.ID, Value: res}
		}(item)
	}

	go func() { wg.Wait(); close(errChan); close(resChan) }()

	results := make(map[StatisticType][]PaymentStatisticResponseDataItem)
	for i := 0; i < len(request.DataItems); i++ {
		select {
		case err := <-errChan:
			if err != nil {
				return nil, apperr.Internal("failed to compute statistics", err)
			}
		case entry := <-resChan:
			results[entry.Key] = entry.Value
		}
	}

	out := &PaymentStatisticResponse{DataItems: results}
	if request.IncludeLive && s.live != nil {
		out.Active = s.live.ActiveCounts()
		out.Health = s.live.GetGatewayHealthStatus()
	}
	return out, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
