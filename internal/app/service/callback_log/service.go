package callback_log

import (
	"context"
	"sync"

	"github.com/zoobzio/clockz"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/paygate/internal/models"
	"github.com/fatflowers/paygate/pkg/logctx"
	"github.com/fatflowers/paygate/pkg/tool"
)

type Service struct {
	db    *gorm.DB
	log   *zap.SugaredLogger
	clock clockz.Clock
	wg    sync.WaitGroup
}

func New(db *gorm.DB, log *zap.SugaredLogger, clock clockz.Clock) *Service {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Service{db: db, log: log, clock: clock}
}

// Save asynchronously persists a bank callback log. Nil input is ignored.
func (s *Service) Save(ctx context.Context, entry *models.PaymentCallbackLog) {
	if entry == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = tool.GenerateUUIDV7()
	}
	if entry.ReceivedAt.IsZero() {
		entry.ReceivedAt = s.clock.Now()
	}
	log := logctx.FromCtx(ctx, s.log)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.db.Save(entry).Error; err != nil {
			log.Errorf("failed to save callback log: %v", err)
		}
	}()
}

// Wait blocks until every pending Save has been written.
func (s *Service) Wait() { s.wg.Wait() }

func (s *Service) ListByTransaction(ctx context.Context, transactionID string) ([]*models.PaymentCallbackLog, error) {
	var rows []*models.PaymentCallbackLog
	err := s.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("received_at asc").
		Find(&rows).Error
	return rows, err
}

var Module = fx.Options(
	fx.Provide(New),
)
