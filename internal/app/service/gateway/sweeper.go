package gateway

import (
	"context"
	"time"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"

	"github.com/fatflowers/paygate/pkg/config"
)

// Sweeper runs CleanupExpiredTransactions on a fixed interval. With a zero
// interval it does nothing and expiry is left to an external scheduler.
type Sweeper struct {
	manager  *Manager
	interval time.Duration
	clock    clockz.Clock
	log      *zap.SugaredLogger

	stop chan struct{}
	done chan struct{}
}

func NewSweeper(manager *Manager, cfg *config.PaymentConfig, log *zap.SugaredLogger, clock clockz.Clock) *Sweeper {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Sweeper{manager: manager, interval: cfg.CleanupInterval, clock: clock, log: log}
}

func (s *Sweeper) Start() {
	if s.interval <= 0 || s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		ticker := s.clock.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C():
				if _, err := s.manager.CleanupExpiredTransactions(context.Background()); err != nil {
					s.log.Errorf("payment sweep failed: %v", err)
				}
			}
		}
	}()
	s.log.Infow("payment sweeper started", "interval", s.interval)
}

func (s *Sweeper) Stop(ctx context.Context) error {
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.stop = nil
	return nil
}
