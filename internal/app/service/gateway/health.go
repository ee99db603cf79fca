package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"

	"github.com/fatflowers/paygate/pkg/config"
	"github.com/fatflowers/paygate/pkg/metrics"
	"github.com/fatflowers/paygate/pkg/types"
)

const (
	// UnhealthyAfter consecutive failures takes a gateway out of rotation.
	UnhealthyAfter = 3

	ewmaPrior  = 0.7
	ewmaSample = 0.3

	defaultProbeTimeout = 10 * time.Second
)

// GatewayHealthStatus is a point-in-time view of one gateway's score.
type GatewayHealthStatus struct {
	Gateway             types.GatewayType `json:"gateway"`
	IsHealthy           bool              `json:"is_healthy"`
	ResponseTime        float64           `json:"response_time"` // EWMA in milliseconds
	SuccessRate         float64           `json:"success_rate"`  // 0-100
	SuccessCount        int64             `json:"success_count"`
	TotalCount          int64             `json:"total_count"`
	ErrorCount          int64             `json:"error_count"`
	ConsecutiveFailures int               `json:"consecutive_failures"`
	LastCheck           time.Time         `json:"last_check"`
	LastError           string            `json:"last_error,omitempty"`
}

type healthRecord struct {
	mu     sync.Mutex
	status GatewayHealthStatus
}

// view derives success_rate from the raw counters. An unused gateway scores 100.
func (r *healthRecord) view() GatewayHealthStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.status
	s.SuccessRate = 100
	if s.TotalCount > 0 {
		s.SuccessRate = float64(s.SuccessCount) * 100 / float64(s.TotalCount)
	}
	return s
}

// HealthMonitor scores every registered gateway from live outcomes and
// periodic probes.
type HealthMonitor struct {
	adapters     *Adapters
	clock        clockz.Clock
	interval     time.Duration
	probeTimeout time.Duration
	log          *zap.SugaredLogger
	metrics      *metrics.PaymentMetrics

	mu      sync.RWMutex
	records map[types.GatewayType]*healthRecord

	stop chan struct{}
	done chan struct{}
}

func NewHealthMonitor(adapters *Adapters, cfg *config.PaymentConfig, log *zap.SugaredLogger, m *metrics.PaymentMetrics, clock clockz.Clock) *HealthMonitor {
	if clock == nil {
		clock = clockz.RealClock
	}
	h := &HealthMonitor{
		adapters:     adapters,
		clock:        clock,
		interval:     cfg.HealthCheckInterval,
		probeTimeout: defaultProbeTimeout,
		log:          log,
		metrics:      m,
		records:      make(map[types.GatewayType]*healthRecord),
	}
	for _, g := range adapters.Types() {
		h.record(g)
		m.SetGatewayHealthy(string(g), true)
	}
	return h
}

func (h *HealthMonitor) record(g types.GatewayType) *healthRecord {
	h.mu.RLock()
	r, ok := h.records[g]
	h.mu.RUnlock()
	if ok {
		return r
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok = h.records[g]; !ok {
		r = &healthRecord{status: GatewayHealthStatus{Gateway: g, IsHealthy: true}}
		h.records[g] = r
	}
	return r
}

func (h *HealthMonitor) RecordSuccess(g types.GatewayType, elapsed time.Duration) {
	r := h.record(g)
	r.mu.Lock()
	s := &r.status
	s.SuccessCount++
	s.TotalCount++
	s.ConsecutiveFailures = 0
	s.IsHealthy = true
	s.LastError = ""
	s.ResponseTime = ewma(s.ResponseTime, s.TotalCount, elapsed)
	s.LastCheck = h.clock.Now()
	r.mu.Unlock()
	h.metrics.SetGatewayHealthy(string(g), true)
}

func (h *HealthMonitor) RecordFailure(g types.GatewayType, elapsed time.Duration, err error) {
	r := h.record(g)
	r.mu.Lock()
	s := &r.status
	s.TotalCount++
	s.ErrorCount++
	s.ConsecutiveFailures++
	s.ResponseTime = ewma(s.ResponseTime, s.TotalCount, elapsed)
	s.LastCheck = h.clock.Now()
	if err != nil {
		s.LastError = err.Error()
	}
	wasHealthy := s.IsHealthy
	if s.ConsecutiveFailures >= UnhealthyAfter {
		s.IsHealthy = false
	}
	healthy := s.IsHealthy
	r.mu.Unlock()

	h.metrics.SetGatewayHealthy(string(g), healthy)
	if wasHealthy && !healthy {
		h.log.Warnw("gateway marked unhealthy", "gateway", g, "error", err)
	}
}

// ewma seeds the average with the first sample and smooths after that.
func ewma(prior float64, total int64, elapsed time.Duration) float64 {
	sample := float64(elapsed) / float64(time.Millisecond)
	if total <= 1 {
		return sample
	}
	return ewmaPrior*prior + ewmaSample*sample
}

// HealthyGateways returns registered healthy gateways in canonical order.
func (h *HealthMonitor) HealthyGateways() []types.GatewayType {
	out := make([]types.GatewayType, 0)
	for _, g := range h.adapters.Types() {
		if h.record(g).view().IsHealthy {
			out = append(out, g)
		}
	}
	return out
}

// Snapshot copies every gateway's status.
func (h *HealthMonitor) Snapshot() map[types.GatewayType]GatewayHealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[types.GatewayType]GatewayHealthStatus, len(h.records))
	for g, r := range h.records {
		out[g] = r.view()
	}
	return out
}

// Statuses lists Snapshot in canonical order.
func (h *HealthMonitor) Statuses() []GatewayHealthStatus {
	snap := h.Snapshot()
	out := make([]GatewayHealthStatus, 0, len(snap))
	for _, g := range types.AllGatewayTypes {
		if s, ok := snap[g]; ok {
			out = append(out, s)
		}
	}
	return out
}

func (h *HealthMonitor) Status(g types.GatewayType) (GatewayHealthStatus, bool) {
	h.mu.RLock()
	r, ok := h.records[g]
	h.mu.RUnlock()
	if !ok {
		return GatewayHealthStatus{}, false
	}
	return r.view(), true
}

// CheckAll probes every adapter once, each under its own timeout.
func (h *HealthMonitor) CheckAll(ctx context.Context) {
	for _, g := range h.adapters.Types() {
		ad, ok := h.adapters.Get(g)
		if !ok {
			continue
		}
		pctx, cancel := h.clock.WithTimeout(ctx, h.probeTimeout)
		start := h.clock.Now()
		err := ad.HealthCheck(pctx)
		elapsed := h.clock.Now().Sub(start)
		cancel()

		h.metrics.ObserveGatewayCall(string(g), "health_check", elapsed, err)
		if err != nil {
			h.log.Infow("gateway probe failed", "gateway", g, "error", err)
			h.RecordFailure(g, elapsed, err)
			continue
		}
		h.RecordSuccess(g, elapsed)
	}
}

// Start runs CheckAll on every tick until Stop. A zero interval disables probing.
func (h *HealthMonitor) Start() {
	if h.interval <= 0 || h.stop != nil {
		return
	}
	h.stop = make(chan struct{})
	h.done = make(chan struct{})
	go func() {
		defer close(h.done)
		ticker := h.clock.NewTicker(h.interval)
		defer ticker.Stop()
		for {
			select {
			case <-h.stop:
				return
			case <-ticker.C():
				h.CheckAll(context.Background())
			}
		}
	}()
	h.log.Infow("health monitor started", "interval", h.interval)
}

func (h *HealthMonitor) Stop(ctx context.Context) error {
	if h.stop == nil {
		return nil
	}
	close(h.stop)
	select {
	case <-h.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	h.stop = nil
	return nil
}
