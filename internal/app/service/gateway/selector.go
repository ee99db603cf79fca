package gateway

import (
	"github.com/samber/lo"

	"github.com/fatflowers/paygate/pkg/types"
)

// DefaultTieWindow is how many success-rate points count as a tie under load balancing.
const DefaultTieWindow = 5.0

type SelectionRequest struct {
	Amount           int64
	GatewayType      types.GatewayType
	PreferredGateway types.GatewayType
	PriorityGateways []types.GatewayType
	ExcludeGateways  []types.GatewayType
}

type SelectorOptions struct {
	LoadBalancing  bool
	DefaultGateway types.GatewayType
	TieWindow      float64
}

// SelectOptimalGateway picks one of candidates. It has no side effects and
// returns the same answer for the same inputs. Rules, first match wins:
// exclusions are dropped; then preferred gateway, first priority entry,
// explicit gateway type, best health score when load balancing across more
// than one candidate, the configured default, and finally the first candidate.
func SelectOptimalGateway(req SelectionRequest, candidates []types.GatewayType, snapshot map[types.GatewayType]GatewayHealthStatus, opts SelectorOptions) (types.GatewayType, bool) {
	pool := lo.Filter(candidates, func(g types.GatewayType, _ int) bool {
		return !lo.Contains(req.ExcludeGateways, g)
	})
	if len(pool) == 0 {
		return "", false
	}
	if req.PreferredGateway != "" && lo.Contains(pool, req.PreferredGateway) {
		return req.PreferredGateway, true
	}
	for _, g := range req.PriorityGateways {
		if lo.Contains(pool, g) {
			return g, true
		}
	}
	if req.GatewayType != "" && lo.Contains(pool, req.GatewayType) {
		return req.GatewayType, true
	}
	if opts.LoadBalancing && len(pool) > 1 {
		return bestScored(pool, snapshot, opts.TieWindow), true
	}
	if opts.DefaultGateway != "" && lo.Contains(pool, opts.DefaultGateway) {
		return opts.DefaultGateway, true
	}
	return pool[0], true
}

// bestScored finds the top success rate, keeps every candidate within window
// of it, and returns the fastest of those. Equal response times fall back to
// the higher success rate and then to candidate order.
func bestScored(pool []types.GatewayType, snapshot map[types.GatewayType]GatewayHealthStatus, window float64) types.GatewayType {
	if window <= 0 {
		window = DefaultTieWindow
	}
	score := func(g types.GatewayType) GatewayHealthStatus {
		if s, ok := snapshot[g]; ok {
			return s
		}
		return GatewayHealthStatus{Gateway: g, IsHealthy: true, SuccessRate: 100}
	}

	top := lo.MaxBy(pool, func(a, b types.GatewayType) bool { return score(a).SuccessRate > score(b).SuccessRate })
	floor := score(top).SuccessRate - window

	best := types.GatewayType("")
	for _, g := range pool {
		s := score(g)
		if s.SuccessRate < floor {
			continue
		}
		if best == "" {
			best = g
			continue
		}
		b := score(best)
		if s.ResponseTime < b.ResponseTime || (s.ResponseTime == b.ResponseTime && s.SuccessRate > b.SuccessRate) {
			best = g
		}
	}
	return best
}
