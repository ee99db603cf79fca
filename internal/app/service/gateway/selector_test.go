package gateway

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fatflowers/paygate/pkg/types"
)

var (
	zp = types.GatewayTypeZarinPal
	bm = types.GatewayTypeMellat
	sb = types.GatewayTypeSaman
	bt = types.GatewayTypeBankTransfer
)

func status(g types.GatewayType, rate, rt float64) GatewayHealthStatus {
	return GatewayHealthStatus{Gateway: g, IsHealthy: true, SuccessRate: rate, ResponseTime: rt}
}

func TestSelectOptimalGateway(t *testing.T) {
	candidates := []types.GatewayType{zp, bm, sb}
	snapshot := map[types.GatewayType]GatewayHealthStatus{
		zp: status(zp, 90, 400),
		bm: status(bm, 99, 900),
		sb: status(sb, 97, 300),
	}
	lb := SelectorOptions{LoadBalancing: true, DefaultGateway: zp, TieWindow: DefaultTieWindow}

	tests := []struct {
		name string
		req  SelectionRequest
		opts SelectorOptions
		want types.GatewayType
	}{
		{"preferred wins", SelectionRequest{PreferredGateway: bm, PriorityGateways: []types.GatewayType{sb}}, lb, bm},
		{"excluded preferred is skipped", SelectionRequest{PreferredGateway: bm, ExcludeGateways: []types.GatewayType{bm}, PriorityGateways: []types.GatewayType{zp}}, lb, zp},
		{"first available priority", SelectionRequest{PriorityGateways: []types.GatewayType{bt, sb, zp}}, lb, sb},
		{"explicit type", SelectionRequest{GatewayType: zp}, lb, zp},
		{"fastest within tie window", SelectionRequest{}, lb, sb},
		{"default without load balancing", SelectionRequest{}, SelectorOptions{DefaultGateway: bm}, bm},
		{"first candidate as last resort", SelectionRequest{}, SelectorOptions{}, zp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectOptimalGateway(tt.req, candidates, snapshot, tt.opts)
			require.True(t, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestSelectOptimalGateway_OutsideWindowLosesOnSpeed(t *testing.T) {
	snapshot := map[types.GatewayType]GatewayHealthStatus{
		zp: status(zp, 80, 100),
		bm: status(bm, 99, 900),
	}
	got, ok := SelectOptimalGateway(SelectionRequest{}, []types.GatewayType{zp, bm}, snapshot, SelectorOptions{LoadBalancing: true})
	require.True(t, ok)
	require.Equal(t, bm, got)
}

func TestSelectOptimalGateway_EqualSpeedPrefersHigherRate(t *testing.T) {
	snapshot := map[types.GatewayType]GatewayHealthStatus{
		zp: status(zp, 96, 200),
		bm: status(bm, 99, 200),
	}
	got, _ := SelectOptimalGateway(SelectionRequest{}, []types.GatewayType{zp, bm}, snapshot, SelectorOptions{LoadBalancing: true})
	require.Equal(t, bm, got)
}

func TestSelectOptimalGateway_IsDeterministic(t *testing.T) {
	candidates := []types.GatewayType{zp, bm, sb}
	snapshot := map[types.GatewayType]GatewayHealthStatus{
		zp: status(zp, 100, 250),
		bm: status(bm, 100, 250),
		sb: status(sb, 100, 250),
	}
	first, _ := SelectOptimalGateway(SelectionRequest{}, candidates, snapshot, SelectorOptions{LoadBalancing: true})
	require.Equal(t, zp, first)
	for range 50 {
		got, _ := SelectOptimalGateway(SelectionRequest{}, candidates, snapshot, SelectorOptions{LoadBalancing: true})
		require.Equal(t, first, got)
	}
}

func TestSelectOptimalGateway_EverythingExcluded(t *testing.T) {
	_, ok := SelectOptimalGateway(SelectionRequest{ExcludeGateways: []types.GatewayType{zp}}, []types.GatewayType{zp}, nil, SelectorOptions{})
	require.False(t, ok)
}
