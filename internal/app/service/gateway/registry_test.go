package gateway

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fatflowers/paygate/internal/models"
	"github.com/fatflowers/paygate/pkg/types"
)

func TestMemoryRegistry(t *testing.T) {
	r := NewMemoryRegistry()
	tx := &models.PaymentTransaction{ID: "tx-1", PaymentMethod: zp, Authority: "A1", Status: types.PaymentStatusPending}

	require.NoError(t, r.Add(tx))
	require.Error(t, r.Add(tx))
	require.Error(t, r.Add(&models.PaymentTransaction{}))

	id, ok := r.FindByAuthority(zp, "A1")
	require.True(t, ok)
	require.Equal(t, "tx-1", id)
	_, ok = r.FindByAuthority(bm, "A1")
	require.False(t, ok)

	e, ok := r.Get("tx-1")
	require.True(t, ok)
	view := e.View()
	view.Status = types.PaymentStatusFailed
	require.Equal(t, types.PaymentStatusPending, e.Tx().Status)

	e.Lock()
	r.Remove("tx-1")
	e.Unlock()
	require.True(t, e.Removed())
	require.Zero(t, r.Len())
	_, ok = r.FindByAuthority(zp, "A1")
	require.False(t, ok)
}
