package callback_log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/paygate/internal/models"
	"github.com/fatflowers/paygate/internal/platform/db/dbtest"
	"github.com/fatflowers/paygate/pkg/types"
)

func TestSave_PersistsAsynchronously(t *testing.T) {
	s := New(dbtest.New(t), zap.NewNop().Sugar(), clockz.RealClock)
	ctx := context.Background()

	s.Save(ctx, &models.PaymentCallbackLog{
		Gateway:       types.GatewayTypeSaman,
		TransactionID: "tx-1",
		Data:          datatypes.JSON(`{"State":"OK"}`),
		Status:        models.PaymentCallbackLogStatusReceived,
	})
	s.Save(ctx, nil)
	s.Wait()

	rows, err := s.ListByTransaction(ctx, "tx-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotEmpty(t, rows[0].ID)
	require.False(t, rows[0].ReceivedAt.IsZero())
	require.Equal(t, models.PaymentCallbackLogStatusReceived, rows[0].Status)
}
