package logctx

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromCtx_EnrichesBaseLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core).Sugar()

	ctx := WithUserID(WithTraceID(context.Background(), "trace-1"), "u-1")
	ctx = WithTransactionID(ctx, "tx-1")
	FromCtx(ctx, base).Infow("hello")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "trace-1", fields["trace_id"])
	require.Equal(t, "u-1", fields["user_id"])
	require.Equal(t, "tx-1", fields["transaction_id"])
}

func TestFromCtx_PrefersStoredLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	stored := zap.New(core).Sugar().With("scope", "request")

	FromCtx(WithLogger(context.Background(), stored), zap.NewNop().Sugar()).Info("x")
	require.Equal(t, 1, logs.Len())
	require.Equal(t, "request", logs.All()[0].ContextMap()["scope"])
}

func TestFromGin_UsesGinValue(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	lg := zap.New(core).Sugar()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Set(KeyLogger.String(), lg)

	FromGin(c, zap.NewNop().Sugar()).Info("x")
	require.Equal(t, 1, logs.Len())
}
