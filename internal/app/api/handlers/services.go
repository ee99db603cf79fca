package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/paygate/internal/app/service/gateway"
	"github.com/fatflowers/paygate/internal/app/service/statistics"
	"github.com/fatflowers/paygate/internal/app/service/wallet"
	"github.com/fatflowers/paygate/internal/models"
	"github.com/fatflowers/paygate/pkg/config"
	"github.com/fatflowers/paygate/pkg/logctx"
	"github.com/fatflowers/paygate/pkg/response"
	"github.com/fatflowers/paygate/pkg/types"
)

// PaymentService is the slice of gateway.Manager the user routes call.
type PaymentService interface {
	CreatePayment(ctx context.Context, req *gateway.UnifiedPaymentRequest) (*gateway.UnifiedPaymentResponse, error)
	VerifyPayment(ctx context.Context, req *gateway.UnifiedVerificationRequest) (*gateway.VerificationResponse, error)
	CancelPayment(ctx context.Context, req *gateway.CancelPaymentRequest) (*models.PaymentTransaction, error)
	RefundPayment(ctx context.Context, req *gateway.RefundPaymentRequest) (*gateway.RefundPaymentResponse, error)
	GetAvailableGateways(amount int64) []gateway.GatewayInfo
	GetTransactionDetails(ctx context.Context, id, userID string) (*models.PaymentTransaction, error)
}

// AdminPaymentService adds the operator views of gateway.Manager.
type AdminPaymentService interface {
	RefundPayment(ctx context.Context, req *gateway.RefundPaymentRequest) (*gateway.RefundPaymentResponse, error)
	GetGatewayHealthStatus() []gateway.GatewayHealthStatus
	CheckGatewayHealth(ctx context.Context) []gateway.GatewayHealthStatus
	CleanupExpiredTransactions(ctx context.Context) (int, error)
	ListTransactions(ctx context.Context, req *gateway.ListTransactionsRequest) (*gateway.ListTransactionsResponse, error)
}

// GatewayHealthReader backs the public health endpoint.
type GatewayHealthReader interface {
	GetGatewayHealthStatus() []gateway.GatewayHealthStatus
}

type CallbackService interface {
	HandleCallback(ctx context.Context, g types.GatewayType, values url.Values, operator bool) (*gateway.VerificationResponse, error)
}

type WalletService interface {
	GetBalance(ctx context.Context, userID string) (*models.Wallet, error)
	ListTransactions(ctx context.Context, req *wallet.ListTransactionsRequest) (*wallet.ListTransactionsResponse, error)
	Deposit(ctx context.Context, req *wallet.DepositRequest) (*wallet.Result, error)
	Withdraw(ctx context.Context, req *wallet.WithdrawRequest) (*wallet.Result, error)
	Refund(ctx context.Context, req *wallet.RefundRequest) (*wallet.Result, error)
	SetStatus(ctx context.Context, req *wallet.SetStatusRequest) (*models.Wallet, error)
}

type StatisticsService interface {
	GetPaymentStatistic(ctx context.Context, req *statistics.PaymentStatisticRequest) (*statistics.PaymentStatisticResponse, error)
}

const (
	// KeyDebugErrors marks a request whose error bodies carry diagnostics.
	KeyDebugErrors = "debug_errors"
	// HeaderDebug asks for diagnostics, as does ?debug=true.
	HeaderDebug = "X-Debug"
)

// DebugErrorsMiddleware honours a per-request debug switch outside prod. In
// prod the switch is ignored and error bodies never carry causes or provider
// payloads.
func DebugErrorsMiddleware(cfg *config.Config) gin.HandlerFunc {
	allowed := cfg.Env != config.EnvProd
	return func(c *gin.Context) {
		if allowed {
			on, _ := strconv.ParseBool(c.Query("debug"))
			if h, err := strconv.ParseBool(c.GetHeader(HeaderDebug)); err == nil {
				on = on || h
			}
			c.Set(KeyDebugErrors, on)
		}
		c.Next()
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
}

func fail(c *gin.Context, err error) {
	logctx.FromGin(c, zap.NewNop().Sugar()).Infow("request_failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusOK, response.FromError(err, c.GetBool(KeyDebugErrors)))
}
