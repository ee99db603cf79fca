package handlers

import (
	"github.com/fatflowers/paygate/internal/app/service/gateway"
	"github.com/fatflowers/paygate/internal/app/service/statistics"
	"github.com/fatflowers/paygate/internal/app/service/wallet"
	"github.com/fatflowers/paygate/internal/models"
	"github.com/fatflowers/paygate/pkg/response"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Success bool                     `json:"success"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

type RespHealth struct {
	Code    response.APIResponseCode `json:"code"`
	Success bool                     `json:"success"`
	Message string                   `json:"message"`
	Data    HealthReport             `json:"data"`
}

type RespCreatePayment struct {
	Code    response.APIResponseCode       `json:"code"`
	Success bool                           `json:"success"`
	Message string                         `json:"message"`
	Data    gateway.UnifiedPaymentResponse `json:"data"`
}

type RespVerifyPayment struct {
	Code    response.APIResponseCode     `json:"code"`
	Success bool                         `json:"success"`
	Message string                       `json:"message"`
	Data    gateway.VerificationResponse `json:"data"`
}

type RespRefundPayment struct {
	Code    response.APIResponseCode      `json:"code"`
	Success bool                          `json:"success"`
	Message string                        `json:"message"`
	Data    gateway.RefundPaymentResponse `json:"data"`
}

type RespTransaction struct {
	Code    response.APIResponseCode  `json:"code"`
	Success bool                      `json:"success"`
	Message string                    `json:"message"`
	Data    models.PaymentTransaction `json:"data"`
}

type RespGateways struct {
	Code    response.APIResponseCode `json:"code"`
	Success bool                     `json:"success"`
	Message string                   `json:"message"`
	Data    []gateway.GatewayInfo    `json:"data"`
}

type RespGatewayHealth struct {
	Code    response.APIResponseCode      `json:"code"`
	Success bool                          `json:"success"`
	Message string                        `json:"message"`
	Data    []gateway.GatewayHealthStatus `json:"data"`
}

// RespPaymentStatistic wraps PaymentStatisticResponse in the standard envelope.
type RespPaymentStatistic struct {
	Code    response.APIResponseCode            `json:"code"`
	Success bool                                `json:"success"`
	Message string                              `json:"message"`
	Data    statistics.PaymentStatisticResponse `json:"data"`
}

type RespCleanupExpired struct {
	Code    response.APIResponseCode `json:"code"`
	Success bool                     `json:"success"`
	Message string                   `json:"message"`
	Data    CleanupExpiredResponse   `json:"data"`
}

type RespListPaymentTransactions struct {
	Code    response.APIResponseCode         `json:"code"`
	Success bool                             `json:"success"`
	Message string                           `json:"message"`
	Data    gateway.ListTransactionsResponse `json:"data"`
}

type RespWallet struct {
	Code    response.APIResponseCode `json:"code"`
	Success bool                     `json:"success"`
	Message string                   `json:"message"`
	Data    models.Wallet            `json:"data"`
}

type RespWalletResult struct {
	Code    response.APIResponseCode `json:"code"`
	Success bool                     `json:"success"`
	Message string                   `json:"message"`
	Data    wallet.Result            `json:"data"`
}

type RespWalletTransactions struct {
	Code    response.APIResponseCode        `json:"code"`
	Success bool                            `json:"success"`
	Message string                          `json:"message"`
	Data    wallet.ListTransactionsResponse `json:"data"`
}
