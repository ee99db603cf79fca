package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/paygate/internal/app/service/gateway"
	"github.com/fatflowers/paygate/internal/app/service/statistics"
	"github.com/fatflowers/paygate/internal/app/service/wallet"
	"github.com/fatflowers/paygate/pkg/response"
)

// AdminActor is recorded as processed_by when an operator leaves it empty.
const AdminActor = "admin"

type CleanupExpiredResponse struct {
	Expired int `json:"expired"`
}

// @Summary      Gateway Health (Admin)
// @Description  Returns the health of every gateway; probe=true checks them all before answering.
// @Tags         Admin
// @Security     AdminToken
// @Produce      json
// @Param        probe query bool false "Probe every gateway now"
// @Success      200  {object}  handlers.RespGatewayHealth
// @Router       /api/v1/admin/gateway_health [get]
func ApiGatewayHealth(svc AdminPaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Query("probe") == "true" {
			c.JSON(http.StatusOK, response.OKT(svc.CheckGatewayHealth(c.Request.Context())))
			return
		}
		c.JSON(http.StatusOK, response.OKT(svc.GetGatewayHealthStatus()))
	}
}

// @Summary      Payment Statistics (Admin)
// @Description  Computes the requested payment statistics over archived transactions.
// @Tags         Admin
// @Security     AdminToken
// @Accept       json
// @Produce      json
// @Param        request body statistics.PaymentStatisticRequest true "Statistic request parameters"
// @Success      200  {object}  handlers.RespPaymentStatistic
// @Router       /api/v1/admin/payment_statistics [post]
func ApiGetPaymentStatistic(svc StatisticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.PaymentStatisticRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		res, err := svc.GetPaymentStatistic(c.Request.Context(), &req)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Cleanup Expired Payments (Admin)
// @Description  Expires stale open payments and evicts finished ones past retention.
// @Tags         Admin
// @Security     AdminToken
// @Produce      json
// @Success      200  {object}  handlers.RespCleanupExpired
// @Router       /api/v1/admin/cleanup_expired [post]
func ApiCleanupExpired(svc AdminPaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := svc.CleanupExpiredTransactions(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(&CleanupExpiredResponse{Expired: n}))
	}
}

// @Summary      List Payment Transactions (Admin)
// @Description  Retrieves a paginated and filterable list of archived payments.
// @Tags         Admin
// @Security     AdminToken
// @Accept       json
// @Produce      json
// @Param        request body gateway.ListTransactionsRequest true "List request with filters, pagination, and sorting"
// @Success      200  {object}  handlers.RespListPaymentTransactions
// @Router       /api/v1/admin/list_payment_transactions [post]
func ApiListPaymentTransactions(svc AdminPaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req gateway.ListTransactionsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		res, err := svc.ListTransactions(c.Request.Context(), &req)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Refund Payment (Admin)
// @Description  Refunds any user's payment.
// @Tags         Admin
// @Security     AdminToken
// @Accept       json
// @Produce      json
// @Param        request body gateway.RefundPaymentRequest true "Refund request"
// @Success      200  {object}  handlers.RespRefundPayment
// @Router       /api/v1/admin/payment/refund [post]
func ApiAdminRefundPayment(svc AdminPaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req gateway.RefundPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		req.ProcessedBy = AdminActor
		res, err := svc.RefundPayment(c.Request.Context(), &req)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Wallet Balance (Admin)
// @Description  Returns any user's wallet.
// @Tags         Admin
// @Security     AdminToken
// @Produce      json
// @Param        user_id path string true "User ID"
// @Success      200  {object}  handlers.RespWallet
// @Router       /api/v1/admin/wallet/{user_id} [get]
func ApiAdminGetWallet(svc WalletService) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, err := svc.GetBalance(c.Request.Context(), c.Param("user_id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(w))
	}
}

// @Summary      Wallet Deposit (Admin)
// @Description  Credits a wallet with a deposit or bonus.
// @Tags         Admin
// @Security     AdminToken
// @Accept       json
// @Produce      json
// @Param        request body wallet.DepositRequest true "Deposit request"
// @Success      200  {object}  handlers.RespWalletResult
// @Router       /api/v1/admin/wallet/deposit [post]
func ApiWalletDeposit(svc WalletService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req wallet.DepositRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		if req.ProcessedBy == "" {
			req.ProcessedBy = AdminActor
		}
		res, err := svc.Deposit(c.Request.Context(), &req)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Wallet Withdraw (Admin)
// @Description  Debits a wallet with a withdrawal or penalty.
// @Tags         Admin
// @Security     AdminToken
// @Accept       json
// @Produce      json
// @Param        request body wallet.WithdrawRequest true "Withdraw request"
// @Success      200  {object}  handlers.RespWalletResult
// @Router       /api/v1/admin/wallet/withdraw [post]
func ApiWalletWithdraw(svc WalletService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req wallet.WithdrawRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		if req.ProcessedBy == "" {
			req.ProcessedBy = AdminActor
		}
		res, err := svc.Withdraw(c.Request.Context(), &req)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Wallet Refund (Admin)
// @Description  Reverses part or all of an earlier ledger entry.
// @Tags         Admin
// @Security     AdminToken
// @Accept       json
// @Produce      json
// @Param        request body wallet.RefundRequest true "Refund request"
// @Success      200  {object}  handlers.RespWalletResult
// @Router       /api/v1/admin/wallet/refund [post]
func ApiWalletRefund(svc WalletService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req wallet.RefundRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		if req.ProcessedBy == "" {
			req.ProcessedBy = AdminActor
		}
		res, err := svc.Refund(c.Request.Context(), &req)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Wallet Status (Admin)
// @Description  Activates, suspends or blocks a wallet.
// @Tags         Admin
// @Security     AdminToken
// @Accept       json
// @Produce      json
// @Param        request body wallet.SetStatusRequest true "Status request"
// @Success      200  {object}  handlers.RespWallet
// @Router       /api/v1/admin/wallet/status [post]
func ApiWalletStatus(svc WalletService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req wallet.SetStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		if req.ProcessedBy == "" {
			req.ProcessedBy = AdminActor
		}
		w, err := svc.SetStatus(c.Request.Context(), &req)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(w))
	}
}

// RegisterAdminRoutes mounts the operator API; r must carry AdminAuthMiddleware.
func RegisterAdminRoutes(r gin.IRouter, payments AdminPaymentService, stats StatisticsService, wallets WalletService) {
	r.GET("/gateway_health", ApiGatewayHealth(payments))
	r.POST("/payment_statistics", ApiGetPaymentStatistic(stats))
	r.POST("/cleanup_expired", ApiCleanupExpired(payments))
	r.POST("/list_payment_transactions", ApiListPaymentTransactions(payments))
	r.POST("/payment/refund", ApiAdminRefundPayment(payments))

	r.GET("/wallet/:user_id", ApiAdminGetWallet(wallets))
	r.POST("/wallet/deposit", ApiWalletDeposit(wallets))
	r.POST("/wallet/withdraw", ApiWalletWithdraw(wallets))
	r.POST("/wallet/refund", ApiWalletRefund(wallets))
	r.POST("/wallet/status", ApiWalletStatus(wallets))
}
