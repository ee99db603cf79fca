package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	mw "github.com/fatflowers/paygate/internal/app/api/middleware"
	"github.com/fatflowers/paygate/internal/app/service/gateway"
	"github.com/fatflowers/paygate/pkg/config"
	"github.com/fatflowers/paygate/pkg/response"
	"github.com/fatflowers/paygate/pkg/types"
)

// @Summary      Create Payment
// @Description  Starts a payment on the best available gateway, falling back to the next one on provider failure.
// @Tags         Payment
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body gateway.UnifiedPaymentRequest true "Payment request"
// @Success      200  {object}  handlers.RespCreatePayment
// @Router       /api/v1/payment/create [post]
func ApiCreatePayment(svc PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req gateway.UnifiedPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		req.UserID = mw.UserID(c)

		res, err := svc.CreatePayment(c.Request.Context(), &req)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Verify Payment
// @Description  Confirms a payment with its gateway once the payer returns from the bank.
// @Tags         Payment
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body gateway.UnifiedVerificationRequest true "Verification request"
// @Success      200  {object}  handlers.RespVerifyPayment
// @Router       /api/v1/payment/verify [post]
func ApiVerifyPayment(svc PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req gateway.UnifiedVerificationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		req.UserID = mw.UserID(c)

		res, err := svc.VerifyPayment(c.Request.Context(), &req)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Cancel Payment
// @Description  Cancels a pending payment of the caller.
// @Tags         Payment
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body gateway.CancelPaymentRequest true "Cancel request"
// @Success      200  {object}  handlers.RespTransaction
// @Router       /api/v1/payment/cancel [post]
func ApiCancelPayment(svc PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req gateway.CancelPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		req.UserID = mw.UserID(c)

		tx, err := svc.CancelPayment(c.Request.Context(), &req)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(tx))
	}
}

// @Summary      Refund Payment
// @Description  Refunds all or part of a completed payment of the caller.
// @Tags         Payment
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body gateway.RefundPaymentRequest true "Refund request"
// @Success      200  {object}  handlers.RespRefundPayment
// @Router       /api/v1/payment/refund [post]
func ApiRefundPayment(svc PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req gateway.RefundPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		req.UserID = mw.UserID(c)
		req.ProcessedBy = "user:" + req.UserID

		res, err := svc.RefundPayment(c.Request.Context(), &req)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Available Gateways
// @Description  Lists registered gateways with health and limits; amount marks the eligible ones.
// @Tags         Payment
// @Security     BearerAuth
// @Produce      json
// @Param        amount query int false "Amount to check against gateway limits"
// @Success      200  {object}  handlers.RespGateways
// @Router       /api/v1/payment/gateways [get]
func ApiGetAvailableGateways(svc PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var amount int64
		if v := c.Query("amount"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				badRequest(c, fmt.Errorf("invalid amount %q", v))
				return
			}
			amount = n
		}
		c.JSON(http.StatusOK, response.OKT(svc.GetAvailableGateways(amount)))
	}
}

// @Summary      Transaction Details
// @Description  Returns one payment of the caller, live or archived.
// @Tags         Payment
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Transaction ID"
// @Success      200  {object}  handlers.RespTransaction
// @Router       /api/v1/payment/transaction/{id} [get]
func ApiGetTransactionDetails(svc PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tx, err := svc.GetTransactionDetails(c.Request.Context(), c.Param("id"), mw.UserID(c))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(tx))
	}
}

// @Summary      Bank Callback
// @Description  Receives the payer's return from a bank, as query or form fields, and verifies the payment. Bank transfer confirmations require the admin token.
// @Tags         Webhook
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        gateway path string true "Gateway type"
// @Success      200  {object}  handlers.RespVerifyPayment
// @Router       /api/v1/payment/callback/{gateway} [post]
func ApiPaymentCallback(cb CallbackService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		g := types.GatewayType(c.Param("gateway"))
		if !g.Valid() {
			badRequest(c, fmt.Errorf("unknown gateway %q", g))
			return
		}
		operator := mw.AdminAuthorized(cfg, c)
		if g == types.GatewayTypeBankTransfer && !operator {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeUnauthorized, "bank transfer confirmation requires the admin token"))
			return
		}
		if err := c.Request.ParseForm(); err != nil {
			badRequest(c, err)
			return
		}

		res, err := cb.HandleCallback(c.Request.Context(), g, c.Request.Form, operator)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// RegisterPaymentRoutes mounts the user payment API; r must carry UserAuthMiddleware.
func RegisterPaymentRoutes(r gin.IRouter, svc PaymentService) {
	r.POST("/create", ApiCreatePayment(svc))
	r.POST("/verify", ApiVerifyPayment(svc))
	r.POST("/cancel", ApiCancelPayment(svc))
	r.POST("/refund", ApiRefundPayment(svc))
	r.GET("/gateways", ApiGetAvailableGateways(svc))
	r.GET("/transaction/:id", ApiGetTransactionDetails(svc))
}

// RegisterCallbackRoutes mounts the bank return endpoints, which carry no user token.
func RegisterCallbackRoutes(r gin.IRouter, cb CallbackService, cfg *config.Config) {
	h := ApiPaymentCallback(cb, cfg)
	r.GET("/:gateway", h)
	r.POST("/:gateway", h)
}
