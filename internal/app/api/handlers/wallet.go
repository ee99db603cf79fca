package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	mw "github.com/fatflowers/paygate/internal/app/api/middleware"
	"github.com/fatflowers/paygate/internal/app/service/wallet"
	"github.com/fatflowers/paygate/pkg/response"
	"github.com/fatflowers/paygate/pkg/types"
)

// @Summary      Wallet Balance
// @Description  Returns the caller's wallet, creating an empty one on first use.
// @Tags         Wallet
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  handlers.RespWallet
// @Router       /api/v1/wallet [get]
func ApiGetWallet(svc WalletService) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, err := svc.GetBalance(c.Request.Context(), mw.UserID(c))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(w))
	}
}

// @Summary      Wallet Transactions
// @Description  Pages through the caller's ledger, newest first.
// @Tags         Wallet
// @Security     BearerAuth
// @Produce      json
// @Param        type query string false "Ledger entry type"
// @Param        from query int false "Offset"
// @Param        size query int false "Page size, at most 100"
// @Success      200  {object}  handlers.RespWalletTransactions
// @Router       /api/v1/wallet/transactions [get]
func ApiListWalletTransactions(svc WalletService) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := &wallet.ListTransactionsRequest{
			UserID: mw.UserID(c),
			Type:   types.WalletTransactionType(c.Query("type")),
		}
		// Read pagination from query params
		if v := c.Query("from"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				req.From = n
			}
		}
		if v := c.Query("size"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "invalid size"))
				return
			}
			req.Size = n
		}

		res, err := svc.ListTransactions(c.Request.Context(), req)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterWalletRoutes(r gin.IRouter, svc WalletService) {
	r.GET("", ApiGetWallet(svc))
	r.GET("/transactions", ApiListWalletTransactions(svc))
}
