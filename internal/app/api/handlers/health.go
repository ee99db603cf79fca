package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/paygate/pkg/response"
	"github.com/fatflowers/paygate/pkg/types"
)

const (
	HealthStatusOK       = "ok"
	HealthStatusDegraded = "degraded"
)

// HealthReport tells load balancers the process is up and whether any
// external gateway can take a new payment.
type HealthReport struct {
	Status          string              `json:"status"`
	Gateways        int                 `json:"gateways"`
	HealthyGateways []types.GatewayType `json:"healthy_gateways"`
}

// @Summary      Health check
// @Description  Liveness plus the gateways currently accepting payments. Status is "degraded" when no external gateway is healthy; the wallet alone does not count.
// @Tags         System
// @Produce      json
// @Success      200  {object}  handlers.RespHealth
// @Router       /healthz [get]
func ApiHealthz(svc GatewayHealthReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		statuses := svc.GetGatewayHealthStatus()
		report := HealthReport{Status: HealthStatusDegraded, Gateways: len(statuses), HealthyGateways: []types.GatewayType{}}
		for _, s := range statuses {
			if !s.IsHealthy {
				continue
			}
			report.HealthyGateways = append(report.HealthyGateways, s.Gateway)
			if s.Gateway.IsExternal() {
				report.Status = HealthStatusOK
			}
		}
		c.JSON(http.StatusOK, response.OKT(report))
	}
}

func RegisterHealthRoutes(r gin.IRouter, svc GatewayHealthReader) {
	r.GET("/healthz", ApiHealthz(svc))
}
