package gateway

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/fatflowers/paygate/internal/platform/zarinpal"
	"github.com/fatflowers/paygate/pkg/apperr"
	"github.com/fatflowers/paygate/pkg/types"
)

// ZarinPalAdapter drives the ZarinPal v4 REST API.
type ZarinPalAdapter struct {
	adapterBase
	client *zarinpal.Client
}

func NewZarinPalAdapter(client *zarinpal.Client, limits AmountLimits) *ZarinPalAdapter {
	return &ZarinPalAdapter{adapterBase: adapterBase{gateway: types.GatewayTypeZarinPal, limits: limits}, client: client}
}

func (a *ZarinPalAdapter) SupportsRefund() bool { return true }

func (a *ZarinPalAdapter) CreatePaymentRequest(ctx context.Context, userID string, in *CreateInput) (*CreateResult, error) {
	if err := a.limits.Check(a.gateway, in.Amount); err != nil {
		return nil, err
	}
	req := &zarinpal.PaymentRequest{
		Amount:      in.Amount,
		Currency:    in.Currency,
		CallbackURL: in.CallbackURL,
		Description: description(in),
	}
	if in.Mobile != "" || in.Email != "" || in.OrderID != "" {
		req.Metadata = &zarinpal.Metadata{Mobile: in.Mobile, Email: in.Email, OrderID: in.OrderID}
	}
	res, err := a.client.RequestPayment(ctx, req)
	if err != nil {
		return nil, a.fail("request", err)
	}
	if res.Code != zarinpal.CodeSuccess || res.Authority == "" {
		return nil, classify(a.gateway, zarinpalCodes, res.Code, nil)
	}
	return &CreateResult{
		Authority:    res.Authority,
		PaymentURL:   a.client.StartPayURL(res.Authority),
		RedirectVerb: http.MethodGet,
		Fee:          res.Fee,
		Status:       types.PaymentStatusPending,
		GatewayData:  map[string]any{"fee_type": res.FeeType},
	}, nil
}

func (a *ZarinPalAdapter) VerifyPayment(ctx context.Context, userID string, in *VerifyInput) (*VerifyResult, error) {
	authority := in.Authority
	if cb := in.CallbackData["Authority"]; cb != "" && cb != authority {
		return nil, apperr.Validation("authority_mismatch", "callback authority does not match the payment").WithGateway(a.gateway)
	}
	// the payer came back without paying; skip the verify round trip
	if status, ok := in.CallbackData["Status"]; ok && status != "OK" {
		return nil, classify(a.gateway, zarinpalCodes, -51, nil).WithDetail(map[string]any{"callback_status": status})
	}
	res, err := a.client.VerifyPayment(ctx, &zarinpal.VerifyRequest{Amount: in.Amount, Authority: authority})
	if err != nil {
		return nil, a.fail("verify", err)
	}
	if res.Code != zarinpal.CodeSuccess && res.Code != zarinpal.CodeAlreadyVerified {
		return nil, classify(a.gateway, zarinpalCodes, res.Code, nil)
	}
	ref := strconv.FormatInt(res.RefID, 10)
	return &VerifyResult{
		ReferenceID:  ref,
		TrackingCode: ref,
		CardPAN:      res.CardPan,
		CardHash:     res.CardHash,
		Amount:       in.Amount,
		Fee:          res.Fee,
		GatewayData: map[string]any{
			"already_verified": res.Code == zarinpal.CodeAlreadyVerified,
			"fee_type":         res.FeeType,
		},
	}, nil
}

// RefundPayment files a refund against the payment session. ZarinPal keys
// sessions by authority.
func (a *ZarinPalAdapter) RefundPayment(ctx context.Context, in *RefundInput) (*RefundResult, error) {
	res, err := a.client.Refund(ctx, &zarinpal.RefundRequest{
		SessionID:   in.Authority,
		Amount:      in.Amount,
		Description: in.Reason,
		Method:      zarinpal.RefundMethodCard,
	})
	if err != nil {
		return nil, a.fail("refund", err)
	}
	return &RefundResult{RefundID: res.ID, Amount: res.Amount, Status: res.RefundStatus}, nil
}

// HealthCheck lists unverified authorities, the cheapest authenticated call.
func (a *ZarinPalAdapter) HealthCheck(ctx context.Context) error {
	if a.client.MerchantID() == "" {
		return apperr.Provider(a.gateway, "not_configured", "merchant id is not configured", nil)
	}
	if _, err := a.client.Unverified(ctx); err != nil {
		return a.fail("health check", err)
	}
	return nil
}

func (a *ZarinPalAdapter) fail(op string, err error) error {
	var apiErr *zarinpal.APIError
	if errors.As(err, &apiErr) {
		return classify(a.gateway, zarinpalCodes, apiErr.Code, err).
			WithDetail(map[string]any{"provider_code": apiErr.Code, "raw": apiErr.Raw})
	}
	return transportError(a.gateway, op, err)
}

func description(in *CreateInput) string {
	if in.Description != "" {
		return in.Description
	}
	return "payment " + in.TransactionID
}
