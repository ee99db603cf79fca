package gateway

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/zoobzio/clockz"

	"github.com/fatflowers/paygate/internal/platform/mellat"
	"github.com/fatflowers/paygate/pkg/apperr"
	"github.com/fatflowers/paygate/pkg/tool"
	"github.com/fatflowers/paygate/pkg/types"
)

// MellatAdapter drives Behpardakht Mellat over SOAP. A verified sale is not
// paid out until it is settled, so VerifyPayment does both.
type MellatAdapter struct {
	adapterBase
	client *mellat.Client
	clock  clockz.Clock
}

func NewMellatAdapter(client *mellat.Client, limits AmountLimits, clock clockz.Clock) *MellatAdapter {
	return &MellatAdapter{adapterBase: adapterBase{gateway: types.GatewayTypeMellat, limits: limits}, client: client, clock: clock}
}

func (a *MellatAdapter) SupportsRefund() bool { return false }

func (a *MellatAdapter) CreatePaymentRequest(ctx context.Context, userID string, in *CreateInput) (*CreateResult, error) {
	if err := a.limits.Check(a.gateway, in.Amount); err != nil {
		return nil, err
	}
	now := a.clock.Now()
	orderID := tool.NumericOrderID(now)
	refID, err := a.client.PayRequest(ctx, mellat.PayRequest{
		OrderID:        orderID,
		Amount:         in.Amount,
		CallbackURL:    in.CallbackURL,
		AdditionalData: in.TransactionID,
		At:             now,
	})
	if err != nil {
		return nil, a.fail("pay request", err)
	}
	return &CreateResult{
		Authority:    refID,
		PaymentURL:   a.client.StartPayURL(),
		RedirectVerb: http.MethodPost,
		FormFields:   map[string]string{"RefId": refID},
		Status:       types.PaymentStatusPending,
		GatewayData:  map[string]any{"order_id": orderID},
	}, nil
}

func (a *MellatAdapter) VerifyPayment(ctx context.Context, userID string, in *VerifyInput) (*VerifyResult, error) {
	cb := in.CallbackData
	if code, ok := cb["ResCode"]; ok && code != "0" {
		n, _ := strconv.Atoi(code)
		return nil, classify(a.gateway, mellatCodes, n, nil)
	}
	if ref := cb["RefId"]; ref != "" && ref != in.Authority {
		return nil, apperr.Validation("authority_mismatch", "callback RefId does not match the payment").WithGateway(a.gateway)
	}
	saleOrderID, ok1 := atoi64(cb["SaleOrderId"])
	saleRefID, ok2 := atoi64(cb["SaleReferenceId"])
	if !ok1 || !ok2 {
		return nil, apperr.Validation("missing_callback_field", "SaleOrderId and SaleReferenceId are required").WithGateway(a.gateway)
	}
	orderID, ok := int64Of(in.GatewayData["order_id"])
	if !ok {
		orderID = saleOrderID
	}
	sale := mellat.Sale{OrderID: orderID, SaleOrderID: saleOrderID, SaleReferenceID: saleRefID}

	if err := a.client.Verify(ctx, sale); err != nil && !hasCode(err, mellat.CodeAlreadyVerified) {
		// a lost verify reply still leaves the sale verified; inquiry tells
		if ierr := a.client.Inquiry(ctx, sale); ierr != nil {
			return nil, a.fail("verify", err)
		}
	}
	if err := a.client.Settle(ctx, sale); err != nil && !hasCode(err, mellat.CodeAlreadySettled) {
		detail := map[string]any{"reversed": true}
		if rerr := a.client.Reverse(ctx, sale); rerr != nil {
			detail["reversed"] = false
			detail["reverse_error"] = rerr.Error()
		}
		return nil, apperr.SettlementInconsistency(a.gateway, "sale was verified but could not be settled", err).WithDetail(detail)
	}

	ref := strconv.FormatInt(saleRefID, 10)
	return &VerifyResult{
		ReferenceID:  ref,
		TrackingCode: ref,
		CardPAN:      cb["CardHolderPan"],
		Amount:       in.Amount,
		GatewayData: map[string]any{
			"sale_order_id":     saleOrderID,
			"sale_reference_id": saleRefID,
			"settled":           true,
		},
	}, nil
}

func (a *MellatAdapter) RefundPayment(ctx context.Context, in *RefundInput) (*RefundResult, error) {
	return nil, refundNotSupported(a.gateway)
}

// HealthCheck only checks configuration; Mellat has no unauthenticated probe.
func (a *MellatAdapter) HealthCheck(ctx context.Context) error {
	if !a.client.Configured() {
		return apperr.Provider(a.gateway, "not_configured", "terminal credentials are not configured", nil)
	}
	return nil
}

func (a *MellatAdapter) fail(op string, err error) error {
	var resErr *mellat.ResultError
	if errors.As(err, &resErr) {
		return classify(a.gateway, mellatCodes, resErr.Code, err)
	}
	var fault *mellat.FaultError
	if errors.As(err, &fault) {
		return apperr.Provider(a.gateway, "soap_fault", "Mellat rejected the call", err).
			WithDetail(map[string]any{"fault_code": fault.Code, "fault": fault.Message})
	}
	return transportError(a.gateway, op, err)
}

func hasCode(err error, code int) bool {
	var resErr *mellat.ResultError
	return errors.As(err, &resErr) && resErr.Code == code
}

// int64Of reads a number out of gateway data, which holds int64 in memory
// and float64 after a JSON round trip through the archive.
func int64Of(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		return atoi64(n)
	}
	return 0, false
}
