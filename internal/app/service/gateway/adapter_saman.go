package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/fatflowers/paygate/internal/platform/saman"
	"github.com/fatflowers/paygate/pkg/apperr"
	"github.com/fatflowers/paygate/pkg/types"
)

// SamanAdapter drives the SEP token flow. Refunds are full reversals only.
// SEP answers verifyTransaction for a RefNum again and again, so a RefNum
// already settled on another payment is refused.
type SamanAdapter struct {
	adapterBase
	client *saman.Client
	refs   ReferenceIndex
}

func NewSamanAdapter(client *saman.Client, limits AmountLimits, refs ReferenceIndex) *SamanAdapter {
	return &SamanAdapter{adapterBase: adapterBase{gateway: types.GatewayTypeSaman, limits: limits}, client: client, refs: refs}
}

func (a *SamanAdapter) SupportsRefund() bool { return true }

func (a *SamanAdapter) CreatePaymentRequest(ctx context.Context, userID string, in *CreateInput) (*CreateResult, error) {
	if err := a.limits.Check(a.gateway, in.Amount); err != nil {
		return nil, err
	}
	token, err := a.client.RequestToken(ctx, saman.TokenRequest{
		ResNum:      in.TransactionID,
		Amount:      in.Amount,
		RedirectURL: in.CallbackURL,
		CellNumber:  in.Mobile,
	})
	if err != nil {
		return nil, a.fail("request token", err)
	}
	return &CreateResult{
		Authority:    token,
		PaymentURL:   a.client.PaymentURL(),
		RedirectVerb: http.MethodPost,
		FormFields:   map[string]string{"Token": token, "RedirectURL": in.CallbackURL},
		Status:       types.PaymentStatusPending,
	}, nil
}

func (a *SamanAdapter) VerifyPayment(ctx context.Context, userID string, in *VerifyInput) (*VerifyResult, error) {
	cb := in.CallbackData
	if state, ok := cb["State"]; ok && state != saman.StateOK {
		return nil, classifyState(a.gateway, state)
	}
	if cb["ResNum"] != in.TransactionID {
		return nil, apperr.Validation("authority_mismatch", "callback ResNum does not match the payment").WithGateway(a.gateway)
	}
	refNum := cb["RefNum"]
	if refNum == "" {
		return nil, apperr.Validation("missing_callback_field", "RefNum is required").WithGateway(a.gateway)
	}
	if a.refs != nil {
		other, err := a.refs.FindByReference(ctx, a.gateway, refNum)
		if err != nil {
			return nil, apperr.Internal("failed to check RefNum", err)
		}
		if other != nil && other.ID != in.TransactionID {
			return nil, apperr.Validation("reference_already_used", "RefNum belongs to another payment").WithGateway(a.gateway)
		}
	}

	paid, err := a.client.VerifyTransaction(ctx, refNum)
	if err != nil {
		return nil, a.fail("verify", err)
	}
	if paid != in.Amount {
		// never keep a payment of the wrong size
		detail := map[string]any{"paid": paid, "expected": in.Amount, "reversed": true}
		if rerr := a.client.ReverseTransaction(ctx, refNum); rerr != nil {
			detail["reversed"] = false
			detail["reverse_error"] = rerr.Error()
		}
		return nil, apperr.Provider(a.gateway, "amount_mismatch", "paid amount differs from the payment amount", nil).WithDetail(detail)
	}

	tracking := cb["TraceNo"]
	if tracking == "" {
		tracking = cb["TRACENO"]
	}
	return &VerifyResult{
		ReferenceID:  refNum,
		TrackingCode: tracking,
		CardPAN:      cb["SecurePan"],
		Amount:       paid,
		GatewayData:  map[string]any{"ref_num": refNum, "rrn": cb["RRN"]},
	}, nil
}

func (a *SamanAdapter) RefundPayment(ctx context.Context, in *RefundInput) (*RefundResult, error) {
	if in.Amount != in.PaidAmount {
		return nil, apperr.Validation("partial_refund_not_supported", "Saman only reverses the full amount of %d", in.PaidAmount).WithGateway(a.gateway)
	}
	if in.ReferenceID == "" {
		return nil, apperr.Validation("missing_reference", "payment has no RefNum to reverse").WithGateway(a.gateway)
	}
	if err := a.client.ReverseTransaction(ctx, in.ReferenceID); err != nil {
		return nil, a.fail("reverse", err)
	}
	return &RefundResult{RefundID: in.ReferenceID, Amount: in.Amount, Status: "reversed"}, nil
}

func (a *SamanAdapter) HealthCheck(ctx context.Context) error {
	if !a.client.Configured() {
		return apperr.Provider(a.gateway, "not_configured", "merchant id is not configured", nil)
	}
	return nil
}

func (a *SamanAdapter) fail(op string, err error) error {
	var resErr *saman.ResultError
	if errors.As(err, &resErr) {
		return classify(a.gateway, samanCodes, resErr.Code, err)
	}
	return transportError(a.gateway, op, err)
}
