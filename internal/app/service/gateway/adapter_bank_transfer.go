package gateway

import (
	"context"
	"strconv"
	"strings"

	"github.com/fatflowers/paygate/pkg/apperr"
	"github.com/fatflowers/paygate/pkg/config"
	"github.com/fatflowers/paygate/pkg/tool"
	"github.com/fatflowers/paygate/pkg/types"
)

// BankTransferAdapter issues manual transfer instructions. An operator
// confirms the deposit through the callback endpoint.
type BankTransferAdapter struct {
	adapterBase
	account config.BankTransferConfig
}

func NewBankTransferAdapter(account config.BankTransferConfig, limits AmountLimits) *BankTransferAdapter {
	return &BankTransferAdapter{adapterBase: adapterBase{gateway: types.GatewayTypeBankTransfer, limits: limits}, account: account}
}

func (a *BankTransferAdapter) SupportsRefund() bool { return false }

func (a *BankTransferAdapter) CreatePaymentRequest(ctx context.Context, userID string, in *CreateInput) (*CreateResult, error) {
	if err := a.limits.Check(a.gateway, in.Amount); err != nil {
		return nil, err
	}
	if a.account.IBAN == "" {
		return nil, apperr.Provider(a.gateway, "not_configured", "destination account is not configured", nil)
	}
	ref := tool.ShortReference("PG")
	return &CreateResult{
		Authority: ref,
		Status:    types.PaymentStatusPending,
		Instructions: map[string]string{
			"iban":           a.account.IBAN,
			"account_holder": a.account.AccountHolder,
			"bank_name":      a.account.BankName,
			"reference_code": ref,
			"amount":         strconv.FormatInt(in.Amount, 10),
		},
		GatewayData: map[string]any{"reference_code": ref},
	}, nil
}

// VerifyPayment accepts an operator confirmation: confirmed=true plus the
// bank's reference for the incoming transfer. Payer-supplied data is never
// enough.
func (a *BankTransferAdapter) VerifyPayment(ctx context.Context, userID string, in *VerifyInput) (*VerifyResult, error) {
	if !in.OperatorConfirmed {
		return nil, apperr.Validation("transfer_not_confirmed", "transfer has not been confirmed by an operator").WithGateway(a.gateway)
	}
	cb := in.CallbackData
	if code := cb["reference_code"]; code != "" && !strings.EqualFold(code, in.Authority) {
		return nil, apperr.Validation("authority_mismatch", "reference code does not match the payment").WithGateway(a.gateway)
	}
	if ok, _ := strconv.ParseBool(cb["confirmed"]); !ok {
		return nil, apperr.Validation("transfer_not_confirmed", "transfer has not been confirmed by an operator").WithGateway(a.gateway)
	}
	bankRef := cb["bank_reference"]
	if bankRef == "" {
		return nil, apperr.Validation("missing_callback_field", "bank_reference is required").WithGateway(a.gateway)
	}
	return &VerifyResult{
		ReferenceID:  bankRef,
		TrackingCode: in.Authority,
		Amount:       in.Amount,
		GatewayData:  map[string]any{"confirmed_by": cb["confirmed_by"]},
	}, nil
}

func (a *BankTransferAdapter) RefundPayment(ctx context.Context, in *RefundInput) (*RefundResult, error) {
	return nil, refundNotSupported(a.gateway)
}

func (a *BankTransferAdapter) HealthCheck(ctx context.Context) error {
	if a.account.IBAN == "" {
		return apperr.Provider(a.gateway, "not_configured", "destination account is not configured", nil)
	}
	return nil
}
