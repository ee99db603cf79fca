package gateway

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/fatflowers/paygate/pkg/apperr"
	"github.com/fatflowers/paygate/pkg/types"
)

// providerCode is one row of an adapter's code table.
type providerCode struct {
	Kind    apperr.Kind
	Code    string
	Message string
}

var zarinpalCodes = map[int]providerCode{
	-9:  {apperr.KindValidation, "invalid_request", "request rejected by ZarinPal validation"},
	-10: {apperr.KindProvider, "invalid_merchant", "merchant id or terminal is invalid"},
	-11: {apperr.KindProvider, "merchant_inactive", "merchant terminal is not active"},
	-12: {apperr.KindProvider, "too_many_attempts", "too many attempts, retry later"},
	-15: {apperr.KindProvider, "merchant_suspended", "merchant terminal is suspended"},
	-16: {apperr.KindProvider, "merchant_level_too_low", "merchant access level is too low"},
	-17: {apperr.KindProvider, "merchant_restricted", "merchant is restricted at the blue level"},
	-30: {apperr.KindProvider, "floating_fee_denied", "terminal may not accept floating fees"},
	-33: {apperr.KindValidation, "invalid_fee", "fee amount is invalid"},
	-50: {apperr.KindProvider, "amount_mismatch", "paid amount differs from the verified amount"},
	-51: {apperr.KindProvider, "payment_failed", "payment was not completed by the payer"},
	-52: {apperr.KindProvider, "unexpected_error", "unexpected ZarinPal error"},
	-53: {apperr.KindProvider, "session_mismatch", "authority does not belong to this merchant"},
	-54: {apperr.KindProvider, "invalid_authority", "authority is invalid"},
	-55: {apperr.KindProvider, "session_not_found", "payment session not found"},
}

var mellatCodes = map[int]providerCode{
	11:  {apperr.KindProvider, "invalid_card", "card number is invalid"},
	12:  {apperr.KindProvider, "card_insufficient_funds", "card balance is insufficient"},
	13:  {apperr.KindProvider, "wrong_pin", "card PIN is wrong"},
	14:  {apperr.KindProvider, "pin_attempts_exceeded", "too many wrong PIN attempts"},
	15:  {apperr.KindProvider, "invalid_card", "card is invalid"},
	17:  {apperr.KindProvider, "cancelled_by_user", "payer cancelled the payment"},
	18:  {apperr.KindProvider, "card_expired", "card has expired"},
	21:  {apperr.KindProvider, "invalid_merchant", "merchant is invalid"},
	23:  {apperr.KindProvider, "security_error", "security error"},
	24:  {apperr.KindProvider, "invalid_credentials", "terminal credentials are invalid"},
	25:  {apperr.KindValidation, "invalid_amount", "amount is invalid"},
	31:  {apperr.KindProvider, "invalid_response", "bank response is invalid"},
	34:  {apperr.KindProvider, "transaction_not_found", "bank has no such transaction"},
	35:  {apperr.KindValidation, "invalid_date", "local date is invalid"},
	41:  {apperr.KindProvider, "duplicate_order", "order id was used before"},
	42:  {apperr.KindProvider, "sale_not_found", "sale transaction not found"},
	43:  {apperr.KindProvider, "already_verified", "transaction was already verified"},
	45:  {apperr.KindProvider, "already_settled", "transaction was already settled"},
	46:  {apperr.KindProvider, "not_settled", "transaction is not settled"},
	47:  {apperr.KindProvider, "settle_not_found", "settle transaction not found"},
	48:  {apperr.KindProvider, "already_reversed", "transaction was reversed"},
	51:  {apperr.KindProvider, "duplicate_transaction", "duplicate transaction"},
	54:  {apperr.KindProvider, "reference_not_found", "reference transaction not found"},
	55:  {apperr.KindProvider, "invalid_transaction", "transaction is invalid"},
	61:  {apperr.KindProvider, "deposit_error", "settlement deposit failed"},
	111: {apperr.KindProvider, "issuer_invalid", "card issuer is invalid"},
	412: {apperr.KindProvider, "invalid_bill_id", "bill id is invalid"},
	421: {apperr.KindProvider, "ip_not_allowed", "caller IP is not allowed"},
}

var samanCodes = map[int]providerCode{
	-1:  {apperr.KindProvider, "processing_error", "error while processing the request"},
	-3:  {apperr.KindValidation, "invalid_input", "inputs contain invalid characters"},
	-4:  {apperr.KindProvider, "merchant_auth_failed", "merchant authentication failed"},
	-6:  {apperr.KindProvider, "already_reversed", "transaction was reversed or its window expired"},
	-7:  {apperr.KindProvider, "empty_receipt", "digital receipt is empty"},
	-8:  {apperr.KindValidation, "input_too_long", "input length exceeds the maximum"},
	-9:  {apperr.KindValidation, "invalid_amount", "returned amount is invalid"},
	-10: {apperr.KindProvider, "invalid_receipt", "digital receipt is invalid"},
	-11: {apperr.KindValidation, "input_too_short", "input length is below the minimum"},
	-12: {apperr.KindValidation, "negative_amount", "returned amount is negative"},
	-13: {apperr.KindProvider, "amount_exceeds_balance", "amount exceeds the unreturned balance"},
	-14: {apperr.KindProvider, "transaction_not_found", "transaction is not defined"},
	-15: {apperr.KindValidation, "fractional_amount", "returned amount is fractional"},
	-16: {apperr.KindProvider, "internal_error", "Saman internal error"},
	-17: {apperr.KindProvider, "partial_reversal_denied", "partial reversal is not allowed for this card"},
	-18: {apperr.KindProvider, "ip_not_allowed", "caller IP or merchant password is invalid"},
}

// samanStates maps the State field SEP posts to the callback.
var samanStates = map[string]providerCode{
	"Canceled By User":     {apperr.KindProvider, "cancelled_by_user", "payer cancelled the payment"},
	"Invalid Amount":       {apperr.KindProvider, "invalid_amount", "amount was rejected"},
	"Invalid Transaction":  {apperr.KindProvider, "invalid_transaction", "transaction is invalid"},
	"Invalid Card Number":  {apperr.KindProvider, "invalid_card", "card number is invalid"},
	"No Such Issuer":       {apperr.KindProvider, "issuer_invalid", "card issuer is unknown"},
	"Expired Card Pick Up": {apperr.KindProvider, "card_expired", "card has expired"},
	"Incorrect PIN":        {apperr.KindProvider, "wrong_pin", "card PIN is wrong"},
	"No Sufficient Funds":  {apperr.KindProvider, "card_insufficient_funds", "card balance is insufficient"},
	"Issuer Down Slm":      {apperr.KindProvider, "issuer_down", "card issuer is unavailable"},
	"TME Error":            {apperr.KindProvider, "bank_error", "bank side error"},
}

func classify(g types.GatewayType, table map[int]providerCode, code int, err error) *apperr.Error {
	row, ok := table[code]
	if !ok {
		return apperr.Provider(g, "provider_error", fmt.Sprintf("%s returned code %d", g.DisplayName(), code), err).
			WithDetail(map[string]any{"provider_code": code})
	}
	return (&apperr.Error{Kind: row.Kind, Code: row.Code, Message: row.Message, Gateway: g, Err: err}).
		WithDetail(map[string]any{"provider_code": code})
}

func classifyState(g types.GatewayType, state string) *apperr.Error {
	if row, ok := samanStates[state]; ok {
		return (&apperr.Error{Kind: row.Kind, Code: row.Code, Message: row.Message, Gateway: g}).
			WithDetail(map[string]any{"provider_state": state})
	}
	return apperr.Provider(g, "payment_failed", "payment was not completed", nil).
		WithDetail(map[string]any{"provider_state": state})
}

// transportError classifies a failure that never produced a provider code.
func transportError(g types.GatewayType, op string, err error) *apperr.Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Provider(g, "gateway_timeout", fmt.Sprintf("%s %s timed out", g.DisplayName(), op), err)
	}
	return apperr.Provider(g, "gateway_unreachable", fmt.Sprintf("%s %s failed", g.DisplayName(), op), err)
}

func atoi64(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}
