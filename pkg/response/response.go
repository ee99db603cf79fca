package response

import "github.com/fatflowers/paygate/pkg/apperr"

type APIResponseCode int

const (
	APIResponseCodeOK                 APIResponseCode = 0
	APIResponseCodeBadRequest         APIResponseCode = 40000
	APIResponseCodeUnauthorized       APIResponseCode = 40100
	APIResponseCodeInsufficientFunds  APIResponseCode = 40200
	APIResponseCodeNotFound           APIResponseCode = 40400
	APIResponseCodeError              APIResponseCode = 50000
	APIResponseCodeProviderError      APIResponseCode = 50200
	APIResponseCodeGatewayUnavailable APIResponseCode = 50300
	APIResponseCodeSettlement         APIResponseCode = 50900
)

var codeToMsg = map[APIResponseCode]string{
	APIResponseCodeOK:                 "ok",
	APIResponseCodeBadRequest:         "bad request",
	APIResponseCodeUnauthorized:       "unauthorized",
	APIResponseCodeInsufficientFunds:  "insufficient funds",
	APIResponseCodeNotFound:           "not found",
	APIResponseCodeError:              "unexpected error",
	APIResponseCodeProviderError:      "payment provider error",
	APIResponseCodeGatewayUnavailable: "no payment gateway available",
	APIResponseCodeSettlement:         "settlement inconsistency",
}

var kindToCode = map[apperr.Kind]APIResponseCode{
	apperr.KindValidation:              APIResponseCodeBadRequest,
	apperr.KindAuthentication:          APIResponseCodeUnauthorized,
	apperr.KindInsufficientFunds:       APIResponseCodeInsufficientFunds,
	apperr.KindStaleTransaction:        APIResponseCodeNotFound,
	apperr.KindProvider:                APIResponseCodeProviderError,
	apperr.KindGatewayUnavailable:      APIResponseCodeGatewayUnavailable,
	apperr.KindSettlementInconsistency: APIResponseCodeSettlement,
	apperr.KindInternal:                APIResponseCodeError,
}

// APIResponse is the generic response envelope used by HTTP APIs.
// Use OKT / ErrorT / FromError helpers to construct instances.
type APIResponse[T any] struct {
	Code    APIResponseCode `json:"code"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    T               `json:"data"`
}

// OKT returns a successful response with data.
func OKT[T any](data T) *APIResponse[T] {
	return &APIResponse[T]{Code: APIResponseCodeOK, Success: true, Message: codeToMsg[APIResponseCodeOK], Data: data}
}

// ErrorT returns an error response with message and optional data.
func ErrorT[T any](code APIResponseCode, data T) *APIResponse[T] {
	return &APIResponse[T]{Code: code, Message: codeToMsg[code], Data: data}
}

// FromError classifies err through apperr and wraps the public view of it.
// Diagnostics are included only when debug is set by the caller.
func FromError(err error, debug bool) *APIResponse[*apperr.PublicError] {
	pub := apperr.Public(err, debug)
	code, ok := kindToCode[pub.Kind]
	if !ok {
		code = APIResponseCodeError
	}
	return &APIResponse[*apperr.PublicError]{Code: code, Message: pub.Message, Data: pub}
}
