// Package apperr is the error taxonomy shared by the gateway manager, the
// wallet ledger and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"

	"github.com/fatflowers/paygate/pkg/types"
)

type Kind string

const (
	KindValidation              Kind = "validation"
	KindAuthentication          Kind = "authentication"
	KindGatewayUnavailable      Kind = "gateway_unavailable"
	KindProvider                Kind = "provider"
	KindInsufficientFunds       Kind = "insufficient_funds"
	KindSettlementInconsistency Kind = "settlement_inconsistency"
	KindStaleTransaction        Kind = "stale_transaction"
	KindInternal                Kind = "internal"
)

// Error is a classified failure. Code is stable and machine readable; Message
// is safe to show to users. Detail and Err are diagnostics and only leave the
// process through Public(true).
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Gateway types.GatewayType
	Detail  any
	Err     error
}

func (e *Error) Error() string {
	prefix := string(e.Kind) + "/" + e.Code
	if e.Gateway != "" {
		prefix = string(e.Gateway) + ": " + prefix
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind, and of the same code when the
// target sets one, so callers can write errors.Is(err, apperr.ErrStaleTransaction).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// WithGateway returns a copy of e attributed to g.
func (e *Error) WithGateway(g types.GatewayType) *Error {
	cp := *e
	cp.Gateway = g
	return &cp
}

// WithDetail returns a copy of e carrying diagnostic detail.
func (e *Error) WithDetail(detail any) *Error {
	cp := *e
	cp.Detail = detail
	return &cp
}

// Sentinels for errors.Is.
var (
	ErrValidation              = &Error{Kind: KindValidation}
	ErrAuthentication          = &Error{Kind: KindAuthentication}
	ErrGatewayUnavailable      = &Error{Kind: KindGatewayUnavailable}
	ErrProvider                = &Error{Kind: KindProvider}
	ErrInsufficientFunds       = &Error{Kind: KindInsufficientFunds}
	ErrSettlementInconsistency = &Error{Kind: KindSettlementInconsistency}
	ErrStaleTransaction        = &Error{Kind: KindStaleTransaction}
	ErrInternal                = &Error{Kind: KindInternal}
)

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Wrap(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

func Validation(code, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Authentication(message string, err error) *Error {
	return &Error{Kind: KindAuthentication, Code: "unauthenticated", Message: message, Err: err}
}

func GatewayUnavailable(message string) *Error {
	return &Error{Kind: KindGatewayUnavailable, Code: "no_gateway_available", Message: message}
}

func Provider(g types.GatewayType, code, message string, err error) *Error {
	return &Error{Kind: KindProvider, Code: code, Message: message, Gateway: g, Err: err}
}

func InsufficientFunds(balance, amount int64) *Error {
	return &Error{
		Kind:    KindInsufficientFunds,
		Code:    "insufficient_funds",
		Message: fmt.Sprintf("wallet balance %d is lower than %d", balance, amount),
		Detail:  map[string]int64{"balance": balance, "amount": amount},
	}
}

func SettlementInconsistency(g types.GatewayType, message string, err error) *Error {
	return &Error{Kind: KindSettlementInconsistency, Code: "settlement_failed", Message: message, Gateway: g, Err: err}
}

func StaleTransaction(transactionID string) *Error {
	return &Error{
		Kind:    KindStaleTransaction,
		Code:    "transaction_not_found",
		Message: fmt.Sprintf("transaction %s is unknown, expired or evicted", transactionID),
	}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Code: "internal_error", Message: message, Err: err}
}

// As extracts the *Error in err's chain. Unclassified errors become internal
// errors so nothing raw crosses an API boundary.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal("unexpected error", err)
}

func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return As(err).Kind
}

// Retryable reports whether a failed create may fall back to another gateway.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindProvider, KindGatewayUnavailable:
		return true
	}
	return false
}

// PublicError is the JSON view of an Error.
type PublicError struct {
	Kind    Kind              `json:"kind"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Gateway types.GatewayType `json:"gateway,omitempty"`
	Debug   *DebugInfo        `json:"debug,omitempty"`
}

type DebugInfo struct {
	Cause  string `json:"cause,omitempty"`
	Detail any    `json:"detail,omitempty"`
}

// Public renders err for callers. Diagnostics are attached only when debug is set.
func Public(err error, debug bool) *PublicError {
	e := As(err)
	if e == nil {
		return nil
	}
	out := &PublicError{Kind: e.Kind, Code: e.Code, Message: e.Message, Gateway: e.Gateway}
	if debug {
		out.Debug = &DebugInfo{Detail: e.Detail}
		if e.Err != nil {
			out.Debug.Cause = e.Err.Error()
		}
	}
	return out
}
