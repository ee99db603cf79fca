// Package gateway orchestrates payments across the registered gateways:
// adapters, health scoring, selection, and the payment lifecycle.
package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/fatflowers/paygate/pkg/apperr"
	"github.com/fatflowers/paygate/pkg/types"
)

// AmountLimits bounds the amount a gateway accepts, inclusive.
type AmountLimits struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// Check rejects amounts outside the limits before any provider call.
func (l AmountLimits) Check(g types.GatewayType, amount int64) error {
	if amount <= 0 {
		return apperr.Validation("invalid_amount", "amount must be positive, got %d", amount).WithGateway(g)
	}
	if l.Min > 0 && amount < l.Min {
		return apperr.Validation("amount_below_minimum", "amount %d is below the %s minimum of %d", amount, g.DisplayName(), l.Min).WithGateway(g)
	}
	if l.Max > 0 && amount > l.Max {
		return apperr.Validation("amount_above_maximum", "amount %d is above the %s maximum of %d", amount, g.DisplayName(), l.Max).WithGateway(g)
	}
	return nil
}

type CreateInput struct {
	TransactionID string
	Amount        int64
	Currency      string
	Description   string
	CallbackURL   string
	Mobile        string
	Email         string
	OrderID       string
	Purpose       types.PaymentPurpose
	Metadata      map[string]any
}

// CreateResult tells the caller how to send the payer to the provider.
// Gateways that need a POST redirect fill FormFields; the rest use a plain
// GET to PaymentURL.
type CreateResult struct {
	Authority    string              `json:"authority"`
	PaymentURL   string              `json:"payment_url,omitempty"`
	RedirectVerb string              `json:"redirect_method,omitempty"`
	FormFields   map[string]string   `json:"form_fields,omitempty"`
	Fee          int64               `json:"fee,omitempty"`
	Status       types.PaymentStatus `json:"status"`
	ReferenceID  string              `json:"reference_id,omitempty"`
	GatewayData  map[string]any      `json:"gateway_data,omitempty"`
	Instructions map[string]string   `json:"instructions,omitempty"`
}

type VerifyInput struct {
	TransactionID string
	Amount        int64
	Authority     string
	ReferenceID   string
	GatewayData   map[string]any
	// CallbackData carries the fields the provider posted back to us.
	CallbackData map[string]string
	// OperatorConfirmed marks CallbackData as coming from an admin.
	OperatorConfirmed bool
}

type VerifyResult struct {
	ReferenceID  string         `json:"reference_id"`
	TrackingCode string         `json:"tracking_code,omitempty"`
	CardPAN      string         `json:"card_pan,omitempty"`
	CardHash     string         `json:"card_hash,omitempty"`
	Amount       int64          `json:"amount"`
	Fee          int64          `json:"fee,omitempty"`
	GatewayData  map[string]any `json:"gateway_data,omitempty"`
}

type RefundInput struct {
	TransactionID string
	UserID        string
	Amount        int64
	// PaidAmount is the settled amount of the payment; full-reversal gateways
	// refuse anything else.
	PaidAmount  int64
	Reason      string
	Authority   string
	ReferenceID string
	GatewayData map[string]any
}

type RefundResult struct {
	RefundID    string         `json:"refund_id"`
	Amount      int64          `json:"amount"`
	Status      string         `json:"status"`
	GatewayData map[string]any `json:"gateway_data,omitempty"`
}

// Adapter speaks one provider's protocol. The set is closed: every
// implementation embeds adapterBase.
type Adapter interface {
	Type() types.GatewayType
	Limits() AmountLimits
	SupportsRefund() bool
	CreatePaymentRequest(ctx context.Context, userID string, in *CreateInput) (*CreateResult, error)
	VerifyPayment(ctx context.Context, userID string, in *VerifyInput) (*VerifyResult, error)
	RefundPayment(ctx context.Context, in *RefundInput) (*RefundResult, error)
	HealthCheck(ctx context.Context) error

	sealed()
}

type adapterBase struct {
	gateway types.GatewayType
	limits  AmountLimits
}

func (b adapterBase) Type() types.GatewayType { return b.gateway }
func (b adapterBase) Limits() AmountLimits    { return b.limits }
func (adapterBase) sealed()                   {}

func refundNotSupported(g types.GatewayType) error {
	return apperr.Validation("refund_not_supported", "%s does not support refunds", g.DisplayName()).WithGateway(g)
}

// Adapters maps each gateway type to its single implementation.
type Adapters struct {
	mu       sync.RWMutex
	adapters map[types.GatewayType]Adapter
}

func NewAdapters(list ...Adapter) (*Adapters, error) {
	a := &Adapters{adapters: make(map[types.GatewayType]Adapter)}
	for _, ad := range list {
		if err := a.Register(ad); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Register adds ad. Registering a second adapter for a type is an error.
func (a *Adapters) Register(ad Adapter) error {
	if ad == nil {
		return fmt.Errorf("nil adapter")
	}
	g := ad.Type()
	if !g.Valid() {
		return fmt.Errorf("adapter for unknown gateway type %q", g)
	}
	if g == types.GatewayTypeCrypto {
		return fmt.Errorf("gateway %s has no adapter", g)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.adapters[g]; exists {
		return fmt.Errorf("adapter for %s already registered", g)
	}
	a.adapters[g] = ad
	return nil
}

func (a *Adapters) Get(g types.GatewayType) (Adapter, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ad, ok := a.adapters[g]
	return ad, ok
}

// Types returns the registered gateways in canonical order.
func (a *Adapters) Types() []types.GatewayType {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]types.GatewayType, 0, len(a.adapters))
	for _, g := range types.AllGatewayTypes {
		if _, ok := a.adapters[g]; ok {
			out = append(out, g)
		}
	}
	return out
}
