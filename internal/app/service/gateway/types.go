package gateway

import (
	"time"

	"github.com/fatflowers/paygate/pkg/types"
)

// UnifiedPaymentRequest starts a payment on whichever gateway fits.
type UnifiedPaymentRequest struct {
	UserID           string               `json:"-"`
	Amount           int64                `json:"amount" binding:"required,gt=0"`
	Currency         string               `json:"currency,omitempty"`
	Purpose          types.PaymentPurpose `json:"purpose" binding:"required"`
	Description      string               `json:"description,omitempty"`
	GatewayType      types.GatewayType    `json:"gateway_type,omitempty"`
	PreferredGateway types.GatewayType    `json:"preferred_gateway,omitempty"`
	PriorityGateways []types.GatewayType  `json:"priority_gateways,omitempty"`
	ExcludeGateways  []types.GatewayType  `json:"exclude_gateways,omitempty"`
	// CallbackURL overrides the bank return URL derived from payment.callback_base_url.
	CallbackURL string `json:"callback_url,omitempty" binding:"omitempty,url"`
	OrderID     string `json:"order_id,omitempty"`
	InvoiceID   string `json:"invoice_id,omitempty"`
	Mobile      string `json:"mobile,omitempty"`
	Email       string `json:"email,omitempty" binding:"omitempty,email"`
	// MaxRetryAttempts overrides payment.max_retry_attempts for this request.
	MaxRetryAttempts *int `json:"max_retry_attempts,omitempty" binding:"omitempty,gte=0,lte=10"`
	// AllowFallback=false stops after the first failed gateway even when
	// payment.fallback_enabled is set.
	AllowFallback *bool          `json:"allow_fallback,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

type UnifiedPaymentResponse struct {
	TransactionID     string              `json:"transaction_id"`
	Status            types.PaymentStatus `json:"status"`
	Gateway           types.GatewayType   `json:"gateway"`
	Amount            int64               `json:"amount"`
	Currency          string              `json:"currency"`
	Authority         string              `json:"authority,omitempty"`
	PaymentURL        string              `json:"payment_url,omitempty"`
	RedirectMethod    string              `json:"redirect_method,omitempty"`
	FormFields        map[string]string   `json:"form_fields,omitempty"`
	Instructions      map[string]string   `json:"instructions,omitempty"`
	Fee               int64               `json:"fee,omitempty"`
	FallbackUsed      bool                `json:"fallback_used"`
	AttemptedGateways []types.GatewayType `json:"attempted_gateways"`
	ExpiresAt         *time.Time          `json:"expires_at,omitempty"`
}

// UnifiedVerificationRequest resolves a payment after the payer returns.
type UnifiedVerificationRequest struct {
	UserID        string            `json:"-"`
	TransactionID string            `json:"transaction_id" binding:"required"`
	Authority     string            `json:"authority,omitempty"`
	CallbackData  map[string]string `json:"callback_data,omitempty"`
	// OperatorConfirmed is set only by the admin-guarded callback route. Bank
	// transfers never verify without it.
	OperatorConfirmed bool `json:"-"`
}

type VerificationResponse struct {
	TransactionID   string              `json:"transaction_id"`
	Status          types.PaymentStatus `json:"status"`
	Gateway         types.GatewayType   `json:"gateway"`
	Amount          int64               `json:"amount"`
	FinalAmount     int64               `json:"final_amount"`
	ReferenceID     string              `json:"reference_id,omitempty"`
	TrackingCode    string              `json:"tracking_code,omitempty"`
	CardPAN         string              `json:"card_pan,omitempty"`
	CompletedAt     *time.Time          `json:"completed_at,omitempty"`
	WalletCredited  bool                `json:"wallet_credited,omitempty"`
	AlreadyVerified bool                `json:"already_verified,omitempty"`
}

type CancelPaymentRequest struct {
	UserID        string `json:"-"`
	TransactionID string `json:"transaction_id" binding:"required"`
	Reason        string `json:"reason,omitempty"`
}

type RefundPaymentRequest struct {
	UserID        string `json:"-"`
	TransactionID string `json:"transaction_id" binding:"required"`
	// Amount defaults to everything not yet refunded.
	Amount      int64  `json:"amount,omitempty" binding:"gte=0"`
	Reason      string `json:"reason,omitempty"`
	ProcessedBy string `json:"-"`
}

type RefundPaymentResponse struct {
	TransactionID  string              `json:"transaction_id"`
	RefundID       string              `json:"refund_id"`
	Amount         int64               `json:"amount"`
	RefundedAmount int64               `json:"refunded_amount"`
	Status         types.PaymentStatus `json:"status"`
}

// GatewayInfo describes a registered gateway for clients choosing one.
type GatewayInfo struct {
	Type           types.GatewayType `json:"type"`
	Name           string            `json:"name"`
	Healthy        bool              `json:"healthy"`
	Limits         AmountLimits      `json:"limits"`
	SupportsRefund bool              `json:"supports_refund"`
	// Eligible is set when the queried amount fits the limits.
	Eligible bool `json:"eligible"`
}
