package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/fatflowers/paygate/pkg/types"
)

// PaymentEvent is one entry of a payment's audit trail.
type PaymentEvent struct {
	At      time.Time           `json:"at"`
	From    types.PaymentStatus `json:"from,omitempty"`
	To      types.PaymentStatus `json:"to"`
	Gateway types.GatewayType   `json:"gateway,omitempty"`
	Message string              `json:"message,omitempty"`
}

// PaymentTransaction is a unified payment across every gateway. The manager
// keeps open payments in memory and writes each transition through to this table.
type PaymentTransaction struct {
	ID             string               `gorm:"column:id;type:uuid;primary_key" json:"transaction_id"`
	UserID         string               `gorm:"column:user_id;type:varchar(64);not null;index:idx_payment_user_created,priority:1" json:"user_id"`
	Amount         int64                `gorm:"column:amount;type:bigint;not null" json:"amount"`
	Currency       string               `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	Purpose        types.PaymentPurpose `gorm:"column:purpose;type:varchar(32);not null" json:"purpose"`
	PaymentMethod  types.GatewayType    `gorm:"column:payment_method;type:varchar(32);not null;index" json:"payment_method"`
	Status         types.PaymentStatus  `gorm:"column:status;type:varchar(32);not null;index" json:"status"`
	Description    string               `gorm:"column:description;type:varchar(255)" json:"description,omitempty"`
	Authority      string               `gorm:"column:authority;type:varchar(128);index" json:"authority,omitempty"`
	ReferenceID    string               `gorm:"column:reference_id;type:varchar(128)" json:"reference_id,omitempty"`
	TrackingCode   string               `gorm:"column:tracking_code;type:varchar(128)" json:"tracking_code,omitempty"`
	CardPAN        string               `gorm:"column:card_pan;type:varchar(32)" json:"card_pan,omitempty"`
	OrderID        *string              `gorm:"column:order_id;type:varchar(64);index" json:"order_id,omitempty"`
	InvoiceID      *string              `gorm:"column:invoice_id;type:varchar(64)" json:"invoice_id,omitempty"`
	FinalAmount    int64                `gorm:"column:final_amount;type:bigint;not null" json:"final_amount"`
	GatewayFee     int64                `gorm:"column:gateway_fee;type:bigint;not null;default:0" json:"gateway_fee"`
	RefundedAmount int64                `gorm:"column:refunded_amount;type:bigint;not null;default:0" json:"refunded_amount"`
	FallbackUsed   bool                 `gorm:"column:fallback_used;not null;default:false" json:"fallback_used"`

	AttemptedGateways datatypes.JSONType[[]types.GatewayType] `gorm:"column:attempted_gateways;type:jsonb" json:"attempted_gateways"`
	GatewayData       datatypes.JSONMap                       `gorm:"column:gateway_data;type:jsonb" json:"gateway_data,omitempty"`
	Events            datatypes.JSONType[[]PaymentEvent]      `gorm:"column:events;type:jsonb" json:"events"`

	CreatedAt   time.Time  `gorm:"column:created_at;index:idx_payment_user_created,priority:2,sort:desc" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `gorm:"column:completed_at;default:null" json:"completed_at,omitempty"`
}

func (PaymentTransaction) TableName() string { return "payment_transaction" }

var allowedTransitions = map[types.PaymentStatus][]types.PaymentStatus{
	types.PaymentStatusPending: {
		types.PaymentStatusProcessing, types.PaymentStatusCompleted, types.PaymentStatusFailed,
		types.PaymentStatusCancelled, types.PaymentStatusExpired,
	},
	types.PaymentStatusProcessing: {
		types.PaymentStatusCompleted, types.PaymentStatusFailed,
		types.PaymentStatusCancelled, types.PaymentStatusExpired,
	},
	types.PaymentStatusCompleted:         {types.PaymentStatusPartiallyRefunded, types.PaymentStatusRefunded},
	types.PaymentStatusPartiallyRefunded: {types.PaymentStatusPartiallyRefunded, types.PaymentStatusRefunded},
}

func CanTransition(from, to types.PaymentStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves the payment to status `to` and appends an audit event.
func (t *PaymentTransaction) Transition(to types.PaymentStatus, at time.Time, message string) error {
	if !CanTransition(t.Status, to) {
		return fmt.Errorf("payment %s cannot move from %s to %s", t.ID, t.Status, to)
	}
	t.AppendEvent(PaymentEvent{At: at, From: t.Status, To: to, Gateway: t.PaymentMethod, Message: message})
	t.Status = to
	t.UpdatedAt = at
	if to == types.PaymentStatusCompleted {
		t.CompletedAt = &at
	}
	return nil
}

// AppendEvent records an event without changing status, e.g. a failed attempt
// on a gateway that was then skipped.
func (t *PaymentTransaction) AppendEvent(e PaymentEvent) {
	events := append(t.Events.Data(), e)
	t.Events = datatypes.NewJSONType(events)
}

// RefundableAmount is what can still be returned to the payer.
func (t *PaymentTransaction) RefundableAmount() int64 {
	if r := t.FinalAmount - t.RefundedAmount; r > 0 {
		return r
	}
	return 0
}

// ApplyRefund accumulates amount and moves to partially_refunded or refunded.
func (t *PaymentTransaction) ApplyRefund(amount int64, at time.Time, reason string) error {
	if amount <= 0 || amount > t.RefundableAmount() {
		return fmt.Errorf("refund of %d exceeds refundable amount %d", amount, t.RefundableAmount())
	}
	next := types.PaymentStatusPartiallyRefunded
	if t.RefundedAmount+amount >= t.FinalAmount {
		next = types.PaymentStatusRefunded
	}
	if err := t.Transition(next, at, reason); err != nil {
		return err
	}
	t.RefundedAmount += amount
	return nil
}

func (t *PaymentTransaction) SetGatewayData(key string, value any) {
	if t.GatewayData == nil {
		t.GatewayData = datatypes.JSONMap{}
	}
	t.GatewayData[key] = value
}

// Clone returns a copy that shares no mutable state with t.
func (t *PaymentTransaction) Clone() *PaymentTransaction {
	if t == nil {
		return nil
	}
	cp := *t
	if t.OrderID != nil {
		v := *t.OrderID
		cp.OrderID = &v
	}
	if t.InvoiceID != nil {
		v := *t.InvoiceID
		cp.InvoiceID = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		cp.CompletedAt = &v
	}
	if t.GatewayData != nil {
		cp.GatewayData = make(datatypes.JSONMap, len(t.GatewayData))
		for k, v := range t.GatewayData {
			cp.GatewayData[k] = v
		}
	}
	cp.Events = datatypes.NewJSONType(append([]PaymentEvent(nil), t.Events.Data()...))
	cp.AttemptedGateways = datatypes.NewJSONType(append([]types.GatewayType(nil), t.AttemptedGateways.Data()...))
	return &cp
}
