package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/fatflowers/paygate/pkg/types"
)

type PaymentCallbackLogStatus string

const (
	PaymentCallbackLogStatusReceived     PaymentCallbackLogStatus = "received"
	PaymentCallbackLogStatusHandled      PaymentCallbackLogStatus = "handled"
	PaymentCallbackLogStatusHandleFailed PaymentCallbackLogStatus = "handle_failed"
)

// PaymentCallbackLog records every bank redirect back to us, before and after handling.
type PaymentCallbackLog struct {
	ID            string                   `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Gateway       types.GatewayType        `gorm:"column:gateway;type:varchar(32);not null" json:"gateway"`
	UserID        *string                  `gorm:"column:user_id;type:varchar(64)" json:"user_id"`
	TraceID       string                   `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	TransactionID string                   `gorm:"column:transaction_id;type:varchar(64);index" json:"transaction_id"`
	ReceivedAt    time.Time                `gorm:"column:received_at" json:"received_at"`
	Data          datatypes.JSON           `gorm:"column:data;type:jsonb" json:"data"`
	Result        *datatypes.JSON          `gorm:"column:result;type:jsonb" json:"result"`
	Status        PaymentCallbackLogStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

func (PaymentCallbackLog) TableName() string { return "payment_callback_log" }
