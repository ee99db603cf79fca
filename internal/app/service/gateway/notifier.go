package gateway

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fatflowers/paygate/internal/models"
	"github.com/fatflowers/paygate/internal/platform/httpx"
	"github.com/fatflowers/paygate/pkg/config"
	"github.com/fatflowers/paygate/pkg/types"
)

const (
	EventPaymentCompleted = "payment.completed"
	EventPaymentRefunded  = "payment.refunded"

	notifyTimeout = 10 * time.Second
)

// OrderEvent is the JSON body posted to the order service.
type OrderEvent struct {
	Event          string               `json:"event"`
	TransactionID  string               `json:"transaction_id"`
	UserID         string               `json:"user_id"`
	OrderID        string               `json:"order_id,omitempty"`
	InvoiceID      string               `json:"invoice_id,omitempty"`
	Purpose        types.PaymentPurpose `json:"purpose"`
	Gateway        types.GatewayType    `json:"gateway"`
	Status         types.PaymentStatus  `json:"status"`
	Amount         int64                `json:"amount"`
	FinalAmount    int64                `json:"final_amount"`
	RefundedAmount int64                `json:"refunded_amount"`
	ReferenceID    string               `json:"reference_id,omitempty"`
	CompletedAt    *time.Time           `json:"completed_at,omitempty"`
}

func newOrderEvent(event string, tx *models.PaymentTransaction) *OrderEvent {
	e := &OrderEvent{
		Event:          event,
		TransactionID:  tx.ID,
		UserID:         tx.UserID,
		Purpose:        tx.Purpose,
		Gateway:        tx.PaymentMethod,
		Status:         tx.Status,
		Amount:         tx.Amount,
		FinalAmount:    tx.FinalAmount,
		RefundedAmount: tx.RefundedAmount,
		ReferenceID:    tx.ReferenceID,
		CompletedAt:    tx.CompletedAt,
	}
	if tx.OrderID != nil {
		e.OrderID = *tx.OrderID
	}
	if tx.InvoiceID != nil {
		e.InvoiceID = *tx.InvoiceID
	}
	return e
}

// OrderNotifier tells the order/invoice owner about payment outcomes. It is
// one way: failures are the notifier's to log, never the payment's.
type OrderNotifier interface {
	Notify(ctx context.Context, event *OrderEvent) error
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, *OrderEvent) error { return nil }

type httpNotifier struct {
	client *httpx.Client
	log    *zap.SugaredLogger
}

// NewOrderNotifier posts to payment.order_callback_url, or does nothing when it is unset.
func NewOrderNotifier(cfg *config.PaymentConfig, log *zap.SugaredLogger) OrderNotifier {
	if cfg.OrderCallbackURL == "" {
		return noopNotifier{}
	}
	return &httpNotifier{
		client: httpx.New(httpx.Config{BaseURL: cfg.OrderCallbackURL, Timeout: notifyTimeout}),
		log:    log,
	}
}

func (n *httpNotifier) Notify(ctx context.Context, event *OrderEvent) error {
	res, err := n.client.PostJSON(ctx, "", event, map[string]string{"X-Paygate-Event": event.Event})
	if err != nil {
		return fmt.Errorf("order callback: %w", err)
	}
	if !res.OK() {
		return fmt.Errorf("order callback: unexpected status %d", res.StatusCode)
	}
	return nil
}
