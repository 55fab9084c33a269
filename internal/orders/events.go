package orders

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated = "OrderCreated"
	EventOrderPaid    = "OrderPaid"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order number
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      string          `json:"user_id"`
	ItemCount   int             `json:"item_count"`
	Total       decimal.Decimal `json:"total"`
}

type OrderPaidPayload struct {
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      string          `json:"user_id"`
	PaymentRef  string          `json:"payment_ref"`
	Total       decimal.Decimal `json:"total"`
}
