package orders

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"shop-backend/internal/errx"
)

const (
	EventOrderCreated  = "OrderCreated"
	EventOrderUpdated  = "OrderUpdated"
	EventOrderDeleted  = "OrderDeleted"
	EventStockRejected = "StockRejected"
	EventStockDepleted = "StockDepleted"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID       int64           `json:"order_id"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	CustomerEmail string          `json:"customer_email"`
	Lines         []Line          `json:"lines"`
	Total         decimal.Decimal `json:"total"`
}

type OrderUpdatedPayload struct {
	OrderID int64  `json:"order_id"`
	Status  Status `json:"status"`
	Paid    Paid   `json:"paid"`
}

type OrderDeletedPayload struct {
	OrderID  int64       `json:"order_id"`
	Restored []ItemInput `json:"restored"`
}

type StockRejectedPayload struct {
	Reason    string          `json:"reason"`
	Shortages []errx.Shortage `json:"shortages"`
}

type StockDepletedPayload struct {
	OrderID  int64             `json:"order_id"`
	Products []DepletedProduct `json:"products"`
}
