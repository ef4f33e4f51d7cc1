package crm

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated      = "OrderCreated"
	EventProductsRestocked = "ProductsRestocked"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "crm-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID       string   `json:"order_id"`
	CustomerID    string   `json:"customer_id"`
	CustomerEmail string   `json:"customer_email"`
	ProductIDs    []string `json:"product_ids"`
	TotalCents    int      `json:"total_cents"`
}

type RestockedProduct struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
}

type ProductsRestockedPayload struct {
	Products []RestockedProduct `json:"products"`
	Message  string             `json:"message"`
}
