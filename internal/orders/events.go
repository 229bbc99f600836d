package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // one of the consts above
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "delivery-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- Payload per event ----

type ItemSnapshot struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Qty        int    `json:"qty"`
}

type OrderCreatedPayload struct {
	OrderID           string         `json:"order_id"`
	ExternalID        string         `json:"external_id,omitempty"`
	CustomerID        string         `json:"customer_id"`
	RestaurantID      string         `json:"restaurant_id"`
	RestaurantOwnerID string         `json:"restaurant_owner_id"`
	Items             []ItemSnapshot `json:"items"`
	TotalCents        int64          `json:"total_cents"`
}

type OrderStatusChangedPayload struct {
	OrderID           string  `json:"order_id"`
	OldStatus         Status  `json:"old_status"`
	NewStatus         Status  `json:"new_status"`
	CustomerID        string  `json:"customer_id"`
	CourierID         *string `json:"courier_id,omitempty"`
	RestaurantOwnerID string  `json:"restaurant_owner_id,omitempty"`
	ActorID           string  `json:"actor_id"`
	ActorRole         string  `json:"actor_role"`
}
