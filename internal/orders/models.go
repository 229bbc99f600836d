package orders

import "time"

// MenuItem is part of the read model owned by the restaurant CRUD service.
// Orders only read it to snapshot name and price at creation time.
type MenuItem struct {
	ID           string
	RestaurantID string
	Name         string
	PriceCents   int64
	Available    bool
}

// Address is snapshotted onto the order; later profile edits never touch it.
type Address struct {
	Street   string `json:"street"`
	City     string `json:"city"`
	Postcode string `json:"postcode"`
	Note     string `json:"note,omitempty"`
}

func (a Address) Valid() bool {
	return a.Street != "" && a.City != "" && a.Postcode != ""
}

// OrderItem carries immutable snapshots of the menu item's name and price.
type OrderItem struct {
	ID         int64  `json:"-"`
	OrderID    string `json:"-"`
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Qty        int    `json:"qty"`
	Note       string `json:"note,omitempty"`
}

func (it OrderItem) LineTotalCents() int64 {
	return it.PriceCents * int64(it.Qty)
}

type Order struct {
	ID           string      `json:"id"`
	ExternalID   string      `json:"external_id,omitempty"`
	CustomerID   string      `json:"customer_id"`
	RestaurantID string      `json:"restaurant_id"`
	CourierID    *string     `json:"courier_id,omitempty"`
	Status       Status      `json:"status"`
	TotalCents   int64       `json:"total_cents"`
	Address      Address     `json:"delivery_address"`
	Items        []OrderItem `json:"items,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// AssignedTo reports whether the order is held by the given courier.
func (o Order) AssignedTo(courierID string) bool {
	return o.CourierID != nil && *o.CourierID == courierID
}
