package orders

import (
	"fmt"

	"github.com/google/uuid"
)

// BuildOrder validates the cart against the restaurant's menu and assembles
// a PENDING order with name/price snapshots and a server-computed total.
// Client-submitted prices never enter here: `menu` is what the store read
// from the restaurant's own menu inside the transaction.
func BuildOrder(customerID, restaurantID, externalID string, items []ItemInput, addr Address, menu map[string]MenuItem) (Order, error) {
	if len(items) == 0 {
		return Order{}, fmt.Errorf("%w: empty cart", ErrValidation)
	}
	if !addr.Valid() {
		return Order{}, fmt.Errorf("%w: incomplete delivery address", ErrValidation)
	}

	o := Order{
		ID:           uuid.NewString(),
		ExternalID:   externalID,
		CustomerID:   customerID,
		RestaurantID: restaurantID,
		Status:       StatusPending,
		Address:      addr,
	}
	for _, it := range items {
		if it.Qty < 1 {
			return Order{}, fmt.Errorf("%w: invalid qty for item %s", ErrValidation, it.MenuItemID)
		}
		m, ok := menu[it.MenuItemID]
		if !ok {
			return Order{}, fmt.Errorf("%w: item %s not on this restaurant's menu", ErrValidation, it.MenuItemID)
		}
		if !m.Available {
			return Order{}, fmt.Errorf("%w: item %s is unavailable", ErrValidation, it.MenuItemID)
		}
		oi := OrderItem{
			OrderID:    o.ID,
			MenuItemID: m.ID,
			Name:       m.Name,
			PriceCents: m.PriceCents,
			Qty:        it.Qty,
			Note:       it.Note,
		}
		o.Items = append(o.Items, oi)
		o.TotalCents += oi.LineTotalCents()
	}
	return o, nil
}
