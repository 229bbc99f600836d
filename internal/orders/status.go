package orders

import "github.com/ariefcatur/go-food-delivery.git/internal/auth"

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusPrepared   Status = "PREPARED"
	StatusInDelivery Status = "IN_DELIVERY"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPrepared, StatusInDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Actor describes the requester's relationship to a specific order, resolved
// by the caller before checking a transition.
type Actor struct {
	Role              auth.Role
	IsCustomer        bool // the order's customer
	OwnsRestaurant    bool // owner of the order's restaurant
	IsAssignedCourier bool // the courier holding the assignment
}

// permit lists who may drive one (from, to) edge. Couriers are always checked
// against the assignment, customers against ownership.
type permit struct {
	customer   bool
	restaurant bool
	courier    bool
	admin      bool
}

type edge struct{ from, to Status }

// The whole legal-transition set in one place, so it can be audited and
// tested exhaustively. Anything absent here is InvalidTransition.
var transitions = map[edge]permit{
	{StatusPending, StatusConfirmed}:    {restaurant: true},
	{StatusPending, StatusCancelled}:    {customer: true, admin: true},
	{StatusConfirmed, StatusPrepared}:   {restaurant: true},
	{StatusConfirmed, StatusCancelled}:  {restaurant: true, customer: true, admin: true},
	{StatusPrepared, StatusInDelivery}:  {courier: true},
	{StatusPrepared, StatusCancelled}:   {customer: true, admin: true},
	{StatusInDelivery, StatusDelivered}: {courier: true},
}

func CanTransition(from, to Status) bool {
	_, ok := transitions[edge{from, to}]
	return ok
}

// CheckTransition validates a status change against the table. It returns
// ErrInvalidTransition for edges outside the table and ErrForbidden when the
// edge exists but the actor may not drive it.
func CheckTransition(from, to Status, actor Actor) error {
	p, ok := transitions[edge{from, to}]
	if !ok {
		return ErrInvalidTransition
	}
	switch actor.Role {
	case auth.RoleAdmin:
		if p.admin {
			return nil
		}
	case auth.RoleCustomer:
		if p.customer && actor.IsCustomer {
			return nil
		}
	case auth.RoleRestaurant:
		if p.restaurant && actor.OwnsRestaurant {
			return nil
		}
	case auth.RoleCourier:
		if p.courier && actor.IsAssignedCourier {
			return nil
		}
	}
	return ErrForbidden
}
