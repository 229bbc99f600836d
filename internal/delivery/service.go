// Package delivery matches unclaimed orders to couriers. Claiming is an
// atomic first-writer-wins update; two couriers racing for the same order
// can never both win.
package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-food-delivery.git/internal/auth"
	"github.com/ariefcatur/go-food-delivery.git/internal/notify"
	"github.com/ariefcatur/go-food-delivery.git/internal/orders"
)

type Store interface {
	GetOrder(ctx context.Context, orderID string) (orders.Order, error)
	Assign(ctx context.Context, orderID, courierID string) (bool, error)
	ListAvailable(ctx context.Context) ([]orders.Order, error)
	ListAssigned(ctx context.Context, courierID string) ([]orders.Order, error)
	ListDelivered(ctx context.Context, courierID string) ([]orders.Order, error)
}

type Publisher interface {
	Publish(ctx context.Context, ev notify.Event) error
}

type Service struct {
	Store  Store
	Notify Publisher
	Log    *zap.Logger
}

// Available returns the unclaimed ready-for-pickup pool, oldest first.
func (s *Service) Available(ctx context.Context, id auth.Identity) ([]orders.Order, error) {
	if id.Role != auth.RoleCourier && id.Role != auth.RoleAdmin {
		return nil, orders.ErrForbidden
	}
	return s.Store.ListAvailable(ctx)
}

// Claim binds the order to the courier, exclusively. On a lost race the
// caller gets Conflict and should re-fetch the available list.
func (s *Service) Claim(ctx context.Context, id auth.Identity, orderID string) (orders.Order, error) {
	if id.Role != auth.RoleCourier {
		return orders.Order{}, orders.ErrForbidden
	}

	ok, err := s.Store.Assign(ctx, orderID, id.UserID)
	if err != nil {
		return orders.Order{}, err
	}
	if !ok {
		o, err := s.Store.GetOrder(ctx, orderID)
		if err != nil {
			return orders.Order{}, err
		}
		if o.CourierID != nil {
			return orders.Order{}, orders.ErrConflict
		}
		return orders.Order{}, fmt.Errorf("%w: order is not ready for pickup", orders.ErrInvalidTransition)
	}

	o, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return orders.Order{}, err
	}
	_ = s.Notify.Publish(ctx, notify.Event{
		EventID:      uuid.NewString(),
		TargetUserID: o.CustomerID,
		OrderID:      o.ID,
		Status:       string(o.Status),
		Kind:         notify.KindCourierAssigned,
		OccurredAt:   time.Now().UTC(),
	})
	s.Log.Info("order claimed", zap.String("order_id", orderID), zap.String("courier_id", id.UserID))
	return o, nil
}

// Active returns the courier's claimed orders still in flight.
func (s *Service) Active(ctx context.Context, id auth.Identity) ([]orders.Order, error) {
	if id.Role != auth.RoleCourier {
		return nil, orders.ErrForbidden
	}
	return s.Store.ListAssigned(ctx, id.UserID)
}

// History returns the courier's delivered orders.
func (s *Service) History(ctx context.Context, id auth.Identity) ([]orders.Order, error) {
	if id.Role != auth.RoleCourier {
		return nil, orders.ErrForbidden
	}
	return s.Store.ListDelivered(ctx, id.UserID)
}
