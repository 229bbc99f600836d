package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-food-delivery.git/internal/auth"
	kafkax "github.com/ariefcatur/go-food-delivery.git/internal/kafka"
	"github.com/ariefcatur/go-food-delivery.git/internal/metrics"
	"github.com/ariefcatur/go-food-delivery.git/internal/notify"
)

// Store is the persistence contract the lifecycle service runs on. The
// conditional updates are the concurrency guard; the service never does a
// read-modify-write on status.
type Store interface {
	CreateOrder(ctx context.Context, customerID, restaurantID, externalID string, items []ItemInput, addr Address) (Order, error)
	GetOrder(ctx context.Context, orderID string) (Order, error)
	ListByCustomer(ctx context.Context, customerID string, status *Status, page, size int) ([]Order, error)
	UpdateStatusCAS(ctx context.Context, orderID string, from, to Status) (bool, error)
	UpdateStatusByCourier(ctx context.Context, orderID, courierID string, from, to Status) (bool, error)
	RestaurantOwner(ctx context.Context, restaurantID string) (string, error)
}

// Publisher is the notification fan-out.
type Publisher interface {
	Publish(ctx context.Context, ev notify.Event) error
}

// Stream matches the async kafka producer.
type Stream interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Service struct {
	Store       Store
	Notify      Publisher
	Created     Stream // order.created
	Changed     Stream // order.status.changed
	Metrics     *metrics.Metrics
	Log         *zap.Logger
	ServiceName string
}

type CreateInput struct {
	RestaurantID string      `json:"restaurant_id"`
	ExternalID   string      `json:"external_id,omitempty"`
	Items        []ItemInput `json:"items"`
	Address      Address     `json:"delivery_address"`
}

// Create places an order for the authenticated customer. Totals are computed
// by the store from menu snapshots; the fan-out targets the restaurant owner.
func (s *Service) Create(ctx context.Context, id auth.Identity, in CreateInput) (Order, error) {
	if id.Role != auth.RoleCustomer {
		return Order{}, ErrForbidden
	}
	o, err := s.Store.CreateOrder(ctx, id.UserID, in.RestaurantID, in.ExternalID, in.Items, in.Address)
	if err != nil {
		return Order{}, err
	}
	s.Metrics.OrdersCreated.Inc()

	// One envelope id per event; per-target notification ids derive from it
	// so the notifier backstop can dedup against the in-process append.
	evID := uuid.NewString()

	ownerID, err := s.Store.RestaurantOwner(ctx, o.RestaurantID)
	if err != nil {
		s.Log.Error("resolve restaurant owner", zap.String("order_id", o.ID), zap.Error(err))
	} else {
		_ = s.Notify.Publish(ctx, notify.Event{
			EventID:      notify.TargetEventID(evID, ownerID),
			TargetUserID: ownerID,
			OrderID:      o.ID,
			Status:       string(o.Status),
			Kind:         notify.KindOrderCreated,
			OccurredAt:   time.Now().UTC(),
		})
	}

	s.emitCreated(ctx, o, ownerID, evID)
	return o, nil
}

// Get enforces the read rules: customers see their own orders, couriers see
// their assignments plus the available pool, restaurant owners their own
// restaurant's orders, admins everything.
func (s *Service) Get(ctx context.Context, id auth.Identity, orderID string) (Order, error) {
	o, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	switch id.Role {
	case auth.RoleAdmin:
		return o, nil
	case auth.RoleCustomer:
		if o.CustomerID == id.UserID {
			return o, nil
		}
	case auth.RoleCourier:
		inPool := o.Status == StatusPrepared && o.CourierID == nil
		if o.AssignedTo(id.UserID) || inPool {
			return o, nil
		}
	case auth.RoleRestaurant:
		owner, err := s.Store.RestaurantOwner(ctx, o.RestaurantID)
		if err == nil && owner == id.UserID {
			return o, nil
		}
	}
	return Order{}, ErrForbidden
}

func (s *Service) ListMine(ctx context.Context, id auth.Identity, status *Status, page, size int) ([]Order, error) {
	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *status)
	}
	return s.Store.ListByCustomer(ctx, id.UserID, status, page, size)
}

// Cancel is a customer- or admin-driven jump to CANCELLED; legality per edge
// is decided by the transition table.
func (s *Service) Cancel(ctx context.Context, id auth.Identity, orderID string) (Order, error) {
	return s.Transition(ctx, id, orderID, StatusCancelled)
}

// Transition moves an order along one edge of the state machine. The status
// write is a compare-and-set on the observed status; losing the race twice
// surfaces as Conflict.
func (s *Service) Transition(ctx context.Context, id auth.Identity, orderID string, to Status) (Order, error) {
	if !to.Valid() {
		return Order{}, fmt.Errorf("%w: unknown status %q", ErrValidation, to)
	}

	for attempt := 0; attempt < 2; attempt++ {
		o, err := s.Store.GetOrder(ctx, orderID)
		if err != nil {
			return Order{}, err
		}
		if err := CheckTransition(o.Status, to, s.actorFor(ctx, id, o)); err != nil {
			return Order{}, err
		}

		var ok bool
		if id.Role == auth.RoleCourier {
			ok, err = s.Store.UpdateStatusByCourier(ctx, orderID, id.UserID, o.Status, to)
		} else {
			ok, err = s.Store.UpdateStatusCAS(ctx, orderID, o.Status, to)
		}
		if err != nil {
			return Order{}, err
		}
		if !ok {
			continue // someone else moved it first; re-check against fresh state
		}

		s.Metrics.Transitions.WithLabelValues(string(to)).Inc()
		s.fanoutStatus(ctx, o, to, id)
		o.Status = to
		o.UpdatedAt = time.Now().UTC()
		return o, nil
	}
	return Order{}, ErrConflict
}

func (s *Service) actorFor(ctx context.Context, id auth.Identity, o Order) Actor {
	a := Actor{Role: id.Role}
	switch id.Role {
	case auth.RoleCustomer:
		a.IsCustomer = o.CustomerID == id.UserID
	case auth.RoleCourier:
		a.IsAssignedCourier = o.AssignedTo(id.UserID)
	case auth.RoleRestaurant:
		owner, err := s.Store.RestaurantOwner(ctx, o.RestaurantID)
		a.OwnsRestaurant = err == nil && owner == id.UserID
	}
	return a
}

// fanoutStatus addresses the customer on every transition and additionally
// the assigned courier when a cancellation pulls the order out from under
// them. Each target gets its own event id.
func (s *Service) fanoutStatus(ctx context.Context, o Order, to Status, actor auth.Identity) {
	targets := []string{o.CustomerID}
	if to == StatusCancelled && o.CourierID != nil {
		targets = append(targets, *o.CourierID)
	}
	evID := uuid.NewString()
	now := time.Now().UTC()
	for _, target := range targets {
		_ = s.Notify.Publish(ctx, notify.Event{
			EventID:      notify.TargetEventID(evID, target),
			TargetUserID: target,
			OrderID:      o.ID,
			Status:       string(to),
			Kind:         notify.KindStatusUpdate,
			OccurredAt:   now,
		})
	}
	s.emitStatusChanged(ctx, o, to, actor, evID)
}

func (s *Service) emitCreated(ctx context.Context, o Order, ownerID, evID string) {
	items := make([]ItemSnapshot, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemSnapshot{
			MenuItemID: it.MenuItemID, Name: it.Name, PriceCents: it.PriceCents, Qty: it.Qty,
		})
	}
	ev := Envelope{
		EventID:       evID,
		EventType:     EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(OrderCreatedPayload{
			OrderID:           o.ID,
			ExternalID:        o.ExternalID,
			CustomerID:        o.CustomerID,
			RestaurantID:      o.RestaurantID,
			RestaurantOwnerID: ownerID,
			Items:             items,
			TotalCents:        o.TotalCents,
		}),
	}
	s.Created.Publish(PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (s *Service) emitStatusChanged(ctx context.Context, o Order, to Status, actor auth.Identity, evID string) {
	ev := Envelope{
		EventID:       evID,
		EventType:     EventOrderStatusChanged,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(OrderStatusChangedPayload{
			OrderID:    o.ID,
			OldStatus:  o.Status,
			NewStatus:  to,
			CustomerID: o.CustomerID,
			CourierID:  o.CourierID,
			ActorID:    actor.UserID,
			ActorRole:  string(actor.Role),
		}),
	}
	s.Changed.Publish(PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventOrderStatusChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
