// Package notifier is the at-least-once backstop for pending-notification
// records. The API writes the durable record in-process; this worker replays
// the order event stream and fills in whatever that write missed,
// deduplicated per target by event id.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/go-food-delivery.git/internal/kafka"
	"github.com/ariefcatur/go-food-delivery.git/internal/notify"
	"github.com/ariefcatur/go-food-delivery.git/internal/orders"
	"github.com/ariefcatur/go-food-delivery.git/internal/redisx"
)

// Deduper reports whether a per-target event was already recorded durably.
type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
}

// RedisDedup checks the marker RedisPending.Append writes.
type RedisDedup struct {
	RDB *redis.Client
}

func (d *RedisDedup) Seen(ctx context.Context, eventID string) (bool, error) {
	return redisx.Exists(ctx, d.RDB, fmt.Sprintf(redisx.KeyDedup, "notify", eventID))
}

type Service struct {
	Dedup   Deduper
	Pending notify.PendingStore
	Log     *zap.Logger
}

// HandleOrderEvent is the consumer handler for order.created and
// order.status.changed.
func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	switch env.EventType {
	case orders.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
		if err != nil {
			return err
		}
		if p.RestaurantOwnerID == "" {
			return nil
		}
		return s.ensure(ctx, env, notify.Event{
			TargetUserID: p.RestaurantOwnerID,
			OrderID:      p.OrderID,
			Status:       string(orders.StatusPending),
			Kind:         notify.KindOrderCreated,
		})

	case orders.EventOrderStatusChanged:
		p, err := kafkax.UnwrapPayload[orders.OrderStatusChangedPayload](env.Payload)
		if err != nil {
			return err
		}
		targets := []string{p.CustomerID}
		if p.NewStatus == orders.StatusCancelled && p.CourierID != nil {
			targets = append(targets, *p.CourierID)
		}
		for _, target := range targets {
			if err := s.ensure(ctx, env, notify.Event{
				TargetUserID: target,
				OrderID:      p.OrderID,
				Status:       string(p.NewStatus),
				Kind:         notify.KindStatusUpdate,
			}); err != nil {
				return err
			}
		}
		return nil
	}
	return nil // unknown event types are not ours to retry
}

// ensure appends the pending record unless the API already did.
func (s *Service) ensure(ctx context.Context, env orders.Envelope, ev notify.Event) error {
	ev.EventID = notify.TargetEventID(env.EventID, ev.TargetUserID)
	ev.OccurredAt = env.OccurredAt

	seen, err := s.Dedup.Seen(ctx, ev.EventID)
	if err != nil {
		return err
	}
	if seen {
		return nil
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := s.Pending.Append(ctx, ev.TargetUserID, ev.EventID, payload); err != nil {
		return err // no commit; the message is redelivered
	}
	s.Log.Info("pending record backfilled",
		zap.String("user_id", ev.TargetUserID),
		zap.String("event_id", ev.EventID))
	return nil
}
