package notify

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/ariefcatur/go-food-delivery.git/internal/metrics"
)

type Kind string

const (
	KindOrderCreated    Kind = "order_created"
	KindStatusUpdate    Kind = "status_update"
	KindCourierAssigned Kind = "courier_assigned"
)

// Event is one order notification addressed to one user. Fan-out to several
// users means several events, each with its own event id.
type Event struct {
	EventID      string    `json:"event_id"`
	TargetUserID string    `json:"-"`
	OrderID      string    `json:"order_id"`
	Status       string    `json:"status"`
	Kind         Kind      `json:"kind"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// TargetEventID derives the per-target notification id from an envelope's
// event id. The API and the notifier worker both use it, so the dedup marker
// written by one is seen by the other.
func TargetEventID(envelopeID, targetUserID string) string {
	return envelopeID + ":" + targetUserID
}

// Pusher delivers to currently connected sockets. Best-effort: it reports how
// many connections were reached and never returns an error.
type Pusher interface {
	Push(userID string, payload []byte) int
}

// Service fans one event out over both channels. The durable pending record
// is written first, since it is the source of truth for "did the user miss
// anything"; only then the live push runs as a failure-tolerant optimization.
type Service struct {
	Pending PendingStore
	Live    Pusher
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

func (s *Service) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	if err := s.Pending.Append(ctx, ev.TargetUserID, ev.EventID, payload); err != nil {
		// The durable record is the only guaranteed path for offline users.
		// The notifier worker re-creates it from the event stream later.
		s.Log.Error("pending append failed",
			zap.String("user_id", ev.TargetUserID),
			zap.String("event_id", ev.EventID),
			zap.Error(err))
		return err
	}
	s.Metrics.Notifications.WithLabelValues("durable").Inc()

	if n := s.Live.Push(ev.TargetUserID, payload); n > 0 {
		s.Metrics.Notifications.WithLabelValues("live").Inc()
	}
	return nil
}

func (s *Service) CheckPending(ctx context.Context, userID string) (bool, error) {
	return s.Pending.Check(ctx, userID)
}

func (s *Service) RecentPending(ctx context.Context, userID string) ([]json.RawMessage, error) {
	return s.Pending.Recent(ctx, userID)
}

func (s *Service) ClearPending(ctx context.Context, userID string) error {
	return s.Pending.Clear(ctx, userID)
}
