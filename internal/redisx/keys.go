package redisx

import "time"

const (
	// Pending-notification list per user: notif:pending:{user_id} -> LPUSH'd event payloads
	KeyPendingNotif = "notif:pending:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Cache status order: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"
)

// PendingListCap bounds the per-user pending list; oldest entries are evicted.
const PendingListCap = 50

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
	TTLPending     = 7 * 24 * time.Hour
)
