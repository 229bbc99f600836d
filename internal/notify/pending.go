package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-food-delivery.git/internal/redisx"
)

// PendingStore is the durable "has unseen order activity" record per user,
// independent of any live connection.
type PendingStore interface {
	Append(ctx context.Context, userID, eventID string, payload []byte) error
	Check(ctx context.Context, userID string) (bool, error)
	Recent(ctx context.Context, userID string) ([]json.RawMessage, error)
	Clear(ctx context.Context, userID string) error
}

// RedisPending keeps a capped list per user. LPUSH+LTRIM run in one pipeline;
// Redis serializes commands per connection, so concurrent appends for the
// same user cannot drop entries; only their relative order is unspecified.
type RedisPending struct {
	RDB *redis.Client
}

func (p *RedisPending) Append(ctx context.Context, userID, eventID string, payload []byte) error {
	key := fmt.Sprintf(redisx.KeyPendingNotif, userID)
	dkey := fmt.Sprintf(redisx.KeyDedup, "notify", eventID)

	pipe := p.RDB.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, redisx.PendingListCap-1)
	pipe.Expire(ctx, key, redisx.TTLPending)
	// marks the event durably recorded, so the notifier backstop skips it
	pipe.Set(ctx, dkey, "1", redisx.TTLDedup)
	_, err := pipe.Exec(ctx)
	return err
}

func (p *RedisPending) Check(ctx context.Context, userID string) (bool, error) {
	n, err := p.RDB.LLen(ctx, fmt.Sprintf(redisx.KeyPendingNotif, userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (p *RedisPending) Recent(ctx context.Context, userID string) ([]json.RawMessage, error) {
	vals, err := p.RDB.LRange(ctx, fmt.Sprintf(redisx.KeyPendingNotif, userID), 0, redisx.PendingListCap-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, 0, len(vals))
	for _, v := range vals {
		out = append(out, json.RawMessage(v))
	}
	return out, nil
}

// Clear wipes the record wholesale; idempotent.
func (p *RedisPending) Clear(ctx context.Context, userID string) error {
	return p.RDB.Del(ctx, fmt.Sprintf(redisx.KeyPendingNotif, userID)).Err()
}
