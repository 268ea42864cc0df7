package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// ErrChannelClosed is reported when the Redis pub/sub channel ends without
// the subscriber asking for it.
var ErrChannelClosed = errors.New("realtime: redis channel closed")

const channelPrefix = "storefront:realtime:"

// Redis is a Feed over Redis pub/sub. Every instance sharing the Redis server
// sees every change, so subscribers on one node follow writes on another.
type Redis struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) *Redis { return &Redis{rdb: rdb} }

func channel(table string) string { return channelPrefix + table }

func (r *Redis) Publish(ctx context.Context, c Change) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("realtime: marshal change: %w", err)
	}
	if err := r.rdb.Publish(ctx, channel(c.Table), payload).Err(); err != nil {
		return fmt.Errorf("realtime: publish %s: %w", c.Table, err)
	}
	return nil
}

// Subscribe waits for Redis to confirm the subscription before returning.
func (r *Redis) Subscribe(ctx context.Context, table string) (*Subscription, error) {
	ps := r.rdb.Subscribe(ctx, channel(table))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("realtime: subscribe %s: %w", table, err)
	}

	sub := newSubscription(func() { _ = ps.Close() })
	go r.pump(ps.Channel(), sub)
	return sub, nil
}

func (r *Redis) pump(msgs <-chan *redis.Message, sub *Subscription) {
	for {
		select {
		case <-sub.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				sub.finish(ErrChannelClosed)
				return
			}
			var c Change
			if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
				logger.Warn("realtime: dropping malformed change", "channel", msg.Channel, "error", err)
				continue
			}
			sub.deliver(c)
		}
	}
}

// Close is a no-op; the Redis client is owned by the caller.
func (r *Redis) Close() error { return nil }
