package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Publisher fans change events out to a topic
type Publisher interface {
	Publish(ctx context.Context, topic string, ev ChangeEvent) error
}

// RedisPublisher publishes change events on Redis channels
type RedisPublisher struct {
	rdb *redis.Client
}

// NewPublisher returns a publisher backed by rdb
func NewPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

// Publish encodes ev as JSON and publishes it on topic
func (p *RedisPublisher) Publish(ctx context.Context, topic string, ev ChangeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode change event: %w", err)
	}
	if err := p.rdb.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}
