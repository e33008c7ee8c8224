// Package events publishes sale lifecycle notifications.
package events

import (
	"context"
	"encoding/json"
	"sync"

	redis "github.com/redis/go-redis/v9"

	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/domain"
)

type Publisher interface {
	Publish(ctx context.Context, event domain.SaleEvent) error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(_ context.Context, _ domain.SaleEvent) error {
	return nil
}

// RedisPublisher sends each event as JSON on a pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, event domain.SaleEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, payload).Err()
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []domain.SaleEvent
}

func (r *Recorder) Publish(_ context.Context, event domain.SaleEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Events() []domain.SaleEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.SaleEvent, len(r.events))
	copy(out, r.events)
	return out
}
