package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/leafhq/leaf/backend/internal/domain/entities"
	"github.com/leafhq/leaf/backend/internal/domain/providers"
	redisclient "github.com/leafhq/leaf/backend/internal/infrastructure/clients/redis"
	"github.com/redis/go-redis/v9"
)

const subscriberBuffer = 100

// subscription is one Redis channel with its fan-out set. The pubsub reader
// goroutine owns the channel until the last subscriber leaves.
type subscription struct {
	pubsub      *redis.PubSub
	subscribers map[chan *entities.HotelEvent]struct{}
}

// RedisEventBus implements EventBus over Redis Pub/Sub. One Redis
// subscription is held per channel regardless of local subscriber count.
type RedisEventBus struct {
	client *redisclient.Client
	subs   map[string]*subscription
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) providers.EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client: client,
		subs:   make(map[string]*subscription),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Publish publishes an event to all subscribers of a channel.
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.HotelEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Client().Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Subscribe returns a channel of events. The subscription lives until ctx is
// cancelled or the bus is closed.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.HotelEvent, error) {
	b.mu.Lock()

	sub, exists := b.subs[channel]
	if !exists {
		sub = &subscription{
			pubsub:      b.client.Client().Subscribe(b.ctx, channel),
			subscribers: make(map[chan *entities.HotelEvent]struct{}),
		}
		b.subs[channel] = sub
		go b.fanOut(channel, sub.pubsub)
	}

	eventChan := make(chan *entities.HotelEvent, subscriberBuffer)
	sub.subscribers[eventChan] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.removeSubscriber(channel, eventChan)
	}()

	return eventChan, nil
}

// fanOut reads Redis messages for one channel and delivers them to every
// local subscriber. Slow subscribers drop events rather than block the bus.
func (b *RedisEventBus) fanOut(channel string, pubsub *redis.PubSub) {
	defer func() {
		if err := b.teardown(channel); err != nil {
			log.Printf("Failed to cleanup channel %s: %v", channel, err)
		}
	}()

	messages := pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			b.deliver(channel, msg.Payload)
		}
	}
}

func (b *RedisEventBus) deliver(channel, payload string) {
	var event entities.HotelEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		log.Printf("Failed to unmarshal event from channel %s: %v", channel, err)
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	sub, exists := b.subs[channel]
	if !exists {
		return
	}
	for subscriber := range sub.subscribers {
		select {
		case subscriber <- &event:
		default:
			log.Printf("Subscriber channel full for %s, skipping event %s", channel, event.ID)
		}
	}
}

func (b *RedisEventBus) removeSubscriber(channel string, eventChan chan *entities.HotelEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, exists := b.subs[channel]
	if !exists {
		return
	}
	if _, ok := sub.subscribers[eventChan]; !ok {
		return
	}

	delete(sub.subscribers, eventChan)
	close(eventChan)

	// Last local subscriber gone, drop the Redis subscription too
	if len(sub.subscribers) == 0 {
		_ = sub.pubsub.Close()
		delete(b.subs, channel)
	}
}

func (b *RedisEventBus) teardown(channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, exists := b.subs[channel]
	if !exists {
		return nil
	}

	for subscriber := range sub.subscribers {
		close(subscriber)
	}
	delete(b.subs, channel)

	if err := sub.pubsub.Close(); err != nil {
		return fmt.Errorf("failed to close subscription %s: %w", channel, err)
	}
	return nil
}

// Unsubscribe drops the channel and every local subscriber on it.
func (b *RedisEventBus) Unsubscribe(ctx context.Context, channel string) error {
	return b.teardown(channel)
}

// Close closes the event bus and all subscriptions
func (b *RedisEventBus) Close() error {
	b.cancel()

	b.mu.RLock()
	channels := make([]string, 0, len(b.subs))
	for channel := range b.subs {
		channels = append(channels, channel)
	}
	b.mu.RUnlock()

	var errs []error
	for _, channel := range channels {
		if err := b.teardown(channel); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing event bus: %v", errs)
	}
	return nil
}
