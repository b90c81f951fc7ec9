package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/leafhq/leaf/backend/pkg/config"
	"github.com/redis/go-redis/v9"
)

// Client wraps the go-redis client used by the cache and the event bus.
type Client struct {
	client *redis.Client
}

// NewClient connects to Redis and verifies the connection with a bounded
// ping before returning.
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr(), err)
	}

	return &Client{client: client}, nil
}

// Client returns the underlying go-redis client.
func (c *Client) Client() *redis.Client {
	return c.client
}

// Ping verifies the connection is still alive.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}
