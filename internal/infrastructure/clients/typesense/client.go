package typesense

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/leafhq/leaf/backend/pkg/config"
	"github.com/leafhq/leaf/backend/pkg/retry"
	"github.com/typesense/typesense-go/v2/typesense"
)

// HotelsCollection is the search collection holding hotel documents
const HotelsCollection = "hotels"

const healthTimeout = 5 * time.Second

// Client wraps the Typesense client behind the hotel search adapter.
type Client struct {
	client *typesense.Client
}

// NewClient builds a Typesense client and waits for the server to report
// healthy, retrying with exponential backoff. Search is optional at startup,
// so callers treat an error here as a degraded mode, not a fatal one.
func NewClient(cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(healthTimeout),
	)

	healthCheck := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
		defer cancel()
		_, err := client.Health(ctx, 2*time.Second)
		return err
	}
	onRetry := func(attempt int, err error, nextDelay time.Duration) {
		log.Printf("Typesense connection attempt %d failed: %v. Retrying in %v...", attempt, err, nextDelay)
	}

	if err := retry.Do(context.Background(), retry.DefaultConfig(), healthCheck, onRetry); err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	return &Client{client: client}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}
