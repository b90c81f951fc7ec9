package providers

import (
	"context"

	"github.com/leafhq/leaf/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to hotel
// events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.HotelEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.HotelEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelHotelUpdates is the channel for all hotel updates
	EventChannelHotelUpdates = "hotel:updates"

	// EventChannelHotelPrefix is the prefix for hotel-specific channels
	EventChannelHotelPrefix = "hotel:"
)

// GetHotelChannel returns the channel name for a specific hotel
func GetHotelChannel(hotelID string) string {
	return EventChannelHotelPrefix + hotelID
}
