package entities

import (
	"time"
)

// HotelEventType identifies the kind of hotel update
type HotelEventType string

const (
	HotelEventUpdated      HotelEventType = "hotel.updated"
	HotelEventBookingMade  HotelEventType = "hotel.booking_made"
	HotelEventBookingFreed HotelEventType = "hotel.booking_freed"
	HotelEventPriceChanged HotelEventType = "hotel.price_changed"
)

// HotelEvent is published on the event bus whenever hotel state changes that
// downstream consumers (cache invalidation, live availability views) care
// about.
type HotelEvent struct {
	ID        string         `json:"id"`
	Type      HotelEventType `json:"type"`
	HotelID   string         `json:"hotel_id"`
	BookingID string         `json:"booking_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
