package entities

import (
	"time"
)

// Location represents geographic coordinates
type Location struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// Hotel represents a bookable property
type Hotel struct {
	ID          string     `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	AddressLine string     `json:"address_line" db:"address_line"`
	City        string     `json:"city" db:"city"`
	Location    Location   `json:"location"`
	Rating      float64    `json:"rating" db:"rating"`
	ReviewCount int        `json:"review_count" db:"review_count"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	RoomTypes   []RoomType `json:"room_types,omitempty"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// MinNightlyPrice returns the lowest base price across the hotel's room
// types, or 0 when none are loaded. Used for the "from $X" search facet.
func (h *Hotel) MinNightlyPrice() int64 {
	var min int64
	for _, rt := range h.RoomTypes {
		if min == 0 || rt.BasePrice < min {
			min = rt.BasePrice
		}
	}
	return min
}

// RoomType is a category of rooms within a hotel sharing price, capacity and
// amenities.
type RoomType struct {
	ID         string    `json:"id" db:"id"`
	HotelID    string    `json:"hotel_id" db:"hotel_id"`
	Name       string    `json:"name" db:"name"`
	BasePrice  int64     `json:"base_price_cents" db:"base_price_cents"`
	Capacity   int       `json:"capacity" db:"capacity"`
	AmenityIDs []string  `json:"amenity_ids,omitempty"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Room is one physically bookable unit; the unit of exclusivity. Two
// bookings must never hold the same room over overlapping nights.
type Room struct {
	ID         string    `json:"id" db:"id"`
	RoomTypeID string    `json:"room_type_id" db:"room_type_id"`
	HotelID    string    `json:"hotel_id" db:"hotel_id"`
	Name       string    `json:"name" db:"name"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
