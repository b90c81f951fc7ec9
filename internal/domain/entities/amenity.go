package entities

import (
	"time"
)

// Amenity is a purchasable hotel service (spa, breakfast, airport pickup...).
type Amenity struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       int64     `json:"price_cents" db:"price_cents"`
	InService   bool      `json:"in_service" db:"in_service"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// OrderStatus represents the status of an amenity order
type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "placed"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is an amenity purchase placed by a guest.
type Order struct {
	ID        string         `json:"id" db:"id"`
	UserID    string         `json:"user_id" db:"user_id"`
	Total     int64          `json:"total_cents" db:"total_cents"`
	Status    OrderStatus    `json:"status" db:"status"`
	Amenities []OrderAmenity `json:"amenities"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// OrderAmenity joins an order to an amenity with the quantity ordered and
// the unit price snapshotted at order time.
type OrderAmenity struct {
	OrderID   string `json:"order_id" db:"order_id"`
	AmenityID string `json:"amenity_id" db:"amenity_id"`
	Quantity  int    `json:"quantity" db:"quantity"`
	UnitPrice int64  `json:"unit_price_cents" db:"unit_price_cents"`
}
