package repositories

import (
	"context"

	"github.com/leafhq/leaf/backend/internal/domain/entities"
)

// AmenityRepository defines the interface for amenity catalog operations
type AmenityRepository interface {
	Create(ctx context.Context, amenity *entities.Amenity) error
	GetByID(ctx context.Context, id string) (*entities.Amenity, error)
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Amenity, error)
	Update(ctx context.Context, amenity *entities.Amenity) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]*entities.Amenity, error)
}

// OrderRepository defines the interface for amenity order persistence
type OrderRepository interface {
	// Create inserts an order with its order_amenities rows atomically
	Create(ctx context.Context, order *entities.Order) error

	// GetByID retrieves an order with its amenities
	GetByID(ctx context.Context, id string) (*entities.Order, error)

	// List retrieves orders, newest first
	List(ctx context.Context, limit, offset int) ([]*entities.Order, error)
}
