package repositories

import (
	"context"

	"github.com/leafhq/leaf/backend/internal/domain/entities"
)

// HotelRepository defines the interface for hotel catalog operations
type HotelRepository interface {
	// Create creates a new hotel
	Create(ctx context.Context, hotel *entities.Hotel) error

	// GetByID retrieves a hotel by ID, room types included
	GetByID(ctx context.Context, id string) (*entities.Hotel, error)

	// Update updates a hotel
	Update(ctx context.Context, hotel *entities.Hotel) error

	// List retrieves hotels
	List(ctx context.Context, filter HotelFilter) ([]*entities.Hotel, error)

	// Search retrieves hotels near a location (database fallback for the
	// search engine)
	Search(ctx context.Context, params SearchParams) ([]*entities.Hotel, error)
}

// HotelFilter defines filters for listing hotels
type HotelFilter struct {
	City     string
	IsActive *bool
	Limit    int
	Offset   int
}

// SearchParams defines geo search parameters
type SearchParams struct {
	Query     string
	Latitude  float64
	Longitude float64
	RadiusKm  float64
	Limit     int
	Offset    int
}

// HotelSearchRepository defines the interface for the hotel search index
type HotelSearchRepository interface {
	// InitSchema ensures the search collection exists
	InitSchema(ctx context.Context) error

	// Index upserts a hotel document
	Index(ctx context.Context, hotel *entities.Hotel) error

	// Delete removes a hotel from the index
	Delete(ctx context.Context, id string) error

	// Search searches hotels by text and location
	Search(ctx context.Context, params SearchParams) ([]*entities.Hotel, error)
}

// RoomRepository defines the interface for physical room lookups
type RoomRepository interface {
	// ListByRoomTypes retrieves all rooms belonging to the given room types
	// of a hotel
	ListByRoomTypes(ctx context.Context, hotelID string, roomTypeIDs []string) ([]*entities.Room, error)

	// GetRoomTypes retrieves room types by ID
	GetRoomTypes(ctx context.Context, roomTypeIDs []string) ([]*entities.RoomType, error)
}
