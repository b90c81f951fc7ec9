package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/leafhq/leaf/backend/internal/domain/entities"
	"github.com/leafhq/leaf/backend/internal/domain/providers"
	"github.com/leafhq/leaf/backend/internal/domain/repositories"
	apperrors "github.com/leafhq/leaf/backend/pkg/errors"
)

// HotelService handles business logic for the hotel catalog
type HotelService struct {
	repo       repositories.HotelRepository
	searchRepo repositories.HotelSearchRepository
	eventBus   providers.EventBus
}

// NewHotelService creates a new hotel service
func NewHotelService(repo repositories.HotelRepository, searchRepo repositories.HotelSearchRepository, eventBus providers.EventBus) *HotelService {
	return &HotelService{
		repo:       repo,
		searchRepo: searchRepo,
		eventBus:   eventBus,
	}
}

// Create creates a new hotel and indexes it
func (s *HotelService) Create(ctx context.Context, hotel *entities.Hotel) error {
	if hotel.Name == "" {
		return apperrors.NewValidationError("hotel name is required")
	}

	if hotel.ID == "" {
		hotel.ID = uuid.New().String()
	}
	now := time.Now()
	hotel.CreatedAt = now
	hotel.UpdatedAt = now
	for i := range hotel.RoomTypes {
		rt := &hotel.RoomTypes[i]
		if rt.BasePrice <= 0 {
			return apperrors.NewValidationError("room type base price must be positive")
		}
		if rt.ID == "" {
			rt.ID = uuid.New().String()
		}
		rt.HotelID = hotel.ID
		rt.CreatedAt = now
		rt.UpdatedAt = now
	}

	// 1. Save to database
	if err := s.repo.Create(ctx, hotel); err != nil {
		return err
	}

	// 2. Index in search engine
	if s.searchRepo != nil {
		if err := s.searchRepo.Index(ctx, hotel); err != nil {
			// Log error but don't fail the request (eventual consistency)
			log.Printf("Warning: Failed to index hotel %s: %v", hotel.ID, err)
		}
	}

	return nil
}

// GetByID retrieves a hotel by ID
func (s *HotelService) GetByID(ctx context.Context, id string) (*entities.Hotel, error) {
	return s.repo.GetByID(ctx, id)
}

// Update updates a hotel, its index, and notifies subscribers
func (s *HotelService) Update(ctx context.Context, hotel *entities.Hotel) error {
	// 1. Update in database
	if err := s.repo.Update(ctx, hotel); err != nil {
		return err
	}

	// 2. Update index
	if s.searchRepo != nil {
		if err := s.searchRepo.Index(ctx, hotel); err != nil {
			log.Printf("Warning: Failed to update hotel index %s: %v", hotel.ID, err)
		}
	}

	// 3. Notify subscribers
	if s.eventBus != nil {
		event := &entities.HotelEvent{
			ID:        uuid.New().String(),
			Type:      entities.HotelEventUpdated,
			HotelID:   hotel.ID,
			Timestamp: time.Now(),
		}
		if err := s.eventBus.Publish(ctx, providers.GetHotelChannel(hotel.ID), event); err != nil {
			log.Printf("Warning: Failed to publish hotel update %s: %v", hotel.ID, err)
		}
	}

	return nil
}

// List retrieves hotels
func (s *HotelService) List(ctx context.Context, filter repositories.HotelFilter) ([]*entities.Hotel, error) {
	return s.repo.List(ctx, filter)
}

// Search searches hotels using the search engine if available, falling back
// to the database
func (s *HotelService) Search(ctx context.Context, params repositories.SearchParams) ([]*entities.Hotel, error) {
	if s.searchRepo != nil {
		hotels, err := s.searchRepo.Search(ctx, params)
		if err == nil {
			return hotels, nil
		}
		log.Printf("Warning: search engine query failed, falling back to database: %v", err)
	}
	return s.repo.Search(ctx, params)
}
