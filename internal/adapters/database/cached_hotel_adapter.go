package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/leafhq/leaf/backend/internal/domain/entities"
	"github.com/leafhq/leaf/backend/internal/domain/providers"
	"github.com/leafhq/leaf/backend/internal/domain/repositories"
)

// CachedHotelAdapter wraps HotelAdapter with caching
type CachedHotelAdapter struct {
	adapter repositories.HotelRepository
	cache   providers.CacheProvider
}

// NewCachedHotelAdapter creates a new cached hotel adapter
func NewCachedHotelAdapter(adapter repositories.HotelRepository, cache providers.CacheProvider) repositories.HotelRepository {
	return &CachedHotelAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// Cache TTLs
const (
	hotelByIDTTL    = 5 * time.Minute
	hotelsListTTL   = 3 * time.Minute
	hotelsSearchTTL = 2 * time.Minute
)

// Cache key generators
func hotelCacheKey(id string) string {
	return fmt.Sprintf("hotel:%s", id)
}

func hotelsListCacheKey(filter repositories.HotelFilter) string {
	active := "any"
	if filter.IsActive != nil {
		active = fmt.Sprintf("%t", *filter.IsActive)
	}
	return fmt.Sprintf("hotels:list:%s:%s:%d:%d", filter.City, active, filter.Limit, filter.Offset)
}

func hotelsSearchCacheKey(params repositories.SearchParams) string {
	paramsJSON, _ := json.Marshal(params)
	return fmt.Sprintf("hotels:search:%s", paramsJSON)
}

// GetByID retrieves a hotel by ID with caching
func (a *CachedHotelAdapter) GetByID(ctx context.Context, id string) (*entities.Hotel, error) {
	cacheKey := hotelCacheKey(id)

	// Try to get from cache first
	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var hotel entities.Hotel
		if err := json.Unmarshal(cached, &hotel); err == nil {
			return &hotel, nil
		}
		// If unmarshal fails, continue to fetch from DB
		log.Printf("Failed to unmarshal cached hotel %s: %v", id, err)
	}

	// Cache miss - fetch from database
	hotel, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Update cache asynchronously to avoid blocking the response
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(hotel); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, hotelByIDTTL); err != nil {
				log.Printf("Failed to cache hotel %s: %v", id, err)
			}
		}
	}()

	return hotel, nil
}

// List retrieves a list of hotels with caching
func (a *CachedHotelAdapter) List(ctx context.Context, filter repositories.HotelFilter) ([]*entities.Hotel, error) {
	cacheKey := hotelsListCacheKey(filter)

	// Try to get from cache first
	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var hotels []*entities.Hotel
		if err := json.Unmarshal(cached, &hotels); err == nil {
			return hotels, nil
		}
		log.Printf("Failed to unmarshal cached hotels list: %v", err)
	}

	// Cache miss - fetch from database
	hotels, err := a.adapter.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	// Update cache asynchronously
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(hotels); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, hotelsListTTL); err != nil {
				log.Printf("Failed to cache hotels list: %v", err)
			}
		}
	}()

	return hotels, nil
}

// Search searches hotels with caching
func (a *CachedHotelAdapter) Search(ctx context.Context, params repositories.SearchParams) ([]*entities.Hotel, error) {
	cacheKey := hotelsSearchCacheKey(params)

	// Try to get from cache first
	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var hotels []*entities.Hotel
		if err := json.Unmarshal(cached, &hotels); err == nil {
			return hotels, nil
		}
		log.Printf("Failed to unmarshal cached search results: %v", err)
	}

	// Cache miss - search in database
	hotels, err := a.adapter.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	// Update cache asynchronously
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(hotels); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, hotelsSearchTTL); err != nil {
				log.Printf("Failed to cache search results: %v", err)
			}
		}
	}()

	return hotels, nil
}

// Create creates a hotel and invalidates related caches
func (a *CachedHotelAdapter) Create(ctx context.Context, hotel *entities.Hotel) error {
	err := a.adapter.Create(ctx, hotel)
	if err != nil {
		return err
	}

	// Invalidate list caches asynchronously
	go func() {
		bgCtx := context.Background()
		if err := a.cache.DeletePattern(bgCtx, "hotels:list:*"); err != nil {
			log.Printf("Failed to invalidate hotels list cache: %v", err)
		}
		if err := a.cache.DeletePattern(bgCtx, "hotels:search:*"); err != nil {
			log.Printf("Failed to invalidate hotels search cache: %v", err)
		}
	}()

	return nil
}

// Update updates a hotel and invalidates its cache
func (a *CachedHotelAdapter) Update(ctx context.Context, hotel *entities.Hotel) error {
	err := a.adapter.Update(ctx, hotel)
	if err != nil {
		return err
	}

	// Invalidate caches asynchronously
	go func() {
		bgCtx := context.Background()

		cacheKey := hotelCacheKey(hotel.ID)
		if err := a.cache.Delete(bgCtx, cacheKey); err != nil {
			log.Printf("Failed to invalidate hotel cache %s: %v", hotel.ID, err)
		}

		if err := a.cache.DeletePattern(bgCtx, "hotels:list:*"); err != nil {
			log.Printf("Failed to invalidate hotels list cache: %v", err)
		}
		if err := a.cache.DeletePattern(bgCtx, "hotels:search:*"); err != nil {
			log.Printf("Failed to invalidate hotels search cache: %v", err)
		}
	}()

	return nil
}
