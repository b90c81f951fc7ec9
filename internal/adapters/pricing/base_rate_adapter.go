package pricing

import (
	"time"

	"github.com/leafhq/leaf/backend/internal/domain/entities"
	"github.com/leafhq/leaf/backend/internal/domain/providers"
)

// BaseRateAdapter prices every night at the room type's base price.
type BaseRateAdapter struct{}

// NewBaseRateAdapter creates a flat-rate pricing policy
func NewBaseRateAdapter() providers.PricingPolicy {
	return &BaseRateAdapter{}
}

// NightlyRate returns the base price in cents regardless of the night.
func (a *BaseRateAdapter) NightlyRate(roomType *entities.RoomType, night time.Time) float64 {
	return float64(roomType.BasePrice)
}
