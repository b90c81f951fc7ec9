package providers

import (
	"time"

	"github.com/leafhq/leaf/backend/internal/domain/entities"
)

// PricingPolicy computes the per-night rate for a room type on a given
// night, in fractional cents. Seasonal or promotional overrides plug in here
// without touching the reservation engine; the engine rounds the summed
// amount half-up to whole cents once per room.
type PricingPolicy interface {
	NightlyRate(roomType *entities.RoomType, night time.Time) float64
}
