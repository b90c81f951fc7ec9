package pricing

import (
	"time"

	"github.com/leafhq/leaf/backend/internal/domain/entities"
	"github.com/leafhq/leaf/backend/internal/domain/providers"
)

// Season is a date window with a price multiplier. Windows are matched by
// month and day so they recur every year.
type Season struct {
	FromMonth  time.Month
	FromDay    int
	ToMonth    time.Month
	ToDay      int
	Multiplier float64
}

// SeasonalAdapter scales the base price by weekend and seasonal multipliers.
// Rates are returned as fractional cents; callers decide how to round.
type SeasonalAdapter struct {
	weekendMultiplier float64
	seasons           []Season
}

// NewSeasonalAdapter creates a seasonal pricing policy. A weekendMultiplier
// of 1.0 disables weekend pricing.
func NewSeasonalAdapter(weekendMultiplier float64, seasons []Season) providers.PricingPolicy {
	if weekendMultiplier <= 0 {
		weekendMultiplier = 1.0
	}
	return &SeasonalAdapter{
		weekendMultiplier: weekendMultiplier,
		seasons:           seasons,
	}
}

// NightlyRate applies the first matching season multiplier, then the weekend
// multiplier for Friday and Saturday nights.
func (a *SeasonalAdapter) NightlyRate(roomType *entities.RoomType, night time.Time) float64 {
	rate := float64(roomType.BasePrice)

	for _, s := range a.seasons {
		if s.contains(night) {
			rate *= s.Multiplier
			break
		}
	}

	switch night.Weekday() {
	case time.Friday, time.Saturday:
		rate *= a.weekendMultiplier
	}

	return rate
}

func (s Season) contains(night time.Time) bool {
	// Compare by day-of-year position so the window recurs annually.
	// A window that wraps the year end (e.g. Dec 20 to Jan 5) is split.
	point := int(night.Month())*100 + night.Day()
	from := int(s.FromMonth)*100 + s.FromDay
	to := int(s.ToMonth)*100 + s.ToDay

	if from <= to {
		return point >= from && point <= to
	}
	return point >= from || point <= to
}
