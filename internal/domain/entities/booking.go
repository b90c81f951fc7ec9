package entities

import (
	"time"

	apperrors "github.com/leafhq/leaf/backend/pkg/errors"
)

// BookingStatus represents the lifecycle status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// CanTransitionTo reports whether the status machine allows moving to next.
// Cancelled is terminal; confirmed can only be cancelled.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case BookingStatusPending:
		return next == BookingStatusConfirmed || next == BookingStatusCancelled
	case BookingStatusConfirmed:
		return next == BookingStatusCancelled
	default:
		return false
	}
}

// DateRange is a half-open interval [Start, End) of calendar dates.
// Both bounds are normalized to midnight UTC.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange validates and normalizes a stay range. The range must span at
// least one night and must not start before today.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: truncateToDay(start), End: truncateToDay(end)}
	if !r.Start.Before(r.End) {
		return DateRange{}, apperrors.NewInvalidRangeError("end date must be after start date")
	}
	if r.Start.Before(Today()) {
		return DateRange{}, apperrors.NewInvalidRangeError("start date must not be in the past")
	}
	return r, nil
}

// Overlaps implements the half-open interval rule:
// two ranges overlap iff start_a < end_b and start_b < end_a.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Nights returns the number of nights covered by the range.
func (r DateRange) Nights() int {
	return int(r.End.Sub(r.Start).Hours() / 24)
}

// EachNight calls fn once per night of the stay, in order.
func (r DateRange) EachNight(fn func(night time.Time)) {
	for d := r.Start; d.Before(r.End); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

// Today returns the current calendar date at midnight UTC.
func Today() time.Time {
	return truncateToDay(time.Now().UTC())
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Booking is a customer reservation header covering one or more rooms over a
// single date range. Bookings are soft-lifecycle: they are never deleted so
// historical charges and reviews stay attributable.
type Booking struct {
	ID          string        `json:"id" db:"id"`
	UserID      string        `json:"user_id" db:"user_id"`
	HotelID     string        `json:"hotel_id" db:"hotel_id"`
	StartDate   time.Time     `json:"start_date" db:"start_date"`
	EndDate     time.Time     `json:"end_date" db:"end_date"`
	TotalCharge int64         `json:"total_charge_cents" db:"total_charge_cents"`
	Status      BookingStatus `json:"status" db:"status"`
	Rooms       []BookingRoom `json:"rooms"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// Range returns the booking's stay interval.
func (b *Booking) Range() DateRange {
	return DateRange{Start: b.StartDate, End: b.EndDate}
}

// BookingRoom links a booking to one physical room and carries the per-room
// charge for the stay.
type BookingRoom struct {
	ID        string  `json:"id" db:"id"`
	BookingID string  `json:"booking_id" db:"booking_id"`
	RoomID    string  `json:"room_id" db:"room_id"`
	Charge    int64   `json:"charge_cents" db:"charge_cents"`
	Review    *Review `json:"review,omitempty"`
}

// Review is post-stay feedback attached to a booking room.
type Review struct {
	ID            string    `json:"id" db:"id"`
	BookingRoomID string    `json:"booking_room_id" db:"booking_room_id"`
	Rating        int       `json:"rating" db:"rating"`
	Comment       string    `json:"comment" db:"comment"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
