package repositories

import (
	"context"
	"time"

	"github.com/leafhq/leaf/backend/internal/domain/entities"
	apperrors "github.com/leafhq/leaf/backend/pkg/errors"
)

// BookingRepository defines the interface for booking persistence.
//
// ClaimRooms is the engine's serialization point: implementations must make
// the check-then-claim sequence atomic per room, so that two concurrent
// claims for the same room over overlapping ranges cannot both succeed.
type BookingRepository interface {
	// ClaimRooms atomically re-validates exclusivity for every room on the
	// booking and inserts the booking with its booking_rooms, all or
	// nothing. A conflict returns a ROOM_UNAVAILABLE error naming the
	// conflicting rooms; nothing is persisted in that case.
	ClaimRooms(ctx context.Context, booking *entities.Booking) error

	// PromoteHold atomically moves a pending booking to confirmed. The
	// booking's rooms are locked and re-checked for conflicts from other
	// bookings first, so an expired hold cannot be confirmed over a claim
	// made after the hold lapsed.
	PromoteHold(ctx context.Context, booking *entities.Booking) error

	// GetByID retrieves a booking with its rooms
	GetByID(ctx context.Context, id string) (*entities.Booking, error)

	// ListByUser retrieves a user's bookings
	ListByUser(ctx context.Context, userID string, filter BookingFilter) ([]*entities.Booking, error)

	// ListConflicts returns, for the given rooms, the booking rooms whose
	// stay overlaps rng and whose booking still blocks availability
	// (confirmed, or pending created after pendingCutoff).
	ListConflicts(ctx context.Context, roomIDs []string, rng entities.DateRange, pendingCutoff time.Time) ([]apperrors.RoomConflict, error)

	// UpdateStatus transitions a booking from one of the expected statuses
	// to next. Returns INVALID_STATE_TRANSITION when the booking exists but
	// is not in an expected status, NOT_FOUND when it does not exist.
	UpdateStatus(ctx context.Context, id string, expected []entities.BookingStatus, next entities.BookingStatus) error

	// AddReview attaches a post-stay review to a booking room
	AddReview(ctx context.Context, review *entities.Review) error
}

// BookingFilter defines filters for listing bookings
type BookingFilter struct {
	Status entities.BookingStatus
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}
