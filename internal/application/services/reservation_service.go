package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leafhq/leaf/backend/internal/domain/entities"
	"github.com/leafhq/leaf/backend/internal/domain/providers"
	"github.com/leafhq/leaf/backend/internal/domain/repositories"
	"github.com/leafhq/leaf/backend/internal/infrastructure/observability"
	apperrors "github.com/leafhq/leaf/backend/pkg/errors"
)

// ReservationService handles availability checks, pricing and the booking
// lifecycle. The no-double-booking guarantee itself lives in the repository's
// ClaimRooms; this service validates requests, selects rooms and prices them.
type ReservationService struct {
	bookingRepo  repositories.BookingRepository
	roomRepo     repositories.RoomRepository
	hotelRepo    repositories.HotelRepository
	pricing      providers.PricingPolicy
	eventBus     providers.EventBus
	metrics      *observability.Metrics
	holdWindow   time.Duration
	claimTimeout time.Duration
}

// NewReservationService creates a new reservation service
func NewReservationService(
	bookingRepo repositories.BookingRepository,
	roomRepo repositories.RoomRepository,
	hotelRepo repositories.HotelRepository,
	pricing providers.PricingPolicy,
	eventBus providers.EventBus,
	metrics *observability.Metrics,
	holdWindow time.Duration,
	claimTimeout time.Duration,
) *ReservationService {
	return &ReservationService{
		bookingRepo:  bookingRepo,
		roomRepo:     roomRepo,
		hotelRepo:    hotelRepo,
		pricing:      pricing,
		eventBus:     eventBus,
		metrics:      metrics,
		holdWindow:   holdWindow,
		claimTimeout: claimTimeout,
	}
}

// CheckAvailability reports, per requested room type, how many rooms are free
// over the range and which ones. The result is advisory: only ClaimRooms
// re-validates under lock.
func (s *ReservationService) CheckAvailability(ctx context.Context, hotelID string, roomTypeCounts map[string]int, rng entities.DateRange) (*entities.AvailabilityResult, error) {
	ctx, span := observability.StartSpan(ctx, "ReservationService.CheckAvailability")
	defer span.End()

	if len(roomTypeCounts) == 0 {
		return nil, apperrors.NewValidationError("at least one room type must be requested")
	}
	for roomTypeID, count := range roomTypeCounts {
		if count <= 0 {
			return nil, apperrors.NewValidationError(fmt.Sprintf("requested count for room type %s must be positive", roomTypeID))
		}
	}

	if _, err := s.hotelRepo.GetByID(ctx, hotelID); err != nil {
		return nil, err
	}

	roomTypeIDs := sortedKeys(roomTypeCounts)

	rooms, err := s.roomRepo.ListByRoomTypes(ctx, hotelID, roomTypeIDs)
	if err != nil {
		return nil, err
	}

	free, err := s.freeRooms(ctx, rooms, rng)
	if err != nil {
		return nil, err
	}

	result := &entities.AvailabilityResult{
		HotelID:    hotelID,
		Range:      rng,
		CanFulfill: true,
	}

	for _, roomTypeID := range roomTypeIDs {
		requested := roomTypeCounts[roomTypeID]
		candidates := free[roomTypeID]

		avail := entities.RoomTypeAvailability{
			RoomTypeID: roomTypeID,
			Requested:  requested,
			Available:  len(candidates),
		}
		if len(candidates) >= requested {
			avail.CandidateRoomIDs = candidates[:requested]
		} else {
			result.CanFulfill = false
		}
		result.RoomTypes = append(result.RoomTypes, avail)
	}

	return result, nil
}

// freeRooms partitions the given rooms by type, keeping only those with no
// blocking booking over rng. Room order (and so candidate order) is stable.
func (s *ReservationService) freeRooms(ctx context.Context, rooms []*entities.Room, rng entities.DateRange) (map[string][]string, error) {
	roomIDs := make([]string, 0, len(rooms))
	for _, r := range rooms {
		roomIDs = append(roomIDs, r.ID)
	}

	conflicts, err := s.bookingRepo.ListConflicts(ctx, roomIDs, rng, time.Now().Add(-s.holdWindow))
	if err != nil {
		return nil, err
	}

	blocked := make(map[string]bool, len(conflicts))
	for _, c := range conflicts {
		blocked[c.RoomID] = true
	}

	free := make(map[string][]string)
	for _, r := range rooms {
		if !blocked[r.ID] {
			free[r.RoomTypeID] = append(free[r.RoomTypeID], r.ID)
		}
	}

	return free, nil
}

// QuoteCharge prices a booking request without claiming anything. Each
// room's charge is the sum of its nightly rates, rounded half up once per
// room, so the total scales linearly with the number of rooms.
func (s *ReservationService) QuoteCharge(ctx context.Context, req *entities.BookingRequest) (*entities.Quote, error) {
	ctx, span := observability.StartSpan(ctx, "ReservationService.QuoteCharge")
	defer span.End()

	availability, err := s.CheckAvailability(ctx, req.HotelID, req.RoomTypeCounts, req.Range)
	if err != nil {
		return nil, err
	}
	if !availability.CanFulfill {
		return nil, unavailableFromShortfall(availability)
	}

	return s.quoteFromCandidates(ctx, req, availability)
}

func (s *ReservationService) quoteFromCandidates(ctx context.Context, req *entities.BookingRequest, availability *entities.AvailabilityResult) (*entities.Quote, error) {
	roomTypes, err := s.roomRepo.GetRoomTypes(ctx, sortedKeys(req.RoomTypeCounts))
	if err != nil {
		return nil, err
	}
	typesByID := make(map[string]*entities.RoomType, len(roomTypes))
	for _, rt := range roomTypes {
		typesByID[rt.ID] = rt
	}

	quote := &entities.Quote{
		HotelID: req.HotelID,
		Range:   req.Range,
		Nights:  req.Range.Nights(),
	}

	for _, avail := range availability.RoomTypes {
		roomType, ok := typesByID[avail.RoomTypeID]
		if !ok {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("room type %s not found", avail.RoomTypeID))
		}

		charge := s.priceStay(roomType, req.Range)
		for _, roomID := range avail.CandidateRoomIDs {
			quote.RoomCharges = append(quote.RoomCharges, entities.RoomQuote{
				RoomID:     roomID,
				RoomTypeID: roomType.ID,
				Charge:     charge,
			})
			quote.TotalCharge += charge
		}
	}

	return quote, nil
}

// priceStay sums the nightly rates for one room over the stay and rounds the
// result half up. Rounding happens once per room, not per night.
func (s *ReservationService) priceStay(roomType *entities.RoomType, rng entities.DateRange) int64 {
	var total float64
	rng.EachNight(func(night time.Time) {
		total += s.pricing.NightlyRate(roomType, night)
	})
	return int64(math.Floor(total + 0.5))
}

// ConfirmBooking checks availability, prices the stay and atomically claims
// the rooms as a confirmed booking.
func (s *ReservationService) ConfirmBooking(ctx context.Context, req *entities.BookingRequest) (*entities.Booking, error) {
	return s.claim(ctx, req, entities.BookingStatusConfirmed)
}

// HoldBooking claims the rooms as a pending booking. The hold blocks other
// claims until it is confirmed, cancelled or expires.
func (s *ReservationService) HoldBooking(ctx context.Context, req *entities.BookingRequest) (*entities.Booking, error) {
	return s.claim(ctx, req, entities.BookingStatusPending)
}

func (s *ReservationService) claim(ctx context.Context, req *entities.BookingRequest, status entities.BookingStatus) (*entities.Booking, error) {
	ctx, span := observability.StartSpan(ctx, "ReservationService.claim")
	defer span.End()

	if req.UserID == "" {
		return nil, apperrors.NewValidationError("user id is required")
	}

	availability, err := s.CheckAvailability(ctx, req.HotelID, req.RoomTypeCounts, req.Range)
	if err != nil {
		return nil, err
	}
	if !availability.CanFulfill {
		return nil, unavailableFromShortfall(availability)
	}

	quote, err := s.quoteFromCandidates(ctx, req, availability)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	booking := &entities.Booking{
		ID:          uuid.New().String(),
		UserID:      req.UserID,
		HotelID:     req.HotelID,
		StartDate:   req.Range.Start,
		EndDate:     req.Range.End,
		TotalCharge: quote.TotalCharge,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, rc := range quote.RoomCharges {
		booking.Rooms = append(booking.Rooms, entities.BookingRoom{
			ID:        uuid.New().String(),
			BookingID: booking.ID,
			RoomID:    rc.RoomID,
			Charge:    rc.Charge,
		})
	}

	claimCtx, cancel := context.WithTimeout(ctx, s.claimTimeout)
	defer cancel()

	start := time.Now()
	err = s.bookingRepo.ClaimRooms(claimCtx, booking)

	var appErr *apperrors.AppError
	conflicted := errors.As(err, &appErr) && appErr.Type == apperrors.ErrorTypeRoomUnavailable
	if s.metrics != nil {
		observability.RecordClaimMetric(ctx, s.metrics, req.HotelID, conflicted, time.Since(start))
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewTimeoutError("room claim exceeded its latency budget", err)
		}
		return nil, err
	}

	s.publishEvent(booking.HotelID, booking.ID, entities.HotelEventBookingMade)

	return booking, nil
}

// ConfirmHold promotes a pending booking to confirmed. A hold still inside
// its window blocks rival claims itself, so a guarded status update
// suffices. An expired hold no longer blocks anyone, so its promotion goes
// through the repository's locked re-check: rooms are locked, conflicts from
// other bookings re-checked, and the status flipped in one transaction.
func (s *ReservationService) ConfirmHold(ctx context.Context, bookingID string) (*entities.Booking, error) {
	ctx, span := observability.StartSpan(ctx, "ReservationService.ConfirmHold")
	defer span.End()

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status != entities.BookingStatusPending {
		return nil, apperrors.NewInvalidTransitionError(
			fmt.Sprintf("booking %s cannot move from %s to %s", bookingID, booking.Status, entities.BookingStatusConfirmed),
		)
	}

	if time.Since(booking.CreatedAt) > s.holdWindow {
		err = s.bookingRepo.PromoteHold(ctx, booking)
	} else {
		err = s.bookingRepo.UpdateStatus(ctx, bookingID,
			[]entities.BookingStatus{entities.BookingStatusPending},
			entities.BookingStatusConfirmed,
		)
	}
	if err != nil {
		return nil, err
	}

	booking.Status = entities.BookingStatusConfirmed
	s.publishEvent(booking.HotelID, booking.ID, entities.HotelEventBookingMade)

	return booking, nil
}

// CancelBooking cancels a pending or confirmed booking, freeing its rooms
// for the covered range. Cancelling is terminal.
func (s *ReservationService) CancelBooking(ctx context.Context, bookingID string) error {
	ctx, span := observability.StartSpan(ctx, "ReservationService.CancelBooking")
	defer span.End()

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}

	err = s.bookingRepo.UpdateStatus(ctx, bookingID,
		[]entities.BookingStatus{entities.BookingStatusPending, entities.BookingStatusConfirmed},
		entities.BookingStatusCancelled,
	)
	if err != nil {
		return err
	}

	s.publishEvent(booking.HotelID, booking.ID, entities.HotelEventBookingFreed)

	return nil
}

// GetBooking retrieves a booking with its rooms
func (s *ReservationService) GetBooking(ctx context.Context, bookingID string) (*entities.Booking, error) {
	return s.bookingRepo.GetByID(ctx, bookingID)
}

// ListUserBookings retrieves a user's bookings
func (s *ReservationService) ListUserBookings(ctx context.Context, userID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("user id is required")
	}
	return s.bookingRepo.ListByUser(ctx, userID, filter)
}

// AddReview attaches post-stay feedback to a booking room
func (s *ReservationService) AddReview(ctx context.Context, review *entities.Review) error {
	if review.Rating < 1 || review.Rating > 5 {
		return apperrors.NewValidationError("rating must be between 1 and 5")
	}
	if review.BookingRoomID == "" {
		return apperrors.NewValidationError("booking room id is required")
	}

	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	review.CreatedAt = time.Now()

	return s.bookingRepo.AddReview(ctx, review)
}

func (s *ReservationService) publishEvent(hotelID, bookingID string, eventType entities.HotelEventType) {
	if s.eventBus == nil {
		return
	}

	event := &entities.HotelEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		HotelID:   hotelID,
		BookingID: bookingID,
		Timestamp: time.Now(),
	}

	// Event delivery is best effort; a bus outage must not fail a booking.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		logger := observability.GetLogger()
		if err := s.eventBus.Publish(ctx, providers.GetHotelChannel(hotelID), event); err != nil {
			logger.Warn().Err(err).Str("hotel_id", hotelID).Msg("failed to publish hotel event")
		}
		if err := s.eventBus.Publish(ctx, providers.EventChannelHotelUpdates, event); err != nil {
			logger.Warn().Err(err).Str("hotel_id", hotelID).Msg("failed to publish hotel update event")
		}
	}()
}

func unavailableFromShortfall(availability *entities.AvailabilityResult) error {
	var short []string
	for _, rt := range availability.RoomTypes {
		if rt.Shortfall() > 0 {
			short = append(short, fmt.Sprintf("%s (need %d more)", rt.RoomTypeID, rt.Shortfall()))
		}
	}
	return &apperrors.AppError{
		Type:    apperrors.ErrorTypeRoomUnavailable,
		Message: fmt.Sprintf("insufficient availability for room types: %s", strings.Join(short, ", ")),
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
