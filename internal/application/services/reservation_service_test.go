package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/leafhq/leaf/backend/internal/adapters/pricing"
	"github.com/leafhq/leaf/backend/internal/application/services"
	"github.com/leafhq/leaf/backend/internal/domain/entities"
	"github.com/leafhq/leaf/backend/internal/domain/repositories"
	apperrors "github.com/leafhq/leaf/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mocks

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) ClaimRooms(ctx context.Context, booking *entities.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) PromoteHold(ctx context.Context, booking *entities.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*entities.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByUser(ctx context.Context, userID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListConflicts(ctx context.Context, roomIDs []string, rng entities.DateRange, pendingCutoff time.Time) ([]apperrors.RoomConflict, error) {
	args := m.Called(ctx, roomIDs, rng, pendingCutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]apperrors.RoomConflict), args.Error(1)
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, id string, expected []entities.BookingStatus, next entities.BookingStatus) error {
	args := m.Called(ctx, id, expected, next)
	return args.Error(0)
}

func (m *MockBookingRepository) AddReview(ctx context.Context, review *entities.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

type MockRoomRepository struct {
	mock.Mock
}

func (m *MockRoomRepository) ListByRoomTypes(ctx context.Context, hotelID string, roomTypeIDs []string) ([]*entities.Room, error) {
	args := m.Called(ctx, hotelID, roomTypeIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Room), args.Error(1)
}

func (m *MockRoomRepository) GetRoomTypes(ctx context.Context, roomTypeIDs []string) ([]*entities.RoomType, error) {
	args := m.Called(ctx, roomTypeIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.RoomType), args.Error(1)
}

type MockHotelRepository struct {
	mock.Mock
}

func (m *MockHotelRepository) Create(ctx context.Context, hotel *entities.Hotel) error {
	args := m.Called(ctx, hotel)
	return args.Error(0)
}

func (m *MockHotelRepository) GetByID(ctx context.Context, id string) (*entities.Hotel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Hotel), args.Error(1)
}

func (m *MockHotelRepository) Update(ctx context.Context, hotel *entities.Hotel) error {
	args := m.Called(ctx, hotel)
	return args.Error(0)
}

func (m *MockHotelRepository) List(ctx context.Context, filter repositories.HotelFilter) ([]*entities.Hotel, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Hotel), args.Error(1)
}

func (m *MockHotelRepository) Search(ctx context.Context, params repositories.SearchParams) ([]*entities.Hotel, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Hotel), args.Error(1)
}

// Fixtures

const (
	testHotelID  = "hotel-1"
	standardType = "rt-standard"
)

func standardRooms() []*entities.Room {
	return []*entities.Room{
		{ID: "room-101", RoomTypeID: standardType, HotelID: testHotelID},
		{ID: "room-102", RoomTypeID: standardType, HotelID: testHotelID},
		{ID: "room-103", RoomTypeID: standardType, HotelID: testHotelID},
	}
}

func standardRoomTypes() []*entities.RoomType {
	return []*entities.RoomType{
		{ID: standardType, HotelID: testHotelID, Name: "Standard", BasePrice: 10000},
	}
}

func stayRange(t *testing.T, nights int) entities.DateRange {
	t.Helper()
	start := entities.Today().AddDate(0, 0, 7)
	rng, err := entities.NewDateRange(start, start.AddDate(0, 0, nights))
	require.NoError(t, err)
	return rng
}

func newTestService(bookingRepo *MockBookingRepository, roomRepo *MockRoomRepository, hotelRepo *MockHotelRepository) *services.ReservationService {
	return services.NewReservationService(
		bookingRepo,
		roomRepo,
		hotelRepo,
		pricing.NewBaseRateAdapter(),
		nil,
		nil,
		15*time.Minute,
		5*time.Second,
	)
}

func appErrType(t *testing.T, err error) apperrors.ErrorType {
	t.Helper()
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Type
}

// Tests

func TestReservationService_CheckAvailability(t *testing.T) {
	rng := stayRange(t, 2)

	t.Run("reports free rooms per type", func(t *testing.T) {
		bookingRepo := new(MockBookingRepository)
		roomRepo := new(MockRoomRepository)
		hotelRepo := new(MockHotelRepository)
		service := newTestService(bookingRepo, roomRepo, hotelRepo)

		hotelRepo.On("GetByID", mock.Anything, testHotelID).Return(&entities.Hotel{ID: testHotelID}, nil)
		roomRepo.On("ListByRoomTypes", mock.Anything, testHotelID, []string{standardType}).Return(standardRooms(), nil)
		bookingRepo.On("ListConflicts", mock.Anything, mock.Anything, rng, mock.Anything).Return(
			[]apperrors.RoomConflict{{RoomID: "room-102", BookingID: "booking-9"}}, nil)

		result, err := service.CheckAvailability(context.Background(), testHotelID, map[string]int{standardType: 2}, rng)

		require.NoError(t, err)
		assert.True(t, result.CanFulfill)
		require.Len(t, result.RoomTypes, 1)
		assert.Equal(t, 2, result.RoomTypes[0].Requested)
		assert.Equal(t, 2, result.RoomTypes[0].Available)
		assert.Equal(t, []string{"room-101", "room-103"}, result.RoomTypes[0].CandidateRoomIDs)
	})

	t.Run("reports shortfall when too few rooms are free", func(t *testing.T) {
		bookingRepo := new(MockBookingRepository)
		roomRepo := new(MockRoomRepository)
		hotelRepo := new(MockHotelRepository)
		service := newTestService(bookingRepo, roomRepo, hotelRepo)

		hotelRepo.On("GetByID", mock.Anything, testHotelID).Return(&entities.Hotel{ID: testHotelID}, nil)
		roomRepo.On("ListByRoomTypes", mock.Anything, testHotelID, []string{standardType}).Return(standardRooms(), nil)
		bookingRepo.On("ListConflicts", mock.Anything, mock.Anything, rng, mock.Anything).Return(
			[]apperrors.RoomConflict{
				{RoomID: "room-101", BookingID: "booking-8"},
				{RoomID: "room-102", BookingID: "booking-9"},
			}, nil)

		result, err := service.CheckAvailability(context.Background(), testHotelID, map[string]int{standardType: 2}, rng)

		require.NoError(t, err)
		assert.False(t, result.CanFulfill)
		require.Len(t, result.RoomTypes, 1)
		assert.Equal(t, 1, result.RoomTypes[0].Available)
		assert.Empty(t, result.RoomTypes[0].CandidateRoomIDs)
		assert.Equal(t, 1, result.RoomTypes[0].Shortfall())
	})

	t.Run("rejects a non positive room count", func(t *testing.T) {
		service := newTestService(new(MockBookingRepository), new(MockRoomRepository), new(MockHotelRepository))

		_, err := service.CheckAvailability(context.Background(), testHotelID, map[string]int{standardType: 0}, rng)

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeValidation, appErrType(t, err))
	})

	t.Run("rejects an empty request", func(t *testing.T) {
		service := newTestService(new(MockBookingRepository), new(MockRoomRepository), new(MockHotelRepository))

		_, err := service.CheckAvailability(context.Background(), testHotelID, map[string]int{}, rng)

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeValidation, appErrType(t, err))
	})

	t.Run("propagates hotel not found", func(t *testing.T) {
		bookingRepo := new(MockBookingRepository)
		roomRepo := new(MockRoomRepository)
		hotelRepo := new(MockHotelRepository)
		service := newTestService(bookingRepo, roomRepo, hotelRepo)

		hotelRepo.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.NewNotFoundError("hotel with id missing not found"))

		_, err := service.CheckAvailability(context.Background(), "missing", map[string]int{standardType: 1}, rng)

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeNotFound, appErrType(t, err))
	})
}

func TestReservationService_QuoteCharge(t *testing.T) {
	t.Run("prices each room over the stay and sums the total", func(t *testing.T) {
		bookingRepo := new(MockBookingRepository)
		roomRepo := new(MockRoomRepository)
		hotelRepo := new(MockHotelRepository)
		service := newTestService(bookingRepo, roomRepo, hotelRepo)

		rng := stayRange(t, 2)

		hotelRepo.On("GetByID", mock.Anything, testHotelID).Return(&entities.Hotel{ID: testHotelID}, nil)
		roomRepo.On("ListByRoomTypes", mock.Anything, testHotelID, []string{standardType}).Return(standardRooms(), nil)
		bookingRepo.On("ListConflicts", mock.Anything, mock.Anything, rng, mock.Anything).Return(nil, nil)
		roomRepo.On("GetRoomTypes", mock.Anything, []string{standardType}).Return(standardRoomTypes(), nil)

		quote, err := service.QuoteCharge(context.Background(), &entities.BookingRequest{
			UserID:         "user-1",
			HotelID:        testHotelID,
			RoomTypeCounts: map[string]int{standardType: 2},
			Range:          rng,
		})

		require.NoError(t, err)
		assert.Equal(t, 2, quote.Nights)
		require.Len(t, quote.RoomCharges, 2)
		// 10000 cents a night, 2 nights a room
		assert.Equal(t, int64(20000), quote.RoomCharges[0].Charge)
		assert.Equal(t, int64(20000), quote.RoomCharges[1].Charge)
		assert.Equal(t, int64(40000), quote.TotalCharge)
	})

	t.Run("total scales linearly with the number of rooms", func(t *testing.T) {
		bookingRepo := new(MockBookingRepository)
		roomRepo := new(MockRoomRepository)
		hotelRepo := new(MockHotelRepository)
		service := newTestService(bookingRepo, roomRepo, hotelRepo)

		rng := stayRange(t, 2)

		hotelRepo.On("GetByID", mock.Anything, testHotelID).Return(&entities.Hotel{ID: testHotelID}, nil)
		roomRepo.On("ListByRoomTypes", mock.Anything, testHotelID, []string{standardType}).Return(standardRooms(), nil)
		bookingRepo.On("ListConflicts", mock.Anything, mock.Anything, rng, mock.Anything).Return(nil, nil)
		roomRepo.On("GetRoomTypes", mock.Anything, []string{standardType}).Return(standardRoomTypes(), nil)

		quote, err := service.QuoteCharge(context.Background(), &entities.BookingRequest{
			UserID:         "user-1",
			HotelID:        testHotelID,
			RoomTypeCounts: map[string]int{standardType: 3},
			Range:          rng,
		})

		require.NoError(t, err)
		require.Len(t, quote.RoomCharges, 3)
		assert.Equal(t, 3*quote.RoomCharges[0].Charge, quote.TotalCharge)
	})

	t.Run("returns room unavailable on shortfall", func(t *testing.T) {
		bookingRepo := new(MockBookingRepository)
		roomRepo := new(MockRoomRepository)
		hotelRepo := new(MockHotelRepository)
		service := newTestService(bookingRepo, roomRepo, hotelRepo)

		rng := stayRange(t, 2)

		hotelRepo.On("GetByID", mock.Anything, testHotelID).Return(&entities.Hotel{ID: testHotelID}, nil)
		roomRepo.On("ListByRoomTypes", mock.Anything, testHotelID, []string{standardType}).Return(standardRooms()[:1], nil)
		bookingRepo.On("ListConflicts", mock.Anything, mock.Anything, rng, mock.Anything).Return(nil, nil)

		_, err := service.QuoteCharge(context.Background(), &entities.BookingRequest{
			UserID:         "user-1",
			HotelID:        testHotelID,
			RoomTypeCounts: map[string]int{standardType: 2},
			Range:          rng,
		})

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeRoomUnavailable, appErrType(t, err))
		roomRepo.AssertNotCalled(t, "GetRoomTypes")
	})
}

func TestReservationService_ConfirmBooking(t *testing.T) {
	rng := stayRange(t, 2)

	validRequest := func() *entities.BookingRequest {
		return &entities.BookingRequest{
			UserID:         "user-1",
			HotelID:        testHotelID,
			RoomTypeCounts: map[string]int{standardType: 2},
			Range:          rng,
		}
	}

	setupHappyReads := func(bookingRepo *MockBookingRepository, roomRepo *MockRoomRepository, hotelRepo *MockHotelRepository) {
		hotelRepo.On("GetByID", mock.Anything, testHotelID).Return(&entities.Hotel{ID: testHotelID}, nil)
		roomRepo.On("ListByRoomTypes", mock.Anything, testHotelID, []string{standardType}).Return(standardRooms(), nil)
		bookingRepo.On("ListConflicts", mock.Anything, mock.Anything, rng, mock.Anything).Return(nil, nil)
		roomRepo.On("GetRoomTypes", mock.Anything, []string{standardType}).Return(standardRoomTypes(), nil)
	}

	t.Run("claims the candidate rooms as a confirmed booking", func(t *testing.T) {
		bookingRepo := new(MockBookingRepository)
		roomRepo := new(MockRoomRepository)
		hotelRepo := new(MockHotelRepository)
		service := newTestService(bookingRepo, roomRepo, hotelRepo)

		setupHappyReads(bookingRepo, roomRepo, hotelRepo)
		bookingRepo.On("ClaimRooms", mock.Anything, mock.MatchedBy(func(b *entities.Booking) bool {
			return b.Status == entities.BookingStatusConfirmed &&
				len(b.Rooms) == 2 &&
				b.TotalCharge == 40000 &&
				b.UserID == "user-1"
		})).Return(nil)

		booking, err := service.ConfirmBooking(context.Background(), validRequest())

		require.NoError(t, err)
		assert.NotEmpty(t, booking.ID)
		assert.Equal(t, entities.BookingStatusConfirmed, booking.Status)
		assert.Equal(t, "room-101", booking.Rooms[0].RoomID)
		assert.Equal(t, "room-102", booking.Rooms[1].RoomID)
		bookingRepo.AssertExpectations(t)
	})

	t.Run("requires a user id", func(t *testing.T) {
		service := newTestService(new(MockBookingRepository), new(MockRoomRepository), new(MockHotelRepository))

		req := validRequest()
		req.UserID = ""

		_, err := service.ConfirmBooking(context.Background(), req)

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeValidation, appErrType(t, err))
	})

	t.Run("surfaces a losing claim as room unavailable", func(t *testing.T) {
		bookingRepo := new(MockBookingRepository)
		roomRepo := new(MockRoomRepository)
		hotelRepo := new(MockHotelRepository)
		service := newTestService(bookingRepo, roomRepo, hotelRepo)

		setupHappyReads(bookingRepo, roomRepo, hotelRepo)
		// Another claim won the race between the advisory check and the lock.
		bookingRepo.On("ClaimRooms", mock.Anything, mock.Anything).Return(
			apperrors.NewRoomUnavailableError([]apperrors.RoomConflict{{RoomID: "room-101", BookingID: "booking-7"}}))

		_, err := service.ConfirmBooking(context.Background(), validRequest())

		require.Error(t, err)
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrorTypeRoomUnavailable, appErr.Type)
		require.Len(t, appErr.Conflicts, 1)
		assert.Equal(t, "room-101", appErr.Conflicts[0].RoomID)
	})

	t.Run("maps a claim deadline to a timeout error", func(t *testing.T) {
		bookingRepo := new(MockBookingRepository)
		roomRepo := new(MockRoomRepository)
		hotelRepo := new(MockHotelRepository)
		service := newTestService(bookingRepo, roomRepo, hotelRepo)

		setupHappyReads(bookingRepo, roomRepo, hotelRepo)
		bookingRepo.On("ClaimRooms", mock.Anything, mock.Anything).Return(context.DeadlineExceeded)

		_, err := service.ConfirmBooking(context.Background(), validRequest())

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeTimeout, appErrType(t, err))
	})
}

func TestReservationService_HoldBooking(t *testing.T) {
	t.Run("claims the rooms as a pending booking", func(t *testing.T) {
		bookingRepo := new(MockBookingRepository)
		roomRepo := new(MockRoomRepository)
		hotelRepo := new(MockHotelRepository)
		service := newTestService(bookingRepo, roomRepo, hotelRepo)

		rng := stayRange(t, 2)

		hotelRepo.On("GetByID", mock.Anything, testHotelID).Return(&entities.Hotel{ID: testHotelID}, nil)
		roomRepo.On("ListByRoomTypes", mock.Anything, testHotelID, []string{standardType}).Return(standardRooms(), nil)
		bookingRepo.On("ListConflicts", mock.Anything, mock.Anything, rng, mock.Anything).Return(nil, nil)
		roomRepo.On("GetRoomTypes", mock.Anything, []string{standardType}).Return(standardRoomTypes(), nil)
		bookingRepo.On("ClaimRooms", mock.Anything, mock.MatchedBy(func(b *entities.Booking) bool {
			return b.Status == entities.BookingStatusPending
		})).Return(nil)

		booking, err := service.HoldBooking(context.Background(), &entities.BookingRequest{
			UserID:         "user-1",
			HotelID:        testHotelID,
			RoomTypeCounts: map[string]int{standardType: 1},
			Range:          rng,
		})

		require.NoError(t, err)
		assert.Equal(t, entities.BookingStatusPending, booking.Status)
		bookingRepo.AssertExpectations(t)
	})
}

func TestReservationService_ConfirmHold(t *testing.T) {
	heldBooking := func(createdAt time.Time) *entities.Booking {
		return &entities.Booking{
			ID:        "booking-1",
			UserID:    "user-1",
			HotelID:   testHotelID,
			StartDate: entities.Today().AddDate(0, 0, 7),
			EndDate:   entities.Today().AddDate(0, 0, 9),
			Status:    entities.BookingStatusPending,
			Rooms: []entities.BookingRoom{
				{ID: "br-1", BookingID: "booking-1", RoomID: "room-101", Charge: 20000},
			},
			CreatedAt: createdAt,
		}
	}

	t.Run("promotes a fresh hold with a guarded status update", func(t *testing.T) {
		bookingRepo := new(MockBookingRepository)
		service := newTestService(bookingRepo, new(MockRoomRepository), new(MockHotelRepository))

		bookingRepo.On("GetByID", mock.Anything, "booking-1").Return(heldBooking(time.Now()), nil)
		bookingRepo.On("UpdateStatus", mock.Anything, "booking-1",
			[]entities.BookingStatus{entities.BookingStatusPending},
			entities.BookingStatusConfirmed,
		).Return(nil)

		booking, err := service.ConfirmHold(context.Background(), "booking-1")

		require.NoError(t, err)
		assert.Equal(t, entities.BookingStatusConfirmed, booking.Status)
		bookingRepo.AssertNotCalled(t, "PromoteHold")
	})

	t.Run("rejects confirming a non pending booking", func(t *testing.T) {
		bookingRepo := new(MockBookingRepository)
		service := newTestService(bookingRepo, new(MockRoomRepository), new(MockHotelRepository))

		cancelled := heldBooking(time.Now())
		cancelled.Status = entities.BookingStatusCancelled
		bookingRepo.On("GetByID", mock.Anything, "booking-1").Return(cancelled, nil)

		_, err := service.ConfirmHold(context.Background(), "booking-1")

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeInvalidTransition, appErrType(t, err))
		bookingRepo.AssertNotCalled(t, "UpdateStatus")
	})

	t.Run("rejects an expired hold whose rooms were reclaimed", func(t *testing.T) {
		bookingRepo := new(MockBookingRepository)
		service := newTestService(bookingRepo, new(MockRoomRepository), new(MockHotelRepository))

		bookingRepo.On("GetByID", mock.Anything, "booking-1").Return(heldBooking(time.Now().Add(-30*time.Minute)), nil)
		bookingRepo.On("PromoteHold", mock.Anything, mock.MatchedBy(func(b *entities.Booking) bool {
			return b.ID == "booking-1"
		})).Return(apperrors.NewRoomUnavailableError([]apperrors.RoomConflict{
			{RoomID: "room-101", BookingID: "booking-2"},
		}))

		_, err := service.ConfirmHold(context.Background(), "booking-1")

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeRoomUnavailable, appErrType(t, err))
		bookingRepo.AssertNotCalled(t, "UpdateStatus")
	})

	t.Run("promotes an expired hold through the locked re-check", func(t *testing.T) {
		bookingRepo := new(MockBookingRepository)
		service := newTestService(bookingRepo, new(MockRoomRepository), new(MockHotelRepository))

		bookingRepo.On("GetByID", mock.Anything, "booking-1").Return(heldBooking(time.Now().Add(-30*time.Minute)), nil)
		bookingRepo.On("PromoteHold", mock.Anything, mock.MatchedBy(func(b *entities.Booking) bool {
			return b.ID == "booking-1"
		})).Return(nil)

		booking, err := service.ConfirmHold(context.Background(), "booking-1")

		require.NoError(t, err)
		assert.Equal(t, entities.BookingStatusConfirmed, booking.Status)
		bookingRepo.AssertNotCalled(t, "UpdateStatus")
		bookingRepo.AssertExpectations(t)
	})
}

func TestReservationService_CancelBooking(t *testing.T) {
	t.Run("cancels a confirmed booking", func(t *testing.T) {
		bookingRepo := new(MockBookingRepository)
		service := newTestService(bookingRepo, new(MockRoomRepository), new(MockHotelRepository))

		bookingRepo.On("GetByID", mock.Anything, "booking-1").Return(&entities.Booking{
			ID:      "booking-1",
			HotelID: testHotelID,
			Status:  entities.BookingStatusConfirmed,
		}, nil)
		bookingRepo.On("UpdateStatus", mock.Anything, "booking-1",
			[]entities.BookingStatus{entities.BookingStatusPending, entities.BookingStatusConfirmed},
			entities.BookingStatusCancelled,
		).Return(nil)

		err := service.CancelBooking(context.Background(), "booking-1")

		require.NoError(t, err)
		bookingRepo.AssertExpectations(t)
	})

	t.Run("passes through an invalid transition", func(t *testing.T) {
		bookingRepo := new(MockBookingRepository)
		service := newTestService(bookingRepo, new(MockRoomRepository), new(MockHotelRepository))

		bookingRepo.On("GetByID", mock.Anything, "booking-1").Return(&entities.Booking{
			ID:     "booking-1",
			Status: entities.BookingStatusCancelled,
		}, nil)
		bookingRepo.On("UpdateStatus", mock.Anything, "booking-1", mock.Anything, mock.Anything).Return(
			apperrors.NewInvalidTransitionError("booking booking-1 cannot move from cancelled to cancelled"))

		err := service.CancelBooking(context.Background(), "booking-1")

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeInvalidTransition, appErrType(t, err))
	})

	t.Run("returns not found for an unknown booking", func(t *testing.T) {
		bookingRepo := new(MockBookingRepository)
		service := newTestService(bookingRepo, new(MockRoomRepository), new(MockHotelRepository))

		bookingRepo.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.NewNotFoundError("booking with id missing not found"))

		err := service.CancelBooking(context.Background(), "missing")

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeNotFound, appErrType(t, err))
		bookingRepo.AssertNotCalled(t, "UpdateStatus")
	})
}

func TestReservationService_AddReview(t *testing.T) {
	t.Run("persists a valid review with a generated id", func(t *testing.T) {
		bookingRepo := new(MockBookingRepository)
		service := newTestService(bookingRepo, new(MockRoomRepository), new(MockHotelRepository))

		bookingRepo.On("AddReview", mock.Anything, mock.MatchedBy(func(r *entities.Review) bool {
			return r.ID != "" && r.Rating == 4
		})).Return(nil)

		err := service.AddReview(context.Background(), &entities.Review{
			BookingRoomID: "br-1",
			Rating:        4,
			Comment:       "clean room, slow checkin",
		})

		require.NoError(t, err)
		bookingRepo.AssertExpectations(t)
	})

	t.Run("rejects a rating out of range", func(t *testing.T) {
		bookingRepo := new(MockBookingRepository)
		service := newTestService(bookingRepo, new(MockRoomRepository), new(MockHotelRepository))

		err := service.AddReview(context.Background(), &entities.Review{BookingRoomID: "br-1", Rating: 6})

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeValidation, appErrType(t, err))
		bookingRepo.AssertNotCalled(t, "AddReview")
	})

	t.Run("requires a booking room id", func(t *testing.T) {
		bookingRepo := new(MockBookingRepository)
		service := newTestService(bookingRepo, new(MockRoomRepository), new(MockHotelRepository))

		err := service.AddReview(context.Background(), &entities.Review{Rating: 3})

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeValidation, appErrType(t, err))
	})
}

// memoryClaimRepo serializes check-then-act under one lock, the way the SQL
// adapter does under row locks. It honors the blocking rules: confirmed
// bookings block, pending ones only inside the hold window, cancelled ones
// never. Used to race claims through the service without a database.
type memoryClaimRepo struct {
	mu         sync.Mutex
	holdWindow time.Duration
	bookings   map[string]*entities.Booking
	byRoom     map[string][]*entities.Booking
}

func newMemoryClaimRepo(holdWindow time.Duration) *memoryClaimRepo {
	return &memoryClaimRepo{
		holdWindow: holdWindow,
		bookings:   make(map[string]*entities.Booking),
		byRoom:     make(map[string][]*entities.Booking),
	}
}

func blocksRange(b *entities.Booking, rng entities.DateRange, pendingCutoff time.Time) bool {
	if !rng.Overlaps(b.Range()) {
		return false
	}
	switch b.Status {
	case entities.BookingStatusConfirmed:
		return true
	case entities.BookingStatusPending:
		return b.CreatedAt.After(pendingCutoff)
	}
	return false
}

func (r *memoryClaimRepo) conflictsLocked(roomIDs []string, rng entities.DateRange, pendingCutoff time.Time, excludeID string) []apperrors.RoomConflict {
	var conflicts []apperrors.RoomConflict
	for _, roomID := range roomIDs {
		for _, other := range r.byRoom[roomID] {
			if other.ID != excludeID && blocksRange(other, rng, pendingCutoff) {
				conflicts = append(conflicts, apperrors.RoomConflict{RoomID: roomID, BookingID: other.ID})
			}
		}
	}
	return conflicts
}

func (r *memoryClaimRepo) ClaimRooms(ctx context.Context, booking *entities.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomIDs := make([]string, 0, len(booking.Rooms))
	for _, br := range booking.Rooms {
		roomIDs = append(roomIDs, br.RoomID)
	}

	conflicts := r.conflictsLocked(roomIDs, booking.Range(), time.Now().Add(-r.holdWindow), booking.ID)
	if len(conflicts) > 0 {
		return apperrors.NewRoomUnavailableError(conflicts)
	}

	r.bookings[booking.ID] = booking
	for _, br := range booking.Rooms {
		r.byRoom[br.RoomID] = append(r.byRoom[br.RoomID], booking)
	}
	return nil
}

func (r *memoryClaimRepo) PromoteHold(ctx context.Context, booking *entities.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomIDs := make([]string, 0, len(booking.Rooms))
	for _, br := range booking.Rooms {
		roomIDs = append(roomIDs, br.RoomID)
	}

	conflicts := r.conflictsLocked(roomIDs, booking.Range(), time.Now().Add(-r.holdWindow), booking.ID)
	if len(conflicts) > 0 {
		return apperrors.NewRoomUnavailableError(conflicts)
	}

	stored, ok := r.bookings[booking.ID]
	if !ok {
		return apperrors.NewNotFoundError("booking not found")
	}
	if stored.Status != entities.BookingStatusPending {
		return apperrors.NewInvalidTransitionError("booking is no longer pending")
	}
	stored.Status = entities.BookingStatusConfirmed
	return nil
}

func (r *memoryClaimRepo) ListConflicts(ctx context.Context, roomIDs []string, rng entities.DateRange, pendingCutoff time.Time) ([]apperrors.RoomConflict, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conflictsLocked(roomIDs, rng, pendingCutoff, ""), nil
}

func (r *memoryClaimRepo) GetByID(ctx context.Context, id string) (*entities.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.bookings[id]; ok {
		return b, nil
	}
	return nil, apperrors.NewNotFoundError("booking not found")
}

func (r *memoryClaimRepo) ListByUser(ctx context.Context, userID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	return nil, nil
}

func (r *memoryClaimRepo) UpdateStatus(ctx context.Context, id string, expected []entities.BookingStatus, next entities.BookingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return apperrors.NewNotFoundError("booking not found")
	}
	for _, status := range expected {
		if b.Status == status {
			b.Status = next
			return nil
		}
	}
	return apperrors.NewInvalidTransitionError("unexpected booking status")
}

func (r *memoryClaimRepo) AddReview(ctx context.Context, review *entities.Review) error {
	return nil
}

// backdate ages a stored booking, simulating a hold that lapsed.
func (r *memoryClaimRepo) backdate(id string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.bookings[id]; ok {
		b.CreatedAt = b.CreatedAt.Add(-d)
	}
}

func TestReservationService_ConcurrentClaims(t *testing.T) {
	t.Run("exactly one of N racing claims for the last room wins", func(t *testing.T) {
		rng := stayRange(t, 2)
		roomRepo := new(MockRoomRepository)
		hotelRepo := new(MockHotelRepository)

		hotelRepo.On("GetByID", mock.Anything, testHotelID).Return(&entities.Hotel{ID: testHotelID}, nil)
		roomRepo.On("ListByRoomTypes", mock.Anything, testHotelID, []string{standardType}).Return(
			[]*entities.Room{{ID: "room-101", RoomTypeID: standardType, HotelID: testHotelID}}, nil)
		roomRepo.On("GetRoomTypes", mock.Anything, []string{standardType}).Return(standardRoomTypes(), nil)

		service := services.NewReservationService(
			newMemoryClaimRepo(15*time.Minute),
			roomRepo,
			hotelRepo,
			pricing.NewBaseRateAdapter(),
			nil,
			nil,
			15*time.Minute,
			5*time.Second,
		)

		const claimers = 8
		errs := make([]error, claimers)
		var wg sync.WaitGroup
		for i := 0; i < claimers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = service.ConfirmBooking(context.Background(), &entities.BookingRequest{
					UserID:         fmt.Sprintf("user-%d", i),
					HotelID:        testHotelID,
					RoomTypeCounts: map[string]int{standardType: 1},
					Range:          rng,
				})
			}(i)
		}
		wg.Wait()

		winners := 0
		for _, err := range errs {
			if err == nil {
				winners++
				continue
			}
			assert.Equal(t, apperrors.ErrorTypeRoomUnavailable, appErrType(t, err))
		}
		assert.Equal(t, 1, winners)
	})

	t.Run("a claim over a disjoint range is not blocked", func(t *testing.T) {
		rng := stayRange(t, 2)
		roomRepo := new(MockRoomRepository)
		hotelRepo := new(MockHotelRepository)

		hotelRepo.On("GetByID", mock.Anything, testHotelID).Return(&entities.Hotel{ID: testHotelID}, nil)
		roomRepo.On("ListByRoomTypes", mock.Anything, testHotelID, []string{standardType}).Return(
			[]*entities.Room{{ID: "room-101", RoomTypeID: standardType, HotelID: testHotelID}}, nil)
		roomRepo.On("GetRoomTypes", mock.Anything, []string{standardType}).Return(standardRoomTypes(), nil)

		service := services.NewReservationService(
			newMemoryClaimRepo(15*time.Minute),
			roomRepo,
			hotelRepo,
			pricing.NewBaseRateAdapter(),
			nil,
			nil,
			15*time.Minute,
			5*time.Second,
		)

		first, err := service.ConfirmBooking(context.Background(), &entities.BookingRequest{
			UserID:         "user-1",
			HotelID:        testHotelID,
			RoomTypeCounts: map[string]int{standardType: 1},
			Range:          rng,
		})
		require.NoError(t, err)

		// Back-to-back stay: checkin on the first booking's checkout day.
		next, err := entities.NewDateRange(rng.End, rng.End.AddDate(0, 0, 2))
		require.NoError(t, err)

		second, err := service.ConfirmBooking(context.Background(), &entities.BookingRequest{
			UserID:         "user-2",
			HotelID:        testHotelID,
			RoomTypeCounts: map[string]int{standardType: 1},
			Range:          next,
		})
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("an expired hold loses to a rival claim made after it lapsed", func(t *testing.T) {
		rng := stayRange(t, 2)
		roomRepo := new(MockRoomRepository)
		hotelRepo := new(MockHotelRepository)

		hotelRepo.On("GetByID", mock.Anything, testHotelID).Return(&entities.Hotel{ID: testHotelID}, nil)
		roomRepo.On("ListByRoomTypes", mock.Anything, testHotelID, []string{standardType}).Return(
			[]*entities.Room{{ID: "room-101", RoomTypeID: standardType, HotelID: testHotelID}}, nil)
		roomRepo.On("GetRoomTypes", mock.Anything, []string{standardType}).Return(standardRoomTypes(), nil)

		repo := newMemoryClaimRepo(15 * time.Minute)
		service := services.NewReservationService(
			repo,
			roomRepo,
			hotelRepo,
			pricing.NewBaseRateAdapter(),
			nil,
			nil,
			15*time.Minute,
			5*time.Second,
		)

		hold, err := service.HoldBooking(context.Background(), &entities.BookingRequest{
			UserID:         "user-1",
			HotelID:        testHotelID,
			RoomTypeCounts: map[string]int{standardType: 1},
			Range:          rng,
		})
		require.NoError(t, err)

		// The hold lapses unconfirmed, so it stops blocking rivals.
		repo.backdate(hold.ID, 30*time.Minute)

		rival, err := service.ConfirmBooking(context.Background(), &entities.BookingRequest{
			UserID:         "user-2",
			HotelID:        testHotelID,
			RoomTypeCounts: map[string]int{standardType: 1},
			Range:          rng,
		})
		require.NoError(t, err)
		assert.Equal(t, entities.BookingStatusConfirmed, rival.Status)

		_, err = service.ConfirmHold(context.Background(), hold.ID)

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeRoomUnavailable, appErrType(t, err))

		stored, err := repo.GetByID(context.Background(), hold.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.BookingStatusPending, stored.Status)
	})
}
