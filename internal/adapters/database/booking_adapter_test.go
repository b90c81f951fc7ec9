package database_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leafhq/leaf/backend/internal/adapters/database"
	"github.com/leafhq/leaf/backend/internal/domain/entities"
	"github.com/leafhq/leaf/backend/internal/domain/repositories"
	"github.com/leafhq/leaf/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/leafhq/leaf/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBookingAdapter(t *testing.T) (repositories.BookingRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	adapter := database.NewBookingAdapter(postgres.NewClientFromDB(db), 15*time.Minute)
	return adapter, mock
}

func claimableBooking(t *testing.T) *entities.Booking {
	t.Helper()
	start := entities.Today().AddDate(0, 0, 7)
	now := time.Now()
	return &entities.Booking{
		ID:          "booking-1",
		UserID:      "user-1",
		HotelID:     "hotel-1",
		StartDate:   start,
		EndDate:     start.AddDate(0, 0, 2),
		TotalCharge: 40000,
		Status:      entities.BookingStatusConfirmed,
		Rooms: []entities.BookingRoom{
			{ID: "br-1", BookingID: "booking-1", RoomID: "room-101", Charge: 20000},
			{ID: "br-2", BookingID: "booking-1", RoomID: "room-102", Charge: 20000},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

var (
	lockQuery     = regexp.QuoteMeta(`SELECT "id" FROM "rooms"`)
	conflictCheck = regexp.QuoteMeta(`SELECT "br"."room_id", "b"."id" FROM "booking_rooms"`)
)

func TestBookingAdapter_ClaimRooms(t *testing.T) {
	t.Run("locks, re-checks and inserts in one transaction", func(t *testing.T) {
		adapter, mock := setupBookingAdapter(t)
		booking := claimableBooking(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WillReturnRows(
			sqlmock.NewRows([]string{"id"}).AddRow("room-101").AddRow("room-102"))
		mock.ExpectQuery(conflictCheck).WillReturnRows(
			sqlmock.NewRows([]string{"room_id", "id"}))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "bookings"`)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "booking_rooms"`)).WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		err := adapter.ClaimRooms(context.Background(), booking)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back and reports conflicts when a room is taken", func(t *testing.T) {
		adapter, mock := setupBookingAdapter(t)
		booking := claimableBooking(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WillReturnRows(
			sqlmock.NewRows([]string{"id"}).AddRow("room-101").AddRow("room-102"))
		mock.ExpectQuery(conflictCheck).WillReturnRows(
			sqlmock.NewRows([]string{"room_id", "id"}).AddRow("room-101", "booking-9"))
		mock.ExpectRollback()

		err := adapter.ClaimRooms(context.Background(), booking)

		require.Error(t, err)
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrorTypeRoomUnavailable, appErr.Type)
		require.Len(t, appErr.Conflicts, 1)
		assert.Equal(t, "room-101", appErr.Conflicts[0].RoomID)
		assert.Equal(t, "booking-9", appErr.Conflicts[0].BookingID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fails when a claimed room does not exist", func(t *testing.T) {
		adapter, mock := setupBookingAdapter(t)
		booking := claimableBooking(t)

		mock.ExpectBegin()
		// Only one of the two rooms could be locked.
		mock.ExpectQuery(lockQuery).WillReturnRows(
			sqlmock.NewRows([]string{"id"}).AddRow("room-101"))
		mock.ExpectRollback()

		err := adapter.ClaimRooms(context.Background(), booking)

		require.Error(t, err)
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrorTypeNotFound, appErr.Type)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("does not commit when the insert fails", func(t *testing.T) {
		adapter, mock := setupBookingAdapter(t)
		booking := claimableBooking(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WillReturnRows(
			sqlmock.NewRows([]string{"id"}).AddRow("room-101").AddRow("room-102"))
		mock.ExpectQuery(conflictCheck).WillReturnRows(
			sqlmock.NewRows([]string{"room_id", "id"}))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "bookings"`)).WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		err := adapter.ClaimRooms(context.Background(), booking)

		require.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingAdapter_PromoteHold(t *testing.T) {
	heldBooking := func(t *testing.T) *entities.Booking {
		b := claimableBooking(t)
		b.Status = entities.BookingStatusPending
		return b
	}

	t.Run("locks, re-checks and confirms in one transaction", func(t *testing.T) {
		adapter, mock := setupBookingAdapter(t)
		booking := heldBooking(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WillReturnRows(
			sqlmock.NewRows([]string{"id"}).AddRow("room-101").AddRow("room-102"))
		mock.ExpectQuery(conflictCheck).WillReturnRows(
			sqlmock.NewRows([]string{"room_id", "id"}))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "bookings"`)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := adapter.PromoteHold(context.Background(), booking)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when a rival booking took a room", func(t *testing.T) {
		adapter, mock := setupBookingAdapter(t)
		booking := heldBooking(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WillReturnRows(
			sqlmock.NewRows([]string{"id"}).AddRow("room-101").AddRow("room-102"))
		mock.ExpectQuery(conflictCheck).WillReturnRows(
			sqlmock.NewRows([]string{"room_id", "id"}).AddRow("room-101", "booking-7"))
		mock.ExpectRollback()

		err := adapter.PromoteHold(context.Background(), booking)

		require.Error(t, err)
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrorTypeRoomUnavailable, appErr.Type)
		require.Len(t, appErr.Conflicts, 1)
		assert.Equal(t, "booking-7", appErr.Conflicts[0].BookingID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the booking is no longer pending", func(t *testing.T) {
		adapter, mock := setupBookingAdapter(t)
		booking := heldBooking(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WillReturnRows(
			sqlmock.NewRows([]string{"id"}).AddRow("room-101").AddRow("room-102"))
		mock.ExpectQuery(conflictCheck).WillReturnRows(
			sqlmock.NewRows([]string{"room_id", "id"}))
		// Guarded update matched nothing: the hold was cancelled meanwhile.
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "bookings"`)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := adapter.PromoteHold(context.Background(), booking)

		require.Error(t, err)
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrorTypeInvalidTransition, appErr.Type)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingAdapter_ListConflicts(t *testing.T) {
	t.Run("returns nothing for an empty room set", func(t *testing.T) {
		adapter, mock := setupBookingAdapter(t)

		rng, err := entities.NewDateRange(entities.Today().AddDate(0, 0, 7), entities.Today().AddDate(0, 0, 9))
		require.NoError(t, err)

		conflicts, err := adapter.ListConflicts(context.Background(), nil, rng, time.Now())

		require.NoError(t, err)
		assert.Empty(t, conflicts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns blocking booking rooms", func(t *testing.T) {
		adapter, mock := setupBookingAdapter(t)

		rng, err := entities.NewDateRange(entities.Today().AddDate(0, 0, 7), entities.Today().AddDate(0, 0, 9))
		require.NoError(t, err)

		mock.ExpectQuery(conflictCheck).WillReturnRows(
			sqlmock.NewRows([]string{"room_id", "id"}).
				AddRow("room-101", "booking-3").
				AddRow("room-102", "booking-4"))

		conflicts, err := adapter.ListConflicts(context.Background(), []string{"room-101", "room-102"}, rng, time.Now())

		require.NoError(t, err)
		require.Len(t, conflicts, 2)
		assert.Equal(t, "booking-3", conflicts[0].BookingID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingAdapter_UpdateStatus(t *testing.T) {
	t.Run("transitions a booking in an expected status", func(t *testing.T) {
		adapter, mock := setupBookingAdapter(t)

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "bookings"`)).WillReturnResult(sqlmock.NewResult(0, 1))

		err := adapter.UpdateStatus(context.Background(), "booking-1",
			[]entities.BookingStatus{entities.BookingStatusPending},
			entities.BookingStatusConfirmed,
		)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports an invalid transition when the guard matches nothing", func(t *testing.T) {
		adapter, mock := setupBookingAdapter(t)

		now := time.Now()
		start := entities.Today().AddDate(0, 0, 7)

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "bookings"`)).WillReturnResult(sqlmock.NewResult(0, 0))
		// The follow-up read distinguishes a missing booking from a bad state.
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "user_id", "hotel_id"`)).WillReturnRows(
			sqlmock.NewRows([]string{
				"id", "user_id", "hotel_id", "start_date", "end_date",
				"total_charge_cents", "status", "created_at", "updated_at",
			}).AddRow("booking-1", "user-1", "hotel-1", start, start.AddDate(0, 0, 2),
				40000, "cancelled", now, now))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT "br"."id"`)).WillReturnRows(
			sqlmock.NewRows([]string{
				"id", "booking_id", "room_id", "charge_cents",
				"review_id", "rating", "comment", "review_created_at",
			}))

		err := adapter.UpdateStatus(context.Background(), "booking-1",
			[]entities.BookingStatus{entities.BookingStatusPending},
			entities.BookingStatusConfirmed,
		)

		require.Error(t, err)
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrorTypeInvalidTransition, appErr.Type)
		assert.Contains(t, appErr.Message, "cancelled")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports not found for an unknown booking", func(t *testing.T) {
		adapter, mock := setupBookingAdapter(t)

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "bookings"`)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "user_id", "hotel_id"`)).WillReturnError(sql.ErrNoRows)

		err := adapter.UpdateStatus(context.Background(), "booking-missing",
			[]entities.BookingStatus{entities.BookingStatusPending},
			entities.BookingStatusConfirmed,
		)

		require.Error(t, err)
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrorTypeNotFound, appErr.Type)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingAdapter_GetByID(t *testing.T) {
	t.Run("loads the booking with its rooms and reviews", func(t *testing.T) {
		adapter, mock := setupBookingAdapter(t)

		now := time.Now()
		start := entities.Today().AddDate(0, 0, 7)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "user_id", "hotel_id"`)).WillReturnRows(
			sqlmock.NewRows([]string{
				"id", "user_id", "hotel_id", "start_date", "end_date",
				"total_charge_cents", "status", "created_at", "updated_at",
			}).AddRow("booking-1", "user-1", "hotel-1", start, start.AddDate(0, 0, 2),
				40000, "confirmed", now, now))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT "br"."id"`)).WillReturnRows(
			sqlmock.NewRows([]string{
				"id", "booking_id", "room_id", "charge_cents",
				"review_id", "rating", "comment", "review_created_at",
			}).
				AddRow("br-1", "booking-1", "room-101", 20000, "rev-1", 5, "great stay", now).
				AddRow("br-2", "booking-1", "room-102", 20000, nil, nil, nil, nil))

		booking, err := adapter.GetByID(context.Background(), "booking-1")

		require.NoError(t, err)
		assert.Equal(t, entities.BookingStatusConfirmed, booking.Status)
		require.Len(t, booking.Rooms, 2)
		require.NotNil(t, booking.Rooms[0].Review)
		assert.Equal(t, 5, booking.Rooms[0].Review.Rating)
		assert.Nil(t, booking.Rooms[1].Review)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps a missing booking to not found", func(t *testing.T) {
		adapter, mock := setupBookingAdapter(t)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "user_id", "hotel_id"`)).WillReturnError(sql.ErrNoRows)

		_, err := adapter.GetByID(context.Background(), "booking-missing")

		require.Error(t, err)
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrorTypeNotFound, appErr.Type)
	})
}
